package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"visa_interview_backend/internal/config"
	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/repository"
	"visa_interview_backend/internal/util"
	"visa_interview_backend/pkg/database"
	"visa_interview_backend/pkg/logger"
	"visa_interview_backend/pkg/monitoring"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const sessionPresenceTTL = 2 * time.Hour

// InterviewService 活跃会话注册表与生命周期编排。
// 每个会话由自己的 engine 独占，服务本身只做查找与转发
type InterviewService struct {
	mu      sync.RWMutex
	engines map[string]*InterviewEngine

	scoring       *ScoringService
	judge         Judge
	interviewRepo *repository.InterviewRepository
	historyRepo   *repository.ScoreHistoryRepository
	rdb           *redis.Client
	cfg           *config.Config

	// 出站事件的订阅方（转写 hub），按会话注册
	subMu       sync.RWMutex
	subscribers map[string]func(EngineEvent)
}

func NewInterviewService(
	scoring *ScoringService,
	judge Judge,
	interviewRepo *repository.InterviewRepository,
	historyRepo *repository.ScoreHistoryRepository,
	rdb *redis.Client,
	cfg *config.Config,
) *InterviewService {
	return &InterviewService{
		engines:       make(map[string]*InterviewEngine),
		scoring:       scoring,
		judge:         judge,
		interviewRepo: interviewRepo,
		historyRepo:   historyRepo,
		rdb:           rdb,
		cfg:           cfg,
	}
}

// StartSessionRequest 创建会话参数。Persona 为空时按流行度权重随机抽取
type StartSessionRequest struct {
	Mode    model.InterviewMode `json:"mode"`
	Persona model.PersonaType   `json:"persona,omitempty"`
	Seed    *int64              `json:"seed,omitempty"` // 仅调试/测试：固定随机种子
}

// StartSession 创建 preparing 状态的会话并注册 engine
func (s *InterviewService) StartSession(userID uint, req StartSessionRequest) (model.InterviewSession, error) {
	mode := req.Mode
	if mode == "" {
		mode = model.ModePractice
	}

	seed := time.Now().UnixNano()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewSource(seed))

	var persona model.PersonaProfile
	if req.Persona != "" {
		persona = model.GetPersonaProfile(req.Persona)
	} else {
		persona = model.RandomPersona(rng)
	}

	session := &model.InterviewSession{
		ID:        model.GenerateUUID(),
		UserID:    userID,
		Status:    model.SessionPreparing,
		Mode:      mode,
		Persona:   persona,
		CreatedAt: time.Now(),
	}

	maxTurns := s.cfg.Interview.PracticeQuestions
	if mode == model.ModeFull {
		maxTurns = s.cfg.Interview.FullQuestions
	}

	engine := NewInterviewEngine(EngineOptions{
		Session:      session,
		Policy:       NewPersonaPolicy(persona, s.cfg.Interview, rng),
		Scoring:      s.scoring,
		Judge:        s.judge,
		Bank:         NewQuestionBank(rng),
		MaxTurns:     maxTurns,
		JudgeTimeout: s.cfg.Judge.Timeout,
		Notify:       func(ev EngineEvent) { s.dispatchEvent(session.ID, ev) },
		OnComplete:   func(completed *model.InterviewSession) { s.handleCompletion(completed) },
	})

	s.mu.Lock()
	s.engines[session.ID] = engine
	s.mu.Unlock()

	s.markPresence(session.ID, userID)
	monitoring.SessionCounter.WithLabelValues("started").Inc()
	logger.Log.Info("interview session created",
		zap.String("sessionId", session.ID),
		zap.Uint("userId", userID),
		zap.String("persona", string(persona.Type)),
		zap.String("mode", string(mode)))

	return engine.Session(), nil
}

func (s *InterviewService) engineFor(sessionID string, userID uint) (*InterviewEngine, error) {
	s.mu.RLock()
	engine, ok := s.engines[sessionID]
	s.mu.RUnlock()

	if !ok {
		return nil, util.ErrSessionNotFound
	}
	if engine.Session().UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return engine, nil
}

func (s *InterviewService) GetSession(sessionID string, userID uint) (model.InterviewSession, error) {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return model.InterviewSession{}, err
	}
	return engine.Session(), nil
}

func (s *InterviewService) Begin(sessionID string, userID uint) (model.InterviewSession, error) {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return model.InterviewSession{}, err
	}
	if err := engine.Begin(); err != nil {
		return model.InterviewSession{}, err
	}
	return engine.Session(), nil
}

func (s *InterviewService) Pause(sessionID string, userID uint) error {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return err
	}
	return engine.Pause()
}

func (s *InterviewService) Resume(sessionID string, userID uint) error {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return err
	}
	return engine.Resume()
}

func (s *InterviewService) Advance(sessionID string, userID uint) error {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return err
	}
	return engine.Advance()
}

func (s *InterviewService) Complete(sessionID string, userID uint) (model.InterviewSession, error) {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return model.InterviewSession{}, err
	}
	if err := engine.Complete(); err != nil {
		return model.InterviewSession{}, err
	}
	return engine.Session(), nil
}

// HandleTranscript 转发转写更新到对应 engine（来自 websocket hub）
func (s *InterviewService) HandleTranscript(sessionID string, userID uint, text string, confidence *float64) error {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return err
	}
	engine.OnTranscript(text, confidence)
	return nil
}

// HandleBodySample 转发体态采样
func (s *InterviewService) HandleBodySample(sessionID string, userID uint, score float64) error {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return err
	}
	engine.OnBodySample(score)
	return nil
}

// Abandon 客户端断开/登出：撤销计时器并丢弃会话，防止僵尸定稿
func (s *InterviewService) Abandon(sessionID string, userID uint) {
	engine, err := s.engineFor(sessionID, userID)
	if err != nil {
		return
	}
	engine.Abandon()
	s.evict(sessionID)
}

// ListReports 分页查询用户的历史报告
func (s *InterviewService) ListReports(userID uint, page, limit int) ([]model.InterviewReport, int64, error) {
	return s.interviewRepo.FindReportsByUser(userID, page, limit)
}

// GetReport 查询单份报告，只允许本人访问
func (s *InterviewService) GetReport(reportID string, userID uint) (*model.InterviewReport, error) {
	report, err := s.interviewRepo.FindReportByID(reportID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	if report.UserID != userID {
		return nil, util.ErrPermissionDenied
	}
	return report, nil
}

// Subscribe 注册出站事件接收方，返回取消函数
func (s *InterviewService) Subscribe(sessionID string, fn func(EngineEvent)) func() {
	s.subMu.Lock()
	if s.subscribers == nil {
		s.subscribers = make(map[string]func(EngineEvent))
	}
	s.subscribers[sessionID] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subscribers, sessionID)
		s.subMu.Unlock()
	}
}

func (s *InterviewService) dispatchEvent(sessionID string, ev EngineEvent) {
	s.subMu.RLock()
	fn := s.subscribers[sessionID]
	s.subMu.RUnlock()
	if fn != nil {
		fn(ev)
	}
}

// handleCompletion 会话完成：生成报告并持久化。
// 写库失败只记日志，绝不回滚内存中的 completed 状态
func (s *InterviewService) handleCompletion(session *model.InterviewSession) {
	report := BuildReport(session)

	go func() {
		if err := s.interviewRepo.SaveReport(report); err != nil {
			logger.Log.Warn("failed to persist interview report",
				zap.String("sessionId", session.ID),
				zap.Error(err))
			return
		}

		entry := &model.ScoreHistoryEntry{
			UserID:         session.UserID,
			ReportID:       report.ID,
			Mode:           session.Mode,
			OverallScore:   report.OverallScore,
			CategoryScores: report.Categories,
			Completed:      true,
			TakenAt:        time.Now(),
		}
		if err := s.historyRepo.Append(entry); err != nil {
			logger.Log.Warn("failed to append score history entry",
				zap.String("sessionId", session.ID),
				zap.Error(err))
		}
	}()

	// 报告已交给持久层，工作内存中的会话可以丢弃
	s.evict(session.ID)
}

func (s *InterviewService) evict(sessionID string) {
	s.mu.Lock()
	delete(s.engines, sessionID)
	s.mu.Unlock()

	if s.rdb != nil {
		s.rdb.Del(context.Background(), database.SessionPresenceKey(sessionID))
	}
}

func (s *InterviewService) markPresence(sessionID string, userID uint) {
	if s.rdb == nil {
		return
	}
	err := s.rdb.Set(context.Background(),
		database.SessionPresenceKey(sessionID),
		fmt.Sprintf("%d", userID),
		sessionPresenceTTL).Err()
	if err != nil {
		logger.Log.Warn("failed to mark session presence", zap.Error(err))
	}
}

// Shutdown 优雅退出时撤销所有活跃会话的计时器
func (s *InterviewService) Shutdown() {
	s.mu.Lock()
	engines := make([]*InterviewEngine, 0, len(s.engines))
	for _, e := range s.engines {
		engines = append(engines, e)
	}
	s.engines = make(map[string]*InterviewEngine)
	s.mu.Unlock()

	for _, e := range engines {
		e.Abandon()
	}
}

// BuildReport 把完成的会话聚合为持久化报告
func BuildReport(session *model.InterviewSession) *model.InterviewReport {
	report := &model.InterviewReport{
		UserID:  session.UserID,
		Mode:    session.Mode,
		Persona: session.Persona.Type,
		Turns:   session.Turns,
	}
	report.ID = model.GenerateUUID()

	dims := make(model.DimensionScoreSet, len(model.DimensionOrder))
	var overall, duration float64
	scored := 0
	strengthSet := map[string]bool{}
	weaknessSet := map[string]bool{}

	for _, t := range session.Turns {
		if t.Result == nil {
			continue
		}
		scored++
		overall += t.Result.Overall
		for _, d := range model.DimensionOrder {
			dims[d] += t.Result.Dimensions[d]
		}
		for _, st := range t.Result.Strengths {
			strengthSet[st.Dimension] = true
		}
		for _, wk := range t.Result.Weaknesses {
			weaknessSet[wk.Dimension] = true
		}
		if !t.FinalizedAt.IsZero() {
			duration += t.FinalizedAt.Sub(t.StartedAt).Seconds()
		}
	}

	if scored > 0 {
		overall /= float64(scored)
		for _, d := range model.DimensionOrder {
			dims[d] /= float64(scored)
		}
	}

	report.OverallScore = overall
	report.Dimensions = dims
	report.Categories = averageCategories(dims)
	report.Decision = decisionFor(overall)
	report.DurationSec = duration

	for _, d := range model.DimensionOrder {
		if strengthSet[d] {
			report.Strengths = append(report.Strengths, d)
		}
		if weaknessSet[d] {
			report.Weaknesses = append(report.Weaknesses, d)
		}
	}

	report.Summary = buildSummary(report, scored)
	return report
}

func averageCategories(dims model.DimensionScoreSet) model.CategoryScores {
	if len(dims) == 0 {
		return model.CategoryScores{}
	}
	return categoryRollups(dims)
}

func decisionFor(overall float64) model.DecisionBand {
	switch {
	case overall >= 85:
		return model.DecisionStrongPass
	case overall >= 70:
		return model.DecisionLikelyPass
	case overall >= 55:
		return model.DecisionBorderline
	default:
		return model.DecisionNeedPractice
	}
}

func buildSummary(report *model.InterviewReport, scored int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Answered %d questions with an overall score of %.0f/100. ", scored, report.OverallScore)

	switch report.Decision {
	case model.DecisionStrongPass:
		sb.WriteString("Performance at this level would make a strong impression in a real interview.")
	case model.DecisionLikelyPass:
		sb.WriteString("A solid performance with room to polish the weaker areas.")
	case model.DecisionBorderline:
		sb.WriteString("Borderline performance; focus on the flagged weaknesses before the real interview.")
	default:
		sb.WriteString("Substantial practice is needed before attempting the real interview.")
	}

	if len(report.Weaknesses) > 0 {
		fmt.Fprintf(&sb, " Weakest areas: %s.", strings.Join(report.Weaknesses, ", "))
	}
	return sb.String()
}
