package service

import (
	"context"
	"sync"
	"time"

	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/util"
	"visa_interview_backend/pkg/logger"
	"visa_interview_backend/pkg/monitoring"

	"go.uber.org/zap"
)

// 定稿原因
const (
	CauseHardTimeout    = "hard_timeout"
	CauseSilenceTimeout = "silence_timeout"
	CauseManual         = "manual"
)

type timerKind int

const (
	timerHard timerKind = iota
	timerSilence
)

// Judge 出题/评审协作方。实现可失败、可超时，引擎据此降级
type Judge interface {
	Evaluate(ctx context.Context, question, answer string, prior []PriorAnswer) (*model.JudgedScores, error)
	FollowUpQuestion(ctx context.Context, question, answer string, category model.QuestionCategory) (string, error)
}

// EngineEvent 推送给转写客户端的出站事件
type EngineEvent struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// InterviewEngine 单个会话的回合状态机。
// 互斥锁串行化全部事件（转写更新、计时器触发、手动推进），
// 到达顺序即处理顺序；每只计时器携带布防时的 epoch，
// 撤防/重置后迟到的回调因 epoch 失配变成空操作
type InterviewEngine struct {
	mu sync.Mutex

	session *model.InterviewSession
	policy  *PersonaPolicy
	scoring *ScoringService
	judge   Judge // 可为 nil（纯启发式模式）
	bank    *QuestionBank

	maxTurns     int
	judgeTimeout time.Duration

	hardEpoch    int
	silenceEpoch int
	hardTimer    *time.Timer
	silenceTimer *time.Timer
	hadUpdate    bool

	notify     func(EngineEvent)             // 出站事件，可为 nil
	onComplete func(*model.InterviewSession) // 会话完成回调（持久化由上层负责）
}

type EngineOptions struct {
	Session      *model.InterviewSession
	Policy       *PersonaPolicy
	Scoring      *ScoringService
	Judge        Judge
	Bank         *QuestionBank
	MaxTurns     int
	JudgeTimeout time.Duration
	Notify       func(EngineEvent)
	OnComplete   func(*model.InterviewSession)
}

func NewInterviewEngine(opts EngineOptions) *InterviewEngine {
	e := &InterviewEngine{
		session:      opts.Session,
		policy:       opts.Policy,
		scoring:      opts.Scoring,
		judge:        opts.Judge,
		bank:         opts.Bank,
		maxTurns:     opts.MaxTurns,
		judgeTimeout: opts.JudgeTimeout,
		notify:       opts.Notify,
		onComplete:   opts.OnComplete,
	}
	if e.judgeTimeout <= 0 {
		e.judgeTimeout = 10 * time.Second
	}
	return e
}

// Session 返回当前会话的快照
func (e *InterviewEngine) Session() model.InterviewSession {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := *e.session
	snapshot.Turns = make([]model.QuestionTurn, len(e.session.Turns))
	copy(snapshot.Turns, e.session.Turns)
	return snapshot
}

// Begin 开始面签：preparing → active，提出第一题并布防计时器
func (e *InterviewEngine) Begin() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != model.SessionPreparing {
		return util.ErrInvalidSessionState
	}

	e.session.Status = model.SessionActive
	e.askNextQuestion(false, "")
	return nil
}

// Pause 暂停：撤掉两个计时器但不定稿当前回合
func (e *InterviewEngine) Pause() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != model.SessionActive {
		return util.ErrInvalidSessionState
	}

	e.session.Status = model.SessionPaused
	e.cancelTimers()
	e.emit(EngineEvent{Type: "session_paused"})
	return nil
}

// Resume 恢复：重新布防全新的计时器，而不是接着旧的倒计时
func (e *InterviewEngine) Resume() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != model.SessionPaused {
		return util.ErrInvalidSessionState
	}

	e.session.Status = model.SessionActive
	turn := e.session.CurrentTurn()
	if turn != nil && !turn.Finalized {
		// 暂停前已有转写的回合，恢复时静默倒计时也要重新开始计算，
		// 否则已开口又沉默的候选人要等满硬上限
		spoke := e.hadUpdate
		e.armTimers()
		if spoke {
			e.hadUpdate = true
			e.armSilenceTimer()
		}
	}
	e.emit(EngineEvent{Type: "session_resumed"})
	return nil
}

// Advance 手动推进：立即定稿当前回合。若回合已在定稿中则为静默空操作
func (e *InterviewEngine) Advance() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != model.SessionActive {
		return util.ErrInvalidSessionState
	}
	turn := e.session.CurrentTurn()
	if turn == nil {
		return util.ErrNoActiveTurn
	}

	e.finalizeCurrentTurn(CauseManual)
	return nil
}

// Complete 提前结束：定稿进行中的回合后进入 completed
func (e *InterviewEngine) Complete() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == model.SessionCompleted {
		return util.ErrSessionCompleted
	}

	if turn := e.session.CurrentTurn(); turn != nil && !turn.Finalized && e.session.Status == model.SessionActive {
		e.scoreTurn(turn, CauseManual)
	}
	e.completeSession()
	return nil
}

// Abandon 放弃会话：撤销所有计时器，避免会话对象丢弃后出现僵尸定稿
func (e *InterviewEngine) Abandon() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status == model.SessionCompleted {
		return
	}
	e.cancelTimers()
	e.session.Status = model.SessionCompleted
	monitoring.SessionCounter.WithLabelValues("abandoned").Inc()
}

// OnTranscript 转写更新：整段替换而非增量，后到覆盖先到。
// 只重置静默计时器，从不触碰硬超时
func (e *InterviewEngine) OnTranscript(text string, confidence *float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.session.Status != model.SessionActive {
		return
	}
	turn := e.session.CurrentTurn()
	if turn == nil || turn.Finalized {
		return
	}

	turn.Transcript = text
	if confidence != nil {
		turn.ASRConfidence = confidence
	}

	// 静默计时在第一次更新后才开始计算，之后每次更新重置
	e.hadUpdate = true
	e.armSilenceTimer()

	elapsed := time.Since(turn.StartedAt)
	if e.policy.ShouldInterrupt(elapsed) {
		e.emit(EngineEvent{Type: "interruption", Payload: "Thank you, that's enough on this point."})
		e.finalizeCurrentTurn(CauseManual)
	}
}

// OnBodySample 附加外部体态评分到当前回合
func (e *InterviewEngine) OnBodySample(score float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	turn := e.session.CurrentTurn()
	if turn != nil && !turn.Finalized {
		turn.BodyLanguage = &score
	}
}

// onTimerFired 计时器回调入口。epoch 不匹配说明该计时器已被撤防或重置
func (e *InterviewEngine) onTimerFired(kind timerKind, epoch int) {
	e.mu.Lock()
	defer e.mu.Unlock()

	current := e.hardEpoch
	if kind == timerSilence {
		current = e.silenceEpoch
	}
	if epoch != current || e.session.Status != model.SessionActive {
		return
	}

	cause := CauseHardTimeout
	if kind == timerSilence {
		cause = CauseSilenceTimeout
	}
	e.finalizeCurrentTurn(cause)
}

// armTimers 布防新回合：先撤旧计时器，硬超时无条件布防，
// 静默计时等第一次转写更新到达后再布防
func (e *InterviewEngine) armTimers() {
	e.cancelTimers()
	e.hadUpdate = false

	e.hardEpoch++
	epoch := e.hardEpoch
	e.hardTimer = time.AfterFunc(e.policy.HardTimeout(), func() {
		e.onTimerFired(timerHard, epoch)
	})
}

// armSilenceTimer 重置静默计时。epoch 自增使仍在途的旧回调失效
func (e *InterviewEngine) armSilenceTimer() {
	if e.silenceTimer != nil {
		e.silenceTimer.Stop()
	}
	e.silenceEpoch++
	epoch := e.silenceEpoch
	e.silenceTimer = time.AfterFunc(e.policy.SilenceTimeout(), func() {
		e.onTimerFired(timerSilence, epoch)
	})
}

func (e *InterviewEngine) cancelTimers() {
	e.hardEpoch++
	e.silenceEpoch++
	if e.hardTimer != nil {
		e.hardTimer.Stop()
		e.hardTimer = nil
	}
	if e.silenceTimer != nil {
		e.silenceTimer.Stop()
		e.silenceTimer = nil
	}
}

// finalizeCurrentTurn 单飞守卫下的回合定稿：
// 后到的触发（另一只计时器或手动推进）是静默空操作，绝不二次评分
func (e *InterviewEngine) finalizeCurrentTurn(cause string) {
	turn := e.session.CurrentTurn()
	if turn == nil || turn.Finalized {
		return
	}

	e.scoreTurn(turn, cause)

	if len(e.session.Turns) >= e.maxTurns {
		e.completeSession()
		return
	}

	result := turn.Result
	if e.policy.ShouldFollowUp(result.Quality) {
		e.askNextQuestion(true, e.resolveFollowUp(turn))
		return
	}
	e.askNextQuestion(false, "")
}

// scoreTurn 定稿并评分一个回合。评审协作方失败时降级为纯启发式
func (e *InterviewEngine) scoreTurn(turn *model.QuestionTurn, cause string) {
	turn.Finalized = true
	turn.FinalizeCause = cause
	turn.FinalizedAt = time.Now()
	e.cancelTimers()

	transcript := turn.Transcript
	if transcript == "" {
		transcript = model.NoResponseSentinel
		turn.Transcript = transcript
	}

	var judged *model.JudgedScores
	if e.judge != nil && transcript != model.NoResponseSentinel {
		ctx, cancel := context.WithTimeout(context.Background(), e.judgeTimeout)
		result, err := e.judge.Evaluate(ctx, turn.Question, transcript, e.priorAnswers(turn.Index))
		cancel()
		if err != nil {
			monitoring.JudgeFallbackCounter.Inc()
			logger.Log.Warn("judge evaluation failed, falling back to heuristics",
				zap.String("sessionId", e.session.ID),
				zap.Int("turn", turn.Index),
				zap.Error(err))
		} else {
			judged = result
		}
	}

	turn.Result = e.scoring.Score(ScoringInput{
		Question:      turn.Question,
		Transcript:    transcript,
		Category:      turn.Category,
		DurationSec:   turn.FinalizedAt.Sub(turn.StartedAt).Seconds(),
		BodyLanguage:  turn.BodyLanguage,
		ASRConfidence: turn.ASRConfidence,
		Judged:        judged,
		PriorAnswers:  e.priorAnswers(turn.Index),
	})

	monitoring.TurnFinalizedCounter.WithLabelValues(cause).Inc()
	e.emit(EngineEvent{Type: "turn_finalized", Payload: *turn})
}

func (e *InterviewEngine) priorAnswers(beforeIndex int) []PriorAnswer {
	var prior []PriorAnswer
	for _, t := range e.session.Turns {
		if t.Index >= beforeIndex || !t.Finalized {
			continue
		}
		prior = append(prior, PriorAnswer{
			Question:   t.Question,
			Category:   t.Category,
			Transcript: t.Transcript,
		})
	}
	return prior
}

// resolveFollowUp 优先请评审服务生成追问，失败退回静态话术
func (e *InterviewEngine) resolveFollowUp(turn *model.QuestionTurn) string {
	if e.judge != nil {
		ctx, cancel := context.WithTimeout(context.Background(), e.judgeTimeout)
		followUp, err := e.judge.FollowUpQuestion(ctx, turn.Question, turn.Transcript, turn.Category)
		cancel()
		if err == nil {
			return followUp
		}
		logger.Log.Warn("follow-up generation failed, using static fallback",
			zap.String("sessionId", e.session.ID),
			zap.Error(err))
	}
	return FollowUpFor(turn.Category)
}

// askNextQuestion 追加新回合并布防计时器
func (e *InterviewEngine) askNextQuestion(isFollowUp bool, followUpText string) {
	difficulty := 1
	var recentScores []float64
	asked := make(map[string]bool, len(e.session.Turns))

	for _, t := range e.session.Turns {
		asked[t.Question] = true
		if t.Result != nil {
			recentScores = append(recentScores, t.Result.Overall)
		}
		difficulty = t.Difficulty
	}
	if n := len(recentScores); n > 3 {
		recentScores = recentScores[n-3:]
	}

	turn := model.QuestionTurn{
		Index:      len(e.session.Turns),
		IsFollowUp: isFollowUp,
		StartedAt:  time.Now(),
	}

	if isFollowUp {
		last := e.session.CurrentTurn()
		turn.Question = followUpText
		turn.Category = last.Category
		turn.Difficulty = last.Difficulty
	} else {
		q := e.bank.Next(len(e.session.Turns), e.policy.NextDifficulty(difficulty, recentScores), asked)
		turn.Question = q.Text
		turn.Category = q.Category
		turn.Difficulty = q.Difficulty
	}

	e.session.Turns = append(e.session.Turns, turn)
	e.armTimers()

	e.emit(EngineEvent{Type: "question", Payload: map[string]interface{}{
		"index":      turn.Index,
		"question":   turn.Question,
		"category":   turn.Category,
		"isFollowUp": turn.IsFollowUp,
		"delay":      e.policy.QuestionDelay().Seconds(),
	}})
}

// completeSession 终态迁移。持久化由 onComplete 回调负责（fire-and-forget）
func (e *InterviewEngine) completeSession() {
	e.cancelTimers()
	e.session.Status = model.SessionCompleted
	monitoring.SessionCounter.WithLabelValues("completed").Inc()
	e.emit(EngineEvent{Type: "session_completed"})

	if e.onComplete != nil {
		e.onComplete(e.session)
	}
}

func (e *InterviewEngine) emit(ev EngineEvent) {
	if e.notify != nil {
		e.notify(ev)
	}
}
