package model

import "time"

type SessionStatus string

const (
	SessionPreparing SessionStatus = "preparing"
	SessionActive    SessionStatus = "active"
	SessionPaused    SessionStatus = "paused"
	SessionCompleted SessionStatus = "completed"
)

type InterviewMode string

const (
	ModePractice InterviewMode = "practice" // 少量题目的练习模式
	ModeFull     InterviewMode = "full"     // 完整模拟面签
)

// QuestionCategory 题目分类，与弱项检测共用
type QuestionCategory string

const (
	CategoryStudyPlans       QuestionCategory = "study_plans"
	CategoryUniversityChoice QuestionCategory = "university_choice"
	CategoryFinancial        QuestionCategory = "financial"
	CategoryTiesToHome       QuestionCategory = "ties_to_home"
	CategoryPostGraduation   QuestionCategory = "post_graduation"
)

// NoResponseSentinel 定稿时转写缓冲为空的占位文本
const NoResponseSentinel = "[No response]"

// QuestionTurn 一问一答。finalized 只允许翻转一次，翻转后不再重评
type QuestionTurn struct {
	Index         int              `json:"index"`
	Question      string           `json:"question"`
	Category      QuestionCategory `json:"category"`
	Difficulty    int              `json:"difficulty"` // 1~3
	IsFollowUp    bool             `json:"isFollowUp"`
	Transcript    string           `json:"transcript"`
	Finalized     bool             `json:"finalized"`
	FinalizeCause string           `json:"finalizeCause,omitempty"` // hard_timeout / silence_timeout / manual
	StartedAt     time.Time        `json:"startedAt"`
	FinalizedAt   time.Time        `json:"finalizedAt,omitempty"`
	BodyLanguage  *float64         `json:"bodyLanguage,omitempty"`  // 外部体态评分 0~100
	ASRConfidence *float64         `json:"asrConfidence,omitempty"` // 语音识别置信度 0~1
	Result        *ScoringResult   `json:"result,omitempty"`
}

// InterviewSession 内存中的面签会话，由对应的 engine 独占持有，
// 完成报告交给持久层后即从工作内存中丢弃
type InterviewSession struct {
	ID        string         `json:"id"`
	UserID    uint           `json:"userId"`
	Status    SessionStatus  `json:"status"`
	Mode      InterviewMode  `json:"mode"`
	Persona   PersonaProfile `json:"persona"`
	Turns     []QuestionTurn `json:"turns"`
	CreatedAt time.Time      `json:"createdAt"`
}

// CurrentTurn 返回最后一轮；没有任何轮次时返回 nil
func (s *InterviewSession) CurrentTurn() *QuestionTurn {
	if len(s.Turns) == 0 {
		return nil
	}
	return &s.Turns[len(s.Turns)-1]
}
