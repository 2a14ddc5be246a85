package model

import "time"

// DecisionBand 最终报告的等级判定
type DecisionBand string

const (
	DecisionStrongPass   DecisionBand = "strong_pass"   // >= 85
	DecisionLikelyPass   DecisionBand = "likely_pass"   // >= 70
	DecisionBorderline   DecisionBand = "borderline"    // >= 55
	DecisionNeedPractice DecisionBand = "need_practice" // < 55
)

// InterviewReport 完成会话的持久化报告，写入失败不回滚内存状态
type InterviewReport struct {
	UUIDBase
	UserID       uint              `gorm:"index;type:bigint unsigned" json:"userId"`
	Mode         InterviewMode     `gorm:"size:20" json:"mode"`
	Persona      PersonaType       `gorm:"size:20" json:"persona"`
	Decision     DecisionBand      `gorm:"size:20" json:"decision"`
	OverallScore float64           `json:"overallScore"`
	Dimensions   DimensionScoreSet `gorm:"serializer:json" json:"dimensions"`
	Categories   CategoryScores    `gorm:"serializer:json" json:"categories"`
	Summary      string            `gorm:"type:text" json:"summary"`
	Strengths    []string          `gorm:"serializer:json" json:"strengths"`
	Weaknesses   []string          `gorm:"serializer:json" json:"weaknesses"`
	Turns        []QuestionTurn    `gorm:"serializer:json" json:"turns"`
	RecordingURL string            `gorm:"size:255" json:"recordingUrl,omitempty"`
	DurationSec  float64           `json:"durationSec"`
}

func (InterviewReport) TableName() string {
	return "interview_reports"
}

// ScoreHistoryEntry 每完成一场会话追加一条，只追加、从不修改
type ScoreHistoryEntry struct {
	BaseModel
	UserID         uint           `gorm:"index;type:bigint unsigned" json:"userId"`
	ReportID       string         `gorm:"size:36" json:"reportId"`
	Mode           InterviewMode  `gorm:"size:20" json:"mode"`
	OverallScore   float64        `json:"overallScore"`
	CategoryScores CategoryScores `gorm:"serializer:json" json:"categoryScores"`
	Completed      bool           `gorm:"default:true" json:"completed"`
	TakenAt        time.Time      `json:"takenAt"`
}

func (ScoreHistoryEntry) TableName() string {
	return "score_history_entries"
}
