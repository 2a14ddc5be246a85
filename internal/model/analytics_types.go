package model

import "time"

// TrendDirection 类别趋势分类
type TrendDirection string

const (
	TrendImproving TrendDirection = "improving"
	TrendDeclining TrendDirection = "declining"
	TrendStable    TrendDirection = "stable"
)

// OverviewStats 总览统计
type OverviewStats struct {
	TotalSessions    int     `json:"totalSessions"`
	CompletedCount   int     `json:"completedCount"`
	AverageScore     float64 `json:"averageScore"`
	HighScore        float64 `json:"highScore"`
	LowScore         float64 `json:"lowScore"`
	CompletionRate   float64 `json:"completionRate"`   // completed / attempted
	ImprovementTrend float64 `json:"improvementTrend"` // 末三场均分相对首三场的百分比变化
	ImprovementRate  float64 `json:"improvementRate"`  // trend / 场次数
}

// CategoryPerformance 单类别表现
type CategoryPerformance struct {
	Category     string         `json:"category"`
	AverageScore float64        `json:"averageScore"`
	Trend        TrendDirection `json:"trend"`
	ChangePct    float64        `json:"changePct"`
}

// WeakAreaSeverity 弱项严重级别
type WeakAreaSeverity string

const (
	SeverityCritical WeakAreaSeverity = "critical" // < 50
	SeverityHigh     WeakAreaSeverity = "high"     // < 60
	SeverityMedium   WeakAreaSeverity = "medium"   // < 70
	SeverityLow      WeakAreaSeverity = "low"      // < 75
)

// WeakArea 平均分低于阈值的类别
type WeakArea struct {
	Category             string           `json:"category"`
	AverageScore         float64          `json:"averageScore"`
	Severity             WeakAreaSeverity `json:"severity"`
	ImprovementPotential float64          `json:"improvementPotential"` // 100 - avg
	Issue                string           `json:"issue"`
	Recommendation       string           `json:"recommendation"`
}

// ScorePoint 原始分数序列中的一个点，供前端画图
type ScorePoint struct {
	TakenAt time.Time     `json:"takenAt"`
	Score   float64       `json:"score"`
	Mode    InterviewMode `json:"mode"`
}

// AchievementTier 成就档位
type AchievementTier string

const (
	TierBronze AchievementTier = "bronze"
	TierSilver AchievementTier = "silver"
	TierGold   AchievementTier = "gold"
)

// AchievementState 单个成就的对外状态，进度在未解锁时同样可用
type AchievementState struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Tier        AchievementTier `json:"tier"`
	Unlocked    bool            `json:"unlocked"`
	Progress    float64         `json:"progress"` // 0~100
}

// AnalyticsDashboard 纵向分析的完整产出
type AnalyticsDashboard struct {
	Overview     OverviewStats         `json:"overview"`
	Categories   []CategoryPerformance `json:"categories"`
	WeakAreas    []WeakArea            `json:"weakAreas"`
	ScoreHistory []ScorePoint          `json:"scoreHistory"`
	Achievements []AchievementState    `json:"achievements"`
	NextSteps    []string              `json:"nextSteps"`
}
