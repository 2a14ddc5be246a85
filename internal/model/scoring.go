package model

// ScoreProvenance 标记评分来源：纯启发式，或启发式叠加外部评审结果
type ScoreProvenance string

const (
	ProvenanceHeuristic       ScoreProvenance = "heuristic"
	ProvenanceHeuristicJudged ScoreProvenance = "heuristic+judged"
)

// AnswerQuality 回答质量分类，驱动人格追问策略
type AnswerQuality string

const (
	AnswerGood       AnswerQuality = "good"
	AnswerVague      AnswerQuality = "vague"
	AnswerOffTopic   AnswerQuality = "off_topic"
	AnswerIncomplete AnswerQuality = "incomplete"
)

// 十二个评分维度
const (
	DimClarity      = "clarity"
	DimSpecificity  = "specificity"
	DimRelevance    = "relevance"
	DimDepth        = "depth"
	DimConsistency  = "consistency"
	DimFluency      = "fluency"
	DimConfidence   = "confidence"
	DimPace         = "pace"
	DimArticulation = "articulation"
	DimPosture      = "posture"
	DimEyeContact   = "eyeContact"
	DimComposure    = "composure"
)

// DimensionOrder 维度的固定输出顺序（content → delivery → non-verbal）
var DimensionOrder = []string{
	DimClarity, DimSpecificity, DimRelevance, DimDepth, DimConsistency,
	DimFluency, DimConfidence, DimPace, DimArticulation,
	DimPosture, DimEyeContact, DimComposure,
}

// ContentDimensions 等分组用于类别均分展示
var (
	ContentDimensions   = []string{DimClarity, DimSpecificity, DimRelevance, DimDepth, DimConsistency}
	DeliveryDimensions  = []string{DimFluency, DimConfidence, DimPace, DimArticulation}
	NonVerbalDimensions = []string{DimPosture, DimEyeContact, DimComposure}
)

// DimensionScoreSet 单次回答的十二维得分，每项 0~100
type DimensionScoreSet map[string]float64

// CategoryScores 三大类均分，仅用于展示，与加权总分相互独立
type CategoryScores struct {
	Content   float64 `json:"content"`
	Delivery  float64 `json:"delivery"`
	NonVerbal float64 `json:"nonVerbal"`
}

// DimensionFeedback 单维度的评语
type DimensionFeedback struct {
	Dimension string  `json:"dimension"`
	Score     float64 `json:"score"`
	Band      string  `json:"band"`
	Comment   string  `json:"comment"`
}

// ScoringResult 一次回答定稿后的完整评分产出
type ScoringResult struct {
	Overall      float64             `json:"overall"`
	Dimensions   DimensionScoreSet   `json:"dimensions"`
	Categories   CategoryScores      `json:"categories"`
	Strengths    []DimensionFeedback `json:"strengths"`
	Weaknesses   []DimensionFeedback `json:"weaknesses"`
	Improvements []string            `json:"improvements"`
	Provenance   ScoreProvenance     `json:"provenance"`
	Quality      AnswerQuality       `json:"quality"`
}

// JudgedScores 外部评审服务（question/judging collaborator）返回的结果，可缺省
type JudgedScores struct {
	Overall         float64            `json:"overall"`
	CategoryScores  map[string]float64 `json:"categoryScores"`
	Summary         string             `json:"summary"`
	Recommendations []string           `json:"recommendations"`
}
