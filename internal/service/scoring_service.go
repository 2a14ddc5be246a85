package service

import (
	"time"

	"visa_interview_backend/internal/model"
	"visa_interview_backend/pkg/monitoring"
)

// dimensionWeights 固定权重，总和必须为 1.0（±1e-6），内容组 0.60 / 表达组 0.25 / 体态组 0.15
var dimensionWeights = map[string]float64{
	model.DimClarity:      0.14,
	model.DimSpecificity:  0.13,
	model.DimRelevance:    0.13,
	model.DimDepth:        0.12,
	model.DimConsistency:  0.08,
	model.DimFluency:      0.07,
	model.DimConfidence:   0.06,
	model.DimPace:         0.06,
	model.DimArticulation: 0.06,
	model.DimPosture:      0.05,
	model.DimEyeContact:   0.05,
	model.DimComposure:    0.05,
}

// DimensionWeights 返回权重表的副本
func DimensionWeights() map[string]float64 {
	out := make(map[string]float64, len(dimensionWeights))
	for k, v := range dimensionWeights {
		out[k] = v
	}
	return out
}

// PriorAnswer 会话内先前的回答，供一致性检查使用
type PriorAnswer struct {
	Question   string
	Category   model.QuestionCategory
	Transcript string
}

// ScoringInput 一次定稿回答的全部评分输入。相同输入必须产出相同结果
type ScoringInput struct {
	Question      string
	Transcript    string
	Category      model.QuestionCategory
	DurationSec   float64
	BodyLanguage  *float64 // 外部体态评分 0~100，可缺省
	ASRConfidence *float64 // 语音识别置信度 0~1，可缺省
	Judged        *model.JudgedScores
	PriorAnswers  []PriorAnswer
}

// ScoringService 评分流水线。纯函数集合，不感知会话与计时器
type ScoringService struct{}

func NewScoringService() *ScoringService {
	return &ScoringService{}
}

// Score 将一次定稿回答转换为十二维评分、加权总分、类别均分与评语
func (s *ScoringService) Score(in ScoringInput) *model.ScoringResult {
	start := time.Now()
	defer func() {
		monitoring.ScoringDuration.Observe(time.Since(start).Seconds())
	}()

	stats := analyzeTranscript(in.Transcript, in.DurationSec)

	dims := model.DimensionScoreSet{
		model.DimClarity:     scoreClarity(stats),
		model.DimSpecificity: scoreSpecificity(in.Transcript, stats),
		model.DimRelevance:   scoreRelevance(in.Question, in.Transcript, in.Judged),
		model.DimDepth:       scoreDepth(in.Transcript, stats),
		model.DimConsistency: scoreConsistency(in.Transcript, in.Category, in.PriorAnswers),

		model.DimFluency:      scoreFluency(stats.WPM),
		model.DimConfidence:   scoreConfidence(in.ASRConfidence),
		model.DimPace:         scorePace(stats.WPM),
		model.DimArticulation: scoreArticulation(stats.FillerRate, in.ASRConfidence),

		model.DimPosture:    scoreBodyLanguage(in.BodyLanguage, 0),
		model.DimEyeContact: scoreBodyLanguage(in.BodyLanguage, -3),
		model.DimComposure:  scoreComposure(in.BodyLanguage, stats.FillerRate),
	}

	overall := 0.0
	for dim, w := range dimensionWeights {
		overall += dims[dim] * w
	}
	overall = clampScore(overall)

	provenance := model.ProvenanceHeuristic
	if in.Judged != nil {
		provenance = model.ProvenanceHeuristicJudged
	}

	strengths, weaknesses, improvements := buildFeedback(dims)

	return &model.ScoringResult{
		Overall:      overall,
		Dimensions:   dims,
		Categories:   categoryRollups(dims),
		Strengths:    strengths,
		Weaknesses:   weaknesses,
		Improvements: improvements,
		Provenance:   provenance,
		Quality:      classifyAnswer(dims, stats),
	}
}

// categoryRollups 三大类均分，仅供展示；加权总分直接用单维权重，二者相互独立
func categoryRollups(dims model.DimensionScoreSet) model.CategoryScores {
	avg := func(names []string) float64 {
		sum := 0.0
		for _, n := range names {
			sum += dims[n]
		}
		return sum / float64(len(names))
	}
	return model.CategoryScores{
		Content:   avg(model.ContentDimensions),
		Delivery:  avg(model.DeliveryDimensions),
		NonVerbal: avg(model.NonVerbalDimensions),
	}
}

// classifyAnswer 回答质量分类，供人格追问策略消费
func classifyAnswer(dims model.DimensionScoreSet, stats transcriptStats) model.AnswerQuality {
	if stats.IsEmpty || stats.WordCount < 5 {
		return model.AnswerIncomplete
	}
	if dims[model.DimRelevance] < 40 {
		return model.AnswerOffTopic
	}
	if dims[model.DimSpecificity] < 45 || (stats.HedgeCount > 0 && dims[model.DimSpecificity] < 60) {
		return model.AnswerVague
	}
	return model.AnswerGood
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
