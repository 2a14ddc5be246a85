package service

import (
	"math"
	"testing"

	"visa_interview_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDimensionWeightsSumToOne(t *testing.T) {
	weights := DimensionWeights()
	require.Len(t, weights, len(model.DimensionOrder))

	sum := 0.0
	for _, w := range weights {
		sum += w
	}
	assert.InDelta(t, 1.0, sum, 1e-6)
}

func TestDimensionWeightsCategorySplit(t *testing.T) {
	weights := DimensionWeights()

	group := func(names []string) float64 {
		sum := 0.0
		for _, n := range names {
			sum += weights[n]
		}
		return sum
	}

	assert.InDelta(t, 0.60, group(model.ContentDimensions), 1e-6)
	assert.InDelta(t, 0.25, group(model.DeliveryDimensions), 1e-6)
	assert.InDelta(t, 0.15, group(model.NonVerbalDimensions), 1e-6)
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewScoringService()
	conf := 0.92
	body := 78.0
	in := ScoringInput{
		Question:      "Who is sponsoring your education?",
		Transcript:    "My father is sponsoring me. He runs a textile business and earns about $60,000 per year.",
		Category:      model.CategoryFinancial,
		DurationSec:   12,
		ASRConfidence: &conf,
		BodyLanguage:  &body,
	}

	first := s.Score(in)
	second := s.Score(in)
	assert.Equal(t, first, second)
}

func TestScoreBoundsAndProvenance(t *testing.T) {
	s := NewScoringService()

	inputs := []ScoringInput{
		{Question: "Why this university?", Transcript: "", DurationSec: 5},
		{Question: "Why this university?", Transcript: "um well I guess maybe", DurationSec: 4},
		{
			Question:    "What is the annual cost of your tuition?",
			Transcript:  "Tuition at Purdue University is $42,000 per year, and living expenses add about $12,000. My father's income covers both since 2021.",
			DurationSec: 20,
		},
	}

	for _, in := range inputs {
		result := s.Score(in)
		assert.GreaterOrEqual(t, result.Overall, 0.0)
		assert.LessOrEqual(t, result.Overall, 100.0)
		assert.Equal(t, model.ProvenanceHeuristic, result.Provenance)
		for _, d := range model.DimensionOrder {
			score := result.Dimensions[d]
			assert.GreaterOrEqual(t, score, 0.0, d)
			assert.LessOrEqual(t, score, 100.0, d)
		}
	}
}

func TestScoreJudgedProvenance(t *testing.T) {
	s := NewScoringService()
	result := s.Score(ScoringInput{
		Question:    "Why this university?",
		Transcript:  "Because its computer science program is ranked in the top ten.",
		DurationSec: 8,
		Judged: &model.JudgedScores{
			Overall:        82,
			CategoryScores: map[string]float64{"relevance": 88},
		},
	})

	assert.Equal(t, model.ProvenanceHeuristicJudged, result.Provenance)
	// 外部评审给出的相关性分直接采信
	assert.InDelta(t, 88, result.Dimensions[model.DimRelevance], 1e-9)
}

func TestSpecificAnswerOutscoresVagueAnswer(t *testing.T) {
	s := NewScoringService()

	vague := s.Score(ScoringInput{
		Question:    "What is the annual cost of your tuition and living expenses?",
		Transcript:  "I will study at a university and maybe my family pays for it somehow.",
		Category:    model.CategoryFinancial,
		DurationSec: 10,
	})
	specific := s.Score(ScoringInput{
		Question:    "What is the annual cost of your tuition and living expenses?",
		Transcript:  "Tuition is $45,000 per year for Computer Science at Example University, and I have budgeted $14,000 for living expenses because the campus is in a small town.",
		Category:    model.CategoryFinancial,
		DurationSec: 14,
	})

	assert.Greater(t, specific.Dimensions[model.DimSpecificity], vague.Dimensions[model.DimSpecificity])
	assert.Greater(t, specific.Overall, vague.Overall)
}

func TestNoResponseScoresZeroContent(t *testing.T) {
	s := NewScoringService()
	result := s.Score(ScoringInput{
		Question:    "What ties do you have to your home country?",
		Transcript:  model.NoResponseSentinel,
		Category:    model.CategoryTiesToHome,
		DurationSec: 18,
	})

	assert.Equal(t, model.AnswerIncomplete, result.Quality)
	assert.Zero(t, result.Dimensions[model.DimClarity])
	assert.Zero(t, result.Dimensions[model.DimRelevance])
	assert.Less(t, result.Overall, 50.0)
}

func TestClassifyAnswer(t *testing.T) {
	s := NewScoringService()

	tests := []struct {
		name       string
		transcript string
		want       model.AnswerQuality
	}{
		{"empty", "", model.AnswerIncomplete},
		{"too short", "yes of course", model.AnswerIncomplete},
		{
			"hedged and vague",
			"I think maybe my family will probably sponsor my education, I guess it should work out somehow.",
			model.AnswerVague,
		},
		{
			"solid",
			"My father sponsors my education. His company income is $80,000 per year, and tuition costs $30,000, so funding is secure because savings cover the rest.",
			model.AnswerGood,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := s.Score(ScoringInput{
				Question:    "Who is sponsoring your education?",
				Transcript:  tt.transcript,
				Category:    model.CategoryFinancial,
				DurationSec: 10,
			})
			assert.Equal(t, tt.want, result.Quality)
		})
	}
}

func TestConsistencyAgainstPriorAnswers(t *testing.T) {
	s := NewScoringService()
	prior := []PriorAnswer{
		{
			Question:   "What is the annual cost of your tuition?",
			Category:   model.CategoryFinancial,
			Transcript: "Tuition is $42,000 per year.",
		},
	}

	consistent := s.Score(ScoringInput{
		Question:     "How will your family afford this?",
		Transcript:   "My father covers the $42,000 from his salary.",
		Category:     model.CategoryFinancial,
		DurationSec:  8,
		PriorAnswers: prior,
	})
	contradictory := s.Score(ScoringInput{
		Question:     "How will your family afford this?",
		Transcript:   "Tuition is only $15,000 so it is easy.",
		Category:     model.CategoryFinancial,
		DurationSec:  8,
		PriorAnswers: prior,
	})

	assert.Greater(t,
		consistent.Dimensions[model.DimConsistency],
		contradictory.Dimensions[model.DimConsistency])
}

func TestBuildFeedbackOrdering(t *testing.T) {
	dims := model.DimensionScoreSet{
		model.DimClarity:      90,
		model.DimSpecificity:  88,
		model.DimRelevance:    82,
		model.DimDepth:        76,
		model.DimConsistency:  85,
		model.DimFluency:      65,
		model.DimConfidence:   40,
		model.DimPace:         55,
		model.DimArticulation: 72,
		model.DimPosture:      71,
		model.DimEyeContact:   74,
		model.DimComposure:    73,
	}

	strengths, weaknesses, improvements := buildFeedback(dims)

	// 强项：>=75 的前三名，降序
	require.Len(t, strengths, 3)
	assert.Equal(t, model.DimClarity, strengths[0].Dimension)
	assert.Equal(t, model.DimSpecificity, strengths[1].Dimension)
	assert.Equal(t, model.DimConsistency, strengths[2].Dimension)

	// 弱项：<70 的后三名，最弱在前
	require.Len(t, weaknesses, 3)
	assert.Equal(t, model.DimConfidence, weaknesses[0].Dimension)
	assert.Equal(t, model.DimPace, weaknesses[1].Dimension)
	assert.Equal(t, model.DimFluency, weaknesses[2].Dimension)

	require.Len(t, improvements, 3)
	assert.Equal(t, DimensionFeedbackText(model.DimConfidence, 40), improvements[0])
}

func TestBuildFeedbackNoWeaknesses(t *testing.T) {
	dims := model.DimensionScoreSet{}
	for _, d := range model.DimensionOrder {
		dims[d] = 80
	}

	strengths, weaknesses, improvements := buildFeedback(dims)
	assert.Len(t, strengths, 3)
	assert.Empty(t, weaknesses)
	assert.Empty(t, improvements)
}

func TestScoreBandBoundaries(t *testing.T) {
	assert.Equal(t, BandExcellent, scoreBand(85))
	assert.Equal(t, BandGood, scoreBand(84.9))
	assert.Equal(t, BandGood, scoreBand(70))
	assert.Equal(t, BandNeedsImprovement, scoreBand(69.9))
	assert.Equal(t, BandNeedsImprovement, scoreBand(50))
	assert.Equal(t, BandPoor, scoreBand(49.9))
}

func TestCategoryRollups(t *testing.T) {
	dims := model.DimensionScoreSet{}
	for _, d := range model.ContentDimensions {
		dims[d] = 80
	}
	for _, d := range model.DeliveryDimensions {
		dims[d] = 60
	}
	for _, d := range model.NonVerbalDimensions {
		dims[d] = 40
	}

	cats := categoryRollups(dims)
	assert.True(t, math.Abs(cats.Content-80) < 1e-9)
	assert.True(t, math.Abs(cats.Delivery-60) < 1e-9)
	assert.True(t, math.Abs(cats.NonVerbal-40) < 1e-9)
}
