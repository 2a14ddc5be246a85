package service

import (
	"math/rand"
	"testing"

	"visa_interview_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionBankRotatesCategories(t *testing.T) {
	b := NewQuestionBank(rand.New(rand.NewSource(1)))
	asked := map[string]bool{}

	var categories []model.QuestionCategory
	for i := 0; i < 5; i++ {
		q := b.Next(i, 1, asked)
		asked[q.Text] = true
		categories = append(categories, q.Category)
	}

	assert.Equal(t, []model.QuestionCategory{
		model.CategoryStudyPlans,
		model.CategoryUniversityChoice,
		model.CategoryFinancial,
		model.CategoryTiesToHome,
		model.CategoryPostGraduation,
	}, categories)
}

func TestQuestionBankAvoidsRepeats(t *testing.T) {
	b := NewQuestionBank(rand.New(rand.NewSource(2)))
	asked := map[string]bool{}

	seen := map[string]bool{}
	for i := 0; i < len(questionBank); i++ {
		q := b.Next(i, 2, asked)
		require.False(t, seen[q.Text], "question repeated before bank exhausted: %s", q.Text)
		seen[q.Text] = true
		asked[q.Text] = true
	}
}

func TestQuestionBankWrapsWhenExhausted(t *testing.T) {
	b := NewQuestionBank(rand.New(rand.NewSource(3)))

	asked := map[string]bool{}
	for _, q := range questionBank {
		asked[q.Text] = true
	}

	q := b.Next(0, 2, asked)
	assert.NotEmpty(t, q.Text)
}

func TestQuestionBankPrefersClosestDifficulty(t *testing.T) {
	b := NewQuestionBank(rand.New(rand.NewSource(4)))

	// study_plans 有一道难度 3 的题，要求难度 3 时应命中它
	q := b.Next(0, 3, map[string]bool{})
	assert.Equal(t, model.CategoryStudyPlans, q.Category)
	assert.Equal(t, 3, q.Difficulty)
}

func TestFollowUpForCoversAllCategories(t *testing.T) {
	categories := []model.QuestionCategory{
		model.CategoryStudyPlans,
		model.CategoryUniversityChoice,
		model.CategoryFinancial,
		model.CategoryTiesToHome,
		model.CategoryPostGraduation,
	}
	for _, c := range categories {
		assert.NotEmpty(t, FollowUpFor(c))
	}

	// 资金类追问要求具体数字
	assert.Contains(t, FollowUpFor(model.CategoryFinancial), "exact figures")
}
