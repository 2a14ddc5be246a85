package service

import (
	"math/rand"
	"testing"
	"time"

	"visa_interview_backend/internal/config"
	"visa_interview_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func defaultTiming() config.InterviewConfig {
	return config.InterviewConfig{
		HardTimeoutSeconds:    15,
		SilenceTimeoutSeconds: 3,
		PracticeQuestions:     5,
		FullQuestions:         10,
	}
}

func policyFor(t model.PersonaType, seed int64) *PersonaPolicy {
	return NewPersonaPolicy(model.GetPersonaProfile(t), defaultTiming(), rand.New(rand.NewSource(seed)))
}

func TestTimeoutScalesWithPatience(t *testing.T) {
	tests := []struct {
		persona     model.PersonaType
		wantHard    time.Duration
		wantSilence time.Duration
	}{
		// 基线 15s/3s × (0.5 + patience)
		{model.PersonaProfessional, 18 * time.Second, 3600 * time.Millisecond},
		{model.PersonaFriendly, 21 * time.Second, 4200 * time.Millisecond},
		{model.PersonaSkeptical, 15 * time.Second, 3 * time.Second},
		{model.PersonaStrict, 12 * time.Second, 2400 * time.Millisecond},
	}

	for _, tt := range tests {
		t.Run(string(tt.persona), func(t *testing.T) {
			p := policyFor(tt.persona, 1)
			assert.Equal(t, tt.wantHard, p.HardTimeout())
			assert.Equal(t, tt.wantSilence, p.SilenceTimeout())
		})
	}
}

func TestTimeoutFloors(t *testing.T) {
	timing := config.InterviewConfig{HardTimeoutSeconds: 1, SilenceTimeoutSeconds: 0.5}
	p := NewPersonaPolicy(model.GetPersonaProfile(model.PersonaStrict), timing, rand.New(rand.NewSource(1)))

	assert.Equal(t, 5*time.Second, p.HardTimeout())
	assert.Equal(t, 1*time.Second, p.SilenceTimeout())
}

func TestQuestionDelayWithinPersonaRange(t *testing.T) {
	p := policyFor(model.PersonaSkeptical, 42)
	profile := p.Profile()

	for i := 0; i < 200; i++ {
		d := p.QuestionDelay().Seconds()
		assert.GreaterOrEqual(t, d, profile.MinQuestionDelay)
		assert.LessOrEqual(t, d, profile.MaxQuestionDelay)
	}
}

func TestSeededDecisionsAreReproducible(t *testing.T) {
	a := policyFor(model.PersonaStrict, 7)
	b := policyFor(model.PersonaStrict, 7)

	for i := 0; i < 50; i++ {
		assert.Equal(t, a.QuestionDelay(), b.QuestionDelay())
		assert.Equal(t, a.ShouldFollowUp(model.AnswerVague), b.ShouldFollowUp(model.AnswerVague))
		assert.Equal(t, a.ShouldInterrupt(20*time.Second), b.ShouldInterrupt(20*time.Second))
	}
}

func TestShouldInterruptNeverFiresEarly(t *testing.T) {
	p := policyFor(model.PersonaStrict, 3)
	// 硬上限 12s，七成为 8.4s，之前绝无打断
	for i := 0; i < 100; i++ {
		assert.False(t, p.ShouldInterrupt(8*time.Second))
	}
}

func TestFollowUpQualityAdjustsProbability(t *testing.T) {
	trials := 5000
	countFor := func(quality model.AnswerQuality) int {
		p := policyFor(model.PersonaProfessional, 99)
		n := 0
		for i := 0; i < trials; i++ {
			if p.ShouldFollowUp(quality) {
				n++
			}
		}
		return n
	}

	good := countFor(model.AnswerGood)     // 0.40 × 0.4 = 0.16
	vague := countFor(model.AnswerVague)   // 0.40 × 1.5 = 0.60
	assert.Greater(t, vague, good)
	assert.InDelta(t, 0.16*float64(trials), float64(good), 0.05*float64(trials))
	assert.InDelta(t, 0.60*float64(trials), float64(vague), 0.05*float64(trials))
}

func TestNextDifficulty(t *testing.T) {
	professional := policyFor(model.PersonaProfessional, 1)
	strict := policyFor(model.PersonaStrict, 1)
	friendly := policyFor(model.PersonaFriendly, 1)

	// 中性人格，高分加难，低分减难
	assert.Equal(t, 2, professional.NextDifficulty(1, []float64{85, 90}))
	assert.Equal(t, 1, professional.NextDifficulty(2, []float64{30, 40}))
	assert.Equal(t, 2, professional.NextDifficulty(2, []float64{65}))

	// 偏置叠加后收敛到 [1, 3]
	assert.Equal(t, 3, strict.NextDifficulty(3, []float64{95}))
	assert.Equal(t, 1, friendly.NextDifficulty(1, nil))
}

func TestRandomPersonaIsSeededAndWeighted(t *testing.T) {
	first := model.RandomPersona(rand.New(rand.NewSource(11)))
	second := model.RandomPersona(rand.New(rand.NewSource(11)))
	require.Equal(t, first.Type, second.Type)

	counts := map[model.PersonaType]int{}
	rng := rand.New(rand.NewSource(5))
	trials := 10000
	for i := 0; i < trials; i++ {
		counts[model.RandomPersona(rng).Type]++
	}

	// 流行度 40/25/20/15，允许抽样误差
	assert.InDelta(t, 0.40*float64(trials), float64(counts[model.PersonaProfessional]), 0.05*float64(trials))
	assert.InDelta(t, 0.25*float64(trials), float64(counts[model.PersonaFriendly]), 0.05*float64(trials))
	assert.InDelta(t, 0.20*float64(trials), float64(counts[model.PersonaSkeptical]), 0.05*float64(trials))
	assert.InDelta(t, 0.15*float64(trials), float64(counts[model.PersonaStrict]), 0.05*float64(trials))
}
