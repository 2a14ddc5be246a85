package service

import (
	"math"
	"math/rand"
	"time"

	"visa_interview_backend/internal/config"
	"visa_interview_backend/internal/model"
)

// PersonaPolicy 人格驱动的节奏/追问/打断决策。
// 随机源由调用方注入，固定种子下所有决策可复现
type PersonaPolicy struct {
	profile model.PersonaProfile
	timing  config.InterviewConfig
	rng     *rand.Rand
}

func NewPersonaPolicy(profile model.PersonaProfile, timing config.InterviewConfig, rng *rand.Rand) *PersonaPolicy {
	return &PersonaPolicy{profile: profile, timing: timing, rng: rng}
}

func (p *PersonaPolicy) Profile() model.PersonaProfile {
	return p.profile
}

// HardTimeout 回答时长硬上限，按耐心值缩放，基线约 15s
func (p *PersonaPolicy) HardTimeout() time.Duration {
	seconds := p.timing.HardTimeoutSeconds * (0.5 + p.profile.Patience)
	if seconds < 5 {
		seconds = 5
	}
	// 四舍五入到纳秒，缩放系数不会把 18s 变成 17.999999999s
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// SilenceTimeout 静默判停阈值，按耐心值缩放，基线约 3s
func (p *PersonaPolicy) SilenceTimeout() time.Duration {
	seconds := p.timing.SilenceTimeoutSeconds * (0.5 + p.profile.Patience)
	if seconds < 1 {
		seconds = 1
	}
	return time.Duration(math.Round(seconds * float64(time.Second)))
}

// QuestionDelay 两题之间的停顿
func (p *PersonaPolicy) QuestionDelay() time.Duration {
	span := p.profile.MaxQuestionDelay - p.profile.MinQuestionDelay
	seconds := p.profile.MinQuestionDelay + p.rng.Float64()*span
	return time.Duration(seconds * float64(time.Second))
}

// ShouldFollowUp 是否在推进前就同一话题追问。
// 模糊/不完整的回答提高追问概率，好的回答降低
func (p *PersonaPolicy) ShouldFollowUp(quality model.AnswerQuality) bool {
	prob := p.profile.FollowUpFrequency
	switch quality {
	case model.AnswerGood:
		prob *= 0.4
	case model.AnswerVague:
		prob *= 1.5
	case model.AnswerIncomplete:
		prob *= 1.3
	case model.AnswerOffTopic:
		prob *= 1.2
	}
	if prob > 0.95 {
		prob = 0.95
	}
	return p.rng.Float64() < prob
}

// ShouldInterrupt 回答超过硬上限约七成时长后，是否插入打断提示
func (p *PersonaPolicy) ShouldInterrupt(elapsed time.Duration) bool {
	if elapsed < time.Duration(float64(p.HardTimeout())*0.7) {
		return false
	}
	return p.rng.Float64() < p.profile.InterruptionProb
}

// NextDifficulty 下一题难度：人格偏置叠加近期表现，范围 1~3
func (p *PersonaPolicy) NextDifficulty(current int, recentScores []float64) int {
	next := current + p.profile.DifficultyBias

	if len(recentScores) > 0 {
		sum := 0.0
		for _, s := range recentScores {
			sum += s
		}
		avg := sum / float64(len(recentScores))
		if avg >= 80 {
			next++
		} else if avg < 50 {
			next--
		}
	}

	if next < 1 {
		next = 1
	}
	if next > 3 {
		next = 3
	}
	return next
}
