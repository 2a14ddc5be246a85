package model

import "math/rand"

type PersonaType string

const (
	PersonaProfessional PersonaType = "professional"
	PersonaSkeptical    PersonaType = "skeptical"
	PersonaFriendly     PersonaType = "friendly"
	PersonaStrict       PersonaType = "strict"
)

// PersonaProfile 面签官人格画像，会话创建时选定，之后不可变
type PersonaProfile struct {
	Type              PersonaType `json:"type"`
	DisplayName       string      `json:"displayName"`
	Patience          float64     `json:"patience"`          // 0~1，越高越有耐心
	InterruptionProb  float64     `json:"interruptionProb"`  // 答题超时被打断的概率
	FollowUpFrequency float64     `json:"followUpFrequency"` // 追问概率基线
	MinQuestionDelay  float64     `json:"minQuestionDelay"`  // 两题之间的最小间隔（秒）
	MaxQuestionDelay  float64     `json:"maxQuestionDelay"`
	DifficultyBias    int         `json:"difficultyBias"` // -1 偏简单 / 0 中性 / +1 偏难
	Prevalence        int         `json:"prevalence"`     // 随机抽取时的权重（百分比）
}

var personaProfiles = map[PersonaType]PersonaProfile{
	PersonaProfessional: {
		Type:              PersonaProfessional,
		DisplayName:       "Professional Officer",
		Patience:          0.7,
		InterruptionProb:  0.10,
		FollowUpFrequency: 0.40,
		MinQuestionDelay:  1.0,
		MaxQuestionDelay:  2.5,
		DifficultyBias:    0,
		Prevalence:        40,
	},
	PersonaFriendly: {
		Type:              PersonaFriendly,
		DisplayName:       "Friendly Officer",
		Patience:          0.9,
		InterruptionProb:  0.05,
		FollowUpFrequency: 0.30,
		MinQuestionDelay:  1.5,
		MaxQuestionDelay:  3.0,
		DifficultyBias:    -1,
		Prevalence:        25,
	},
	PersonaSkeptical: {
		Type:              PersonaSkeptical,
		DisplayName:       "Skeptical Officer",
		Patience:          0.5,
		InterruptionProb:  0.25,
		FollowUpFrequency: 0.65,
		MinQuestionDelay:  0.8,
		MaxQuestionDelay:  2.0,
		DifficultyBias:    1,
		Prevalence:        20,
	},
	PersonaStrict: {
		Type:              PersonaStrict,
		DisplayName:       "Strict Officer",
		Patience:          0.3,
		InterruptionProb:  0.35,
		FollowUpFrequency: 0.55,
		MinQuestionDelay:  0.5,
		MaxQuestionDelay:  1.5,
		DifficultyBias:    1,
		Prevalence:        15,
	},
}

// GetPersonaProfile 按类型取画像，未知类型回退到 professional
func GetPersonaProfile(t PersonaType) PersonaProfile {
	if p, ok := personaProfiles[t]; ok {
		return p
	}
	return personaProfiles[PersonaProfessional]
}

// RandomPersona 按 Prevalence 权重抽取人格，rng 由调用方注入以便测试复现
func RandomPersona(rng *rand.Rand) PersonaProfile {
	order := []PersonaType{PersonaProfessional, PersonaFriendly, PersonaSkeptical, PersonaStrict}
	total := 0
	for _, t := range order {
		total += personaProfiles[t].Prevalence
	}

	n := rng.Intn(total)
	for _, t := range order {
		n -= personaProfiles[t].Prevalence
		if n < 0 {
			return personaProfiles[t]
		}
	}
	return personaProfiles[PersonaProfessional]
}
