package service

import (
	"math/rand"

	"visa_interview_backend/internal/model"
)

// BankQuestion 静态题库条目，评审服务不可用时的回退出题来源
type BankQuestion struct {
	Text       string
	Category   model.QuestionCategory
	Difficulty int // 1~3
}

var questionBank = []BankQuestion{
	// study_plans
	{"Why do you want to study in the United States?", model.CategoryStudyPlans, 1},
	{"What will you study, and why did you choose this major?", model.CategoryStudyPlans, 1},
	{"How does this program relate to your previous education?", model.CategoryStudyPlans, 2},
	{"Why can't you pursue this course of study in your home country?", model.CategoryStudyPlans, 3},

	// university_choice
	{"Which university are you going to, and where is it located?", model.CategoryUniversityChoice, 1},
	{"How many universities did you apply to, and how many admitted you?", model.CategoryUniversityChoice, 2},
	{"Why did you choose this particular university over the others?", model.CategoryUniversityChoice, 2},
	{"What do you know about your professors or department?", model.CategoryUniversityChoice, 3},

	// financial
	{"Who is sponsoring your education?", model.CategoryFinancial, 1},
	{"What is the annual cost of your tuition and living expenses?", model.CategoryFinancial, 2},
	{"What is your sponsor's occupation and annual income?", model.CategoryFinancial, 2},
	{"How will your family afford this for the full duration of your program?", model.CategoryFinancial, 3},

	// ties_to_home
	{"Do you have relatives in the United States?", model.CategoryTiesToHome, 1},
	{"What ties do you have to your home country?", model.CategoryTiesToHome, 2},
	{"What guarantees that you will return home after graduation?", model.CategoryTiesToHome, 3},

	// post_graduation
	{"What are your plans after you graduate?", model.CategoryPostGraduation, 1},
	{"What kind of job do you expect to get back home, and at what salary?", model.CategoryPostGraduation, 2},
	{"Why would you return home when salaries are higher in the US?", model.CategoryPostGraduation, 3},
}

// 提问的类别推进顺序，覆盖面签的标准话题轮换
var categoryRotation = []model.QuestionCategory{
	model.CategoryStudyPlans,
	model.CategoryUniversityChoice,
	model.CategoryFinancial,
	model.CategoryTiesToHome,
	model.CategoryPostGraduation,
}

// QuestionBank 静态出题器。asked 去重由调用方传入
type QuestionBank struct {
	rng *rand.Rand
}

func NewQuestionBank(rng *rand.Rand) *QuestionBank {
	return &QuestionBank{rng: rng}
}

// Next 在目标类别里挑一道未问过、难度最接近的题。
// 该类别题目耗尽时顺延到下一类别
func (b *QuestionBank) Next(turnIndex int, difficulty int, asked map[string]bool) BankQuestion {
	start := turnIndex % len(categoryRotation)

	for offset := 0; offset < len(categoryRotation); offset++ {
		category := categoryRotation[(start+offset)%len(categoryRotation)]
		if q, ok := b.pick(category, difficulty, asked); ok {
			return q
		}
	}

	// 题库全部问过，允许重复，从头再来
	return b.mustPick(categoryRotation[start], difficulty)
}

func (b *QuestionBank) pick(category model.QuestionCategory, difficulty int, asked map[string]bool) (BankQuestion, bool) {
	var best []BankQuestion
	bestDist := 99

	for _, q := range questionBank {
		if q.Category != category || asked[q.Text] {
			continue
		}
		dist := q.Difficulty - difficulty
		if dist < 0 {
			dist = -dist
		}
		if dist < bestDist {
			bestDist = dist
			best = best[:0]
		}
		if dist == bestDist {
			best = append(best, q)
		}
	}

	if len(best) == 0 {
		return BankQuestion{}, false
	}
	return best[b.rng.Intn(len(best))], true
}

func (b *QuestionBank) mustPick(category model.QuestionCategory, difficulty int) BankQuestion {
	q, ok := b.pick(category, difficulty, map[string]bool{})
	if !ok {
		return questionBank[0]
	}
	return q
}

// FollowUpFor 同类别的通用追问话术，评审服务不可用时使用
func FollowUpFor(category model.QuestionCategory) string {
	switch category {
	case model.CategoryFinancial:
		return "Can you give me the exact figures for that?"
	case model.CategoryTiesToHome:
		return "Can you be more specific about what brings you back?"
	case model.CategoryPostGraduation:
		return "What exactly would that look like, step by step?"
	case model.CategoryUniversityChoice:
		return "What specifically made that the deciding factor?"
	default:
		return "Could you elaborate on that?"
	}
}
