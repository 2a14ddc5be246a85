package service

import (
	"sort"

	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/repository"
)

// achievementDef 成就定义：解锁谓词和进度函数都是历史序列上的纯函数。
// 历史只追加不修改，谓词只依赖累计量/阈值/增量，因此解锁状态天然单调：
// 追加新条目只会抬高或维持进度，绝不会让已解锁的成就回锁
type achievementDef struct {
	ID          string
	Name        string
	Description string
	Tier        model.AchievementTier
	Unlocked    func(history []model.ScoreHistoryEntry) bool
	Progress    func(history []model.ScoreHistoryEntry) float64 // 0~100，未解锁时同样可用
}

var achievementDefs = []achievementDef{
	{
		ID:          "first_steps",
		Name:        "First Steps",
		Description: "Complete your first mock interview",
		Tier:        model.TierBronze,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return completedCount(h) >= 1 },
		Progress:    countProgress(1),
	},
	{
		ID:          "getting_serious",
		Name:        "Getting Serious",
		Description: "Complete 5 mock interviews",
		Tier:        model.TierBronze,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return completedCount(h) >= 5 },
		Progress:    countProgress(5),
	},
	{
		ID:          "dedicated",
		Name:        "Dedicated",
		Description: "Complete 15 mock interviews",
		Tier:        model.TierSilver,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return completedCount(h) >= 15 },
		Progress:    countProgress(15),
	},
	{
		ID:          "veteran",
		Name:        "Veteran",
		Description: "Complete 40 mock interviews",
		Tier:        model.TierGold,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return completedCount(h) >= 40 },
		Progress:    countProgress(40),
	},
	{
		ID:          "high_scorer",
		Name:        "High Scorer",
		Description: "Score 85 or above in a single interview",
		Tier:        model.TierSilver,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return maxScore(h) >= 85 },
		Progress: func(h []model.ScoreHistoryEntry) float64 {
			return clampScore(maxScore(h) / 85 * 100)
		},
	},
	{
		ID:          "consistent_excellence",
		Name:        "Consistent Excellence",
		Description: "Score 80 or above in 3 consecutive interviews",
		Tier:        model.TierGold,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return bestStreakAbove(h, 80) >= 3 },
		Progress: func(h []model.ScoreHistoryEntry) float64 {
			return clampScore(float64(bestStreakAbove(h, 80)) / 3 * 100)
		},
	},
	{
		ID:          "big_leap",
		Name:        "Big Leap",
		Description: "Improve your score by 20 points over your first interview",
		Tier:        model.TierSilver,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return scoreDelta(h) >= 20 },
		Progress: func(h []model.ScoreHistoryEntry) float64 {
			return clampScore(scoreDelta(h) / 20 * 100)
		},
	},
	{
		ID:          "well_rounded",
		Name:        "Well Rounded",
		Description: "Average 75 or above in every category",
		Tier:        model.TierGold,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return bestCategoryFloor(h) >= 75 },
		Progress: func(h []model.ScoreHistoryEntry) float64 {
			return clampScore(bestCategoryFloor(h) / 75 * 100)
		},
	},
	{
		ID:          "mock_master",
		Name:        "Mock Master",
		Description: "Complete 10 full-length mock interviews",
		Tier:        model.TierSilver,
		Unlocked:    func(h []model.ScoreHistoryEntry) bool { return modeCount(h, model.ModeFull) >= 10 },
		Progress: func(h []model.ScoreHistoryEntry) float64 {
			return clampScore(float64(modeCount(h, model.ModeFull)) / 10 * 100)
		},
	},
}

func completedCount(h []model.ScoreHistoryEntry) int {
	n := 0
	for _, e := range h {
		if e.Completed {
			n++
		}
	}
	return n
}

func countProgress(target int) func([]model.ScoreHistoryEntry) float64 {
	return func(h []model.ScoreHistoryEntry) float64 {
		return clampScore(float64(completedCount(h)) / float64(target) * 100)
	}
}

func maxScore(h []model.ScoreHistoryEntry) float64 {
	best := 0.0
	for _, e := range h {
		if e.OverallScore > best {
			best = e.OverallScore
		}
	}
	return best
}

// scoreDelta 历史最高分减第一场得分；不足两场为 0
func scoreDelta(h []model.ScoreHistoryEntry) float64 {
	if len(h) < 2 {
		return 0
	}
	delta := maxScore(h) - h[0].OverallScore
	if delta < 0 {
		return 0
	}
	return delta
}

// bestStreakAbove 历史上 >= 阈值的最长连续场次。
// 取历史最佳而非当前连击，保证追加低分不会回退已达成的纪录
func bestStreakAbove(h []model.ScoreHistoryEntry, threshold float64) int {
	best, current := 0, 0
	for _, e := range h {
		if e.OverallScore >= threshold {
			current++
			if current > best {
				best = current
			}
		} else {
			current = 0
		}
	}
	return best
}

func modeCount(h []model.ScoreHistoryEntry, mode model.InterviewMode) int {
	n := 0
	for _, e := range h {
		if e.Completed && e.Mode == mode {
			n++
		}
	}
	return n
}

// bestCategoryFloor 对历史的每个前缀求三类均分中最低者，返回所有前缀上的最大值。
// 对整段历史直接求均值会让后来的低分把已达标的均值拉回阈值之下，
// 取前缀最佳让该量只增不减
func bestCategoryFloor(h []model.ScoreHistoryEntry) float64 {
	best := 0.0
	var content, delivery, nonVerbal float64
	for i, e := range h {
		content += e.CategoryScores.Content
		delivery += e.CategoryScores.Delivery
		nonVerbal += e.CategoryScores.NonVerbal

		n := float64(i + 1)
		floor := content / n
		if delivery/n < floor {
			floor = delivery / n
		}
		if nonVerbal/n < floor {
			floor = nonVerbal / n
		}
		if floor > best {
			best = floor
		}
	}
	return best
}

// AchievementService 成就引擎。每次调用对全量历史重新求值，不做增量缓存
type AchievementService struct {
	HistoryRepo *repository.ScoreHistoryRepository
}

func NewAchievementService(historyRepo *repository.ScoreHistoryRepository) *AchievementService {
	return &AchievementService{HistoryRepo: historyRepo}
}

func (s *AchievementService) GetUserAchievements(userID uint) ([]model.AchievementState, error) {
	history, err := s.HistoryRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	return EvaluateAchievements(history), nil
}

// EvaluateAchievements 对完整历史求值全部成就。
// 输出排序：已解锁在前，其后按进度降序
func EvaluateAchievements(history []model.ScoreHistoryEntry) []model.AchievementState {
	states := make([]model.AchievementState, 0, len(achievementDefs))
	for _, def := range achievementDefs {
		unlocked := def.Unlocked(history)
		progress := def.Progress(history)
		if unlocked {
			progress = 100
		}
		states = append(states, model.AchievementState{
			ID:          def.ID,
			Name:        def.Name,
			Description: def.Description,
			Tier:        def.Tier,
			Unlocked:    unlocked,
			Progress:    progress,
		})
	}

	sort.SliceStable(states, func(i, j int) bool {
		if states[i].Unlocked != states[j].Unlocked {
			return states[i].Unlocked
		}
		return states[i].Progress > states[j].Progress
	})
	return states
}
