package service

import (
	"testing"

	"visa_interview_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func achievementByID(t *testing.T, states []model.AchievementState, id string) model.AchievementState {
	t.Helper()
	for _, s := range states {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("achievement %q not found", id)
	return model.AchievementState{}
}

func TestAchievementsCanonicalProgression(t *testing.T) {
	states := EvaluateAchievements(historyOf(40, 45, 50, 85, 90, 92))

	tests := []struct {
		id       string
		unlocked bool
	}{
		{"first_steps", true},
		{"getting_serious", true},       // 6 场完成
		{"high_scorer", true},           // 最高 92
		{"consistent_excellence", true}, // 85/90/92 连续三场 >= 80
		{"big_leap", true},              // 92 - 40 = 52
		{"dedicated", false},
		{"veteran", false},
		{"well_rounded", false}, // 类别均分 67 < 75
		{"mock_master", false},  // 全是 practice 模式
	}

	for _, tt := range tests {
		got := achievementByID(t, states, tt.id)
		assert.Equal(t, tt.unlocked, got.Unlocked, tt.id)
		if tt.unlocked {
			assert.InDelta(t, 100, got.Progress, 1e-9, tt.id)
		}
	}

	assert.InDelta(t, 40, achievementByID(t, states, "dedicated").Progress, 1e-9)
	assert.InDelta(t, 67.0/75*100, achievementByID(t, states, "well_rounded").Progress, 1e-9)
	assert.Zero(t, achievementByID(t, states, "mock_master").Progress)
}

func TestAchievementsAreMonotonic(t *testing.T) {
	history := historyOf(40, 45, 50, 85, 90, 92)
	before := EvaluateAchievements(history)

	// 追加两场低分：连击和增量成就不应回锁
	history = append(history, historyOf(55, 48)...)
	after := EvaluateAchievements(history)

	for _, id := range []string{"consistent_excellence", "big_leap", "high_scorer"} {
		require.True(t, achievementByID(t, before, id).Unlocked, id)
		assert.True(t, achievementByID(t, after, id).Unlocked, id)
	}

	// 类别均分类成就同样不回锁：达标后再追加一场很低的成绩
	rounded := historyOf(80, 82, 85)
	require.True(t, achievementByID(t, EvaluateAchievements(rounded), "well_rounded").Unlocked)

	rounded = append(rounded, historyOf(20)...)
	assert.True(t, achievementByID(t, EvaluateAchievements(rounded), "well_rounded").Unlocked)
}

func TestAchievementProgressWhileLocked(t *testing.T) {
	states := EvaluateAchievements(historyOf(60, 65))

	serious := achievementByID(t, states, "getting_serious")
	assert.False(t, serious.Unlocked)
	assert.InDelta(t, 40, serious.Progress, 1e-9)

	highScorer := achievementByID(t, states, "high_scorer")
	assert.False(t, highScorer.Unlocked)
	assert.InDelta(t, 65.0/85*100, highScorer.Progress, 1e-9)

	leap := achievementByID(t, states, "big_leap")
	assert.False(t, leap.Unlocked)
	assert.InDelta(t, 5.0/20*100, leap.Progress, 1e-9)
}

func TestAchievementProgressIsClamped(t *testing.T) {
	// 历史最高分比首场高出远超 20 分也不会溢出 100
	states := EvaluateAchievements(historyOf(10, 95))
	leap := achievementByID(t, states, "big_leap")
	assert.True(t, leap.Unlocked)
	assert.InDelta(t, 100, leap.Progress, 1e-9)
}

func TestMockMasterCountsFullModeOnly(t *testing.T) {
	history := historyOf(80, 80, 80, 80)
	for i := range history {
		if i%2 == 0 {
			history[i].Mode = model.ModeFull
		}
	}

	states := EvaluateAchievements(history)
	master := achievementByID(t, states, "mock_master")
	assert.False(t, master.Unlocked)
	assert.InDelta(t, 20, master.Progress, 1e-9) // 2/10 场 full
}

func TestAchievementOrdering(t *testing.T) {
	states := EvaluateAchievements(historyOf(40, 45, 50, 85, 90, 92))
	require.NotEmpty(t, states)

	seenLocked := false
	lastProgress := 101.0
	for _, s := range states {
		if s.Unlocked {
			assert.False(t, seenLocked, "unlocked achievement %q after a locked one", s.ID)
			continue
		}
		if !seenLocked {
			seenLocked = true
			lastProgress = 101.0
		}
		assert.LessOrEqual(t, s.Progress, lastProgress, s.ID)
		lastProgress = s.Progress
	}
}

func TestStreakRequiresConsecutiveScores(t *testing.T) {
	// 80, 85, 60, 88, 90：最长连击只有 2
	states := EvaluateAchievements(historyOf(80, 85, 60, 88, 90))
	excellence := achievementByID(t, states, "consistent_excellence")
	assert.False(t, excellence.Unlocked)
	assert.InDelta(t, 2.0/3*100, excellence.Progress, 1e-9)
}
