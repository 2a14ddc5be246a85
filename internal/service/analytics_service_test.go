package service

import (
	"strings"
	"testing"
	"time"

	"visa_interview_backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func historyOf(scores ...float64) []model.ScoreHistoryEntry {
	entries := make([]model.ScoreHistoryEntry, 0, len(scores))
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	for i, s := range scores {
		entries = append(entries, model.ScoreHistoryEntry{
			UserID:       1,
			Mode:         model.ModePractice,
			OverallScore: s,
			CategoryScores: model.CategoryScores{
				Content:   s,
				Delivery:  s,
				NonVerbal: s,
			},
			Completed: true,
			TakenAt:   base.AddDate(0, 0, i),
		})
	}
	return entries
}

func TestDashboardOverviewStats(t *testing.T) {
	d := BuildDashboard(historyOf(40, 45, 50, 85, 90, 92))

	assert.Equal(t, 6, d.Overview.TotalSessions)
	assert.Equal(t, 6, d.Overview.CompletedCount)
	assert.InDelta(t, 100, d.Overview.CompletionRate, 1e-9)
	assert.InDelta(t, 67, d.Overview.AverageScore, 1e-9)
	assert.InDelta(t, 92, d.Overview.HighScore, 1e-9)
	assert.InDelta(t, 40, d.Overview.LowScore, 1e-9)

	// 首三场均分 45，末三场均分 89
	assert.InDelta(t, (89.0-45.0)/45.0*100, d.Overview.ImprovementTrend, 1e-9)
	assert.Greater(t, d.Overview.ImprovementRate, 0.0)
}

func TestDashboardShortHistoryTrend(t *testing.T) {
	// 不足四场时退化为首尾对比
	d := BuildDashboard(historyOf(50, 60))
	assert.InDelta(t, 20, d.Overview.ImprovementTrend, 1e-9)

	single := BuildDashboard(historyOf(70))
	assert.Zero(t, single.Overview.ImprovementTrend)
	assert.Zero(t, single.Overview.ImprovementRate)
}

func TestDashboardEmptyHistory(t *testing.T) {
	d := BuildDashboard(nil)

	assert.Zero(t, d.Overview.TotalSessions)
	assert.Zero(t, d.Overview.AverageScore)
	assert.Empty(t, d.WeakAreas)
	assert.Empty(t, d.ScoreHistory)
	require.Len(t, d.NextSteps, 1)
	assert.Contains(t, d.NextSteps[0], "first mock interview")

	// 成就仍然全部列出，只是都未解锁
	assert.Len(t, d.Achievements, len(achievementDefs))
	for _, a := range d.Achievements {
		assert.False(t, a.Unlocked)
	}
}

func TestCategoryTrendBands(t *testing.T) {
	improving := BuildDashboard(historyOf(40, 45, 50, 85, 90, 92))
	for _, c := range improving.Categories {
		assert.Equal(t, model.TrendImproving, c.Trend, c.Category)
	}

	declining := BuildDashboard(historyOf(90, 88, 85, 60, 55, 50))
	for _, c := range declining.Categories {
		assert.Equal(t, model.TrendDeclining, c.Trend, c.Category)
	}

	// ±5% 以内视为 stable
	stable := BuildDashboard(historyOf(70, 71, 69, 70, 72, 70))
	for _, c := range stable.Categories {
		assert.Equal(t, model.TrendStable, c.Trend, c.Category)
	}
}

func TestWeakAreaSeverityBands(t *testing.T) {
	tests := []struct {
		score float64
		want  model.WeakAreaSeverity
	}{
		{45, model.SeverityCritical},
		{55, model.SeverityHigh},
		{65, model.SeverityMedium},
		{72, model.SeverityLow},
	}

	for _, tt := range tests {
		d := BuildDashboard(historyOf(tt.score))
		require.NotEmpty(t, d.WeakAreas, "score %.0f", tt.score)
		for _, w := range d.WeakAreas {
			assert.Equal(t, tt.want, w.Severity)
			assert.InDelta(t, 100-tt.score, w.ImprovementPotential, 1e-9)
			assert.NotEmpty(t, w.Issue)
			assert.NotEmpty(t, w.Recommendation)
		}
	}

	// 达到 75 的类别不算弱项
	healthy := BuildDashboard(historyOf(80, 85))
	assert.Empty(t, healthy.WeakAreas)
}

func TestWeakAreaFinancialAdvice(t *testing.T) {
	advice := weakAreaAdvice["content"]
	assert.Contains(t, advice.Recommendation, "sponsor income")
	assert.Contains(t, advice.Recommendation, "costs")
}

func TestScoreSeriesPreservesOrder(t *testing.T) {
	history := historyOf(40, 60, 80)
	d := BuildDashboard(history)

	require.Len(t, d.ScoreHistory, 3)
	for i, p := range d.ScoreHistory {
		assert.Equal(t, history[i].OverallScore, p.Score)
		assert.Equal(t, history[i].TakenAt, p.TakenAt)
	}
}

func TestNextStepsLimitAndContent(t *testing.T) {
	// 低分下行的历史会同时触发多条规则，但至多五条
	low := historyOf(60, 55, 50, 45, 42, 40)
	low[1].Completed = false
	d := BuildDashboard(low)

	assert.LessOrEqual(t, len(d.NextSteps), 5)
	assert.NotEmpty(t, d.NextSteps)

	strong := BuildDashboard(historyOf(85, 88, 90, 86, 91, 89))
	require.NotEmpty(t, strong.NextSteps)
	assert.Contains(t, strong.NextSteps[0], "Increase the difficulty")
}

func TestNextStepsMentionNearestAchievement(t *testing.T) {
	// 三场完成：getting_serious (5 场) 进度 60%
	d := BuildDashboard(historyOf(82, 84, 86))

	found := false
	for _, s := range d.NextSteps {
		if strings.Contains(s, "away from unlocking") {
			found = true
			break
		}
	}
	assert.True(t, found, "next steps should mention the nearest locked achievement: %v", d.NextSteps)
}
