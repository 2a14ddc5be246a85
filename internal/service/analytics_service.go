package service

import (
	"fmt"

	"visa_interview_backend/internal/model"
	"visa_interview_backend/internal/repository"
)

// AnalyticsService 纵向分析引擎：消费按时间升序的完整历史序列，
// 产出总览、类别趋势、弱项、原始序列、成就状态与下一步建议
type AnalyticsService struct {
	HistoryRepo *repository.ScoreHistoryRepository
}

func NewAnalyticsService(historyRepo *repository.ScoreHistoryRepository) *AnalyticsService {
	return &AnalyticsService{HistoryRepo: historyRepo}
}

func (s *AnalyticsService) GetDashboard(userID uint) (*model.AnalyticsDashboard, error) {
	history, err := s.HistoryRepo.FindByUser(userID)
	if err != nil {
		return nil, err
	}
	return BuildDashboard(history), nil
}

// BuildDashboard 对完整历史序列的纯函数。空历史返回零值基线而不是报错
func BuildDashboard(history []model.ScoreHistoryEntry) *model.AnalyticsDashboard {
	dashboard := &model.AnalyticsDashboard{
		Overview:     buildOverview(history),
		Categories:   buildCategoryPerformance(history),
		WeakAreas:    detectWeakAreas(history),
		ScoreHistory: buildScoreSeries(history),
		Achievements: EvaluateAchievements(history),
	}
	dashboard.NextSteps = buildNextSteps(dashboard)
	return dashboard
}

func buildOverview(history []model.ScoreHistoryEntry) model.OverviewStats {
	stats := model.OverviewStats{TotalSessions: len(history)}
	if len(history) == 0 {
		return stats
	}

	var completed []float64
	for _, e := range history {
		if e.Completed {
			completed = append(completed, e.OverallScore)
		}
	}
	stats.CompletedCount = len(completed)
	stats.CompletionRate = float64(len(completed)) / float64(len(history)) * 100

	if len(completed) == 0 {
		return stats
	}

	stats.HighScore = completed[0]
	stats.LowScore = completed[0]
	sum := 0.0
	for _, s := range completed {
		sum += s
		if s > stats.HighScore {
			stats.HighScore = s
		}
		if s < stats.LowScore {
			stats.LowScore = s
		}
	}
	stats.AverageScore = sum / float64(len(completed))

	stats.ImprovementTrend = improvementTrend(completed)
	stats.ImprovementRate = stats.ImprovementTrend / float64(len(completed))
	return stats
}

// improvementTrend 末三场均分相对首三场均分的百分比变化。
// 不足四场时退化为首尾两场的简单百分比变化
func improvementTrend(scores []float64) float64 {
	if len(scores) < 2 {
		return 0
	}

	if len(scores) < 4 {
		first, last := scores[0], scores[len(scores)-1]
		if first == 0 {
			return 0
		}
		return (last - first) / first * 100
	}

	firstAvg := average(scores[:3])
	lastAvg := average(scores[len(scores)-3:])
	if firstAvg == 0 {
		return 0
	}
	return (lastAvg - firstAvg) / firstAvg * 100
}

func average(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range vals {
		sum += v
	}
	return sum / float64(len(vals))
}

// analyticsCategories 固定输出顺序
var analyticsCategories = []string{"content", "delivery", "nonVerbal"}

func categoryValue(e model.ScoreHistoryEntry, category string) float64 {
	switch category {
	case "content":
		return e.CategoryScores.Content
	case "delivery":
		return e.CategoryScores.Delivery
	default:
		return e.CategoryScores.NonVerbal
	}
}

// buildCategoryPerformance 类别趋势：最近三场均值对比最早三场，
// 相对变化 > +5% 为 improving，< -5% 为 declining，其余 stable
func buildCategoryPerformance(history []model.ScoreHistoryEntry) []model.CategoryPerformance {
	result := make([]model.CategoryPerformance, 0, len(analyticsCategories))
	for _, cat := range analyticsCategories {
		var values []float64
		for _, e := range history {
			if e.Completed {
				values = append(values, categoryValue(e, cat))
			}
		}

		perf := model.CategoryPerformance{Category: cat, Trend: model.TrendStable}
		if len(values) > 0 {
			perf.AverageScore = average(values)
		}

		if len(values) >= 2 {
			n := len(values)
			window := 3
			if n < window {
				window = n
			}
			earliest := average(values[:window])
			recent := average(values[n-window:])
			if earliest > 0 {
				perf.ChangePct = (recent - earliest) / earliest * 100
			}
			switch {
			case perf.ChangePct > 5:
				perf.Trend = model.TrendImproving
			case perf.ChangePct < -5:
				perf.Trend = model.TrendDeclining
			}
		}

		result = append(result, perf)
	}
	return result
}

// weakAreaAdvice 类别弱项的固定话术
var weakAreaAdvice = map[string]struct {
	Issue          string
	Recommendation string
}{
	"content": {
		Issue:          "Answers lack the substance officers look for: specifics, reasons, and consistent facts.",
		Recommendation: "Memorize your key facts cold: sponsor income, exact tuition and living costs, program details, and the reasons behind every choice.",
	},
	"delivery": {
		Issue:          "Vocal delivery (pace, fluency, filler words) is undermining otherwise good answers.",
		Recommendation: "Record yourself answering common questions and aim for about 140 words per minute with no filler words.",
	},
	"nonVerbal": {
		Issue:          "Body language signals nervousness or disengagement.",
		Recommendation: "Practice in front of a camera: sit upright, hold eye contact with the lens, and keep your hands still.",
	},
}

// detectWeakAreas 均分低于 75 的类别按严重级别标记
func detectWeakAreas(history []model.ScoreHistoryEntry) []model.WeakArea {
	var areas []model.WeakArea
	hasCompleted := false
	for _, e := range history {
		if e.Completed {
			hasCompleted = true
			break
		}
	}
	if !hasCompleted {
		return areas
	}

	for _, cat := range analyticsCategories {
		var values []float64
		for _, e := range history {
			if e.Completed {
				values = append(values, categoryValue(e, cat))
			}
		}
		avg := average(values)
		if avg >= 75 {
			continue
		}

		advice := weakAreaAdvice[cat]
		areas = append(areas, model.WeakArea{
			Category:             cat,
			AverageScore:         avg,
			Severity:             severityFor(avg),
			ImprovementPotential: 100 - avg,
			Issue:                advice.Issue,
			Recommendation:       advice.Recommendation,
		})
	}
	return areas
}

func severityFor(avg float64) model.WeakAreaSeverity {
	switch {
	case avg < 50:
		return model.SeverityCritical
	case avg < 60:
		return model.SeverityHigh
	case avg < 70:
		return model.SeverityMedium
	default:
		return model.SeverityLow
	}
}

func buildScoreSeries(history []model.ScoreHistoryEntry) []model.ScorePoint {
	series := make([]model.ScorePoint, 0, len(history))
	for _, e := range history {
		series = append(series, model.ScorePoint{
			TakenAt: e.TakenAt,
			Score:   e.OverallScore,
			Mode:    e.Mode,
		})
	}
	return series
}

// buildNextSteps 确定性规则序列，最多五条建议
func buildNextSteps(d *model.AnalyticsDashboard) []string {
	var steps []string

	if d.Overview.CompletedCount == 0 {
		return []string{"Complete your first mock interview to start tracking your progress."}
	}

	if d.Overview.AverageScore >= 80 {
		steps = append(steps, "Your average is strong. Increase the difficulty: switch to full-length interviews with the strict persona.")
	} else if d.Overview.ImprovementTrend < 0 {
		steps = append(steps, "Your recent scores are trending down. Slow down and review the feedback from your last three sessions.")
	}

	if len(d.WeakAreas) > 0 {
		worst := d.WeakAreas[0]
		for _, w := range d.WeakAreas[1:] {
			if w.AverageScore < worst.AverageScore {
				worst = w
			}
		}
		steps = append(steps, fmt.Sprintf("Drill your weakest category (%s, averaging %.0f): %s", worst.Category, worst.AverageScore, worst.Recommendation))
	}

	// 最接近解锁的未解锁成就
	for _, a := range d.Achievements {
		if !a.Unlocked && a.Progress > 0 {
			steps = append(steps, fmt.Sprintf("You are %.0f%% away from unlocking \"%s\": %s.", 100-a.Progress, a.Name, a.Description))
			break
		}
	}

	if d.Overview.CompletedCount < 5 {
		steps = append(steps, "Build a baseline: complete at least 5 practice sessions this week.")
	}

	if d.Overview.CompletionRate < 80 && d.Overview.TotalSessions >= 3 {
		steps = append(steps, "Finish the sessions you start; abandoned interviews don't count toward your progress.")
	}

	if len(steps) > 5 {
		steps = steps[:5]
	}
	return steps
}
