package service

import (
	"sort"

	"visa_interview_backend/internal/model"
)

// 评语分档
const (
	BandExcellent        = "excellent"         // >= 85
	BandGood             = "good"              // >= 70
	BandNeedsImprovement = "needs_improvement" // >= 50
	BandPoor             = "poor"              // < 50
)

func scoreBand(score float64) string {
	switch {
	case score >= 85:
		return BandExcellent
	case score >= 70:
		return BandGood
	case score >= 50:
		return BandNeedsImprovement
	default:
		return BandPoor
	}
}

// feedbackTexts 每个维度在每档的固定评语
var feedbackTexts = map[string]map[string]string{
	model.DimClarity: {
		BandExcellent:        "Your answers are well structured and easy to follow.",
		BandGood:             "Your answers are mostly clear; tighten up the occasional rambling sentence.",
		BandNeedsImprovement: "Answers are hard to follow at times. Use short, complete sentences.",
		BandPoor:             "Answers are too short or fragmented. Practice speaking in full sentences.",
	},
	model.DimSpecificity: {
		BandExcellent:        "Excellent use of concrete names, numbers, and amounts.",
		BandGood:             "Good level of detail; add exact figures where you can.",
		BandNeedsImprovement: "Answers stay too general. Name your university, program, and exact costs.",
		BandPoor:             "Answers lack any specifics. Memorize key facts: tuition, sponsor income, dates.",
	},
	model.DimRelevance: {
		BandExcellent:        "You answer exactly what was asked.",
		BandGood:             "Mostly on topic; make sure the first sentence addresses the question directly.",
		BandNeedsImprovement: "Answers drift away from the question. Listen carefully before responding.",
		BandPoor:             "Answers do not address the question asked. Pause and restate the question to yourself.",
	},
	model.DimDepth: {
		BandExcellent:        "You support your answers with reasons and examples.",
		BandGood:             "Solid substance; one more reason or example would strengthen your case.",
		BandNeedsImprovement: "Answers are thin. Explain why, not just what.",
		BandPoor:             "One-line answers will not convince an officer. Prepare a reason for every claim.",
	},
	model.DimConsistency: {
		BandExcellent:        "Your facts and figures line up across answers.",
		BandGood:             "Largely consistent; double-check the numbers you quote.",
		BandNeedsImprovement: "Some figures contradict your earlier answers. Keep one set of facts.",
		BandPoor:             "Contradictory numbers across answers are a major red flag. Write your facts down and drill them.",
	},
	model.DimFluency: {
		BandExcellent:        "You speak at a natural, confident rate.",
		BandGood:             "Fluent overall; keep an even rhythm under pressure.",
		BandNeedsImprovement: "Your speaking rate is outside the comfortable range. Practice timed answers aloud.",
		BandPoor:             "Long gaps or rushed bursts make you hard to understand. Record yourself and adjust.",
	},
	model.DimConfidence: {
		BandExcellent:        "You come across assured and composed.",
		BandGood:             "Reasonably confident; project your voice a little more.",
		BandNeedsImprovement: "You sound uncertain. Rehearse until key answers feel automatic.",
		BandPoor:             "Very low vocal confidence. Practice with a partner until answers are second nature.",
	},
	model.DimPace: {
		BandExcellent:        "Your pacing is right in the ideal band.",
		BandGood:             "Pacing is close to ideal; avoid speeding up when nervous.",
		BandNeedsImprovement: "You speak noticeably too fast or too slow. Aim for roughly 140 words per minute.",
		BandPoor:             "Extreme pacing makes answers hard to follow. Practice with a metronome-style timer.",
	},
	model.DimArticulation: {
		BandExcellent:        "Crisp articulation with almost no filler words.",
		BandGood:             "Clear speech; cut the remaining filler words.",
		BandNeedsImprovement: "Frequent fillers (um, like, you know) weaken your delivery. Pause silently instead.",
		BandPoor:             "Filler words dominate your answers. Replace every filler with a short silent pause.",
	},
	model.DimPosture: {
		BandExcellent:        "Strong, attentive posture throughout.",
		BandGood:             "Good posture; avoid slouching late in the interview.",
		BandNeedsImprovement: "Posture slips under pressure. Sit upright with both feet grounded.",
		BandPoor:             "Closed-off posture undermines your answers. Practice in front of a mirror.",
	},
	model.DimEyeContact: {
		BandExcellent:        "Steady, natural eye contact.",
		BandGood:             "Mostly good eye contact; hold it while finishing sentences.",
		BandNeedsImprovement: "Eye contact drops when thinking. Look at the officer, not the desk.",
		BandPoor:             "Avoiding eye contact reads as evasive. Train by answering to a camera lens.",
	},
	model.DimComposure: {
		BandExcellent:        "Calm and collected, even on hard questions.",
		BandGood:             "Composed overall; breathe before answering difficult questions.",
		BandNeedsImprovement: "Visible nervousness on follow-ups. Slow down and take a breath first.",
		BandPoor:             "Nervous habits overwhelm your delivery. Simulate pressure with strict-mode practice.",
	},
}

// DimensionFeedbackText 单维度评语
func DimensionFeedbackText(dimension string, score float64) string {
	texts, ok := feedbackTexts[dimension]
	if !ok {
		return ""
	}
	return texts[scoreBand(score)]
}

// buildFeedback 强项：>=75 的前三名（降序）；弱项：<70 的后三名（升序）；
// 改进建议：最弱的至多三个维度的评语
func buildFeedback(dims model.DimensionScoreSet) (strengths, weaknesses []model.DimensionFeedback, improvements []string) {
	type scored struct {
		name  string
		score float64
	}

	// 按固定维度顺序展开，保证相同输入排序结果稳定
	all := make([]scored, 0, len(model.DimensionOrder))
	for _, name := range model.DimensionOrder {
		all = append(all, scored{name: name, score: dims[name]})
	}

	desc := make([]scored, len(all))
	copy(desc, all)
	sort.SliceStable(desc, func(i, j int) bool { return desc[i].score > desc[j].score })

	asc := make([]scored, len(all))
	copy(asc, all)
	sort.SliceStable(asc, func(i, j int) bool { return asc[i].score < asc[j].score })

	for _, d := range desc {
		if d.score < 75 || len(strengths) == 3 {
			break
		}
		strengths = append(strengths, model.DimensionFeedback{
			Dimension: d.name,
			Score:     d.score,
			Band:      scoreBand(d.score),
			Comment:   DimensionFeedbackText(d.name, d.score),
		})
	}

	for _, d := range asc {
		if d.score >= 70 || len(weaknesses) == 3 {
			break
		}
		weaknesses = append(weaknesses, model.DimensionFeedback{
			Dimension: d.name,
			Score:     d.score,
			Band:      scoreBand(d.score),
			Comment:   DimensionFeedbackText(d.name, d.score),
		})
	}

	for i := 0; i < len(asc) && i < 3; i++ {
		if asc[i].score >= 70 {
			break
		}
		improvements = append(improvements, DimensionFeedbackText(asc[i].name, asc[i].score))
	}

	return strengths, weaknesses, improvements
}
