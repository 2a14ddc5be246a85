package service

import (
	"regexp"
	"strconv"
	"strings"

	"visa_interview_backend/internal/model"
)

// 口头填充词，重复率高说明紧张或不流利
var fillerWords = []string{
	"um", "uh", "er", "like", "you know", "basically",
	"actually", "literally", "kind of", "sort of", "well",
}

// 模糊措辞，压低具体性得分
var hedgeWords = []string{
	"maybe", "i think", "probably", "i guess", "not sure",
	"possibly", "perhaps", "might", "someday",
}

// 推理/举例/对比标记，加深度分
var depthMarkers = []string{
	"because", "therefore", "since", "so that", "for example",
	"for instance", "compared", "whereas", "in contrast", "which means",
}

var (
	numberPattern  = regexp.MustCompile(`\b\d[\d,]*(\.\d+)?\b`)
	dollarPattern  = regexp.MustCompile(`\$\s?\d[\d,]*(\.\d+)?`)
	percentPattern = regexp.MustCompile(`\d+(\.\d+)?\s?(%|percent)`)
	yearPattern    = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

type transcriptStats struct {
	IsEmpty       bool
	WordCount     int
	SentenceCount int
	FillerCount   int
	FillerRate    float64 // 填充词占比 0~1
	HedgeCount    int
	WPM           float64
}

func analyzeTranscript(transcript string, durationSec float64) transcriptStats {
	trimmed := strings.TrimSpace(transcript)
	if trimmed == "" || trimmed == model.NoResponseSentinel {
		return transcriptStats{IsEmpty: true}
	}

	lower := strings.ToLower(trimmed)
	words := strings.Fields(lower)

	stats := transcriptStats{
		WordCount:     len(words),
		SentenceCount: countSentences(trimmed),
	}

	for _, f := range fillerWords {
		stats.FillerCount += countOccurrences(lower, f)
	}
	if stats.WordCount > 0 {
		stats.FillerRate = float64(stats.FillerCount) / float64(stats.WordCount)
	}

	for _, h := range hedgeWords {
		stats.HedgeCount += countOccurrences(lower, h)
	}

	if durationSec > 0 {
		stats.WPM = float64(stats.WordCount) / (durationSec / 60.0)
	} else {
		stats.WPM = 140 // 无时长信息时按中性语速处理
	}

	return stats
}

func countSentences(text string) int {
	n := 0
	for _, r := range text {
		if r == '.' || r == '!' || r == '?' {
			n++
		}
	}
	if n == 0 {
		return 1
	}
	return n
}

// countOccurrences 按词边界统计短语出现次数
func countOccurrences(lower, phrase string) int {
	count := 0
	idx := 0
	for {
		i := strings.Index(lower[idx:], phrase)
		if i < 0 {
			break
		}
		pos := idx + i
		end := pos + len(phrase)
		beforeOK := pos == 0 || !isWordChar(lower[pos-1])
		afterOK := end >= len(lower) || !isWordChar(lower[end])
		if beforeOK && afterOK {
			count++
		}
		idx = end
	}
	return count
}

func isWordChar(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= '0' && b <= '9' || b == '\''
}

// scoreClarity 惩罚过短回答和高填充词率，奖励多句结构
func scoreClarity(stats transcriptStats) float64 {
	if stats.IsEmpty {
		return 0
	}

	score := 70.0
	switch {
	case stats.WordCount < 5:
		score -= 40
	case stats.WordCount < 12:
		score -= 20
	case stats.WordCount >= 25:
		score += 10
	}

	if stats.SentenceCount >= 2 {
		score += 10
	}

	score -= stats.FillerRate * 150

	return clampScore(score)
}

// scoreSpecificity 奖励数字、美元金额、专有名词、年份与百分比，惩罚模糊措辞
func scoreSpecificity(transcript string, stats transcriptStats) float64 {
	if stats.IsEmpty {
		return 0
	}

	score := 50.0

	if dollarPattern.MatchString(transcript) {
		score += 15
	}
	if percentPattern.MatchString(transcript) {
		score += 10
	}
	if yearPattern.MatchString(transcript) {
		score += 5
	}

	if n := len(numberPattern.FindAllString(transcript, -1)); n > 0 {
		score += float64(min(n, 3)) * 5
	}

	if n := countProperNouns(transcript); n > 0 {
		score += float64(min(n, 4)) * 4
	}

	score -= float64(stats.HedgeCount) * 8

	return clampScore(score)
}

// countProperNouns 统计非句首的大写开头词，作为专有名词的近似
func countProperNouns(transcript string) int {
	words := strings.Fields(transcript)
	count := 0
	for i, w := range words {
		if i == 0 {
			continue
		}
		prev := words[i-1]
		if strings.ContainsAny(string(prev[len(prev)-1]), ".!?") {
			continue
		}
		r := rune(w[0])
		if r >= 'A' && r <= 'Z' && w != "I" {
			count++
		}
	}
	return count
}

// scoreRelevance 有外部评审分时直接采信，否则用问答关键词重合度
func scoreRelevance(question, transcript string, judged *model.JudgedScores) float64 {
	if judged != nil {
		if v, ok := judged.CategoryScores["relevance"]; ok {
			return clampScore(v)
		}
		return clampScore(judged.Overall)
	}

	answer := strings.ToLower(strings.TrimSpace(transcript))
	if answer == "" || answer == strings.ToLower(model.NoResponseSentinel) {
		return 0
	}

	keywords := extractKeywords(question)
	if len(keywords) == 0 {
		return 60
	}

	matched := 0
	for _, kw := range keywords {
		if countOccurrences(answer, kw) > 0 {
			matched++
		}
	}

	overlap := float64(matched) / float64(len(keywords))
	return clampScore(35 + overlap*65)
}

var questionStopwords = map[string]bool{
	"what": true, "why": true, "how": true, "who": true, "when": true,
	"where": true, "which": true, "will": true, "would": true, "could": true,
	"do": true, "does": true, "did": true, "are": true, "is": true, "was": true,
	"you": true, "your": true, "the": true, "a": true, "an": true, "to": true,
	"of": true, "in": true, "for": true, "about": true, "have": true, "and": true,
	"or": true, "can": true, "tell": true, "me": true, "us": true, "please": true,
}

func extractKeywords(question string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r == ' ' || r == '\'' {
			return r
		}
		return ' '
	}, strings.ToLower(question))

	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) < 3 || questionStopwords[w] {
			continue
		}
		keywords = append(keywords, w)
	}
	return keywords
}

// scoreDepth 长度适中加分，推理标记加分，超长（啰嗦）扣分
func scoreDepth(transcript string, stats transcriptStats) float64 {
	if stats.IsEmpty {
		return 0
	}

	score := 40.0
	switch {
	case stats.WordCount >= 120:
		score += 15 // 超出上限，回落
	case stats.WordCount >= 40:
		score += 30
	case stats.WordCount >= 20:
		score += 20
	case stats.WordCount >= 10:
		score += 10
	}

	lower := strings.ToLower(transcript)
	markers := 0
	for _, m := range depthMarkers {
		markers += countOccurrences(lower, m)
	}
	score += float64(min(markers, 3)) * 8

	if stats.WordCount > 180 {
		score -= float64(stats.WordCount-180) * 0.2
	}

	return clampScore(score)
}

// scoreConsistency 与同类别先前回答中的数字对照，矛盾扣分。无先前语境给高基线
func scoreConsistency(transcript string, category model.QuestionCategory, prior []PriorAnswer) float64 {
	current := numberPattern.FindAllString(transcript, -1)

	var previous []string
	for _, p := range prior {
		if p.Category != category {
			continue
		}
		previous = append(previous, numberPattern.FindAllString(p.Transcript, -1)...)
	}

	if len(previous) == 0 || len(current) == 0 {
		return 85 // 无可比语境，默认高基线
	}

	contradictions := 0
	for _, c := range current {
		cv, err := parseNumber(c)
		if err != nil {
			continue
		}
		matched := false
		for _, p := range previous {
			pv, err := parseNumber(p)
			if err != nil {
				continue
			}
			if numbersAgree(cv, pv) {
				matched = true
				break
			}
		}
		if !matched {
			contradictions++
		}
	}

	return clampScore(95 - float64(min(contradictions, 3))*20)
}

func parseNumber(s string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(s, ",", ""), 64)
}

// numbersAgree 两个数字在 10% 相对误差内视为一致
func numbersAgree(a, b float64) bool {
	if a == b {
		return true
	}
	larger := a
	if b > larger {
		larger = b
	}
	if larger == 0 {
		return true
	}
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff/larger <= 0.10
}

// scoreFluency 语速相对最优区间（120~160 WPM）的偏离
func scoreFluency(wpm float64) float64 {
	switch {
	case wpm >= 120 && wpm <= 160:
		return 90
	case wpm >= 100 && wpm < 120:
		return 75
	case wpm > 160 && wpm <= 190:
		return 75
	case wpm >= 70 && wpm < 100:
		return 55
	case wpm > 190 && wpm <= 220:
		return 55
	case wpm <= 0:
		return 0
	default:
		return 35
	}
}

// scorePace 独立的语速曲线，两端极值惩罚更陡
func scorePace(wpm float64) float64 {
	if wpm <= 0 {
		return 0
	}
	optimal := 140.0
	deviation := wpm - optimal
	if deviation < 0 {
		deviation = -deviation
	}
	return clampScore(95 - deviation*0.6)
}

// scoreConfidence 由识别置信度折算，缺省取中性值
func scoreConfidence(asrConfidence *float64) float64 {
	if asrConfidence == nil {
		return 70
	}
	return clampScore(*asrConfidence * 100)
}

// scoreArticulation 填充词率扣分，高识别置信度加分
func scoreArticulation(fillerRate float64, asrConfidence *float64) float64 {
	score := 80 - fillerRate*200
	if asrConfidence != nil && *asrConfidence >= 0.9 {
		score += 10
	}
	return clampScore(score)
}

// scoreBodyLanguage 外部体态分直接映射，缺省中性值。offset 区分姿态/眼神取样
func scoreBodyLanguage(bodyLanguage *float64, offset float64) float64 {
	if bodyLanguage == nil {
		return 70
	}
	return clampScore(*bodyLanguage + offset)
}

// scoreComposure 体态分叠加填充词率作为紧张度代理
func scoreComposure(bodyLanguage *float64, fillerRate float64) float64 {
	base := 70.0
	if bodyLanguage != nil {
		base = *bodyLanguage
	}
	return clampScore(base - fillerRate*120)
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
