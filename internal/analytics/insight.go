package analytics

import (
	"fmt"
	"math/big"
	"time"
)

type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// streakHighlightDays 连续天数达到该值才会出现在行为洞察中
const streakHighlightDays = 5

type KeyMetrics struct {
	CompletionRate  string `json:"completionRate"`
	CurrentStreak   int    `json:"currentStreak"`
	LongestStreak   int    `json:"longestStreak"`
	CurrentWeekRate string `json:"currentWeekRate"`
	LastWeekRate    string `json:"lastWeekRate"`
	Trend           Trend  `json:"trend"`
}

// Insight 风险等级、预测分数、提示文案与格式化指标的汇总
type Insight struct {
	PredictionScore    float64         `json:"predictionScore"`
	RiskLevel          RiskLevel       `json:"riskLevel"`
	Message            string          `json:"message"`
	KeyMetrics         KeyMetrics      `json:"keyMetrics"`
	BehavioralInsights []string        `json:"behavioralInsights"`
	StreakTimeline     []TimelineEntry `json:"streakTimeline"`
}

type riskRule struct {
	matches func(rate float64) bool
	score   float64
	level   RiskLevel
	message string
}

// riskRules 自上而下匹配，命中第一条即返回
var riskRules = []riskRule{
	{
		matches: func(rate float64) bool { return rate > 0.75 },
		score:   0.85,
		level:   RiskLow,
		message: "Excellent consistency. You are highly likely to sustain this habit long-term.",
	},
	{
		matches: func(rate float64) bool { return rate >= 0.5 },
		score:   0.7,
		level:   RiskMedium,
		message: "You have a decent completion rate. Consider focusing on fewer key habits to increase success.",
	},
	{
		matches: func(float64) bool { return true },
		score:   0.4,
		level:   RiskHigh,
		message: "Your current pattern suggests a risk of habit drop-off. Try reducing difficulty or changing habit timing.",
	},
}

var trendInsights = map[Trend]string{
	TrendImproving: "Your weekly trend is improving—recent changes in your routine are working.",
	TrendDeclining: "Your recent weeks show a decline in completion. Identify obstacles and adjust your plan.",
	TrendStable:    "Your performance is stable. Small adjustments could lead to further gains.",
}

func classifyRisk(rate float64) riskRule {
	for _, rule := range riskRules {
		if rule.matches(rate) {
			return rule
		}
	}
	return riskRules[len(riskRules)-1]
}

// AnalyzeHabits 汇总完成率、连续天数和周趋势，生成洞察结果
func AnalyzeHabits(records []Record, now time.Time) Insight {
	completionRate := CompletionRate(records)
	streaks := CalculateStreaks(records)
	weekly := CalculateWeeklyTrend(records, now)

	rule := classifyRisk(completionRate)

	behavioral := []string{trendInsights[weekly.Trend]}
	if streaks.CurrentStreak >= streakHighlightDays {
		behavioral = append(behavioral, fmt.Sprintf(
			"You have a strong current streak of %d days—protect it by planning ahead.", streaks.CurrentStreak))
	} else if streaks.LongestStreak >= streakHighlightDays {
		behavioral = append(behavioral, fmt.Sprintf(
			"Your best streak was %d days. Aim to beat that record with small daily wins.", streaks.LongestStreak))
	}

	return Insight{
		PredictionScore: rule.score,
		RiskLevel:       rule.level,
		Message:         rule.message,
		KeyMetrics: KeyMetrics{
			CompletionRate:  FormatPercent(completionRate),
			CurrentStreak:   streaks.CurrentStreak,
			LongestStreak:   streaks.LongestStreak,
			CurrentWeekRate: FormatPercent(weekly.CurrentWeekRate),
			LastWeekRate:    FormatPercent(weekly.LastWeekRate),
			Trend:           weekly.Trend,
		},
		BehavioralInsights: behavioral,
		StreakTimeline:     streaks.Timeline,
	}
}

// FormatPercent 把 [0,1] 的比例格式化为一位小数的百分比。
// 按 rate*100 这个浮点数的精确十进制值取 floor(x*10+0.5)，恰好在中点时取较大者。
func FormatPercent(rate float64) string {
	x := new(big.Float).SetPrec(256).SetFloat64(rate * 100)
	x.Mul(x, big.NewFloat(10))
	x.Add(x, big.NewFloat(0.5))

	// rate 非负，向零截断即 floor
	n, _ := x.Int(nil)
	whole, tenths := new(big.Int).QuoRem(n, big.NewInt(10), new(big.Int))
	return whole.String() + "." + tenths.String() + "%"
}
