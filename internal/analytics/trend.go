package analytics

import (
	"math"
	"time"
)

type Trend string

const (
	TrendImproving Trend = "improving"
	TrendDeclining Trend = "declining"
	TrendStable    Trend = "stable"
)

// trendThreshold 周完成率变化超过 5 个百分点才算上升/下降
const trendThreshold = 0.05

type WeeklyTrend struct {
	CurrentWeekRate float64 `json:"currentWeekRate"`
	LastWeekRate    float64 `json:"lastWeekRate"`
	Trend           Trend   `json:"trend"`
}

// WeekNumber 按 ceil((距 1 月 1 日天数 + 1 月 1 日星期 + 1) / 7) 计算周序号，
// 天数包含时刻的小数部分，在 t 自身的时区内计算。
func WeekNumber(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	days := t.Sub(jan1).Hours() / 24
	return int(math.Ceil((days + float64(jan1.Weekday()) + 1) / 7))
}

// CalculateWeeklyTrend 对比本周与上周的完成率，now 按其所在时区的日期与时刻计。
// 上周取 currentWeek-1，不处理跨年（第 1 周的上一周是第 0 周），记录的年份也不参与比较。
func CalculateWeeklyTrend(records []Record, now time.Time) WeeklyTrend {
	if len(records) == 0 {
		return WeeklyTrend{Trend: TrendStable}
	}

	// 记录日期都是 UTC 零点，now 取服务器本地时钟读数后同样按 UTC 计算
	currentWeek := WeekNumber(WallClock(now))
	lastWeek := currentWeek - 1

	var curTotal, curCompleted, lastTotal, lastCompleted int
	for _, r := range records {
		switch WeekNumber(r.Date) {
		case currentWeek:
			curTotal++
			if r.Status.Completed() {
				curCompleted++
			}
		case lastWeek:
			lastTotal++
			if r.Status.Completed() {
				lastCompleted++
			}
		}
	}

	result := WeeklyTrend{Trend: TrendStable}
	if curTotal > 0 {
		result.CurrentWeekRate = float64(curCompleted) / float64(curTotal)
	}
	if lastTotal > 0 {
		result.LastWeekRate = float64(lastCompleted) / float64(lastTotal)
	}

	result.Trend = classifyTrend(result.CurrentWeekRate, result.LastWeekRate)
	return result
}

func classifyTrend(current, last float64) Trend {
	if current > last+trendThreshold {
		return TrendImproving
	}
	if current+trendThreshold < last {
		return TrendDeclining
	}
	return TrendStable
}
