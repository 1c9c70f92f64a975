package analytics

import (
	"math"
	"time"
)

const (
	summaryDays   = 7
	summaryMonths = 6
)

type ChartSeries struct {
	Labels []string `json:"labels"`
	Values []int    `json:"values"`
}

type SuccessFailure struct {
	Completed int `json:"completed"`
	Missed    int `json:"missed"`
}

// Summary 图表所需的聚合数据
type Summary struct {
	Weekly         ChartSeries    `json:"weekly"`
	Monthly        ChartSeries    `json:"monthly"`
	SuccessFailure SuccessFailure `json:"successFailure"`
	Streaks        ChartSeries    `json:"streaks"`
}

type bucket struct {
	total     int
	completed int
}

func (b bucket) percent() int {
	if b.total == 0 {
		return 0
	}
	return int(math.Round(float64(b.completed) / float64(b.total) * 100))
}

// BuildSummary 生成最近 7 天、最近 6 个月的完成率，成功/失败计数以及连续天数曲线
func BuildSummary(records []Record, now time.Time) Summary {
	byDate := make(map[string]*bucket)
	byMonth := make(map[string]*bucket)
	var sf SuccessFailure

	for _, r := range records {
		day := r.Date.Format(DateLayout)
		month := r.Date.Format("2006-01")
		if byDate[day] == nil {
			byDate[day] = &bucket{}
		}
		if byMonth[month] == nil {
			byMonth[month] = &bucket{}
		}
		byDate[day].total++
		byMonth[month].total++
		if r.Status.Completed() {
			byDate[day].completed++
			byMonth[month].completed++
			sf.Completed++
		} else {
			sf.Missed++
		}
	}

	summary := Summary{
		Weekly:         ChartSeries{Labels: []string{}, Values: []int{}},
		Monthly:        ChartSeries{Labels: []string{}, Values: []int{}},
		SuccessFailure: sf,
		Streaks:        ChartSeries{Labels: []string{}, Values: []int{}},
	}

	today := CivilDate(now)
	for i := summaryDays - 1; i >= 0; i-- {
		d := today.AddDate(0, 0, -i)
		key := d.Format(DateLayout)
		summary.Weekly.Labels = append(summary.Weekly.Labels, d.Format("01-02"))
		value := 0
		if b := byDate[key]; b != nil {
			value = b.percent()
		}
		summary.Weekly.Values = append(summary.Weekly.Values, value)
	}

	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	for i := summaryMonths - 1; i >= 0; i-- {
		key := firstOfMonth.AddDate(0, -i, 0).Format("2006-01")
		summary.Monthly.Labels = append(summary.Monthly.Labels, key)
		value := 0
		if b := byMonth[key]; b != nil {
			value = b.percent()
		}
		summary.Monthly.Values = append(summary.Monthly.Values, value)
	}

	for _, entry := range CalculateStreaks(records).Timeline {
		summary.Streaks.Labels = append(summary.Streaks.Labels, entry.Date.Format("01-02"))
		summary.Streaks.Values = append(summary.Streaks.Values, entry.Streak)
	}

	return summary
}
