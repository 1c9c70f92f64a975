package analytics

// CompletionRate 完成率 = 完成记录数 / 总记录数，空集合返回 0
func CompletionRate(records []Record) float64 {
	if len(records) == 0 {
		return 0
	}
	completed := 0
	for _, r := range records {
		if r.Status.Completed() {
			completed++
		}
	}
	return float64(completed) / float64(len(records))
}
