package analytics

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

var ErrInvalidDate = errors.New("invalid date")

// Status 打卡状态，1 表示完成，其余均视为未完成
type Status int

const (
	StatusMissed    Status = 0
	StatusCompleted Status = 1
)

func (s Status) Completed() bool {
	return s == StatusCompleted
}

// UnmarshalJSON 兼容数字和数字字符串两种写法（1 / "1"）
func (s *Status) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*s = StatusMissed
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		// 字符串只认 "1"，其他一律未完成
		if str == "1" {
			*s = StatusCompleted
		} else if n, err := strconv.Atoi(str); err == nil && n != 1 {
			*s = Status(n)
		} else {
			*s = StatusMissed
		}
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("status must be a number or numeric string: %w", err)
	}
	if f == 1 {
		*s = StatusCompleted
	} else if f == float64(int(f)) {
		*s = Status(int(f))
	} else {
		// 非整数值不可能等于 1
		*s = Status(-1)
	}
	return nil
}

// NormalizeStatus 写入前的状态归一：能解析为非零数字即完成，其余（0、空、非数字）为未完成
func NormalizeStatus(v interface{}) Status {
	var f float64
	switch x := v.(type) {
	case nil:
		return StatusMissed
	case bool:
		if x {
			return StatusCompleted
		}
		return StatusMissed
	case float64:
		f = x
	case float32:
		f = float64(x)
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint:
		f = float64(x)
	case Status:
		f = float64(x)
	case json.Number:
		parsed, err := x.Float64()
		if err != nil {
			return StatusMissed
		}
		f = parsed
	case string:
		str := strings.TrimSpace(x)
		if str == "" {
			return StatusMissed
		}
		parsed, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return StatusMissed
		}
		f = parsed
	default:
		return StatusMissed
	}
	if f != 0 && !math.IsNaN(f) {
		return StatusCompleted
	}
	return StatusMissed
}

// Record 单个习惯在某一天的记录
type Record struct {
	Date   time.Time `json:"date"`
	Status Status    `json:"status"`
}

type recordJSON struct {
	Date   string `json:"date"`
	Status Status `json:"status"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(recordJSON{Date: r.Date.Format(DateLayout), Status: r.Status})
}

func (r *Record) UnmarshalJSON(data []byte) error {
	var raw recordJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	d, err := ParseDate(raw.Date)
	if err != nil {
		return err
	}
	r.Date = d
	r.Status = raw.Status
	return nil
}

var dateLayouts = []string{
	DateLayout,
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006/01/02",
	"2006/1/2",
	"2006-1-2",
}

// ParseDate 解析日历日期，结果只保留年月日（UTC 零点）
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, ErrInvalidDate
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return CivilDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// CivilDate 丢弃时分秒和时区，只保留日历日期
func CivilDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// WallClock 保留 t 在自身时区的年月日时分秒，改记为 UTC，
// 用于和按 UTC 零点存储的日历日期放在同一时区比较
func WallClock(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC)
}

// daysBetween 两个日历日期之间相差的天数
func daysBetween(from, to time.Time) int {
	return int(CivilDate(to).Sub(CivilDate(from)).Hours() / 24)
}
