package trading

import (
	"fmt"
	"strings"
	"time"
)

// CST 中国时区，A股/期货日K的日期均按此时区解析
var CST = time.FixedZone("CST", 8*3600)

// DateLayout 日K日期格式
const DateLayout = "2006-01-02"

// DefaultLookbackDays 未指定回测区间时的默认回看天数（约6个月）
const DefaultLookbackDays = 6 * 30

// ParseDay 解析 YYYY-MM-DD 或 YYYYMMDD 格式的日期
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if loc == nil {
		loc = CST
	}
	if t, err := time.ParseInLocation(DateLayout, s, loc); err == nil {
		return t, nil
	}
	if t, err := time.ParseInLocation("20060102", s, loc); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("无法解析日期: %q", s)
}

// Day 截断到当天零点
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Window 计算回测日期区间
// start/end 为空时：end 默认今天，start 默认 end 往前 days 天（days<=0 时取 DefaultLookbackDays）
func Window(now, start, end time.Time, days int) (time.Time, time.Time) {
	if end.IsZero() {
		end = Day(now)
	}
	if start.IsZero() {
		if days <= 0 {
			days = DefaultLookbackDays
		}
		start = end.AddDate(0, 0, -days)
	}
	return start, end
}
