// Package clock 提供班次时间计算原语：墙钟时间解析、跨日时长和重叠判断，
// 以及夏令时安全的时刻解析
package clock

import (
	"github.com/zhiban/zhiban/pkg/errors"
)

// MinutesPerDay 一天的分钟数
const MinutesPerDay = 1440

// ParseClock 解析 HH:MM 格式的墙钟时间
// 要求：小时 00-23、分钟 00-59、恰好5个字符；"24:00" 视为非法
func ParseClock(s string) (hour, minute int, err error) {
	if len(s) != 5 || s[2] != ':' {
		return 0, 0, errors.InvalidTimeFormat(s)
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return 0, 0, errors.InvalidTimeFormat(s)
		}
	}
	hour = int(s[0]-'0')*10 + int(s[1]-'0')
	minute = int(s[3]-'0')*10 + int(s[4]-'0')
	if hour > 23 || minute > 59 {
		return 0, 0, errors.InvalidTimeFormat(s)
	}
	return hour, minute, nil
}

// MinuteOfDay 返回墙钟时间对应的当日分钟数 (0-1439)
func MinuteOfDay(s string) (int, error) {
	h, m, err := ParseClock(s)
	if err != nil {
		return 0, err
	}
	return h*60 + m, nil
}

// Duration 计算班次时长（分钟）
// end < start 时按跨日处理；任一端无法解析时返回 0，保证下游冲突计算不中断
func Duration(start, end string) int {
	s, err := MinuteOfDay(start)
	if err != nil {
		return 0
	}
	e, err := MinuteOfDay(end)
	if err != nil {
		return 0
	}
	if e >= s {
		return e - s
	}
	return (MinutesPerDay - s + e) % MinutesPerDay
}

// IsOvernight 判断班次是否跨越午夜（end <= start 视为跨日）
func IsOvernight(start, end string) bool {
	s, err := MinuteOfDay(start)
	if err != nil {
		return false
	}
	e, err := MinuteOfDay(end)
	if err != nil {
		return false
	}
	return e <= s
}

// segment 0-2880 时间轴上的半开区间 [lo, hi)
type segment struct {
	lo, hi int
}

// expand 将班次展开为时间轴上的区间：跨日班次拆成 [start,1440) 和 [0,end)
func expand(startMin, endMin int) []segment {
	if endMin > startMin {
		return []segment{{startMin, endMin}}
	}
	return []segment{{startMin, MinutesPerDay}, {0, endMin}}
}

// Overlaps 判断两个同日班次的时间段是否重叠
// 采用严格不等式：首尾相接不算重叠；对称：Overlaps(a,b) == Overlaps(b,a)
// 任一时间无法解析时返回 false
func Overlaps(aStart, aEnd, bStart, bEnd string) bool {
	as, err := MinuteOfDay(aStart)
	if err != nil {
		return false
	}
	ae, err := MinuteOfDay(aEnd)
	if err != nil {
		return false
	}
	bs, err := MinuteOfDay(bStart)
	if err != nil {
		return false
	}
	be, err := MinuteOfDay(bEnd)
	if err != nil {
		return false
	}

	for _, sa := range expand(as, ae) {
		for _, sb := range expand(bs, be) {
			if sa.lo < sb.hi && sa.hi > sb.lo {
				return true
			}
		}
	}
	return false
}
