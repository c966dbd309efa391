package clock

import (
	"time"
	_ "time/tzdata" // 内嵌时区数据库，避免依赖宿主机 tzdata

	"github.com/zhiban/zhiban/pkg/errors"
)

// DateLayout 日历日期格式
const DateLayout = "2006-01-02"

// Instant 某墙钟时间在具体时区下解析出的时刻
type Instant struct {
	UTC   time.Time `json:"utc"`
	IsDST bool      `json:"is_dst"`
}

// ShiftSpan 班次两端解析后的时刻区间
type ShiftSpan struct {
	Start           Instant `json:"start"`
	End             Instant `json:"end"`
	CrossesMidnight bool    `json:"crosses_midnight"`
	DSTTransition   bool    `json:"dst_transition"`
}

// LoadZone 加载命名时区
func LoadZone(name string) (*time.Location, error) {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeUnknownTimezone, "无法加载时区: "+name)
	}
	return loc, nil
}

// ToInstant 将（日历日期，墙钟时间，时区）解析为具体时刻
//
// 夏令时边界上的本地时间由 time.Date 规范化解决：
// 春季跳过的时间（如 02:30 不存在）向后规范化到有效时刻；
// 秋季重复的时间取运行时确定的那一次出现。两种情况都是确定性的，
// 不会产生无效时刻
func ToInstant(date, hhmm string, loc *time.Location) (Instant, error) {
	if loc == nil {
		loc = time.Local
	}
	d, err := time.ParseInLocation(DateLayout, date, loc)
	if err != nil {
		return Instant{}, errors.Wrap(err, errors.CodeInvalidInput, "日期格式无效: "+date)
	}
	h, m, err := ParseClock(hhmm)
	if err != nil {
		return Instant{}, err
	}
	t := time.Date(d.Year(), d.Month(), d.Day(), h, m, 0, 0, loc)
	return Instant{UTC: t.UTC(), IsDST: t.IsDST()}, nil
}

// ResolveSpan 解析班次两端的时刻
// end <= start 时结束时间落在下一个日历日；DSTTransition 表示两端夏令时状态不同
func ResolveSpan(date, start, end string, loc *time.Location) (*ShiftSpan, error) {
	startMin, err := MinuteOfDay(start)
	if err != nil {
		return nil, err
	}
	endMin, err := MinuteOfDay(end)
	if err != nil {
		return nil, err
	}

	crosses := endMin <= startMin
	endDate := date
	if crosses {
		d, err := time.Parse(DateLayout, date)
		if err != nil {
			return nil, errors.Wrap(err, errors.CodeInvalidInput, "日期格式无效: "+date)
		}
		endDate = d.AddDate(0, 0, 1).Format(DateLayout)
	}

	startInstant, err := ToInstant(date, start, loc)
	if err != nil {
		return nil, err
	}
	endInstant, err := ToInstant(endDate, end, loc)
	if err != nil {
		return nil, err
	}

	return &ShiftSpan{
		Start:           startInstant,
		End:             endInstant,
		CrossesMidnight: crosses,
		DSTTransition:   startInstant.IsDST != endInstant.IsDST,
	}, nil
}

// DurationMinutes 基于时刻差计算时长（分钟）
// 一旦两端时刻可用，此结果优先于 Duration 的 mod-1440 朴素计算
func DurationMinutes(start, end Instant) int {
	return int(end.UTC.Sub(start.UTC).Minutes())
}

// SpanDuration 返回解析后班次的实际时长（分钟）
func (s *ShiftSpan) SpanDuration() int {
	return DurationMinutes(s.Start, s.End)
}

// Overlaps 判断两个解析后的班次时刻区间是否重叠（严格不等式，首尾相接不重叠）
func (s *ShiftSpan) Overlaps(other *ShiftSpan) bool {
	return s.Start.UTC.Before(other.End.UTC) && other.Start.UTC.Before(s.End.UTC)
}
