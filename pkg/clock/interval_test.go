package clock

import (
	"testing"
)

func TestParseClock(t *testing.T) {
	tests := []struct {
		input   string
		hour    int
		minute  int
		wantErr bool
	}{
		{"00:00", 0, 0, false},
		{"09:30", 9, 30, false},
		{"23:59", 23, 59, false},
		{"24:00", 0, 0, true},
		{"12:60", 0, 0, true},
		{"9:30", 0, 0, true},
		{"09-30", 0, 0, true},
		{"ab:cd", 0, 0, true},
		{"", 0, 0, true},
		{"09:301", 0, 0, true},
	}

	for _, tt := range tests {
		h, m, err := ParseClock(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseClock(%q) 应该返回错误", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseClock(%q) 返回错误: %v", tt.input, err)
			continue
		}
		if h != tt.hour || m != tt.minute {
			t.Errorf("ParseClock(%q) = (%d, %d), 期望 (%d, %d)", tt.input, h, m, tt.hour, tt.minute)
		}
	}
}

func TestDuration(t *testing.T) {
	tests := []struct {
		start string
		end   string
		want  int
	}{
		{"09:00", "17:00", 480},
		{"22:00", "06:00", 480}, // 跨午夜
		{"00:00", "00:00", 0},   // 起止相同
		{"23:59", "00:00", 1},
		{"00:00", "23:59", 1439},
		{"bad", "17:00", 0}, // 解析失败返回0
	}

	for _, tt := range tests {
		if got := Duration(tt.start, tt.end); got != tt.want {
			t.Errorf("Duration(%q, %q) = %d, 期望 %d", tt.start, tt.end, got, tt.want)
		}
	}
}

func TestIsOvernight(t *testing.T) {
	if !IsOvernight("22:00", "06:00") {
		t.Error("22:00-06:00 应该是跨日班次")
	}
	if !IsOvernight("09:00", "09:00") {
		t.Error("起止相同应该视为跨日")
	}
	if IsOvernight("09:00", "17:00") {
		t.Error("09:00-17:00 不应该是跨日班次")
	}
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name                   string
		aStart, aEnd           string
		bStart, bEnd           string
		want                   bool
	}{
		{"相交区间", "09:00", "17:00", "16:00", "20:00", true},
		{"首尾相接不重叠", "09:00", "17:00", "17:00", "20:00", false},
		{"完全包含", "09:00", "17:00", "10:00", "12:00", true},
		{"完全分离", "09:00", "12:00", "13:00", "17:00", false},
		{"跨日与白班相交", "22:00", "06:00", "05:00", "09:00", true},
		{"跨日与白班分离", "22:00", "06:00", "08:00", "12:00", false},
		{"两个跨日班次", "22:00", "06:00", "23:00", "07:00", true},
		{"跨日尾接白班", "22:00", "06:00", "06:00", "14:00", false},
		{"解析失败返回false", "bad", "17:00", "09:00", "17:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlaps(tt.aStart, tt.aEnd, tt.bStart, tt.bEnd)
			if got != tt.want {
				t.Errorf("Overlaps(%q,%q,%q,%q) = %v, 期望 %v",
					tt.aStart, tt.aEnd, tt.bStart, tt.bEnd, got, tt.want)
			}
			// 对称性
			if rev := Overlaps(tt.bStart, tt.bEnd, tt.aStart, tt.aEnd); rev != got {
				t.Errorf("Overlaps 应该对称: 正向 %v, 反向 %v", got, rev)
			}
		})
	}
}
