package stats

import (
	"testing"

	"github.com/google/uuid"
	"github.com/zhiban/zhiban/pkg/model"
)

func assigned(date, start, end string, person uuid.UUID) *model.Shift {
	return &model.Shift{
		ID:         uuid.New(),
		Date:       date,
		StartTime:  start,
		EndTime:    end,
		AssignedTo: &person,
		Status:     model.ShiftStatusAssigned,
	}
}

func open(date, start, end string) *model.Shift {
	return &model.Shift{
		ID:        uuid.New(),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    model.ShiftStatusOpen,
	}
}

func TestWorkloadAnalyzer(t *testing.T) {
	analyzer := NewWorkloadAnalyzer()

	p1 := &model.Person{ID: uuid.New(), Name: "张三", Availability: model.PersonAvailable}
	p2 := &model.Person{ID: uuid.New(), Name: "李四", Availability: model.PersonAvailable}

	shifts := []*model.Shift{
		assigned("2024-06-01", "09:00", "17:00", p1.ID), // 8h
		assigned("2024-06-02", "22:00", "06:00", p1.ID), // 8h 夜班
		assigned("2024-06-01", "09:00", "13:00", p2.ID), // 4h
		open("2024-06-03", "09:00", "17:00"),
	}

	report := analyzer.Analyze(shifts, []*model.Person{p1, p2})

	if report.TotalShifts != 4 {
		t.Errorf("总班次数期望4, 实际 %d", report.TotalShifts)
	}
	if report.AssignedShifts != 3 {
		t.Errorf("已分配班次期望3, 实际 %d", report.AssignedShifts)
	}
	if len(report.People) != 2 {
		t.Fatalf("期望2人, 实际 %d", len(report.People))
	}

	// 按工时降序，张三在前
	first := report.People[0]
	if first.PersonName != "张三" {
		t.Errorf("工时最多的应该是张三, 实际 %s", first.PersonName)
	}
	if first.TotalMinutes != 960 {
		t.Errorf("张三总工时期望960分钟, 实际 %d", first.TotalMinutes)
	}
	if first.OvernightCount != 1 {
		t.Errorf("张三夜班数期望1, 实际 %d", first.OvernightCount)
	}
	if report.MaxHours != 16 || report.MinHours != 4 {
		t.Errorf("极值错误: max=%v min=%v", report.MaxHours, report.MinHours)
	}
}

func TestWorkloadAnalyzer_SkipsCancelled(t *testing.T) {
	analyzer := NewWorkloadAnalyzer()
	p := &model.Person{ID: uuid.New(), Name: "张三"}

	cancelled := assigned("2024-06-01", "09:00", "17:00", p.ID)
	cancelled.Status = model.ShiftStatusCancelled

	report := analyzer.Analyze([]*model.Shift{cancelled}, []*model.Person{p})
	if report.TotalShifts != 0 {
		t.Errorf("已取消班次不应该计入, 实际 %d", report.TotalShifts)
	}
}

func TestCoverageAnalyzer(t *testing.T) {
	analyzer := NewCoverageAnalyzer()
	p := uuid.New()

	shifts := []*model.Shift{
		assigned("2024-06-01", "09:00", "17:00", p),
		open("2024-06-01", "17:00", "23:00"),
		assigned("2024-06-02", "09:00", "17:00", p),
	}

	report := analyzer.Analyze(shifts)

	if report.TotalShifts != 3 || report.AssignedShifts != 2 {
		t.Errorf("计数错误: total=%d assigned=%d", report.TotalShifts, report.AssignedShifts)
	}
	if len(report.DailyCoverage) != 2 {
		t.Fatalf("期望2天, 实际 %d", len(report.DailyCoverage))
	}

	// 按日期升序
	day1 := report.DailyCoverage[0]
	if day1.Date != "2024-06-01" {
		t.Errorf("第一天应该是06-01, 实际 %s", day1.Date)
	}
	if day1.CoverageRate != 50 {
		t.Errorf("06-01 覆盖率期望50, 实际 %v", day1.CoverageRate)
	}
	if len(report.Uncovered) != 1 {
		t.Errorf("期望1个未覆盖班次, 实际 %d", len(report.Uncovered))
	}
}

func TestCoverageAnalyzer_Empty(t *testing.T) {
	report := NewCoverageAnalyzer().Analyze(nil)
	if report.OverallCoverage != 100 {
		t.Errorf("空输入覆盖率应该是100, 实际 %v", report.OverallCoverage)
	}
}
