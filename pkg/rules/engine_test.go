package rules

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zhiban/zhiban/pkg/audit"
	"github.com/zhiban/zhiban/pkg/conflict"
	"github.com/zhiban/zhiban/pkg/errors"
	"github.com/zhiban/zhiban/pkg/model"
)

func newTestEngine(t *testing.T) (*Engine, *audit.MemorySink) {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	sink := audit.NewMemorySink(100)
	classifier := conflict.NewClassifier(conflict.NewDetector(loc), nil)
	return NewEngine(classifier, nil, NewMemoryStore(), sink), sink
}

func testShift(date, start, end string, person *uuid.UUID) *model.Shift {
	s := &model.Shift{
		ID:        uuid.New(),
		Date:      date,
		StartTime: start,
		EndTime:   end,
		Status:    model.ShiftStatusOpen,
	}
	if person != nil {
		s.AssignedTo = person
		s.Status = model.ShiftStatusAssigned
	}
	return s
}

func TestEngine_CustomCatalog(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Shanghai")
	require.NoError(t, err)
	classifier := conflict.NewClassifier(conflict.NewDetector(loc), nil)

	// 自定义目录：单条不可豁免的拦截规则
	custom := []*Rule{
		{
			ID:            "NO_OVERLAP_EVER",
			Name:          "禁止任何重叠",
			Severity:      conflict.SeverityBlocking,
			ConflictCodes: []conflict.Code{conflict.CodeTimeOverlap},
			Overridable:   false,
		},
	}
	engine := NewEngine(classifier, custom, NewMemoryStore(), audit.NewMemorySink(10))

	require.Len(t, engine.Rules(), 1)

	// 内置规则在自定义目录里不存在
	_, err = engine.CreateOverride(OverrideInput{
		ShiftID: uuid.New(),
		RuleID:  RulePreventDoubleBooking,
		Actor:   Actor{Name: "王经理"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeRuleNotFound))

	// 自定义规则禁止豁免
	_, err = engine.CreateOverride(OverrideInput{
		ShiftID: uuid.New(),
		RuleID:  "NO_OVERLAP_EVER",
		Actor:   Actor{Name: "王经理"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeOverrideNotAllowed))

	// 默认目录的引擎可以共存，互不影响
	fallback := NewEngine(classifier, nil, NewMemoryStore(), audit.NewMemorySink(10))
	assert.Len(t, fallback.Rules(), 3)
}

func TestEngine_RulesReturnsCopy(t *testing.T) {
	engine, _ := newTestEngine(t)

	leaked := engine.Rules()
	require.NotEmpty(t, leaked)
	leaked[0].Name = "改过的名字"
	leaked[0].Overridable = false
	leaked[0].ConflictCodes[0] = conflict.Code("TAMPERED")

	fresh := engine.Rules()
	assert.NotEqual(t, "改过的名字", fresh[0].Name)
	assert.True(t, fresh[0].Overridable)
	assert.NotContains(t, fresh[0].ConflictCodes, conflict.Code("TAMPERED"))
}

func TestEngine_EvaluateNilTarget(t *testing.T) {
	engine, _ := newTestEngine(t)

	result := engine.Evaluate(nil, []*model.Shift{testShift("2024-06-01", "09:00", "17:00", nil)}, nil)

	assert.True(t, result.CanAssign)
	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.Violations)

	enforced := engine.Enforce(nil, nil, nil, EnforceOptions{})
	assert.False(t, enforced.Blocked)
}

func TestEngine_AuditAttributesEnforcementActor(t *testing.T) {
	engine, sink := newTestEngine(t)

	target := testShift("2024-06-01", "09:00", "17:00", nil)
	engine.Enforce(target, nil, nil, EnforceOptions{Actor: Actor{Name: "王经理", Role: "manager"}})

	entries := sink.Recent(1)
	require.Len(t, entries, 1)
	assert.Equal(t, audit.ActionRuleEvaluation, entries[0].Action)
	assert.Equal(t, "王经理", entries[0].Actor)
	assert.Equal(t, "manager", entries[0].Role)

	// 直接评估没有操作人，归到 system
	engine.Evaluate(target, nil, nil)
	assert.Equal(t, "system", sink.Recent(1)[0].Actor)
}

func TestEngine_EvaluateClean(t *testing.T) {
	engine, _ := newTestEngine(t)
	person := uuid.New()

	target := testShift("2024-06-01", "09:00", "17:00", &person)
	other := testShift("2024-06-03", "09:00", "17:00", &person)

	result := engine.Evaluate(target, []*model.Shift{other}, nil)

	assert.Empty(t, result.Conflicts)
	assert.Empty(t, result.Violations)
	assert.Empty(t, result.Overrides)
	assert.True(t, result.CanAssign)
}

func TestEngine_DoubleBookingBlocks(t *testing.T) {
	engine, _ := newTestEngine(t)
	person := uuid.New()

	target := testShift("2024-06-01", "09:00", "17:00", &person)
	other := testShift("2024-06-01", "16:00", "20:00", &person)

	result := engine.Enforce(target, []*model.Shift{other}, nil, EnforceOptions{})

	assert.True(t, result.Blocked)
	assert.Contains(t, result.BlockedBy, RulePreventDoubleBooking)
	assert.NotEmpty(t, result.Message)
	assert.Contains(t, result.Conflicts, conflict.CodeAssignmentCollision)

	var v *Violation
	for _, candidate := range result.Violations {
		if candidate.RuleID == RulePreventDoubleBooking {
			v = candidate
		}
	}
	require.NotNil(t, v)
	assert.True(t, v.Blocking)
	assert.Contains(t, v.Conflicts, conflict.CodeTimeOverlap)
	assert.Contains(t, v.Conflicts, conflict.CodeAssignmentCollision)
}

func TestEngine_OverlapWithOtherPersonBlocks(t *testing.T) {
	engine, _ := newTestEngine(t)
	hans := uuid.New()
	anna := uuid.New()

	// 不同人的重叠班次同样触发禁止重复排班规则
	target := testShift("2024-06-01", "09:00", "17:00", &hans)
	other := testShift("2024-06-01", "16:00", "20:00", &anna)

	result := engine.Evaluate(target, []*model.Shift{other}, nil)

	assert.Contains(t, result.Conflicts, conflict.CodeTimeOverlap)
	assert.NotContains(t, result.Conflicts, conflict.CodeAssignmentCollision)
	assert.False(t, result.CanAssign)
}

func TestEngine_OverrideUnblocks(t *testing.T) {
	engine, _ := newTestEngine(t)
	person := uuid.New()

	target := testShift("2024-06-01", "09:00", "17:00", &person)
	other := testShift("2024-06-01", "16:00", "20:00", &person)
	others := []*model.Shift{other}

	// 初始被阻止
	blocked := engine.Enforce(target, others, nil, EnforceOptions{})
	require.True(t, blocked.Blocked)

	// 创建豁免后放行
	o, err := engine.CreateOverride(OverrideInput{
		ShiftID: target.ID,
		RuleID:  RulePreventDoubleBooking,
		Actor:   Actor{Name: "王经理", Role: "manager"},
		Reason:  "节假日人手不足",
	})
	require.NoError(t, err)
	assert.True(t, o.Active)
	assert.Equal(t, "王经理", o.Approver)
	assert.Equal(t, "王经理", o.CreatedBy)

	allowed := engine.Enforce(target, others, nil, EnforceOptions{Actor: Actor{Name: "王经理"}})
	assert.False(t, allowed.Blocked)
	assert.Empty(t, allowed.BlockedBy)
	assert.Len(t, allowed.Overrides, 1)

	// 删除豁免后重新被阻止
	_, err = engine.RemoveOverride(o.ID, Actor{Name: "王经理"})
	require.NoError(t, err)

	reblocked := engine.Enforce(target, others, nil, EnforceOptions{})
	assert.True(t, reblocked.Blocked)
}

func TestEngine_ForceAssignBypassesBlocking(t *testing.T) {
	engine, _ := newTestEngine(t)
	person := uuid.New()

	target := testShift("2024-06-01", "09:00", "17:00", &person)
	other := testShift("2024-06-01", "16:00", "20:00", &person)

	result := engine.Enforce(target, []*model.Shift{other}, nil, EnforceOptions{
		Actor:       Actor{Name: "王经理"},
		ForceAssign: true,
	})

	assert.False(t, result.Blocked)
	assert.False(t, result.CanAssign, "强制通过不改变评估结论本身")
}

func TestEngine_WarningDoesNotBlock(t *testing.T) {
	engine, _ := newTestEngine(t)
	person := uuid.New()

	// 仅休息不足，属于警告级
	target := testShift("2024-06-01", "22:00", "06:00", &person)
	other := testShift("2024-06-02", "07:00", "15:00", &person)

	result := engine.Enforce(target, []*model.Shift{other}, nil, EnforceOptions{})

	assert.False(t, result.Blocked)
	assert.Contains(t, result.Warnings, conflict.CodeShortTurnaround)

	var restViolation *Violation
	for _, v := range result.Violations {
		if v.RuleID == RuleRestPeriod {
			restViolation = v
		}
	}
	require.NotNil(t, restViolation)
	assert.Equal(t, conflict.SeverityWarning, restViolation.Severity)
	assert.False(t, restViolation.Blocking)
}

func TestEngine_LocationWarningDoesNotGate(t *testing.T) {
	engine, _ := newTestEngine(t)
	person := uuid.New()

	target := testShift("2024-06-01", "09:00", "17:00", &person)
	target.WorkLocation = "总部"
	other := testShift("2024-06-01", "16:00", "20:00", &person)
	other.WorkLocation = "分部"

	// 地点不一致只是警告；豁免掉重复排班后即可指派
	_, err := engine.CreateOverride(OverrideInput{
		ShiftID: target.ID,
		RuleID:  RulePreventDoubleBooking,
		Actor:   Actor{Name: "王经理"},
		Reason:  "跨点支援",
	})
	require.NoError(t, err)

	result := engine.Evaluate(target, []*model.Shift{other}, nil)

	assert.True(t, result.CanAssign)
	var locationViolation *Violation
	for _, v := range result.Violations {
		if v.RuleID == RuleLocationConsistency {
			locationViolation = v
		}
	}
	require.NotNil(t, locationViolation)
	assert.False(t, locationViolation.Blocking)
}

func TestEngine_CreateOverrideUnknownRule(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateOverride(OverrideInput{
		ShiftID: uuid.New(),
		RuleID:  "NO_SUCH_RULE",
		Actor:   Actor{Name: "王经理"},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeRuleNotFound))
}

func TestEngine_CreateOverrideRequiresActor(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.CreateOverride(OverrideInput{
		ShiftID: uuid.New(),
		RuleID:  RulePreventDoubleBooking,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeInvalidInput))
}

func TestEngine_RemoveOverrideNotFound(t *testing.T) {
	engine, _ := newTestEngine(t)

	_, err := engine.RemoveOverride(uuid.New(), Actor{Name: "王经理"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.CodeOverrideNotFound))
}

func TestEngine_OverrideLastWriteWins(t *testing.T) {
	engine, _ := newTestEngine(t)
	shiftID := uuid.New()

	first, err := engine.CreateOverride(OverrideInput{
		ShiftID: shiftID,
		RuleID:  RuleRestPeriod,
		Actor:   Actor{Name: "王经理"},
		Reason:  "第一次",
	})
	require.NoError(t, err)

	second, err := engine.CreateOverride(OverrideInput{
		ShiftID: shiftID,
		RuleID:  RuleRestPeriod,
		Actor:   Actor{Name: "李主管"},
		Reason:  "第二次",
	})
	require.NoError(t, err)

	active := engine.ListOverridesForShift(shiftID)
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)
	assert.Equal(t, "李主管", active[0].Approver)
	assert.NotEqual(t, first.ID, active[0].ID)

	all := engine.ListActiveOverrides()
	assert.Len(t, all, 1)
}

func TestEngine_AuditTrail(t *testing.T) {
	engine, sink := newTestEngine(t)
	person := uuid.New()

	target := testShift("2024-06-01", "09:00", "17:00", &person)
	other := testShift("2024-06-01", "16:00", "20:00", &person)

	engine.Evaluate(target, []*model.Shift{other}, nil)

	o, err := engine.CreateOverride(OverrideInput{
		ShiftID: target.ID,
		RuleID:  RulePreventDoubleBooking,
		Actor:   Actor{Name: "王经理", Role: "manager"},
		Reason:  "测试",
	})
	require.NoError(t, err)

	engine.Enforce(target, []*model.Shift{other}, nil, EnforceOptions{Actor: Actor{Name: "王经理"}})

	_, err = engine.RemoveOverride(o.ID, Actor{Name: "王经理"})
	require.NoError(t, err)

	actions := make(map[string]int)
	for _, entry := range sink.Recent(0) {
		actions[entry.Action]++
	}
	assert.GreaterOrEqual(t, actions[audit.ActionRuleEvaluation], 2)
	assert.Equal(t, 1, actions[audit.ActionOverrideCreated])
	assert.Equal(t, 1, actions[audit.ActionOverrideApplied])
	assert.Equal(t, 1, actions[audit.ActionOverrideRemoved])
}

func TestDefaultCatalog(t *testing.T) {
	catalog := DefaultCatalog()
	require.Len(t, catalog, 3)

	byID := make(map[string]*Rule)
	for _, r := range catalog {
		byID[r.ID] = r
		assert.True(t, r.Overridable, "内置规则应该都允许豁免: %s", r.ID)
	}

	doubleBooking := byID[RulePreventDoubleBooking]
	require.NotNil(t, doubleBooking)
	assert.True(t, doubleBooking.IsBlocking())
	assert.ElementsMatch(t,
		[]conflict.Code{conflict.CodeAssignmentCollision, conflict.CodeTimeOverlap},
		doubleBooking.ConflictCodes)

	location := byID[RuleLocationConsistency]
	require.NotNil(t, location)
	assert.False(t, location.IsBlocking())

	rest := byID[RuleRestPeriod]
	require.NotNil(t, rest)
	assert.False(t, rest.IsBlocking())
}
