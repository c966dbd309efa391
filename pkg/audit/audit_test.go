package audit

import (
	"fmt"
	"testing"
)

func TestMemorySink_AppendAndRecent(t *testing.T) {
	sink := NewMemorySink(10)

	for i := 0; i < 3; i++ {
		_, err := sink.Append(ActionRuleEvaluation, "system", "", map[string]interface{}{
			"seq": i,
		}, i)
		if err != nil {
			t.Fatalf("写入失败: %v", err)
		}
	}

	entries := sink.Recent(0)
	if len(entries) != 3 {
		t.Fatalf("期望3条记录, 实际 %d", len(entries))
	}
	// 时间倒序：最新的在前
	if entries[0].Details["seq"] != 2 {
		t.Errorf("最新记录应该在前, 实际 seq=%v", entries[0].Details["seq"])
	}
}

func TestMemorySink_RingBufferBound(t *testing.T) {
	sink := NewMemorySink(5)

	for i := 0; i < 12; i++ {
		sink.Append(ActionOverrideCreated, fmt.Sprintf("user%d", i), "manager", nil, 1)
	}

	if sink.Size() != 5 {
		t.Errorf("记录数不应该超过容量: %d", sink.Size())
	}

	entries := sink.Recent(0)
	if len(entries) != 5 {
		t.Fatalf("期望5条记录, 实际 %d", len(entries))
	}
	// 只保留最新的5条
	if entries[0].Actor != "user11" {
		t.Errorf("最新记录应该是 user11, 实际 %s", entries[0].Actor)
	}
	if entries[4].Actor != "user7" {
		t.Errorf("最旧记录应该是 user7, 实际 %s", entries[4].Actor)
	}
}

func TestMemorySink_RecentLimit(t *testing.T) {
	sink := NewMemorySink(10)
	for i := 0; i < 8; i++ {
		sink.Append(ActionRuleEvaluation, "system", "", nil, 0)
	}

	if got := len(sink.Recent(3)); got != 3 {
		t.Errorf("limit=3 应该返回3条, 实际 %d", got)
	}
	if got := len(sink.Recent(100)); got != 8 {
		t.Errorf("limit超过记录数应该全部返回, 实际 %d", got)
	}
}

func TestMemorySink_DefaultCapacity(t *testing.T) {
	sink := NewMemorySink(0)
	if sink.Capacity() != DefaultCapacity {
		t.Errorf("容量<=0时应该使用默认容量, 实际 %d", sink.Capacity())
	}
}
