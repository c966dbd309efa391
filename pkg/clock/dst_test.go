package clock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadZone(t *testing.T) {
	loc, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Shanghai", loc.String())

	_, err = LoadZone("Not/AZone")
	assert.Error(t, err)
}

func TestResolveSpan_SpringForward(t *testing.T) {
	// 欧洲中部时间 2024-03-31 02:00 拨快到 03:00
	loc, err := LoadZone("Europe/Berlin")
	require.NoError(t, err)

	span, err := ResolveSpan("2024-03-30", "22:00", "06:00", loc)
	require.NoError(t, err)

	assert.True(t, span.CrossesMidnight)
	assert.True(t, span.DSTTransition)
	assert.False(t, span.Start.IsDST)
	assert.True(t, span.End.IsDST)
	// 墙钟8小时，实际只过了7小时
	assert.Equal(t, 420, span.SpanDuration())
}

func TestResolveSpan_FallBack(t *testing.T) {
	// 欧洲中部时间 2024-10-27 03:00 拨回到 02:00
	loc, err := LoadZone("Europe/Berlin")
	require.NoError(t, err)

	span, err := ResolveSpan("2024-10-26", "22:00", "06:00", loc)
	require.NoError(t, err)

	assert.True(t, span.CrossesMidnight)
	assert.True(t, span.DSTTransition)
	// 墙钟8小时，实际过了9小时
	assert.Equal(t, 540, span.SpanDuration())
}

func TestResolveSpan_SameDay(t *testing.T) {
	loc, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)

	span, err := ResolveSpan("2024-06-01", "09:00", "17:00", loc)
	require.NoError(t, err)

	assert.False(t, span.CrossesMidnight)
	assert.False(t, span.DSTTransition)
	assert.Equal(t, 480, span.SpanDuration())
}

func TestResolveSpan_InvalidInput(t *testing.T) {
	loc, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)

	_, err = ResolveSpan("2024-06-01", "24:00", "08:00", loc)
	assert.Error(t, err)

	_, err = ResolveSpan("06/01/2024", "09:00", "17:00", loc)
	assert.Error(t, err)
}

func TestShiftSpanOverlaps(t *testing.T) {
	loc, err := LoadZone("Asia/Shanghai")
	require.NoError(t, err)

	night, err := ResolveSpan("2024-06-01", "22:00", "06:00", loc)
	require.NoError(t, err)
	morning, err := ResolveSpan("2024-06-02", "05:00", "09:00", loc)
	require.NoError(t, err)
	afternoon, err := ResolveSpan("2024-06-02", "06:00", "14:00", loc)
	require.NoError(t, err)

	// 前一天的夜班延伸到次日凌晨
	assert.True(t, night.Overlaps(morning))
	assert.True(t, morning.Overlaps(night))
	// 首尾相接不重叠
	assert.False(t, night.Overlaps(afternoon))
}
