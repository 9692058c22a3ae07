package profiler

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartOperation(t *testing.T) {
	p := New()
	clock := time.Unix(0, 0)
	p.now = func() time.Time { return clock }

	stop := p.StartOperation("preprocess")
	clock = clock.Add(10 * time.Millisecond)
	stop()

	stop = p.StartOperation("execute")
	clock = clock.Add(30 * time.Millisecond)
	stop()

	stop = p.StartOperation("preprocess")
	clock = clock.Add(20 * time.Millisecond)
	stop()

	stats := p.Stats()
	require.Len(t, stats, 2)
	assert.Equal(t, "preprocess", stats[0].Name, "first-recorded order")
	assert.Equal(t, int64(2), stats[0].Count)
	assert.Equal(t, 10*time.Millisecond, stats[0].Min)
	assert.Equal(t, 20*time.Millisecond, stats[0].Max)
	assert.Equal(t, 15*time.Millisecond, stats[0].Avg())
	assert.Equal(t, 30*time.Millisecond, stats[1].Total)
}

func TestRender(t *testing.T) {
	p := New()
	p.Record("execute", 2*time.Millisecond)

	var buf bytes.Buffer
	p.Render(&buf)
	assert.Contains(t, buf.String(), "execute")
	assert.Contains(t, buf.String(), "2ms")
}

func TestNilProfiler(t *testing.T) {
	var p *Profiler
	p.StartOperation("x")()
	p.Record("x", time.Second)
	assert.Nil(t, p.Stats())
	assert.Zero(t, OperationStats{}.Avg())
}
