package schedule

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetSchedulesRepeatingJob(t *testing.T) {
	r := New()
	defer r.Stop()

	var runs int32
	require.NoError(t, r.Set(10*time.Millisecond, func() { atomic.AddInt32(&runs, 1) }))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 2 }, 2*time.Second, 5*time.Millisecond)
}

func TestSetReplacesPreviousJob(t *testing.T) {
	r := New()
	defer r.Stop()

	var first, second int32
	require.NoError(t, r.Set(10*time.Millisecond, func() { atomic.AddInt32(&first, 1) }))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&first) >= 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, r.Set(10*time.Millisecond, func() { atomic.AddInt32(&second, 1) }))
	stale := atomic.LoadInt32(&first)
	require.Eventually(t, func() bool { return atomic.LoadInt32(&second) >= 2 }, 2*time.Second, 5*time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&first), stale+1, "replaced job must stop running")
}

func TestSetZeroDisables(t *testing.T) {
	r := New()
	defer r.Stop()

	var runs int32
	require.NoError(t, r.Set(10*time.Millisecond, func() { atomic.AddInt32(&runs, 1) }))
	require.Eventually(t, func() bool { return atomic.LoadInt32(&runs) >= 1 }, 2*time.Second, 5*time.Millisecond)

	require.NoError(t, r.Set(0, nil))
	stopped := atomic.LoadInt32(&runs)
	time.Sleep(50 * time.Millisecond)
	assert.LessOrEqual(t, atomic.LoadInt32(&runs), stopped+1)
}
