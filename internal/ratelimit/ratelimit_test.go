package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_PerMinuteBurst(t *testing.T) {
	l := New(600)
	// Wait fails fast when the next token lies past the deadline.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	admitted := 0
	for l.Wait(ctx) == nil {
		admitted++
		require.Less(t, admitted, 1000)
	}
	// burst is 10% of the per-minute rate
	assert.Equal(t, 60, admitted)
}

func TestWait_RespectsContext(t *testing.T) {
	l := NewWithBurst(0.001, 1)
	require.NoError(t, l.Wait(context.Background()), "first event should pass")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.Error(t, l.Wait(ctx))
}

func TestWindow_CapsEventsWithinWindow(t *testing.T) {
	w := NewWindow(3, 3*time.Minute)
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	for i := range 3 {
		assert.True(t, w.AllowAt(start.Add(time.Duration(i)*time.Second)), "event %d", i)
	}
	assert.Zero(t, w.RemainingAt(start.Add(3*time.Second)))

	// A token bucket would have refilled a slot here.
	assert.False(t, w.AllowAt(start.Add(61*time.Second)))
	assert.False(t, w.AllowAt(start.Add(179*time.Second)))
	assert.Equal(t, time.Second, w.WaitAt(start.Add(179*time.Second)))

	assert.True(t, w.AllowAt(start.Add(3*time.Minute)), "oldest event left the window")
	assert.False(t, w.AllowAt(start.Add(3*time.Minute)))
}

func TestWindow_NeverExceedsLimitInAnyWindow(t *testing.T) {
	const limit = 4
	window := 15 * time.Minute
	w := NewWindow(limit, window)
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var admitted []time.Time
	for i := range 90 {
		at := start.Add(time.Duration(i) * 30 * time.Second)
		if w.AllowAt(at) {
			admitted = append(admitted, at)
		}
	}
	require.NotEmpty(t, admitted)

	for i, from := range admitted {
		inWindow := 0
		for _, at := range admitted[i:] {
			if at.Sub(from) < window {
				inWindow++
			}
		}
		assert.LessOrEqual(t, inWindow, limit, "window starting %s", from.Format(time.Kitchen))
	}
	// 45 minutes of demand admits one full quota per window.
	assert.Len(t, admitted, 3*limit)
}

func TestWindow_RemainingAndWait(t *testing.T) {
	w := NewWindow(2, time.Minute)
	start := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, 2, w.Limit())
	assert.Equal(t, 2, w.RemainingAt(start))
	assert.Zero(t, w.WaitAt(start))

	require.True(t, w.AllowAt(start))
	require.True(t, w.AllowAt(start.Add(20*time.Second)))
	assert.Zero(t, w.RemainingAt(start.Add(30*time.Second)))
	assert.Equal(t, 30*time.Second, w.WaitAt(start.Add(30*time.Second)))

	assert.Equal(t, 1, w.RemainingAt(start.Add(time.Minute)))
	assert.Equal(t, 2, w.RemainingAt(start.Add(80*time.Second)))
}

func TestNewWindow_ClampsArguments(t *testing.T) {
	w := NewWindow(0, 0)
	now := time.Now()

	assert.Equal(t, 1, w.Limit())
	assert.True(t, w.AllowAt(now))
	assert.False(t, w.AllowAt(now))
	assert.True(t, w.AllowAt(now.Add(time.Second)))
}
