package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/session"
	"github.com/banshee-data/geoclaim/internal/timeutil"
)

const track = `# recorded 2026-04-18
{"point":{"lat":37.7749,"lon":-122.4194},"time":"2026-04-18T07:30:00Z","accuracy_m":5}

{"point":{"lat":37.7750,"lon":-122.4194},"time":"2026-04-18T07:30:10Z"}
{"point":{"lat":37.7751,"lon":-122.4194},"time":"2026-04-18T07:30:20Z","source":"phone"}
`

func TestReadFixes(t *testing.T) {
	fixes, err := ReadFixes(strings.NewReader(track))
	require.NoError(t, err)
	require.Len(t, fixes, 3)
	assert.Equal(t, 37.7749, fixes[0].Point.Lat)
	assert.Equal(t, 5.0, fixes[0].Accuracy)
	assert.Equal(t, t0.Add(20*time.Second), fixes[2].Time)
	assert.Equal(t, "phone", fixes[2].Source)

	_, err = ReadFixes(strings.NewReader("{\"point\":{}}\n{oops"))
	assert.ErrorContains(t, err, "line 2")
}

func TestLoadFixes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(track), 0o644))

	fixes, err := LoadFixes(path)
	require.NoError(t, err)
	assert.Len(t, fixes, 3)

	_, err = LoadFixes(filepath.Join(t.TempDir(), "missing.jsonl"))
	assert.Error(t, err)
}

func runReplay(t *testing.T, r *ReplaySource) <-chan error {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()
	return done
}

func TestReplaySource_OneFixPerTick(t *testing.T) {
	fixes, err := ReadFixes(strings.NewReader(track))
	require.NoError(t, err)

	clock := timeutil.NewMockClock(t0.Add(time.Hour))
	mb := NewMailbox(session.AuthGranted)
	done := runReplay(t, NewReplaySource(fixes, mb, clock, 2*time.Second))
	require.Eventually(t, func() bool { return clock.ActiveTickers() == 1 }, time.Second, 5*time.Millisecond)

	for i, want := range fixes {
		clock.Advance(2 * time.Second)
		require.Eventually(t, func() bool {
			received, _ := mb.Stats()
			return received == i+1
		}, time.Second, 5*time.Millisecond)
		got, ok := mb.LatestFix()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("replay did not finish")
	}
	assert.Equal(t, 0, clock.ActiveTickers())
}

func TestReplaySource_Restamp(t *testing.T) {
	fixes, err := ReadFixes(strings.NewReader(track))
	require.NoError(t, err)

	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	clock := timeutil.NewMockClock(now)
	mb := NewMailbox(session.AuthGranted)
	r := NewReplaySource(fixes[:2], mb, clock, time.Second)
	r.Restamp = true
	runReplay(t, r)
	require.Eventually(t, func() bool { return clock.ActiveTickers() == 1 }, time.Second, 5*time.Millisecond)

	var got []geo.Fix
	for i := 0; i < 2; i++ {
		clock.Advance(time.Second)
		require.Eventually(t, func() bool {
			_, ok := mb.Peek()
			return ok
		}, time.Second, 5*time.Millisecond)
		f, _ := mb.LatestFix()
		got = append(got, f)
	}
	assert.Equal(t, now.Add(time.Second), got[0].Time)
	// recorded spacing is kept
	assert.Equal(t, 10*time.Second, got[1].Time.Sub(got[0].Time))
}

func TestReplaySource_Edges(t *testing.T) {
	mb := NewMailbox(session.AuthGranted)
	assert.NoError(t, NewReplaySource(nil, mb, nil, time.Second).Run(context.Background()))

	one := []geo.Fix{{Point: sf, Time: t0}}
	assert.Error(t, NewReplaySource(one, mb, nil, 0).Run(context.Background()))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewReplaySource(one, mb, timeutil.NewMockClock(t0), time.Second)
	assert.ErrorIs(t, r.Run(ctx), context.Canceled)
}
