package source

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/timeutil"
)

// ReadFixes decodes a JSON-lines track, one geo.Fix per line. Blank lines
// and lines starting with '#' are skipped.
func ReadFixes(r io.Reader) ([]geo.Fix, error) {
	var fixes []geo.Fix
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 || b[0] == '#' {
			continue
		}
		var fix geo.Fix
		if err := json.Unmarshal(b, &fix); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		fixes = append(fixes, fix)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return fixes, nil
}

// LoadFixes reads a JSON-lines track from path.
func LoadFixes(path string) ([]geo.Fix, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	fixes, err := ReadFixes(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return fixes, nil
}

// ReplaySource plays a recorded track into a mailbox, one fix per interval.
type ReplaySource struct {
	fixes    []geo.Fix
	out      *Mailbox
	clock    timeutil.Clock
	interval time.Duration

	// Restamp replaces recorded times with the replay clock's time, so an
	// old track looks live to the speed guard.
	Restamp bool
}

// NewReplaySource replays fixes into out on clock, one every interval.
func NewReplaySource(fixes []geo.Fix, out *Mailbox, clock timeutil.Clock, interval time.Duration) *ReplaySource {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &ReplaySource{fixes: fixes, out: out, clock: clock, interval: interval}
}

// Run delivers the track and returns nil once every fix has been put.
func (r *ReplaySource) Run(ctx context.Context) error {
	if len(r.fixes) == 0 {
		return nil
	}
	if r.interval <= 0 {
		return fmt.Errorf("replay interval must be positive, got %s", r.interval)
	}
	ticker := r.clock.NewTicker(r.interval)
	defer ticker.Stop()

	var start, first time.Time
	for i := 0; i < len(r.fixes); {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			fix := r.fixes[i]
			if r.Restamp {
				if i == 0 {
					start, first = now, fix.Time
				}
				fix.Time = start.Add(fix.Time.Sub(first))
			}
			r.out.Put(fix)
			i++
		}
	}
	return nil
}
