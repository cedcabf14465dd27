package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/monitoring"
)

var (
	origin = geo.Point{Lat: 37.7749, Lon: -122.4194}
	t0     = time.Date(2026, 4, 18, 7, 30, 0, 0, time.UTC)
)

// squareLoop walks a 40 m square anticlockwise in (east, north) meters. Every
// leg is at least 11 m and only the twelfth point is back within 30 m of the
// start.
var squareLoop = [][2]float64{
	{0, 0}, {40.0 / 3, 0}, {80.0 / 3, 0}, {40, 0},
	{40, 40.0 / 3}, {40, 80.0 / 3}, {40, 40},
	{28, 40}, {17, 40}, {6, 40},
	{0, 30.5}, {0, 18.5},
}

// figureEight crosses itself in the middle.
var figureEight = [][2]float64{
	{0, 0}, {10, 10}, {20, 20}, {30, 30},
	{30, 20}, {30, 10}, {30, 0},
	{20, 10}, {10, 20}, {0, 30},
	{0, 20}, {0, 10}, {0, 2},
}

// sliver goes out 60 m and comes back 1.5 m to the side, enclosing about
// 72 m².
var sliver = [][2]float64{
	{0, 0}, {12, 0}, {24, 0}, {36, 0}, {48, 0}, {60, 0},
	{50, 1.5}, {38, 1.5}, {26, 1.5}, {14, 1.5},
}

// hexagon has six 15 m sides; first and last points are 15 m apart.
var hexagon = [][2]float64{
	{15, 0}, {7.5, 12.990}, {-7.5, 12.990}, {-15, 0}, {-7.5, -12.990}, {7.5, -12.990},
}

func points(offsets [][2]float64) []geo.Point {
	pts := make([]geo.Point, len(offsets))
	for i, o := range offsets {
		pts[i] = geo.Offset(origin, o[1], o[0])
	}
	return pts
}

// walkFixes stamps the points of a walk every 10 s, about 5 km/h for the
// legs used in these fixtures.
func walkFixes(offsets [][2]float64) []geo.Fix {
	pts := points(offsets)
	fixes := make([]geo.Fix, len(pts))
	for i, p := range pts {
		fixes[i] = geo.Fix{Point: p, Time: t0.Add(time.Duration(i) * 10 * time.Second), Accuracy: 5}
	}
	return fixes
}

// fakeSource is a single-slot position source.
type fakeSource struct {
	mu        sync.Mutex
	fix       geo.Fix
	has       bool
	auth      Authorization
	onRequest Authorization
	requests  int
}

func newFakeSource(auth Authorization) *fakeSource {
	return &fakeSource{auth: auth, onRequest: AuthGranted}
}

func (f *fakeSource) Put(fix geo.Fix) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fix, f.has = fix, true
}

func (f *fakeSource) Pending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.has
}

func (f *fakeSource) LatestFix() (geo.Fix, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.has {
		return geo.Fix{}, false
	}
	f.has = false
	return f.fix, true
}

func (f *fakeSource) Authorization() Authorization {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.auth
}

func (f *fakeSource) RequestAuthorization(context.Context) Authorization {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++
	f.auth = f.onRequest
	return f.auth
}

// recordingUploader keeps every claim it is handed.
type recordingUploader struct {
	mu     sync.Mutex
	claims []Claim
	err    error
}

func (u *recordingUploader) Upload(_ context.Context, c Claim) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.err != nil {
		return u.err
	}
	u.claims = append(u.claims, c)
	return nil
}

func (u *recordingUploader) Claims() []Claim {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]Claim, len(u.claims))
	copy(out, u.claims)
	return out
}

// muteLogs silences the diagnostic logger for the duration of the test.
func muteLogs(t *testing.T) {
	t.Helper()
	orig := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(orig) })
}
