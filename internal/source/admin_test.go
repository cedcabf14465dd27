package source

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/session"
)

// localHostRequest passes tsweb's loopback check on /debug/ routes.
func localHostRequest(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.RemoteAddr = "127.0.0.1:12345"
	return req
}

func TestMailbox_State(t *testing.T) {
	m := NewMailbox(session.AuthGranted)
	if diff := cmp.Diff(MailboxState{Authorization: session.AuthGranted}, m.State()); diff != "" {
		t.Errorf("empty State mismatch (-want +got):\n%s", diff)
	}

	first := geo.Fix{Point: sf, Time: t0}
	second := geo.Fix{Point: geo.Offset(sf, 12, 0), Time: t0.Add(time.Second)}
	m.Put(first)
	m.Put(second)

	want := MailboxState{Pending: &second, Received: 2, Overwritten: 1, Authorization: session.AuthGranted}
	if diff := cmp.Diff(want, m.State()); diff != "" {
		t.Errorf("State mismatch (-want +got):\n%s", diff)
	}

	// State does not take the fix
	if fix, ok := m.LatestFix(); !ok || !fix.Time.Equal(second.Time) {
		t.Errorf("LatestFix() = %v, %v; want the second fix", fix, ok)
	}
	if got := m.State(); got.Pending != nil {
		t.Errorf("Pending = %v after the fix was taken", got.Pending)
	}
}

func TestMailbox_AttachAdminRoutes(t *testing.T) {
	m := NewMailbox(session.AuthUndetermined)
	m.Put(geo.Fix{Point: sf, Time: t0, Source: "nmea"})
	mux := http.NewServeMux()
	m.AttachAdminRoutes(mux)

	tests := []struct {
		name   string
		method string
		status int
	}{
		{"get", http.MethodGet, http.StatusOK},
		{"post not allowed", http.MethodPost, http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, localHostRequest(tt.method, "/debug/source"))
			if w.Code != tt.status {
				t.Fatalf("status = %d, want %d. Body: %s", w.Code, tt.status, w.Body.String())
			}
			if tt.status != http.StatusOK {
				return
			}

			var got struct {
				Pending       *geo.Fix `json:"pending"`
				Received      int      `json:"received"`
				Overwritten   int      `json:"overwritten"`
				Authorization string   `json:"authorization"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if got.Pending == nil || got.Pending.Source != "nmea" {
				t.Errorf("pending = %+v, want the nmea fix", got.Pending)
			}
			if got.Received != 1 || got.Overwritten != 0 || got.Authorization != "undetermined" {
				t.Errorf("body = %+v", got)
			}
		})
	}
}
