package source

import (
	"net/http"

	"tailscale.com/tsweb"

	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/httputil"
	"github.com/banshee-data/geoclaim/internal/session"
)

// MailboxState is the debug view of a Mailbox.
type MailboxState struct {
	Pending       *geo.Fix              `json:"pending,omitempty"`
	Received      int                   `json:"received"`
	Overwritten   int                   `json:"overwritten"`
	Authorization session.Authorization `json:"authorization"`
}

// State reports the mailbox contents without taking the pending fix.
func (m *Mailbox) State() MailboxState {
	st := MailboxState{Authorization: m.Authorization()}
	if fix, ok := m.Peek(); ok {
		st.Pending = &fix
	}
	st.Received, st.Overwritten = m.Stats()
	return st
}

// AttachAdminRoutes mounts the mailbox state under /debug/source.
func (m *Mailbox) AttachAdminRoutes(mux *http.ServeMux) {
	debug := tsweb.Debugger(mux)
	debug.Handle("source", "Pending fix and mailbox counters", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			httputil.MethodNotAllowed(w, http.MethodGet)
			return
		}
		httputil.WriteJSONOK(w, m.State())
	}))
}
