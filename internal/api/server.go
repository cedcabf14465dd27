// Package api serves the capture session and stored claims over HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/banshee-data/geoclaim/internal/coords"
	"github.com/banshee-data/geoclaim/internal/db"
	"github.com/banshee-data/geoclaim/internal/geo"
	"github.com/banshee-data/geoclaim/internal/httputil"
	"github.com/banshee-data/geoclaim/internal/monitoring"
	"github.com/banshee-data/geoclaim/internal/session"
	"github.com/banshee-data/geoclaim/internal/units"
	"github.com/banshee-data/geoclaim/internal/version"
)

// ANSI escape codes for request logging
const (
	colorCyan      = "\033[36m"
	colorReset     = "\033[0m"
	colorYellow    = "\033[33m"
	colorBoldGreen = "\033[1;32m"
	colorBoldRed   = "\033[1;31m"
)

// commandTimeout bounds how long a session command may wait for the
// session goroutine.
const commandTimeout = 5 * time.Second

// Session is the part of *session.Session the API drives.
type Session interface {
	Start(ctx context.Context) error
	Cancel(ctx context.Context) error
	Reset(ctx context.Context) error
	Status() session.Status
	Log() []session.LogEntry
	Path() []geo.Point
	DisplayPath() []geo.Point
	Subscribe() (string, <-chan session.Event)
	Unsubscribe(id string)
}

// ClaimStore is the read side of the claim database.
type ClaimStore interface {
	ListClaims(ctx context.Context, limit int) ([]session.Claim, error)
	GetClaim(ctx context.Context, id string) (session.Claim, error)
	DeleteClaim(ctx context.Context, id string) error
	Stats(ctx context.Context) (db.ClaimStats, error)
}

type Server struct {
	session Session
	claims  ClaimStore
	metrics *monitoring.Metrics
}

// NewServer serves s. claims and metrics may be nil, in which case their
// routes are not registered.
func NewServer(s Session, claims ClaimStore, metrics *monitoring.Metrics) *Server {
	return &Server{session: s, claims: claims, metrics: metrics}
}

type loggingResponseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (lrw *loggingResponseWriter) WriteHeader(code int) {
	lrw.statusCode = code
	lrw.ResponseWriter.WriteHeader(code)
}

func (lrw *loggingResponseWriter) Flush() {
	if flusher, ok := lrw.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

func statusCodeColor(statusCode int) string {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return colorBoldGreen + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 300 && statusCode < 400:
		return colorYellow + strconv.Itoa(statusCode) + colorReset
	case statusCode >= 400:
		return colorBoldRed + strconv.Itoa(statusCode) + colorReset
	default:
		return strconv.Itoa(statusCode)
	}
}

// LoggingMiddleware logs method, path, query, status, and duration
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &loggingResponseWriter{w, http.StatusOK}
		next.ServeHTTP(lrw, r)
		log.Printf(
			"[%s] %s %s%s%s %vms",
			statusCodeColor(lrw.statusCode), r.Method,
			colorCyan, r.RequestURI, colorReset,
			float64(time.Since(start).Nanoseconds())/1e6,
		)
	})
}

// ServeMux returns the API routes.
func (s *Server) ServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.healthz)
	mux.HandleFunc("GET /api/version", s.showVersion)

	mux.HandleFunc("GET /api/status", s.showStatus)
	mux.HandleFunc("GET /api/path", s.showPath)
	mux.HandleFunc("GET /api/convert", s.convertPoint)
	mux.HandleFunc("GET /api/log", s.showLog)
	mux.HandleFunc("GET /api/events", s.streamEvents)
	mux.HandleFunc("POST /api/session/start", s.command((Session).Start))
	mux.HandleFunc("POST /api/session/cancel", s.command((Session).Cancel))
	mux.HandleFunc("POST /api/session/reset", s.command((Session).Reset))

	if s.claims != nil {
		mux.HandleFunc("GET /api/claims", s.listClaims)
		mux.HandleFunc("GET /api/claims/stats", s.showClaimStats)
		mux.HandleFunc("GET /api/claims/{id}", s.getClaim)
		mux.HandleFunc("DELETE /api/claims/{id}", s.deleteClaim)
	}
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return mux
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{"status": "ok"})
}

func (s *Server) showVersion(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSONOK(w, map[string]string{
		"version":    version.Version,
		"git_sha":    version.GitSHA,
		"build_time": version.BuildTime,
	})
}

// statusView is a session status with the warning speed restated in the
// caller's units.
type statusView struct {
	session.Status
	WarningSpeed float64 `json:"warning_speed,omitempty"`
	SpeedUnits   string  `json:"speed_units"`
}

// showStatus returns the session status; ?units= selects the unit of
// warning_speed (kph by default).
func (s *Server) showStatus(w http.ResponseWriter, r *http.Request) {
	unit := units.KPH
	if u := r.URL.Query().Get("units"); u != "" {
		parsed, err := units.ParseUnit(u)
		if err != nil {
			httputil.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		unit = parsed
	}
	st := s.session.Status()
	httputil.WriteJSONOK(w, statusView{
		Status:       st,
		WarningSpeed: units.ConvertKPH(st.Warning.SpeedKPH, unit),
		SpeedUnits:   unit,
	})
}

// showPath returns the captured path; ?display=true converts it for
// regional map tiles.
func (s *Server) showPath(w http.ResponseWriter, r *http.Request) {
	display, err := parseBool(r.URL.Query().Get("display"))
	if err != nil {
		httputil.WriteJSONError(w, http.StatusBadRequest, "Invalid 'display' parameter")
		return
	}
	path := s.session.Path()
	if display {
		path = s.session.DisplayPath()
	}
	if path == nil {
		path = []geo.Point{}
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"display": display,
		"points":  path,
		"bounds":  geo.BoundsOf(geo.BoundingBox(path)),
	})
}

// convertPoint maps one point between the capture frame and the display
// frame used by regional map tiles. ?to=display (default) applies the
// offset, ?to=capture removes it.
func (s *Server) convertPoint(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(q.Get("lat"), 64)
	lon, errLon := strconv.ParseFloat(q.Get("lon"), 64)
	p := geo.Point{Lat: lat, Lon: lon}
	if errLat != nil || errLon != nil || !p.Valid() {
		httputil.WriteJSONError(w, http.StatusBadRequest, "Invalid 'lat' or 'lon' parameter")
		return
	}

	var out geo.Point
	to := q.Get("to")
	switch to {
	case "", "display":
		to = "display"
		out = coords.Convert(p)
	case "capture":
		out = coords.Revert(p)
	default:
		httputil.WriteJSONError(w, http.StatusBadRequest, "Invalid 'to' parameter: expected display or capture")
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{
		"to":        to,
		"in_region": !coords.OutOfRegion(p),
		"point":     out,
	})
}

func (s *Server) showLog(w http.ResponseWriter, r *http.Request) {
	entries := s.session.Log()
	if entries == nil {
		entries = []session.LogEntry{}
	}
	httputil.WriteJSONOK(w, entries)
}

func (s *Server) command(fn func(Session, context.Context) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), commandTimeout)
		defer cancel()
		if err := fn(s.session, ctx); err != nil {
			httputil.WriteJSONError(w, commandStatus(err), err.Error())
			return
		}
		httputil.WriteJSONOK(w, s.session.Status())
	}
}

func commandStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrNotAuthorized):
		return http.StatusForbidden
	case errors.Is(err, session.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, session.ErrStopped), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) listClaims(w http.ResponseWriter, r *http.Request) {
	limit := db.DefaultListLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		parsed, err := strconv.Atoi(l)
		if err != nil || parsed < 1 {
			httputil.WriteJSONError(w, http.StatusBadRequest, "Invalid 'limit' parameter")
			return
		}
		limit = parsed
	}
	claims, err := s.claims.ListClaims(r.Context(), limit)
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to list claims: %v", err))
		return
	}
	if claims == nil {
		claims = []session.Claim{}
	}
	httputil.WriteJSONOK(w, claims)
}

func (s *Server) getClaim(w http.ResponseWriter, r *http.Request) {
	c, err := s.claims.GetClaim(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.WriteJSONError(w, http.StatusNotFound, "claim not found")
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to get claim: %v", err))
		return
	}
	httputil.WriteJSONOK(w, c)
}

func (s *Server) deleteClaim(w http.ResponseWriter, r *http.Request) {
	err := s.claims.DeleteClaim(r.Context(), r.PathValue("id"))
	if errors.Is(err, db.ErrNotFound) {
		httputil.WriteJSONError(w, http.StatusNotFound, "claim not found")
		return
	}
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to delete claim: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) showClaimStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.claims.Stats(r.Context())
	if err != nil {
		httputil.WriteJSONError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to compute stats: %v", err))
		return
	}
	httputil.WriteJSONOK(w, stats)
}

func parseBool(v string) (bool, error) {
	if v == "" {
		return false, nil
	}
	return strconv.ParseBool(v)
}
