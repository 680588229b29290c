package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/alfredjeanlab/warroom/internal/clock"
	"github.com/alfredjeanlab/warroom/internal/events"
	"github.com/alfredjeanlab/warroom/internal/model"
	"github.com/alfredjeanlab/warroom/internal/stats"
	"github.com/alfredjeanlab/warroom/internal/store"
)

// NewHTTPHandler returns an http.Handler with all routes registered.
// When authToken is non-empty, requests (except GET /v1/health) must include
// a valid Authorization: Bearer <token> header.
func (s *Server) NewHTTPHandler(authToken string) http.Handler {
	mux := http.NewServeMux()
	s.route(mux, "GET /v1/health", s.handleHealth)
	s.route(mux, "GET /v1/zones", s.handleZones)
	s.route(mux, "GET /v1/clock", s.handleClock)
	s.route(mux, "GET /v1/records/{category}", s.handleListRecords)
	s.route(mux, "POST /v1/records/{category}", s.handleCreateRecord)
	s.route(mux, "DELETE /v1/records/{category}/{id}", s.handleDeleteRecord)
	s.route(mux, "GET /v1/records/{category}/stream", s.handleStream)
	s.route(mux, "GET /v1/stats", s.handleStats)
	if s.metrics != nil {
		mux.Handle("GET /metrics", s.metrics.Handler())
	}
	return RecoveryMiddleware(s.logger, AuthMiddleware(authToken, mux))
}

// route registers h under pattern, observing its status and latency.
func (s *Server) route(mux *http.ServeMux, pattern string, h http.HandlerFunc) {
	if s.metrics == nil {
		mux.HandleFunc(pattern, h)
		return
	}
	mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		h(rec, r)
		s.metrics.ObserveHTTP(pattern, rec.status, time.Since(start))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// handleHealth handles GET /v1/health.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "mode": string(s.store.Mode())})
}

// handleZones handles GET /v1/zones.
func (s *Server) handleZones(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"regions": clock.Catalogue()})
}

// handleClock handles GET /v1/clock?tz=.
func (s *Server) handleClock(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.viewerZone(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"zone":  zone.String(),
		"now":   clock.CurrentInstantFormatted(s.clock, zone),
		"input": clock.NowInput(s.clock, zone).String(),
	})
}

// recordView pairs a stored record with its rendering in the viewer's zone.
type recordView struct {
	Record model.Record `json:"record"`
	Local  string       `json:"local"`
}

// handleListRecords handles GET /v1/records/{category}?tz=.
func (s *Server) handleListRecords(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	zone, ok := s.viewerZone(w, r)
	if !ok {
		return
	}

	records, err := s.store.ListAll(r.Context(), c)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	views := make([]recordView, len(records))
	for i, rec := range records {
		views[i] = recordView{Record: rec, Local: clock.UTCToLocal(rec.OccurredAt, zone, clock.PrecisionDateTime)}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"category": c,
		"zone":     zone.String(),
		"records":  views,
	})
}

// draftRequest is the POST body. The instant is either an absolute
// occurredAtUtc or a localTime read in timeZone.
type draftRequest struct {
	SubjectTag    string `json:"subjectTag"`
	LocalTime     string `json:"localTime"`
	TimeZone      string `json:"timeZone"`
	OccurredAtUTC string `json:"occurredAtUtc"`
	ActivityKind  string `json:"activityKind"`
	NodeLevel     int    `json:"nodeLevel"`
	ResourceKind  string `json:"resourceKind"`
	HostileLevel  int    `json:"hostileLevel"`
	HostileKind   string `json:"hostileKind"`
	Coords        string `json:"coords"`
	Notes         string `json:"notes"`
	ReporterName  string `json:"reporterName"`
}

// handleCreateRecord handles POST /v1/records/{category}.
func (s *Server) handleCreateRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}

	var req draftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	draft, err := s.draftFromRequest(r, req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err := model.ValidateRecord(c, draft); err != nil {
		writeValidationError(w, err)
		return
	}

	rec, err := s.store.Create(r.Context(), c, draft)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.changed(c)
	s.publish(r.Context(), events.Topic(c, events.ActionCreated), events.RecordCreated{Category: c, Record: rec})
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) draftFromRequest(r *http.Request, req draftRequest) (model.Record, error) {
	zoneName := strings.TrimSpace(req.TimeZone)
	if zoneName == "" {
		zoneName = s.defaultZoneName(r)
	}

	var at time.Time
	switch {
	case req.OccurredAtUTC != "":
		t, err := model.ParseInstant(req.OccurredAtUTC)
		if err != nil {
			return model.Record{}, err
		}
		at = t
	case req.LocalTime != "":
		zone, err := clock.LoadZone(zoneName)
		if err != nil {
			return model.Record{}, err
		}
		wc, err := clock.ParseWallClock(req.LocalTime)
		if err != nil {
			return model.Record{}, err
		}
		at = clock.LocalToUTC(wc, zone)
	default:
		return model.Record{}, errors.New("localTime or occurredAtUtc is required")
	}

	reporter := strings.TrimSpace(req.ReporterName)
	if reporter == "" && s.identity != nil {
		if name, err := s.identity.DisplayName(r.Context()); err == nil {
			reporter = name
		}
	}

	return model.Record{
		SubjectTag:       strings.TrimSpace(req.SubjectTag),
		OccurredAt:       at,
		Activity:         model.ActivityKind(req.ActivityKind),
		NodeLevel:        req.NodeLevel,
		Resource:         model.ResourceKind(req.ResourceKind),
		HostileLevel:     req.HostileLevel,
		Hostile:          model.HostileKind(req.HostileKind),
		Coords:           model.Optional(req.Coords),
		Notes:            model.Optional(req.Notes),
		ReporterName:     reporter,
		ReporterTimeZone: zoneName,
	}, nil
}

// handleDeleteRecord handles DELETE /v1/records/{category}/{id}.
func (s *Server) handleDeleteRecord(w http.ResponseWriter, r *http.Request) {
	c, ok := categoryParam(w, r)
	if !ok {
		return
	}
	id := r.PathValue("id")
	if err := s.store.Delete(r.Context(), c, id); err != nil {
		s.writeStoreError(w, err)
		return
	}
	s.changed(c)
	s.publish(r.Context(), events.Topic(c, events.ActionDeleted), events.RecordDeleted{Category: c, ID: id})
	w.WriteHeader(http.StatusNoContent)
}

// handleStats handles GET /v1/stats?tz=&subject=.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	zone, ok := s.viewerZone(w, r)
	if !ok {
		return
	}
	d, err := stats.Load(r.Context(), s.store)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	if subject := strings.TrimSpace(r.URL.Query().Get("subject")); subject != "" {
		writeJSON(w, http.StatusOK, stats.SubjectProfile(d, subject, zone))
		return
	}
	writeJSON(w, http.StatusOK, stats.Build(d, zone))
}

// categoryParam resolves the {category} path value, writing a 404 for an
// unknown category.
func categoryParam(w http.ResponseWriter, r *http.Request) (model.Category, bool) {
	c, err := model.ParseCategory(r.PathValue("category"))
	if err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return "", false
	}
	return c, true
}

// viewerZone resolves ?tz=, falling back to the device profile and then UTC.
func (s *Server) viewerZone(w http.ResponseWriter, r *http.Request) (*time.Location, bool) {
	name := strings.TrimSpace(r.URL.Query().Get("tz"))
	if name == "" {
		name = s.defaultZoneName(r)
	}
	zone, err := clock.LoadZone(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return nil, false
	}
	return zone, true
}

func (s *Server) defaultZoneName(r *http.Request) string {
	if s.identity != nil {
		if name, err := s.identity.ViewerTimeZone(r.Context()); err == nil {
			return name
		}
	}
	return "UTC"
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrUnknownCategory):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateID):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, store.ErrRemote):
		s.logger.Warn("remote store call failed", "err", err)
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		s.logger.Error("store call failed", "err", err)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeValidationError(w http.ResponseWriter, err error) {
	var ve *model.ValidationError
	if !errors.As(err, &ve) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fields := make(map[string]string, len(ve.Errors))
	for _, fe := range ve.Errors {
		fields[fe.Field] = fe.Message
	}
	writeJSON(w, http.StatusBadRequest, map[string]any{"error": ve.Error(), "fields": fields})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
