package httpx

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheGringo-ai/FixItFred/internal/events"
	"github.com/TheGringo-ai/FixItFred/internal/repository"
	"github.com/TheGringo-ai/FixItFred/internal/service/registry"
)

const (
	rateWindowDefault  = time.Minute
	rateWindowRealtime = 30 * time.Second
	rateLimitWrite     = 60
	rateLimitRead      = 240
	rateLimitRealtime  = 30
	rateLimitSync      = 12
	healthCheckTimeout = 2 * time.Second
	sseHeartbeatEvery  = 15 * time.Second
)

// Reconciler triggers an on-demand reconciliation cycle.
type Reconciler interface {
	Reconcile(ctx context.Context)
}

// Router wires HTTP endpoints to the registry.
type Router struct {
	mux      *http.ServeMux
	logger   *slog.Logger
	registry *registry.Service
	syncer   Reconciler
	hub      *events.Hub
	upgrader websocket.Upgrader
	limiter  RateLimiter
	health   func(context.Context) error

	metricsOnce        sync.Once
	metricsInitialized bool
	requestTotal       *prometheus.CounterVec
	requestLatency     *prometheus.HistogramVec
	rateLimitHits      *prometheus.CounterVec
}

// NewRouter assembles routes with dependencies. syncer may be nil when no
// remote feed is configured.
func NewRouter(logger *slog.Logger, reg *registry.Service, syncer Reconciler, hub *events.Hub, limiter RateLimiter, health func(context.Context) error) *Router {
	r := &Router{
		mux:      http.NewServeMux(),
		logger:   logger,
		registry: reg,
		syncer:   syncer,
		hub:      hub,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		limiter: limiter,
		health:  health,
	}
	if r.limiter == nil {
		r.limiter = NewMemoryRateLimiter()
	}
	r.initMetrics()
	r.register()
	return r
}

// ServeHTTP delegates to underlying mux.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

// Close releases background resources.
func (r *Router) Close() {
	if r.limiter != nil {
		r.limiter.Close()
	}
}

func (r *Router) register() {
	r.mux.HandleFunc("/healthz", r.audit("/healthz", r.handleHealthz))
	r.mux.HandleFunc("/metrics", promhttp.Handler().ServeHTTP)
	r.mux.HandleFunc("/projects", r.audit("/projects", r.withRateLimit("/projects", rateLimitWrite, rateWindowDefault, r.handleProjects)))
	r.mux.HandleFunc("/projects/", r.audit("/projects/{id}", r.withRateLimit("/projects/{id}", rateLimitWrite, rateWindowDefault, r.handleProjectByID)))
	r.mux.HandleFunc("/stats", r.audit("/stats", r.withRateLimit("/stats", rateLimitRead, rateWindowDefault, r.handleStats)))
	r.mux.HandleFunc("/deployments/quick", r.audit("/deployments/quick", r.withRateLimit("/deployments/quick", rateLimitWrite, rateWindowDefault, r.handleQuickDeploy)))
	r.mux.HandleFunc("/sync", r.audit("/sync", r.withRateLimit("/sync", rateLimitSync, rateWindowDefault, r.handleSync)))
	r.mux.HandleFunc("/ws/events", r.audit("/ws/events", r.withRateLimit("/ws/events", rateLimitRealtime, rateWindowRealtime, r.handleEventsWS)))
	r.mux.HandleFunc("/events", r.audit("/events", r.withRateLimit("/events", rateLimitRealtime, rateWindowRealtime, r.handleEventsSSE)))
}

func (r *Router) handleProjects(w http.ResponseWriter, req *http.Request) {
	switch req.Method {
	case http.MethodGet:
		industry := strings.TrimSpace(req.URL.Query().Get("industry"))
		status := strings.TrimSpace(req.URL.Query().Get("status"))
		switch {
		case industry != "":
			writeJSON(w, http.StatusOK, r.registry.GetProjectsByIndustry(industry))
		case status != "":
			writeJSON(w, http.StatusOK, r.registry.GetProjectsByStatus(status))
		default:
			writeJSON(w, http.StatusOK, r.registry.GetAllProjects())
		}
	case http.MethodPost:
		var payload registry.CreateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		record := r.registry.AddProject(req.Context(), payload)
		writeJSON(w, http.StatusCreated, record)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleProjectByID(w http.ResponseWriter, req *http.Request) {
	id := strings.TrimPrefix(req.URL.Path, "/projects/")
	if id == "" || strings.Contains(id, "/") {
		r.notFound(w)
		return
	}
	switch req.Method {
	case http.MethodGet:
		record, err := r.registry.GetProject(id)
		if err != nil {
			r.notFound(w)
			return
		}
		writeJSON(w, http.StatusOK, record)
	case http.MethodPatch:
		var payload registry.UpdateInput
		if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
			writeError(w, http.StatusBadRequest, "invalid JSON body")
			return
		}
		record, err := r.registry.UpdateProject(req.Context(), id, payload)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				r.notFound(w)
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, record)
	default:
		r.methodNotAllowed(w)
	}
}

func (r *Router) handleStats(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, r.registry.GetStats())
}

func (r *Router) handleQuickDeploy(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	var payload struct {
		TemplateID  string `json:"template_id"`
		CompanyName string `json:"company_name"`
		WorkerCount int    `json:"worker_count"`
	}
	if err := json.NewDecoder(req.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(payload.CompanyName) == "" {
		writeError(w, http.StatusBadRequest, "company_name is required")
		return
	}
	record := r.registry.CreateQuickDeployment(req.Context(), payload.TemplateID, payload.CompanyName, payload.WorkerCount)
	writeJSON(w, http.StatusAccepted, record)
}

func (r *Router) handleSync(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodPost {
		r.methodNotAllowed(w)
		return
	}
	if r.syncer == nil {
		writeError(w, http.StatusServiceUnavailable, "remote feed not configured")
		return
	}
	go r.syncer.Reconcile(context.Background())
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reconciling"})
}

// requestedEvents parses the optional events query parameter. An empty or
// invalid list means every event.
func requestedEvents(req *http.Request) []string {
	raw := strings.TrimSpace(req.URL.Query().Get("events"))
	if raw == "" {
		return events.Topics
	}
	known := make(map[string]struct{}, len(events.Topics))
	for _, topic := range events.Topics {
		known[topic] = struct{}{}
	}
	var out []string
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if _, ok := known[name]; ok {
			out = append(out, name)
		}
	}
	if len(out) == 0 {
		return events.Topics
	}
	return out
}

func (r *Router) handleEventsWS(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	topics := requestedEvents(req)
	conn, err := r.upgrader.Upgrade(w, req, nil)
	if err != nil {
		r.logger.Error("websocket upgrade failed", "error", err)
		return
	}
	client := events.NewWSClient(conn, r.logger)
	for _, topic := range topics {
		r.hub.Register(topic, client)
	}
	go func() {
		defer func() {
			for _, topic := range topics {
				r.hub.Unregister(topic, client)
			}
			client.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}

func (r *Router) handleEventsSSE(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}
	topics := requestedEvents(req)
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	client := events.NewSSEClient(w, flusher, r.logger)
	for _, topic := range topics {
		r.hub.Register(topic, client)
	}
	defer func() {
		for _, topic := range topics {
			r.hub.Unregister(topic, client)
		}
		client.Close()
	}()

	heartbeat := time.NewTicker(sseHeartbeatEvery)
	defer heartbeat.Stop()
	for {
		select {
		case <-req.Context().Done():
			return
		case <-heartbeat.C:
			if err := client.Heartbeat(); err != nil {
				return
			}
		}
	}
}

func (r *Router) handleHealthz(w http.ResponseWriter, req *http.Request) {
	if req.Method != http.MethodGet {
		r.methodNotAllowed(w)
		return
	}
	components := make(map[string]any)
	status := "ok"
	if r.health != nil {
		ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
		defer cancel()
		if err := r.health(ctx); err != nil {
			status = "degraded"
			components["storage"] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
		} else {
			components["storage"] = map[string]any{"status": "up"}
		}
	}
	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, payload)
}

// audit logs every request and records Prometheus counters for it.
func (r *Router) audit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w}
		start := time.Now()
		next(recorder, req)

		status := recorder.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)
		r.recordRequestMetrics(req.Method, route, status, duration)

		fields := []any{
			"method", req.Method,
			"path", req.URL.Path,
			"status", status,
			"bytes", recorder.bytes,
			"duration_ms", duration.Milliseconds(),
		}
		if ip := clientIP(req); ip != "" {
			fields = append(fields, "ip", ip)
		}
		if reqID := strings.TrimSpace(req.Header.Get("X-Request-ID")); reqID != "" {
			fields = append(fields, "request_id", reqID)
		}

		switch {
		case status >= http.StatusInternalServerError:
			r.logger.Error("http_request", fields...)
		case status >= http.StatusBadRequest:
			r.logger.Warn("http_request", fields...)
		default:
			r.logger.Info("http_request", fields...)
		}
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Write(payload []byte) (int, error) {
	if sr.status == 0 {
		sr.status = http.StatusOK
	}
	n, err := sr.ResponseWriter.Write(payload)
	sr.bytes += n
	return n, err
}

// Flush lets SSE streams pass through the recorder.
func (sr *statusRecorder) Flush() {
	if flusher, ok := sr.ResponseWriter.(http.Flusher); ok {
		flusher.Flush()
	}
}

// Hijack lets websocket upgrades pass through the recorder.
func (sr *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := sr.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, http.ErrNotSupported
	}
	return hijacker.Hijack()
}

func (r *Router) methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func (r *Router) notFound(w http.ResponseWriter) {
	writeError(w, http.StatusNotFound, "not found")
}

func clientIP(req *http.Request) string {
	host, _, err := net.SplitHostPort(req.RemoteAddr)
	if err != nil {
		return req.RemoteAddr
	}
	return host
}
