// Package httpapi exposes the HTTP surface: the device-facing scan webhook
// and iClock push endpoints, the member management API, the live event
// stream, and operational endpoints.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/gymgate/server/internal/gymgate/service"
	"github.com/gymgate/server/internal/gymgate/store"
	"github.com/gymgate/server/internal/metrics"
)

type Dependencies struct {
	Logger  zerolog.Logger
	Addr    string
	Access  *service.AccessService
	Notify  *service.Notifier
	Sync    *service.SyncService
	Members store.MemberStore
	Prober  *service.HealthProber
	Stream  StreamHandler
	Metrics *metrics.Metrics
}

// StreamHandler serves websocket subscriptions.
type StreamHandler interface {
	ServeWS(w http.ResponseWriter, r *http.Request)
}

type Server struct {
	httpServer *http.Server
	logger     zerolog.Logger
	access     *service.AccessService
	notify     *service.Notifier
	sync       *service.SyncService
	members    store.MemberStore
	prober     *service.HealthProber
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:  d.Logger.With().Str("component", "httpapi").Logger(),
		access:  d.Access,
		notify:  d.Notify,
		sync:    d.Sync,
		members: d.Members,
		prober:  d.Prober,
	}

	r := chi.NewRouter()
	r.Use(requestLogger(s.logger))

	// Device-facing endpoints.  These must always answer 200 with a
	// well-formed body; a confused terminal retries forever.
	r.Post("/v1/webhook/scan", s.handleScanWebhook)
	r.Post("/iclock/cdata", s.handleIClockCData)
	r.Get("/iclock/cdata", s.handleIClockHandshake)
	r.Get("/iclock/getrequest", s.handleIClockGetRequest)

	r.Route("/v1/members", func(r chi.Router) {
		r.Post("/", s.handleCreateMember)
		r.Get("/{id}", s.handleGetMember)
		r.Delete("/{id}", s.handleDeleteMember)
		r.Post("/{id}/sync", s.handleSyncMember)
		r.Delete("/{id}/device", s.handleRemoveFromDevice)
		r.Put("/{id}/schedule", s.handleReplaceSchedule)
		r.Post("/{id}/enroll", s.handleEnroll)
	})

	r.Get("/v1/device/status", s.handleDeviceStatus)
	r.Get("/healthz", s.handleHealthz)

	if d.Stream != nil {
		r.Get("/v1/ws", d.Stream.ServeWS)
	}
	if d.Metrics != nil {
		r.Handle("/metrics", d.Metrics.Handler())
	}

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleDeviceStatus(w http.ResponseWriter, r *http.Request) {
	if s.prober == nil {
		writeError(w, http.StatusServiceUnavailable, "prober_disabled", "device health probing is disabled")
		return
	}
	if r.URL.Query().Get("refresh") != "" {
		writeJSON(w, http.StatusOK, s.prober.CheckNow(r.Context()))
		return
	}
	writeJSON(w, http.StatusOK, s.prober.Status())
}
