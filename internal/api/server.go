package api

import (
	"context"
	"io"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/snarg/voxmood/internal/analyze"
	"github.com/snarg/voxmood/internal/auth"
	"github.com/snarg/voxmood/internal/config"
	"github.com/snarg/voxmood/internal/database"
	"github.com/snarg/voxmood/internal/events"
	"github.com/snarg/voxmood/internal/metrics"
	"github.com/snarg/voxmood/internal/mqttclient"
	"github.com/snarg/voxmood/internal/watch"
)

// Deps bundles everything the HTTP layer serves. Auth, MQTT, and Watcher
// may be nil when the corresponding feature is disabled.
type Deps struct {
	DB       *database.DB
	Analyzer *analyze.Service
	Pool     *analyze.Pool
	Bus      *events.Bus
	Auth     *auth.Service
	MQTT     *mqttclient.Client
	Watcher  *watch.Watcher
	WebFS    fs.FS
	OpenAPI  []byte
	Version  string
}

type Server struct {
	http *http.Server
	log  zerolog.Logger
}

func NewServer(cfg *config.Config, deps Deps, startTime time.Time, log zerolog.Logger) *Server {
	r := chi.NewRouter()

	// Global middleware. Logger must wrap Recoverer so the panic handler
	// finds a live request logger via hlog.
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer)
	r.Use(CORS)
	r.Use(metrics.InstrumentHandler)

	var sessions SessionUser
	if deps.Auth != nil {
		sessions = deps.Auth
		r.Use(deps.Auth.Sessions.LoadAndSave)
	}

	var poolStats PoolStats
	if deps.Pool != nil {
		poolStats = deps.Pool
	}

	// Health and metrics — no auth
	health := NewHealthHandler(deps.DB, deps.MQTT, deps.Watcher, poolStats, deps.Version, startTime)
	r.Get("/api/v1/health", health.ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())

	uploads := NewUploadHandler(deps.Analyzer, sessions, log)
	reports := NewReportsHandler(deps.DB, deps.Analyzer, sessions, log)
	eventsH := NewEventsHandler(deps.Bus)

	r.Route("/api/v1", func(r chi.Router) {
		if deps.Auth != nil {
			NewAuthHandler(deps.Auth, log).Routes(r)
		}

		r.Group(func(r chi.Router) {
			if cfg.AuthEnabled && deps.Auth != nil {
				r.Use(RequireUser(sessions))
			}
			uploads.Routes(r)
			reports.Routes(r)
			eventsH.Routes(r)
		})
	})

	// Stored audio by object key ({day}/{file})
	r.Get("/uploads/{day}/{file}", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "day") + "/" + chi.URLParam(req, "file")
		rc, err := deps.Analyzer.OpenBlob(req.Context(), key)
		if err != nil {
			WriteError(w, http.StatusNotFound, "file not found")
			return
		}
		defer rc.Close()
		io.Copy(w, rc)
	})

	// Embedded dashboard and API spec
	if deps.OpenAPI != nil {
		r.Get("/openapi.yaml", func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/yaml")
			w.Write(deps.OpenAPI)
		})
	}
	if deps.WebFS != nil {
		r.Handle("/*", http.FileServer(http.FS(deps.WebFS)))
	}

	return &Server{
		http: &http.Server{
			Addr:         cfg.HTTPAddr,
			Handler:      r,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		log: log,
	}
}

func (s *Server) Start() error {
	s.log.Info().Str("addr", s.http.Addr).Msg("http server starting")
	err := s.http.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.http.Shutdown(ctx)
}
