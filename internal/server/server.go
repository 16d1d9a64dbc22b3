package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/claude/replog/internal/auth"
	"github.com/claude/replog/internal/metrics"
	"github.com/claude/replog/internal/models"
	"github.com/claude/replog/internal/storage"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
)

// Store is the persistence the HTTP handlers depend on.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, email, name, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	ListPrograms(ctx context.Context, userID uuid.UUID) ([]models.Program, error)
	GetProgram(ctx context.Context, id, userID uuid.UUID) (*models.Program, error)
	CreateProgram(ctx context.Context, userID uuid.UUID, in models.ProgramInput, prov *models.Provenance) (*models.Program, error)
	UpdateProgram(ctx context.Context, id, userID uuid.UUID, in models.ProgramInput) (*models.Program, error)
	DeleteProgram(ctx context.Context, id, userID uuid.UUID) error

	CreateWorkout(ctx context.Context, userID uuid.UUID, in models.WorkoutInput) (*models.Workout, error)
	ListWorkouts(ctx context.Context, userID uuid.UUID, f models.WorkoutFilter) ([]models.Workout, error)
	GetWorkout(ctx context.Context, id, userID uuid.UUID) (*models.Workout, error)
	QueryExerciseHistory(ctx context.Context, userID uuid.UUID, exercise string, limit int) ([]models.ExerciseSet, error)
}

var _ Store = (*storage.DB)(nil)

// Options configures a Server beyond its store.
type Options struct {
	Issuer       *auth.Issuer
	CookieSecure bool

	// Login and registration attempts allowed per client IP.
	RatePerSecond float64
	RateBurst     int

	// Registry receives the server's collectors and is served on /metrics.
	// A fresh registry is created when nil.
	Registry *prometheus.Registry

	// MCP, when set, is mounted at /mcp behind authentication.
	MCP http.Handler

	Clock clockwork.Clock
}

// Server holds dependencies for HTTP handlers.
type Server struct {
	store        Store
	issuer       *auth.Issuer
	cookieSecure bool
	limiter      *ipRateLimiter
	registry     *prometheus.Registry
	metrics      *metrics.Metrics
	mcp          http.Handler
	log          *slog.Logger
	router       chi.Router
}

// New creates a new Server with all routes configured.
func New(store Store, opts Options, log *slog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Issuer == nil {
		panic("server: Options.Issuer is required")
	}
	if opts.Registry == nil {
		opts.Registry = metrics.NewRegistry()
	}
	if opts.RatePerSecond <= 0 {
		opts.RatePerSecond = 1
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 5
	}

	s := &Server{
		store:        store,
		issuer:       opts.Issuer,
		cookieSecure: opts.CookieSecure,
		limiter:      newIPRateLimiter(opts.RatePerSecond, opts.RateBurst, opts.Clock),
		registry:     opts.Registry,
		metrics:      metrics.New(opts.Registry),
		mcp:          opts.MCP,
		log:          log,
		router:       chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(Correlation)
	s.router.Use(RequestLogging(s.log))
	s.router.Use(s.metrics.Middleware)
	s.router.Use(CORS)

	s.router.Get("/healthz", s.handleHealth)
	s.router.Handle("/metrics", metrics.Handler(s.registry))

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(s.rateLimit)
			r.Post("/auth/register", s.handleRegister)
			r.Post("/auth/login", s.handleLogin)
		})
		r.Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(Authenticate(s.issuer))

			r.Get("/me", s.handleMe)

			r.Get("/programs", s.handleListPrograms)
			r.Post("/programs", s.handleCreateProgram)
			r.Get("/programs/{id}", s.handleGetProgram)
			r.Put("/programs/{id}", s.handleUpdateProgram)
			r.Delete("/programs/{id}", s.handleDeleteProgram)
			r.Post("/programs/{id}/share", s.handleShareProgram)

			r.Get("/workouts", s.handleListWorkouts)
			r.Post("/workouts", s.handleCreateWorkout)
			r.Get("/workouts/{id}", s.handleGetWorkout)

			r.Get("/exercises/history", s.handleExerciseHistory)
		})
	})

	if s.mcp != nil {
		s.router.With(Authenticate(s.issuer)).Handle("/mcp", s.mcp)
	}
}
