package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"remont/internal/core"
	applog "remont/internal/log"
	"remont/internal/middleware/ratelimit"
	"remont/internal/middleware/security"
	"remont/internal/middleware/trace"
	"remont/internal/ports"
	"remont/internal/services"
	"remont/internal/sheets"
	appweb "remont/web"
)

// SyncAdmin exposes the spreadsheet outbox to operators.
type SyncAdmin interface {
	Stats(ctx context.Context) (ports.SyncStats, error)
	RetryFailed(ctx context.Context) error
}

// Options configures a Server. Zero values fall back to defaults.
type Options struct {
	RateLimitPerMinute int
	Logger             *applog.Logger
	// Sync is nil when spreadsheet export is disabled; the admin endpoints
	// then answer 503.
	Sync SyncAdmin
	// Ready reports whether dependencies can serve traffic.
	Ready func(ctx context.Context) error
	// TrustedProxies are CIDRs whose forwarding headers are honoured in
	// addition to loopback and private networks.
	TrustedProxies []string
}

type Server struct {
	http.Server
	tracker   *services.Tracker
	sync      SyncAdmin
	ready     func(ctx context.Context) error
	templates *template.Template
	limiter   *ratelimit.Limiter
	clientIP  *security.ClientIP
	logger    *applog.Logger

	shutdownOnce sync.Once
}

// NewServer configures routes, middleware and templates, returning a
// ready-to-run http.Server.
func NewServer(addr string, tracker *services.Tracker, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	limiterConfig := ratelimit.DefaultConfig()
	if opts.RateLimitPerMinute > 0 {
		limiterConfig.RequestsPerMinute = opts.RateLimitPerMinute
	}

	clientIP := security.NewClientIP()
	for _, cidr := range opts.TrustedProxies {
		if err := clientIP.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring invalid trusted proxy", "cidr", cidr, "error", err)
		}
	}

	mux := http.NewServeMux()
	s := &Server{
		tracker:  tracker,
		sync:     opts.Sync,
		ready:    opts.Ready,
		limiter:  ratelimit.NewLimiter(limiterConfig),
		clientIP: clientIP,
		logger:   logger,
	}

	t, err := template.New("").Funcs(templateFuncs).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", "error", err)
	}
	s.templates = t

	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssets(3600)(static))
	} else {
		logger.Warn("Failed to mount embedded static FS", "error", err)
	}

	s.routes(mux)

	onLimit := func(w http.ResponseWriter, r *http.Request) {
		applog.FromContext(r.Context()).WarnContext(r.Context(), "Rate limit exceeded",
			applog.NewFields().WithClientIP(s.clientIP.Extract(r)).Args()...)
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded, try again later").Write(w)
	}

	var h http.Handler = mux
	h = s.limiter.Middleware(s.clientIP.Extract, ratelimit.Mutating, onLimit)(h)
	h = security.Headers(security.DefaultHeadersConfig())(h)
	h = applog.Middleware(logger, trace.FromRequest, s.clientIP.Extract)(h)
	h = trace.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /api/projects", s.handleListProjects)
	mux.HandleFunc("POST /api/projects", s.handleCreateProject)
	mux.HandleFunc("GET /api/projects/{id}", s.handleGetProject)
	mux.HandleFunc("PATCH /api/projects/{id}", s.handleUpdateProject)
	mux.HandleFunc("GET /api/projects/{id}/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/projects/{id}/sections", s.handleListSections)
	mux.HandleFunc("PATCH /api/sections/{id}", s.handleUpdateSection)

	mux.HandleFunc("GET /api/sections/{id}/notes", s.handleListNotes)
	mux.HandleFunc("POST /api/sections/{id}/notes", s.handleCreateNote)
	mux.HandleFunc("GET /api/notes/{id}", s.handleGetNote)
	mux.HandleFunc("PATCH /api/notes/{id}", s.handleUpdateNote)
	mux.HandleFunc("DELETE /api/notes/{id}", s.handleDeleteNote)
	mux.HandleFunc("POST /api/notes/{id}/media", s.handleAddNoteMedia)

	mux.HandleFunc("GET /api/sections/{id}/estimates", s.handleListEstimates)
	mux.HandleFunc("POST /api/sections/{id}/estimates", s.handleCreateEstimate)
	mux.HandleFunc("GET /api/sections/{id}/estimates/compare", s.handleCompareEstimates)
	mux.HandleFunc("GET /api/estimates/{id}", s.handleGetEstimate)
	mux.HandleFunc("DELETE /api/estimates/{id}", s.handleDeleteEstimate)
	mux.HandleFunc("PUT /api/estimates/{id}/items", s.handleReplaceEstimateItems)
	mux.HandleFunc("POST /api/estimates/{id}/accept", s.handleAcceptEstimate)

	mux.HandleFunc("GET /api/projects/{id}/expenses", s.handleListExpenses)
	mux.HandleFunc("POST /api/projects/{id}/expenses", s.handleCreateExpense)
	mux.HandleFunc("DELETE /api/expenses/{id}", s.handleDeleteExpense)

	mux.HandleFunc("GET /api/projects/{id}/budget", s.handleBudget)
	mux.HandleFunc("PUT /api/sections/{id}/budget", s.handleSetSectionBudget)

	mux.HandleFunc("PUT /api/projects/{id}/property", s.handleSavePropertyData)
	mux.HandleFunc("GET /api/projects/{id}/checklist", s.handleGetChecklist)
	mux.HandleFunc("POST /api/projects/{id}/checklist/generate", s.handleGenerateChecklist)
	mux.HandleFunc("PATCH /api/projects/{id}/checklist/items/{item}", s.handleUpdateChecklistItem)
	mux.HandleFunc("GET /api/projects/{id}/photos", s.handleListPhotos)
	mux.HandleFunc("POST /api/projects/{id}/photos", s.handleAddPhoto)
	mux.HandleFunc("DELETE /api/photos/{id}", s.handleDeletePhoto)

	mux.HandleFunc("GET /api/sections/{id}/questions", s.handleQuestions)
	mux.HandleFunc("POST /api/sections/{id}/questions/regenerate", s.handleRegenerateQuestions)
	mux.HandleFunc("GET /api/projects/{id}/suggestions", s.handleListSuggestions)
	mux.HandleFunc("POST /api/projects/{id}/suggestions", s.handleAddSuggestion)
	mux.HandleFunc("POST /api/suggestions/{id}/dismiss", s.handleDismissSuggestion)

	mux.HandleFunc("GET /admin/sync/stats", s.handleSyncStats)
	mux.HandleFunc("POST /admin/sync/retry", s.handleSyncRetry)

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /ui/projects/{id}/budget", s.handleBudgetPartial)
	mux.HandleFunc("/api/", func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("no such endpoint").Write(w)
	})
}

// Shutdown stops the rate limiter and gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

var templateFuncs = template.FuncMap{
	"money":   func(m core.Money) string { return m.String() },
	"ago":     humanize.Time,
	"section": sheets.SectionLabel,
	"percent": func(n int) string { return humanize.Comma(int64(n)) + "%" },
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := s.ready(ctx); err != nil {
			applog.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", "error", err)
			http.Error(w, "not ready", http.StatusServiceUnavailable)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data any) {
	if s.templates == nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Templates not loaded", "template", name)
		http.Error(w, "templates not loaded", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.templates.ExecuteTemplate(w, name, data); err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Template execution failed",
			applog.NewFields().
				WithOperation(applog.OpRender).
				WithError(err, applog.ErrorTypeInternal).Args()...)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	projects, err := s.tracker.ListProjects(r.Context())
	if err != nil {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "List projects failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}
	s.render(w, r, "index.html", struct {
		Projects []core.Project
	}{projects})
}

func (s *Server) handleBudgetPartial(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	p, err := s.tracker.GetProject(r.Context(), id)
	if err != nil {
		s.writeHTMLError(w, r, err)
		return
	}
	b, err := s.tracker.BudgetSummary(r.Context(), id)
	if err != nil {
		s.writeHTMLError(w, r, err)
		return
	}
	s.render(w, r, "budget.html", struct {
		Project core.Project
		Budget  core.BudgetSummary
	}{p, b})
}

func (s *Server) writeHTMLError(w http.ResponseWriter, r *http.Request, err error) {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Partial failed", "error", err)
		msg = "internal server error"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`<div class="error">` + template.HTMLEscapeString(msg) + `</div>`))
}
