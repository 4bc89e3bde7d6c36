package httpapi

import (
	"context"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/swaggo/swag"
	"golang.org/x/time/rate"

	_ "ollamakit/internal/httpapi/docs"
	"ollamakit/internal/settings"
	"ollamakit/pkg/types"
)

// Service defines the methods required by the HTTP API layer.
// *manager.Manager implements it.
type Service interface {
	Status(ctx context.Context) types.StatusResponse
	Ready(ctx context.Context) bool
	History() types.HistoryResponse
	Conversations() ([]types.Conversation, error)
	InstalledModels(ctx context.Context) ([]string, error)

	Send(ctx context.Context, input string) (string, error)
	Stream(ctx context.Context, req types.PromptRequest, w io.Writer, flush func()) error
	NewChat() error
	LoadChat(name string) error
	DeleteChat(name string) error
	UsePreset(p settings.Preset)
	BaseURL() string
	SetBaseURL(u string)
}

type server struct {
	svc   Service
	store settings.Store
	saves *rate.Limiter
}

// NewMux wires the web UI and the JSON API. store holds the settings
// document shown on /settings and written by /save_settings.
func NewMux(svc Service, store settings.Store) http.Handler {
	s := &server{svc: svc, store: store, saves: rate.NewLimiter(saveRatePerSec, saveBurst)}

	r := chi.NewRouter()
	// Basic middlewares: request id, real ip, recoverer
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	// Security headers
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			next.ServeHTTP(w, r)
		})
	})
	r.Use(MetricsMiddleware)
	if corsEnabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: corsAllowedOrigins,
			AllowedMethods: corsAllowedMethods,
			AllowedHeaders: corsAllowedHeaders,
			MaxAge:         300,
		}))
	}

	// Pages and form actions.
	r.Get("/", s.chatPage)
	r.Get("/settings", s.settingsPage)
	r.Post("/chat", s.chatForm)
	r.Post("/new_chat", s.newChat)
	r.Get("/load_chat", s.loadChat)
	r.Post("/delete_chat", s.deleteChat)
	r.Post("/select_preset", s.selectPreset)

	// JSON API.
	r.Post("/chat/stream", s.chatStream)
	r.Get("/api/settings", s.getSettings)
	r.Post("/save_settings", s.saveSettings)
	r.Get("/api/conversations", s.conversations)
	r.Get("/api/history", s.history)
	r.Get("/status", s.status)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if svc.Ready(r.Context()) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte("ready"))
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("ollama unreachable"))
	})

	// Prometheus metrics endpoint
	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(staticFS())))
	r.Get("/openapi.json", func(w http.ResponseWriter, r *http.Request) {
		doc, err := swag.ReadDoc()
		if err != nil {
			writeJSONError(w, http.StatusInternalServerError, err.Error())
			return
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, doc)
	})
	MountSwagger(r)

	return r
}

// redirectHome answers form posts.
func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
