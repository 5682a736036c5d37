package http

import (
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"claimguard/apperrors"
	"claimguard/ml"
	"claimguard/scoring"
)

// ModelService is the view of the model provider the handlers need.
type ModelService interface {
	scoring.CapabilitySource
	Status() ml.Status
	Reload(ctx context.Context) error
}

// HandlersConfig carries the UI and limiter settings.
type HandlersConfig struct {
	Locale          string
	SessionCapacity int
	AllowedOrigins  []string
	RateLimit       float64
	RateBurst       int
}

// Handlers serves the claim form, the JSON API and the live scoring socket.
type Handlers struct {
	models   ModelService
	adapter  *scoring.Adapter
	sessions *SessionStore
	printer  *message.Printer
	page     *template.Template
	upgrader websocket.Upgrader
	limit    Middleware
	logger   *zap.Logger
}

// NewHandlers wires the handlers to a model service. A nil logger discards
// output.
func NewHandlers(models ModelService, cfg HandlersConfig, logger *zap.Logger) (*Handlers, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	sessions, err := NewSessionStore(cfg.SessionCapacity)
	if err != nil {
		return nil, err
	}
	page, err := parsePage()
	if err != nil {
		return nil, err
	}
	tag, err := language.Parse(cfg.Locale)
	if err != nil {
		tag = language.English
	}

	limit := Middleware(func(next http.Handler) http.Handler { return next })
	if cfg.RateLimit > 0 {
		limit = RateLimitMiddleware(cfg.RateLimit, cfg.RateBurst, cfg.SessionCapacity)
	}

	return &Handlers{
		models:   models,
		adapter:  scoring.NewAdapter(models, logger),
		sessions: sessions,
		printer:  message.NewPrinter(tag),
		page:     page,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			CheckOrigin:     checkOrigin(cfg.AllowedOrigins),
		},
		limit:  limit,
		logger: logger.Named("http"),
	}, nil
}

// Register mounts every route on mux.
func (h *Handlers) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.handleForm)
	mux.Handle("POST /predict", h.limit(http.HandlerFunc(h.handlePredictForm)))

	mux.HandleFunc("GET /api/health", handleHealth)
	mux.HandleFunc("GET /api/schema", handleSchema)
	mux.HandleFunc("GET /api/model/status", h.handleModelStatus)
	mux.HandleFunc("POST /api/model/reload", h.handleModelReload)
	mux.Handle("POST /api/predict", h.limit(http.HandlerFunc(h.handlePredictAPI)))
	mux.HandleFunc("GET /api/ws/score", h.handleLiveScore)

	mux.Handle("GET /metrics", promhttp.Handler())
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}


func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// respondError writes err as {"error": {...}} with a status derived from its
// code.
func respondError(w http.ResponseWriter, err error) {
	appErr := asAppError(err)
	respondJSON(w, statusFor(appErr.Code), map[string]interface{}{"error": appErr})
}

func asAppError(err error) *apperrors.Error {
	var appErr *apperrors.Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &apperrors.Error{Code: "INTERNAL", Message: err.Error()}
}

func statusFor(code apperrors.Code) int {
	switch code {
	case apperrors.CodeArtifactMissing, apperrors.CodeArtifactLoadFailure, apperrors.CodeModelUnavailable:
		return http.StatusServiceUnavailable
	case apperrors.CodeInvalidRecord:
		return http.StatusBadRequest
	case apperrors.CodeInferenceFailure:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}
