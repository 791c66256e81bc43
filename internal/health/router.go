package health

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

const serviceName = "Ebbinghaus Bot"

// UserCounter reports how many users have topics
type UserCounter interface {
	UserCount() int
}

// PendingCounter reports how many reminders are waiting to fire
type PendingCounter interface {
	Pending() int
}

// NewRouter builds the liveness endpoints served next to the bot
func NewRouter(users UserCounter, reminders PendingCounter, logger *zap.Logger) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(Logging(logger))
	r.Use(middleware.Recoverer)

	r.Get("/", homeHandler)
	r.Get("/ping", pingHandler)
	r.Get("/health", healthHandler)
	r.Get("/status", statusHandler(users, reminders))

	return r
}

func homeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("🤖 Бот для повторения по методу Эббингауза работает! 🚀"))
}

func pingHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("pong"))
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"bot":       "running",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func statusHandler(users UserCounter, reminders PendingCounter) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"status":            "operational",
			"service":           serviceName,
			"timestamp":         time.Now().Format(time.RFC3339),
			"users_count":       users.UserCount(),
			"pending_reminders": reminders.Pending(),
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
