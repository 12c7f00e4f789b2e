// Package api exposes the assistant over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/careerlog/server/internal/assistant/model"
	"github.com/careerlog/server/internal/assistant/orchestrator"
	"github.com/careerlog/server/internal/core"
	logx "github.com/careerlog/server/pkg/logger"
)

// maxMessageBytes bounds the request body; anything this long is not a chat
// message.
const maxMessageBytes = 8 << 10

// Server handles the chat and status endpoints.
type Server struct {
	orch *orchestrator.Orchestrator
	env  core.Environment
}

func NewServer(orch *orchestrator.Orchestrator, env core.Environment) *Server {
	return &Server{orch: orch, env: env}
}

// Routes builds the HTTP router.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Route("/api", func(r chi.Router) {
		r.Post("/chat", s.handleChat)
		r.Get("/status", s.handleStatus)
	})
	return r
}

type chatRequest struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxMessageBytes)
	var req chatRequest
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.Message = strings.TrimSpace(req.Message)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	reply := s.orch.HandleMessage(r.Context(), model.UserID(req.UserID), req.Message)
	writeJSON(w, http.StatusOK, reply)
}

type statusResponse struct {
	Status      string `json:"status"`
	Environment string `json:"environment"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, statusResponse{
		Status:      "ok",
		Environment: string(s.env),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logx.Error().Err(err).Msg("failed to encode response")
	}
}
