// Package server is the thin HTTP front end over the Runner: it adapts JSON
// chat requests onto the synchronous turn entry point and exposes a health
// endpoint. No orchestration logic lives here.
package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/modemneko/HakusAI/logging"
	"github.com/modemneko/HakusAI/runner"
)

// Options configures a Server.
type Options struct {
	// Logger receives structured request logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// Server adapts HTTP requests onto a Runner.
type Server struct {
	runner *runner.Runner
	logger logging.Logger
}

// New constructs a Server over a Runner.
func New(rn *runner.Runner, optFns ...func(o *Options)) *Server {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Server{runner: rn, logger: opts.Logger}
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Post("/chat", s.handleChat)
	r.Get("/status", s.handleStatus)
	return r
}

// chatRequest is the POST /chat body. Image is optional base64 (a data URL
// prefix is tolerated).
type chatRequest struct {
	UID     string `json:"uid"`
	Message string `json:"message"`
	Image   string `json:"image,omitempty"`
}

// chatResponse is the POST /chat reply.
type chatResponse struct {
	Response string `json:"response"`
	UID      string `json:"uid"`
	Log      string `json:"log"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleChat(w http.ResponseWriter, req *http.Request) {
	reqID := uuid.NewString()

	var body chatRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid JSON format"})
		return
	}
	if body.UID == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "请提供 'uid'"})
		return
	}

	var attachments [][]byte
	if body.Image != "" {
		img, err := decodeImage(body.Image)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: "Invalid image data: " + err.Error()})
			return
		}
		attachments = append(attachments, img)
		s.logger.Info("server.chat.image", "request_id", reqID, "uid", body.UID, "bytes", len(img))
	}

	start := time.Now()
	response, err := s.runner.ProcessTurn(req.Context(), body.UID, body.Message, attachments)
	if err != nil {
		s.logger.Error("server.chat.failed", "request_id", reqID, "uid", body.UID, "error", err.Error())
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	s.logger.Info("server.chat.done", "request_id", reqID, "uid", body.UID, "duration_ms", time.Since(start).Milliseconds())

	writeJSON(w, http.StatusOK, chatResponse{
		Response: response,
		UID:      body.UID,
		Log:      s.runner.TurnLog(body.UID),
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":       "ok",
		"message":      "HakusAI API is running",
		"current_time": time.Now().Format("2006-01-02 15:04:05"),
	})
}

// decodeImage decodes base64 image data, tolerating a data URL prefix.
func decodeImage(data string) ([]byte, error) {
	if idx := strings.Index(data, ","); idx >= 0 {
		data = data[idx+1:]
	}
	return base64.StdEncoding.DecodeString(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
