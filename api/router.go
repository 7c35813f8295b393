// Package api exposes the relay sockets and the REST endpoints of the diagram
// editor.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	gorillaws "github.com/gorilla/websocket"

	"diagramador-collab-server/analysis"
	"diagramador-collab-server/backup"
	"diagramador-collab-server/domain"
	ws "diagramador-collab-server/websocket"
)

const (
	maxImageSize  = 10 << 20
	maxBackupSize = 10 << 20
)

type Diagrams interface {
	FromPrompt(ctx context.Context, prompt string) (json.RawMessage, error)
	FromImage(ctx context.Context, image []byte, mimeType string) (*analysis.Diagram, error)
}

type Server struct {
	Registry  domain.Registry
	Canvas    domain.Session
	Analysis  domain.Session
	Diagrams  Diagrams
	Backups   backup.Store
	Upgrader  *gorillaws.Upgrader
	ConnOpts  ws.Options
	BaseCtx   context.Context
	validator *validator.Validate
}

type chatbotRequest struct {
	Prompt string `json:"prompt" validate:"required"`
}

func NewRouter(s *Server) *mux.Router {
	if s.Upgrader == nil {
		s.Upgrader = ws.NewUpgrader(nil)
	}
	if s.BaseCtx == nil {
		s.BaseCtx = context.Background()
	}
	s.validator = validator.New()

	r := mux.NewRouter()
	handle(r, "/ws/canvas/{room}", s.canvasHandler, http.MethodGet)
	handle(r, "/ws/uml", s.analysisHandler, http.MethodGet)
	handle(r, "/api/chatbot", s.chatbotHandler, http.MethodPost)
	handle(r, "/api/uml_from_image", s.imageHandler, http.MethodPost)
	handle(r, "/api/set_backup_uml/{room}", s.setBackupHandler, http.MethodPost)
	handle(r, "/api/get_backup_uml/{room}", s.getBackupHandler, http.MethodGet)
	r.HandleFunc("/health", healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/stats", s.statsHandler).Methods(http.MethodGet)
	return r
}

// handle registers path with and without a trailing slash; the editor calls
// the slashed form.
func handle(r *mux.Router, path string, h http.HandlerFunc, methods ...string) {
	r.HandleFunc(path, h).Methods(methods...)
	r.HandleFunc(path+"/", h).Methods(methods...)
}

func (s *Server) canvasHandler(w http.ResponseWriter, r *http.Request) {
	s.serveSocket(w, r, mux.Vars(r)["room"], s.Canvas)
}

func (s *Server) analysisHandler(w http.ResponseWriter, r *http.Request) {
	s.serveSocket(w, r, "", s.Analysis)
}

func (s *Server) serveSocket(w http.ResponseWriter, r *http.Request, room string, session domain.Session) {
	conn, err := s.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("upgrade error", "error", err)
		return
	}

	ws.NewConn(uuid.NewString(), room, conn, session, s.ConnOpts).Start(s.BaseCtx)
}

func (s *Server) chatbotHandler(w http.ResponseWriter, r *http.Request) {
	var req chatbotRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validator.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, "the 'prompt' field is required")
		return
	}

	doc, err := s.Diagrams.FromPrompt(r.Context(), req.Prompt)
	var invalid *analysis.InvalidOutputError
	switch {
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error":     "the model returned an invalid format",
			"raw":       invalid.Raw,
			"exception": invalid.Err.Error(),
		})
		return
	case err != nil:
		slog.Error("diagram generation failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) imageHandler(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxImageSize); err != nil {
		writeError(w, http.StatusBadRequest, "multipart form with an 'image' file is required")
		return
	}
	file, header, err := r.FormFile("image")
	if err != nil {
		writeError(w, http.StatusBadRequest, "the 'image' file is required")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxImageSize))
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read image")
		return
	}

	mimeType := header.Header.Get("Content-Type")
	if !strings.HasPrefix(mimeType, "image/") {
		mimeType = ""
	}

	diagram, err := s.Diagrams.FromImage(r.Context(), data, mimeType)
	var invalid *analysis.InvalidOutputError
	switch {
	case errors.Is(err, analysis.ErrNotAnImage):
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case errors.As(err, &invalid):
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": invalid.Error(), "raw": invalid.Raw})
		return
	case err != nil:
		slog.Error("image conversion failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, diagram)
}

func (s *Server) setBackupHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := roomID(w, r)
	if !ok {
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBackupSize))
	if err != nil || !json.Valid(body) {
		writeError(w, http.StatusBadRequest, "body must be a JSON document")
		return
	}
	doc := json.RawMessage(body)

	created, err := s.Backups.Put(r.Context(), room, doc)
	if err != nil {
		slog.Error("backup store failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	status, message := http.StatusOK, "UML updated successfully"
	if created {
		status, message = http.StatusCreated, "UML created successfully"
	}
	writeJSON(w, status, map[string]any{
		"message": message,
		"room_id": room,
		"data":    doc,
	})
}

func (s *Server) getBackupHandler(w http.ResponseWriter, r *http.Request) {
	room, ok := roomID(w, r)
	if !ok {
		return
	}

	doc, err := s.Backups.Get(r.Context(), room)
	switch {
	case errors.Is(err, backup.ErrNotFound):
		writeError(w, http.StatusNotFound, "no diagram exists for that id")
		return
	case err != nil:
		slog.Error("backup load failed", "room", room, "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// roomID validates the {room} path segment as a UUID and returns its
// canonical form.
func roomID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, err := uuid.Parse(mux.Vars(r)["room"])
	if err != nil {
		writeError(w, http.StatusBadRequest, "room id must be a UUID")
		return "", false
	}
	return id.String(), true
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request) {
	rooms, clients := s.Registry.Stats()
	writeJSON(w, http.StatusOK, map[string]int{"rooms": rooms, "clients": clients})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("response encode error", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
