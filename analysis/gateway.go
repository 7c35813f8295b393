package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"sync"
	"time"

	"diagramador-collab-server/domain"
)

const (
	ActionValidateModel    = "validate_model"
	ActionValidationResult = "validation_result"

	invalidFormat = "invalid analysis format"
	busy          = "a validation is already in progress"
)

var fencePattern = regexp.MustCompile("^```[A-Za-z0-9_-]*\\s*|\\s*```$")

type Analyzer interface {
	Analyze(ctx context.Context, prompt string) (string, error)
}

type ValidationRequest struct {
	Action string          `json:"action"`
	UML    json.RawMessage `json:"uml"`
}

type ValidationResult struct {
	Action   string          `json:"action"`
	Analysis json.RawMessage `json:"analysis"`
}

// Failure is sent in place of an analysis the collaborator could not produce.
type Failure struct {
	Error string `json:"error"`
	Raw   string `json:"raw"`
}

// Gateway answers validate_model requests on a single-peer channel. Each
// request gets exactly one validation_result reply. A connection has at most
// one analysis running; a request that arrives meanwhile is answered with a
// Failure right away.
type Gateway struct {
	analyzer Analyzer
	timeout  time.Duration

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewGateway(a Analyzer, timeout time.Duration) *Gateway {
	return &Gateway{
		analyzer: a,
		timeout:  timeout,
		inflight: make(map[string]struct{}),
	}
}

func (g *Gateway) Open(conn domain.Connection) {
	slog.Info("analysis client connected", "clientId", conn.ID())
}

func (g *Gateway) Close(conn domain.Connection) {
	slog.Info("analysis client disconnected", "clientId", conn.ID())
}

func (g *Gateway) Handle(ctx context.Context, conn domain.Connection, data []byte) {
	var req ValidationRequest
	if err := json.Unmarshal(data, &req); err != nil {
		slog.Warn("invalid message", "clientId", conn.ID(), "error", err)
		return
	}
	if req.Action != ActionValidateModel {
		slog.Debug("unknown action dropped", "clientId", conn.ID(), "action", req.Action)
		return
	}

	if !g.acquire(conn.ID()) {
		reply(conn, failure(busy, ""))
		return
	}

	go func() {
		defer g.release(conn.ID())
		reply(conn, g.Validate(ctx, req.UML))
	}()
}

func (g *Gateway) acquire(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.inflight[id]; ok {
		return false
	}
	g.inflight[id] = struct{}{}
	return true
}

func (g *Gateway) release(id string) {
	g.mu.Lock()
	delete(g.inflight, id)
	g.mu.Unlock()
}

func reply(conn domain.Connection, analysis json.RawMessage) {
	data, err := json.Marshal(ValidationResult{
		Action:   ActionValidationResult,
		Analysis: analysis,
	})
	if err != nil {
		slog.Warn("marshal error", "clientId", conn.ID(), "error", err)
		return
	}
	if err := conn.Send(data); err != nil {
		slog.Warn("reply not delivered", "clientId", conn.ID(), "error", err)
	}
}

// Validate runs the analysis for one UML document and always returns a JSON
// value: the parsed analysis or a Failure.
func (g *Gateway) Validate(ctx context.Context, uml json.RawMessage) json.RawMessage {
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	text, err := g.analyzer.Analyze(ctx, fmt.Sprintf(validationPreamble, indent(uml)))
	if err != nil {
		slog.Warn("analysis failed", "error", err)
		return failure(fmt.Sprintf("analysis unavailable: %v", err), "")
	}

	cleaned := StripCodeFence(text)
	if !json.Valid([]byte(cleaned)) {
		return failure(invalidFormat, cleaned)
	}
	return json.RawMessage(cleaned)
}

// StripCodeFence removes a leading ``` marker (with an optional language tag)
// and a trailing ``` marker from s.
func StripCodeFence(s string) string {
	return fencePattern.ReplaceAllString(strings.TrimSpace(s), "")
}

func indent(doc json.RawMessage) string {
	if len(doc) == 0 {
		return "null"
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, doc, "", "  "); err != nil {
		return string(doc)
	}
	return buf.String()
}

func failure(msg, raw string) json.RawMessage {
	out, _ := json.Marshal(Failure{Error: msg, Raw: raw})
	return out
}
