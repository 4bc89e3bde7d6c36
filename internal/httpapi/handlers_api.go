package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"ollamakit/internal/settings"
	"ollamakit/pkg/types"
)

func requireJSON(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct == "" || !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		writeJSONError(w, http.StatusUnsupportedMediaType, "Content-Type must be application/json")
		return false
	}
	return true
}

// chatStream godoc
// @Summary      Send a message and stream the reply
// @Description  Appends the prompt to the current conversation and streams chat chunks as NDJSON. The last line has "done": true.
// @Tags         chat
// @Accept       json
// @Produce      application/x-ndjson
// @Param        request  body      types.PromptRequest  true  "Prompt"
// @Success      200      {string}  string  "NDJSON stream"
// @Failure      400      {object}  types.ErrorResponse
// @Failure      404      {object}  types.ErrorResponse
// @Failure      415      {object}  types.ErrorResponse
// @Router       /chat/stream [post]
func (s *server) chatStream(w http.ResponseWriter, r *http.Request) {
	if !requireJSON(w, r) {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	var req types.PromptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSONError(w, http.StatusBadRequest, "prompt is required")
		return
	}
	if req.Preset != "" {
		doc, err := settings.Load(r.Context(), s.store)
		if err != nil {
			writeJSONError(w, statusFor(err), err.Error())
			return
		}
		p, ok := doc.Preset(req.Preset)
		if !ok {
			writeJSONError(w, http.StatusNotFound, "preset not found: "+req.Preset)
			return
		}
		s.svc.UsePreset(p)
	}

	lvl := requestLogLevel(r)
	start := time.Now()
	logStart(lvl, r, "chat", s.svc.History().Model)

	ctx, cancel := chatContext(r)
	defer cancel()
	if d := requestTimeoutDuration(); d > 0 {
		var c2 context.CancelFunc
		ctx, c2 = context.WithTimeout(ctx, d)
		defer c2()
	}

	// Headers go out with the first chunk, so errors before it can still
	// be reported as JSON.
	sw := &ndjsonWriter{w: w}
	writer := io.Writer(sw)
	if lvl >= LevelDebug {
		writer = io.MultiWriter(sw, &loggingLineWriter{})
	}
	var flush func()
	if f, ok := w.(http.Flusher); ok {
		flush = f.Flush
	}
	err := s.svc.Stream(ctx, req, writer, flush)
	switch {
	case err == nil:
		if !sw.started {
			sw.start()
		}
		logEnd(lvl, r, "chat", http.StatusOK, start, nil)
	case aborted(r):
		// Client went away or the server is shutting down.
		logEnd(lvl, r, "chat", 499, start, err)
	case sw.started:
		// Too late for a status code; end the stream with an error line.
		_ = json.NewEncoder(w).Encode(types.ErrorResponse{Error: err.Error(), Code: statusFor(err)})
		logEnd(lvl, r, "chat", http.StatusOK, start, err)
	default:
		code := statusFor(err)
		writeJSONError(w, code, err.Error())
		logEnd(lvl, r, "chat", code, start, err)
	}
}

// ndjsonWriter sets the stream headers on first write.
type ndjsonWriter struct {
	w       http.ResponseWriter
	started bool
}

func (n *ndjsonWriter) start() {
	n.started = true
	n.w.Header().Set("Content-Type", "application/x-ndjson")
	n.w.WriteHeader(http.StatusOK)
}

func (n *ndjsonWriter) Write(p []byte) (int, error) {
	if !n.started {
		n.start()
	}
	return n.w.Write(p)
}

// getSettings godoc
// @Summary      Settings document
// @Description  Returns the stored settings object exactly as saved.
// @Tags         settings
// @Produce      json
// @Success      200  {object}  object
// @Router       /api/settings [get]
func (s *server) getSettings(w http.ResponseWriter, r *http.Request) {
	raw, err := s.store.Raw(r.Context())
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(raw)
}

// saveSettings godoc
// @Summary      Save the settings document
// @Description  Replaces the stored settings object. Changing base_url points the chat at the new server.
// @Tags         settings
// @Accept       json
// @Produce      json
// @Param        settings  body      object  true  "Settings object"
// @Success      200       {object}  types.SaveResponse
// @Failure      400       {object}  types.ErrorResponse
// @Failure      413       {object}  types.ErrorResponse
// @Failure      415       {object}  types.ErrorResponse
// @Failure      429       {object}  types.ErrorResponse
// @Router       /save_settings [post]
func (s *server) saveSettings(w http.ResponseWriter, r *http.Request) {
	if !s.saves.Allow() {
		IncrementBackpressure("settings_save")
		w.Header().Set("Retry-After", "1")
		writeJSONError(w, http.StatusTooManyRequests, "too many saves")
		return
	}
	if !requireJSON(w, r) {
		return
	}
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSONError(w, http.StatusRequestEntityTooLarge, "settings too large")
			return
		}
		writeJSONError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}
	// Any object is stored as received; only base_url is acted on.
	if err := s.store.Save(r.Context(), raw); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	if doc, err := settings.Decode(raw); err == nil && doc.Host() != s.svc.BaseURL() {
		s.svc.SetBaseURL(doc.Host())
	}
	writeJSON(w, types.SaveResponse{Status: "success"})
}

// conversations godoc
// @Summary      Saved conversations
// @Tags         chat
// @Produce      json
// @Success      200  {object}  types.ConversationsResponse
// @Router       /api/conversations [get]
func (s *server) conversations(w http.ResponseWriter, r *http.Request) {
	convs, err := s.svc.Conversations()
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	writeJSON(w, types.ConversationsResponse{Conversations: convs})
}

// history godoc
// @Summary      Current conversation
// @Tags         chat
// @Produce      json
// @Success      200  {object}  types.HistoryResponse
// @Router       /api/history [get]
func (s *server) history(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.History())
}

// status godoc
// @Summary      Server status
// @Tags         status
// @Produce      json
// @Success      200  {object}  types.StatusResponse
// @Router       /status [get]
func (s *server) status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.svc.Status(r.Context()))
}
