package httpapi

import (
	"net/http"
	"strings"

	"ollamakit/internal/registry"
	"ollamakit/internal/settings"
)

// chatPage renders the current conversation.
func (s *server) chatPage(w http.ResponseWriter, r *http.Request) {
	doc, err := settings.Load(r.Context(), s.store)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	convs, err := s.svc.Conversations()
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	h := s.svc.History()
	renderPage(w, "chat.html", pageData{
		Title:         registry.DisplayName(h.Conversation),
		Theme:         doc.Theme,
		Conversations: convs,
		Error:         h.LastError,
		Messages:      h.Messages,
		Presets:       doc.ManageModels.ModelPresets,
		Preset:        h.Preset,
		Model:         h.Model,
	})
}

// settingsPage embeds the stored settings object as-is so the page posts
// back every key, including ones it does not edit.
func (s *server) settingsPage(w http.ResponseWriter, r *http.Request) {
	raw, err := s.store.Raw(r.Context())
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	doc, err := settings.Decode(raw)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	convs, err := s.svc.Conversations()
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	// An unreachable server only leaves the suggestions empty.
	installed, err := s.svc.InstalledModels(r.Context())
	if err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("list installed models")
	}
	if installed == nil {
		installed = []string{}
	}
	renderPage(w, "settings.html", pageData{
		Title:         "Settings",
		Theme:         doc.Theme,
		Conversations: convs,
		SettingsJSON:  string(raw),
		InstalledJSON: jsonString(installed),
	})
}

// chatForm is the no-JavaScript path of the chat page.
func (s *server) chatForm(w http.ResponseWriter, r *http.Request) {
	input := strings.TrimSpace(r.PostFormValue("user_input"))
	if input == "" {
		redirectHome(w, r)
		return
	}
	ctx, cancel := chatContext(r)
	defer cancel()
	// The error is recorded by the service and shown on the page.
	if _, err := s.svc.Send(ctx, input); err != nil && zlog != nil {
		zlog.Warn().Err(err).Msg("chat")
	}
	redirectHome(w, r)
}

func (s *server) newChat(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.NewChat(); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	redirectHome(w, r)
}

// loadChat falls back to the current conversation when the name is unknown.
func (s *server) loadChat(w http.ResponseWriter, r *http.Request) {
	err := s.svc.LoadChat(r.URL.Query().Get("filename"))
	if err != nil && statusFor(err) != http.StatusNotFound {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	redirectHome(w, r)
}

func (s *server) deleteChat(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.DeleteChat(r.PostFormValue("filename")); err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	redirectHome(w, r)
}

func (s *server) selectPreset(w http.ResponseWriter, r *http.Request) {
	name := r.PostFormValue("name")
	doc, err := settings.Load(r.Context(), s.store)
	if err != nil {
		writeJSONError(w, statusFor(err), err.Error())
		return
	}
	p, ok := doc.Preset(name)
	if !ok {
		writeJSONError(w, http.StatusNotFound, "preset not found: "+name)
		return
	}
	s.svc.UsePreset(p)
	redirectHome(w, r)
}
