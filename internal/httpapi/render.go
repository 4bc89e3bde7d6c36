package httpapi

import (
	"embed"
	"encoding/json"
	"html/template"
	"io/fs"
	"net/http"

	"ollamakit/internal/settings"
	"ollamakit/pkg/ollama"
	"ollamakit/pkg/types"
)

//go:embed web/templates/*.html web/static/*
var webFS embed.FS

var pages = template.Must(template.ParseFS(webFS, "web/templates/*.html"))

func staticFS() http.FileSystem {
	sub, err := fs.Sub(webFS, "web/static")
	if err != nil {
		panic(err)
	}
	return http.FS(sub)
}

// pageData feeds both pages; each uses a subset.
type pageData struct {
	Title         string
	Theme         string
	Conversations []types.Conversation
	Error         string

	Messages []ollama.Message
	Presets  []settings.Preset
	Preset   string
	Model    string

	SettingsJSON  string
	InstalledJSON string
}

func renderPage(w http.ResponseWriter, name string, data pageData) {
	if data.Theme == "" {
		data.Theme = "light"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := pages.ExecuteTemplate(w, name, data); err != nil {
		if zlog != nil {
			zlog.Error().Err(err).Str("page", name).Msg("render")
		}
	}
}

func jsonString(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
