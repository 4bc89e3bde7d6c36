// Package settings stores the web UI settings document.
//
// The document is kept as the raw JSON object the browser posted: key order,
// number literals and keys this package does not know about all survive a
// save. Document is only a typed view over it.
package settings

import (
	"encoding/json"
	"fmt"

	"ollamakit/pkg/ollama"
)

// FallbackModel is used when the document names no installed model.
const FallbackModel = "qwen2.5-coder:1.5b"

// Document is the typed view of the settings object.
type Document struct {
	Theme        string       `json:"theme,omitempty"`
	BaseURL      string       `json:"base_url,omitempty"`
	ManageModels ManageModels `json:"manageModels"`
}

type ManageModels struct {
	ModelInstalled []string `json:"modelInstalled"`
	ModelPresets   []Preset `json:"modelPresets"`
	DefaultPreset  string   `json:"defaultPreset,omitempty"`
}

// Preset is a named model plus generation options. Names are not required to
// be unique; lookups return the first match.
type Preset struct {
	Name    string          `json:"name"`
	Model   string          `json:"model"`
	Options *ollama.Options `json:"options,omitempty"`
}

// DefaultRaw is served when nothing has been saved yet.
var DefaultRaw = json.RawMessage(`{
    "theme": "light",
    "base_url": "` + ollama.DefaultHost + `",
    "manageModels": {
        "modelInstalled": [],
        "modelPresets": [],
        "defaultPreset": ""
    }
}`)

// Decode parses raw into a Document. Only a body that is not a JSON object
// is an error; fields of the wrong type are left zero.
func Decode(raw json.RawMessage) (Document, error) {
	var d Document
	if err := json.Unmarshal(raw, &d); err != nil {
		return Document{}, fmt.Errorf("decode settings: %w", err)
	}
	return d, nil
}

// Preset returns the first preset called name.
func (d Document) Preset(name string) (Preset, bool) {
	for _, p := range d.ManageModels.ModelPresets {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// DefaultModel picks the model of the default preset, then the first
// installed model, then FallbackModel.
func (d Document) DefaultModel() string {
	if name := d.ManageModels.DefaultPreset; name != "" {
		if p, ok := d.Preset(name); ok && p.Model != "" {
			return p.Model
		}
	}
	if len(d.ManageModels.ModelInstalled) > 0 && d.ManageModels.ModelInstalled[0] != "" {
		return d.ManageModels.ModelInstalled[0]
	}
	return FallbackModel
}

// Host returns BaseURL or the client default.
func (d Document) Host() string {
	if d.BaseURL == "" {
		return ollama.DefaultHost
	}
	return d.BaseURL
}
