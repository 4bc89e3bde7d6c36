package settings

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"ollamakit/pkg/ollama"
)

// The settings object is saved exactly as posted, so the typed view has to
// cope with whatever a browser or a hand edit left in it. Fields of the
// wrong type are dropped instead of failing the whole document.

func (d *Document) UnmarshalJSON(b []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	*d = Document{
		Theme:   looseString(m["theme"]),
		BaseURL: strings.TrimSpace(looseString(m["base_url"])),
	}
	if raw, ok := m["manageModels"]; ok {
		_ = json.Unmarshal(raw, &d.ManageModels)
	}
	return nil
}

func (mm *ManageModels) UnmarshalJSON(b []byte) error {
	*mm = ManageModels{}
	var m map[string]json.RawMessage
	if json.Unmarshal(b, &m) != nil {
		return nil
	}
	mm.ModelInstalled = looseStrings(m["modelInstalled"])
	mm.DefaultPreset = looseString(m["defaultPreset"])
	var items []json.RawMessage
	if json.Unmarshal(m["modelPresets"], &items) != nil {
		return nil
	}
	for _, it := range items {
		var p Preset
		if isObject(it) && json.Unmarshal(it, &p) == nil {
			mm.ModelPresets = append(mm.ModelPresets, p)
		}
	}
	return nil
}

func (p *Preset) UnmarshalJSON(b []byte) error {
	*p = Preset{}
	var m map[string]json.RawMessage
	if json.Unmarshal(b, &m) != nil {
		return nil
	}
	p.Name = looseString(m["name"])
	p.Model = looseString(m["model"])
	p.Options = looseOptions(m["options"])
	return nil
}

func isObject(raw json.RawMessage) bool {
	s := strings.TrimSpace(string(raw))
	return strings.HasPrefix(s, "{")
}

// looseString accepts a JSON string or a number literal.
func looseString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var n json.Number
	if json.Unmarshal(raw, &n) == nil {
		return n.String()
	}
	return ""
}

// looseStrings accepts an array, keeping its string items, or a single string.
func looseStrings(raw json.RawMessage) []string {
	var items []json.RawMessage
	if json.Unmarshal(raw, &items) != nil {
		if s := looseString(raw); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, it := range items {
		var s string
		if json.Unmarshal(it, &s) == nil && s != "" {
			out = append(out, s)
		}
	}
	return out
}

// looseOptions decodes preset options key by key. A value of the wrong type
// is coerced when the intent is clear (4096.0 or "0.7" for a number, "END"
// for a stop list) and dropped otherwise. nil means no usable option.
func looseOptions(raw json.RawMessage) *ollama.Options {
	var m map[string]json.RawMessage
	if json.Unmarshal(raw, &m) != nil || len(m) == 0 {
		return nil
	}
	var o ollama.Options
	for key, val := range m {
		for _, cand := range append([]json.RawMessage{val}, coercions(val)...) {
			if decodeOption(&o, key, cand) {
				break
			}
		}
	}
	if o.IsZero() {
		return nil
	}
	return &o
}

func decodeOption(o *ollama.Options, key string, val json.RawMessage) bool {
	b, err := json.Marshal(map[string]json.RawMessage{key: val})
	if err != nil {
		return false
	}
	// A failed decode can still allocate the field, so try on a scratch value.
	var scratch ollama.Options
	if json.Unmarshal(b, &scratch) != nil {
		return false
	}
	return json.Unmarshal(b, o) == nil
}

// coercions lists alternative encodings of val to try in order.
func coercions(val json.RawMessage) []json.RawMessage {
	var out []json.RawMessage
	var v any
	if json.Unmarshal(val, &v) != nil {
		return nil
	}
	switch x := v.(type) {
	case float64:
		out = append(out, intLiteral(x))
	case string:
		s := strings.TrimSpace(x)
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			out = append(out, json.RawMessage(strconv.FormatFloat(f, 'f', -1, 64)), intLiteral(f))
		}
		if bv, err := strconv.ParseBool(s); err == nil {
			out = append(out, json.RawMessage(strconv.FormatBool(bv)))
		}
		if list, err := json.Marshal([]string{x}); err == nil {
			out = append(out, list)
		}
	}
	return out
}

func intLiteral(f float64) json.RawMessage {
	return json.RawMessage(strconv.FormatInt(int64(math.Round(f)), 10))
}
