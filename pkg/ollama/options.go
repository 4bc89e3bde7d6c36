package ollama

import (
	"encoding/json"
	"fmt"
)

// Options are the model parameters sent under "options". Every field is
// optional; unset fields are left out of the JSON so the server default applies.
type Options struct {
	// Sampling
	Temperature      *float64 `json:"temperature,omitempty"`
	TopP             *float64 `json:"top_p,omitempty"`
	TopK             *int     `json:"top_k,omitempty"`
	MinP             *float64 `json:"min_p,omitempty"`
	TypicalP         *float64 `json:"typical_p,omitempty"`
	NumPredict       *int     `json:"num_predict,omitempty"`
	Stop             []string `json:"stop,omitempty"`
	Seed             *int     `json:"seed,omitempty"`
	RepeatLastN      *int     `json:"repeat_last_n,omitempty"`
	RepeatPenalty    *float64 `json:"repeat_penalty,omitempty"`
	PresencePenalty  *float64 `json:"presence_penalty,omitempty"`
	FrequencyPenalty *float64 `json:"frequency_penalty,omitempty"`
	PenalizeNewline  *bool    `json:"penalize_newline,omitempty"`
	Mirostat         *int     `json:"mirostat,omitempty"`
	MirostatTau      *float64 `json:"mirostat_tau,omitempty"`
	MirostatEta      *float64 `json:"mirostat_eta,omitempty"`

	// Runtime
	NumCtx    *int  `json:"num_ctx,omitempty"`
	NumKeep   *int  `json:"num_keep,omitempty"`
	NumBatch  *int  `json:"num_batch,omitempty"`
	NumGPU    *int  `json:"num_gpu,omitempty"`
	MainGPU   *int  `json:"main_gpu,omitempty"`
	NumThread *int  `json:"num_thread,omitempty"`
	Numa      *bool `json:"numa,omitempty"`
	LowVRAM   *bool `json:"low_vram,omitempty"`
	VocabOnly *bool `json:"vocab_only,omitempty"`
	UseMMap   *bool `json:"use_mmap,omitempty"`
	UseMLock  *bool `json:"use_mlock,omitempty"`
}

// Ptr returns a pointer to v, for filling Options literals.
func Ptr[T any](v T) *T { return &v }

// IsZero reports whether no option is set.
func (o *Options) IsZero() bool {
	if o == nil {
		return true
	}
	b, err := json.Marshal(o)
	return err == nil && string(b) == "{}"
}

// Map returns the set options keyed by their wire names. It is the shape
// CreateRequest.Parameters and Modelfile PARAMETER lines expect.
func (o *Options) Map() (map[string]any, error) {
	out := map[string]any{}
	if o == nil {
		return out, nil
	}
	b, err := json.Marshal(o)
	if err != nil {
		return nil, fmt.Errorf("marshal options: %w", err)
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, fmt.Errorf("unmarshal options: %w", err)
	}
	return out, nil
}

// Merge returns a copy of o with every field set in other overriding o.
func (o *Options) Merge(other *Options) (*Options, error) {
	var out Options
	for _, src := range []*Options{o, other} {
		if src == nil {
			continue
		}
		b, err := json.Marshal(src)
		if err != nil {
			return nil, fmt.Errorf("marshal options: %w", err)
		}
		if err := json.Unmarshal(b, &out); err != nil {
			return nil, fmt.Errorf("merge options: %w", err)
		}
	}
	return &out, nil
}
