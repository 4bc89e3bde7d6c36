package ollama

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptions_UnsetIsEmptyObject(t *testing.T) {
	b, err := json.Marshal(Options{})
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
	assert.True(t, (&Options{}).IsZero())
	assert.True(t, (*Options)(nil).IsZero())
}

func TestOptions_OnlySetFieldsAreSent(t *testing.T) {
	o := Options{
		Temperature: Ptr(0.0),
		TopK:        Ptr(40),
		Stop:        []string{"</s>"},
		UseMMap:     Ptr(false),
	}
	b, err := json.Marshal(o)
	require.NoError(t, err)
	assert.JSONEq(t, `{"temperature":0,"top_k":40,"stop":["</s>"],"use_mmap":false}`, string(b))
	assert.False(t, o.IsZero())
}

func TestOptions_RequestOmitsNilOptions(t *testing.T) {
	b, err := json.Marshal(GenerateRequest{Model: "m", Prompt: "p"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"model":"m","prompt":"p"}`, string(b))
}

func TestOptions_Map(t *testing.T) {
	m, err := (&Options{NumCtx: Ptr(4096), TopP: Ptr(0.9)}).Map()
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"num_ctx": float64(4096), "top_p": 0.9}, m)

	m, err = (*Options)(nil).Map()
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestOptions_Merge(t *testing.T) {
	base := &Options{Temperature: Ptr(0.2), TopK: Ptr(10)}
	over := &Options{Temperature: Ptr(0.9), Seed: Ptr(7)}
	got, err := base.Merge(over)
	require.NoError(t, err)
	assert.Equal(t, 0.9, *got.Temperature)
	assert.Equal(t, 10, *got.TopK)
	assert.Equal(t, 7, *got.Seed)
	assert.Equal(t, 0.2, *base.Temperature, "receiver must not change")
}
