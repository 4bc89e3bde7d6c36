package ollama

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestFileDigest(t *testing.T) {
	p := writeFile(t, "a.txt", "abc")
	d, err := FileDigest(p)
	require.NoError(t, err)
	assert.Equal(t, "sha256:ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad", d)

	_, err = FileDigest(filepath.Join(t.TempDir(), "nope"))
	assert.Error(t, err)
}

func TestEncodeImage_MarshalsAsBase64(t *testing.T) {
	p := writeFile(t, "pixel.png", "\x89PNG")
	img, err := EncodeImage(p)
	require.NoError(t, err)
	b, err := json.Marshal(Message{Role: "user", Content: "look", Images: []ImageData{img}})
	require.NoError(t, err)
	assert.JSONEq(t, `{"role":"user","content":"look","images":["`+base64.StdEncoding.EncodeToString([]byte("\x89PNG"))+`"]}`, string(b))
}

func TestEncodeFileContent(t *testing.T) {
	text := writeFile(t, "notes.md", "# hi")
	got, err := EncodeFileContent(text)
	require.NoError(t, err)
	assert.Equal(t, "<file name=\"notes.md\">\n# hi\n</file>", got)

	bin := writeFile(t, "blob.bin", "\x00\x01")
	got, err = EncodeFileContent(bin)
	require.NoError(t, err)
	assert.Equal(t, "<file name=\"blob.bin\">\nAAE=\n</file>", got)

	got, err = FormatFilePrompt(text, "Summarize this:")
	require.NoError(t, err)
	assert.Equal(t, "Summarize this:\n\n<file name=\"notes.md\">\n# hi\n</file>", got)
}

func TestMetrics(t *testing.T) {
	var r GenerateResponse
	require.NoError(t, json.Unmarshal([]byte(`{"done":true,"prompt_eval_count":10,"eval_count":20,"eval_duration":2000000000,"total_duration":2500000000}`), &r))
	assert.Equal(t, TokenUsage{PromptTokens: 10, CompletionTokens: 20, TotalTokens: 30}, r.Usage())
	assert.Equal(t, 2*time.Second, r.EvalDuration)
	assert.InDelta(t, 10.0, r.TokensPerSecond(), 1e-9)
	assert.Equal(t, "10 prompt + 20 completion tokens, 10.0 tok/s, total 2.5s", r.Summary())
	assert.Zero(t, Metrics{}.TokensPerSecond())
}
