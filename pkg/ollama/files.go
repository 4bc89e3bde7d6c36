package ollama

import (
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileDigest returns the blob digest of a file as "sha256:<hex>".
func FileDigest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hash %s: %w", path, err)
	}
	return "sha256:" + hex.EncodeToString(h.Sum(nil)), nil
}

// EncodeImage reads an image file for Message.Images or GenerateRequest.Images.
func EncodeImage(path string) (ImageData, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image: %w", err)
	}
	return ImageData(b), nil
}

var textExtensions = map[string]bool{
	".txt": true, ".md": true, ".py": true, ".js": true, ".html": true, ".css": true,
	".json": true, ".csv": true, ".xml": true, ".yaml": true, ".yml": true, ".go": true,
}

// EncodeFileContent wraps a file for inclusion in a prompt. Known text
// extensions are inlined as-is, anything else is base64 encoded.
func EncodeFileContent(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}
	content := string(b)
	if !textExtensions[strings.ToLower(filepath.Ext(path))] {
		content = base64.StdEncoding.EncodeToString(b)
	}
	return fmt.Sprintf("<file name=%q>\n%s\n</file>", filepath.Base(path), content), nil
}

// FormatFilePrompt is EncodeFileContent with an optional description on top.
func FormatFilePrompt(path, description string) (string, error) {
	content, err := EncodeFileContent(path)
	if err != nil {
		return "", err
	}
	if description == "" {
		return content, nil
	}
	return description + "\n\n" + content, nil
}

// TokenUsage summarizes token counts of a finished reply.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Usage returns the token counts reported in m.
func (m Metrics) Usage() TokenUsage {
	return TokenUsage{
		PromptTokens:     m.PromptEvalCount,
		CompletionTokens: m.EvalCount,
		TotalTokens:      m.PromptEvalCount + m.EvalCount,
	}
}

// TokensPerSecond is the generation rate, or 0 when no eval time was reported.
func (m Metrics) TokensPerSecond() float64 {
	if m.EvalDuration <= 0 {
		return 0
	}
	return float64(m.EvalCount) / m.EvalDuration.Seconds()
}

// Summary renders the metrics on one line for terminals and logs.
func (m Metrics) Summary() string {
	u := m.Usage()
	return fmt.Sprintf("%d prompt + %d completion tokens, %.1f tok/s, total %s",
		u.PromptTokens, u.CompletionTokens, m.TokensPerSecond(), m.TotalDuration.Round(time.Millisecond))
}
