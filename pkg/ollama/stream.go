package ollama

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
)

// StreamHandler observes every raw chunk a Client reads from a stream,
// before the chunk is decoded for the caller.
type StreamHandler interface {
	HandleChunk(chunk json.RawMessage)
}

// StreamHandlerFunc adapts a function to StreamHandler.
type StreamHandlerFunc func(chunk json.RawMessage)

func (f StreamHandlerFunc) HandleChunk(chunk json.RawMessage) { f(chunk) }

// StreamDecoder reads newline-delimited JSON objects.
//
// Blank lines are skipped. A line that is not JSON is a KindResponse error and
// a line carrying an "error" field is a KindRequest error. After the object with
// "done": true nothing more is read and Next returns io.EOF.
type StreamDecoder struct {
	r    *bufio.Reader
	done bool
}

func NewStreamDecoder(r io.Reader) *StreamDecoder {
	return &StreamDecoder{r: bufio.NewReaderSize(r, 64*1024)}
}

// Done reports whether the done marker has been read.
func (d *StreamDecoder) Done() bool { return d.done }

// Next returns the next chunk, or io.EOF at the done marker or end of body.
func (d *StreamDecoder) Next() (json.RawMessage, error) {
	for {
		if d.done {
			return nil, io.EOF
		}
		line, err := d.r.ReadBytes('\n')
		line = bytes.TrimSpace(line)
		if len(line) > 0 {
			var peek struct {
				Done  bool   `json:"done"`
				Error string `json:"error"`
			}
			if jerr := json.Unmarshal(line, &peek); jerr != nil {
				return nil, responseError("malformed stream chunk", jerr)
			}
			if peek.Error != "" {
				return nil, &Error{Kind: KindRequest, Message: peek.Error}
			}
			d.done = peek.Done
			return json.RawMessage(line), nil
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil, io.EOF
			}
			return nil, connectionError("read stream", err)
		}
	}
}

// StreamStats accumulates what a finished stream reported.
type StreamStats struct {
	Chunks int
	Metrics
}

// ChatAccumulator concatenates streamed chat chunks into one reply.
type ChatAccumulator struct {
	content  bytes.Buffer
	thinking bytes.Buffer
	last     ChatResponse
	Stats    StreamStats
}

// Add folds one chunk into the accumulator.
func (a *ChatAccumulator) Add(r ChatResponse) {
	a.content.WriteString(r.Message.Content)
	a.thinking.WriteString(r.Message.Thinking)
	a.Stats.Chunks++
	a.last = r
	if r.Done {
		a.Stats.Metrics = r.Metrics
	}
}

// Response returns the final chunk with the full message content filled in,
// the same shape a non-streamed call returns.
func (a *ChatAccumulator) Response() ChatResponse {
	out := a.last
	out.Message.Content = a.content.String()
	out.Message.Thinking = a.thinking.String()
	if out.Message.Role == "" {
		out.Message.Role = "assistant"
	}
	return out
}

// GenerateAccumulator concatenates streamed generate chunks.
type GenerateAccumulator struct {
	text  bytes.Buffer
	last  GenerateResponse
	Stats StreamStats
}

func (a *GenerateAccumulator) Add(r GenerateResponse) {
	a.text.WriteString(r.Response)
	a.Stats.Chunks++
	a.last = r
	if r.Done {
		a.Stats.Metrics = r.Metrics
	}
}

func (a *GenerateAccumulator) Response() GenerateResponse {
	out := a.last
	out.Response = a.text.String()
	return out
}
