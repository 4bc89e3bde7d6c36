package ollama

import "fmt"

// PrepareChatMessages builds the message list for a chat request. A non-empty
// system prompt is put first and images go to the last user message. Every
// message must have a role. The input slice is not modified.
func PrepareChatMessages(system string, msgs []Message, images []ImageData) ([]Message, error) {
	out := make([]Message, 0, len(msgs)+1)
	if system != "" {
		out = append(out, Message{Role: "system", Content: system})
	}
	for i, m := range msgs {
		if m.Role == "" {
			return nil, fmt.Errorf("message %d: missing role", i)
		}
		out = append(out, m)
	}
	if len(images) == 0 {
		return out, nil
	}
	for i := len(out) - 1; i >= 0; i-- {
		if out[i].Role == "user" {
			imgs := make([]ImageData, 0, len(out[i].Images)+len(images))
			imgs = append(imgs, out[i].Images...)
			out[i].Images = append(imgs, images...)
			return out, nil
		}
	}
	return nil, fmt.Errorf("images given but no user message to attach them to")
}
