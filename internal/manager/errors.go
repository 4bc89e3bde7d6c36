package manager

import "errors"

// ErrEmptyPrompt is returned by Send and Stream for blank input.
var ErrEmptyPrompt = errors.New("empty prompt")

// conversationNotFoundError signals a missing conversation file for 404 mapping.
type conversationNotFoundError struct{ name string }

func (e conversationNotFoundError) Error() string { return "conversation not found: " + e.name }

// IsConversationNotFound reports whether err indicates a missing conversation.
func IsConversationNotFound(err error) bool {
	var e conversationNotFoundError
	return errors.As(err, &e)
}

// invalidNameError signals a conversation name that cannot be a file stem.
type invalidNameError struct{ name string }

func (e invalidNameError) Error() string { return "invalid conversation name: " + e.name }

// IsInvalidName reports whether err indicates a bad conversation name (return 400).
func IsInvalidName(err error) bool {
	var e invalidNameError
	return errors.As(err, &e)
}
