package types

import "time"

// Conversation is a saved chat file in the conversations directory.
type Conversation struct {
	// File stem, used as the identifier in URLs.
	// example: Rust_borrow_checker
	ID string `json:"id" example:"Rust_borrow_checker"`
	// Display name: the stem with underscores shown as spaces.
	// example: Rust borrow checker
	Name string `json:"name" example:"Rust borrow checker"`
	// Absolute path to the conversation file.
	// example: /home/user/.ollamakit/conversations/Rust_borrow_checker.json
	Path string `json:"path" example:"/home/user/.ollamakit/conversations/Rust_borrow_checker.json"`
	// Last modification time of the file.
	ModTime time.Time `json:"mod_time"`
	// True for the conversation currently loaded in the web UI.
	Current bool `json:"current,omitempty"`
}
