// Package manager owns the conversation the web UI is working on. It is
// structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - conversations.go: NewChat, LoadChat, DeleteChat and file naming.
//   - chat.go: Send/Stream and automatic titling of new conversations.
//   - errors.go: error types and helpers (IsConversationNotFound, IsInvalidName).
//   - events.go, eventpub_*.go: lifecycle events and publishers.
//   - status_report.go: Status/Ready reporting helpers.
//
// Conversations are session files (see internal/session) in one directory.
// A new conversation is called chat_NNN until its first exchange, when the
// model is asked for a title and the file is renamed. Deleted conversations
// are moved aside, not removed.
//
// All operations on the current conversation are serialized; readers such as
// Status and History see the state as of the last finished operation.
package manager
