// Package ollama is a client for the Ollama REST API.
//
// Generation calls (Generate, Chat, Pull, Push, Create) read newline-delimited
// JSON and hand each chunk to a callback; a request with Stream set to false
// yields one callback. Complete and ChatOnce collect a stream into a single
// reply. Every failure that involves the server is an *Error whose Kind tells
// request, response, missing-model and connection failures apart.
package ollama
