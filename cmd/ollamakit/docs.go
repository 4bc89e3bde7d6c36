package main

// General API documentation for swaggo. The generated document lives in
// internal/httpapi/docs and is served at /openapi.json.
//
// @title           ollamakit API
// @version         1.0
// @description     JSON routes of the ollamakit web UI for chatting with an Ollama server.
//
// @license.name   MIT
// @license.url    https://opensource.org/licenses/MIT
//
// @BasePath  /
//
// @schemes http
