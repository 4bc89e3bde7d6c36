// Package docs registers the OpenAPI document for the web UI's JSON routes
// with swag. Keep it in step with the handler annotations in httpapi.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "swagger": "2.0",
    "info": {
        "title": "{{.Title}}",
        "description": "{{escape .Description}}",
        "version": "{{.Version}}",
        "license": {"name": "MIT", "url": "https://opensource.org/licenses/MIT"}
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "schemes": {{ marshal .Schemes }},
    "paths": {
        "/chat/stream": {
            "post": {
                "tags": ["chat"],
                "summary": "Send a message and stream the reply",
                "description": "Appends the prompt to the current conversation and streams chat chunks as NDJSON. The last line has \"done\": true.",
                "consumes": ["application/json"],
                "produces": ["application/x-ndjson"],
                "parameters": [{"in": "body", "name": "request", "required": true, "schema": {"$ref": "#/definitions/types.PromptRequest"}}],
                "responses": {
                    "200": {"description": "NDJSON stream", "schema": {"type": "string"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/settings": {
            "get": {
                "tags": ["settings"],
                "summary": "Settings document",
                "description": "Returns the stored settings object exactly as saved.",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"type": "object"}}}
            }
        },
        "/save_settings": {
            "post": {
                "tags": ["settings"],
                "summary": "Save the settings document",
                "description": "Replaces the stored settings object. Changing base_url points the chat at the new server.",
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "parameters": [{"in": "body", "name": "settings", "required": true, "schema": {"type": "object"}}],
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/types.SaveResponse"}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "413": {"description": "Request Entity Too Large", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "415": {"description": "Unsupported Media Type", "schema": {"$ref": "#/definitions/types.ErrorResponse"}},
                    "429": {"description": "Too Many Requests", "schema": {"$ref": "#/definitions/types.ErrorResponse"}}
                }
            }
        },
        "/api/conversations": {
            "get": {
                "tags": ["chat"],
                "summary": "Saved conversations",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.ConversationsResponse"}}}
            }
        },
        "/api/history": {
            "get": {
                "tags": ["chat"],
                "summary": "Current conversation",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.HistoryResponse"}}}
            }
        },
        "/status": {
            "get": {
                "tags": ["status"],
                "summary": "Server status",
                "produces": ["application/json"],
                "responses": {"200": {"description": "OK", "schema": {"$ref": "#/definitions/types.StatusResponse"}}}
            }
        }
    },
    "definitions": {
        "ollama.Message": {
            "type": "object",
            "properties": {
                "role": {"type": "string", "example": "user"},
                "content": {"type": "string", "example": "Hello"},
                "thinking": {"type": "string"},
                "images": {"type": "array", "items": {"type": "string"}}
            }
        },
        "types.Conversation": {
            "type": "object",
            "properties": {
                "id": {"type": "string", "example": "Rust_borrow_checker"},
                "name": {"type": "string", "example": "Rust borrow checker"},
                "path": {"type": "string"},
                "mod_time": {"type": "string", "format": "date-time"},
                "current": {"type": "boolean"}
            }
        },
        "types.ConversationsResponse": {
            "type": "object",
            "properties": {"conversations": {"type": "array", "items": {"$ref": "#/definitions/types.Conversation"}}}
        },
        "types.ErrorResponse": {
            "type": "object",
            "properties": {
                "error": {"type": "string", "example": "invalid JSON body"},
                "code": {"type": "integer", "example": 400}
            }
        },
        "types.HistoryResponse": {
            "type": "object",
            "properties": {
                "conversation": {"type": "string", "example": "chat_001"},
                "model": {"type": "string", "example": "llama3:8b"},
                "preset": {"type": "string", "example": "coder"},
                "last_error": {"type": "string"},
                "messages": {"type": "array", "items": {"$ref": "#/definitions/ollama.Message"}}
            }
        },
        "types.PromptRequest": {
            "type": "object",
            "properties": {
                "prompt": {"type": "string", "example": "Explain goroutines in one paragraph."},
                "preset": {"type": "string", "example": "coder"},
                "system": {"type": "string", "example": "Answer briefly."},
                "options": {"type": "object"}
            }
        },
        "types.SaveResponse": {
            "type": "object",
            "properties": {"status": {"type": "string", "example": "success"}}
        },
        "types.StatusResponse": {
            "type": "object",
            "properties": {
                "model": {"type": "string", "example": "llama3:8b"},
                "preset": {"type": "string", "example": "coder"},
                "base_url": {"type": "string", "example": "http://localhost:11434"},
                "conversation": {"type": "string", "example": "chat_001"},
                "messages": {"type": "integer", "example": 4},
                "conversations": {"type": "integer", "example": 12},
                "ollama_version": {"type": "string", "example": "0.5.7"},
                "last_error": {"type": "string"},
                "uptime_seconds": {"type": "integer", "example": 3600},
                "server_time_unix": {"type": "integer", "example": 1700000000},
                "messages_total": {"type": "integer", "example": 42}
            }
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/",
	Schemes:          []string{"http"},
	Title:            "ollamakit API",
	Description:      "JSON routes of the ollamakit web UI.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
