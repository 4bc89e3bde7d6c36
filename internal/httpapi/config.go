package httpapi

import (
	"time"

	"golang.org/x/time/rate"
)

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
// Default remains 1 MiB.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// requestTimeout bounds /chat and /chat/stream.
// Zero means no additional timeout beyond server/connection timeouts.
var requestTimeout = int64(0) // seconds

// SetRequestTimeoutSeconds sets the chat timeout in seconds (0 disables).
func SetRequestTimeoutSeconds(sec int64) {
	if sec < 0 {
		sec = 0
	}
	requestTimeout = sec
}

func requestTimeoutDuration() time.Duration { return time.Duration(requestTimeout) * time.Second }

// CORS configuration (opt-in). If disabled, no CORS middleware is added.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}

// Settings saves are rate limited per mux; the page posts on every edit.
var (
	saveRatePerSec rate.Limit = 5
	saveBurst                 = 10
)

// SetSaveRateLimit configures the /save_settings token bucket. Non-positive
// values restore the defaults.
func SetSaveRateLimit(perSec float64, burst int) {
	if perSec <= 0 {
		perSec = 5
	}
	if burst <= 0 {
		burst = 10
	}
	saveRatePerSec = rate.Limit(perSec)
	saveBurst = burst
}
