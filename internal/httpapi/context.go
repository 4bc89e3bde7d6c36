package httpapi

import (
	"context"
	"net/http"
)

// shutdownCtx is canceled when the process stops serving. Chat requests
// stop talking to Ollama when either it or the client goes away.
var shutdownCtx = context.Background()

// SetBaseContext sets the context whose cancellation aborts in-flight chats.
// nil restores the default, which is never canceled.
func SetBaseContext(ctx context.Context) {
	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx = ctx
}

// chatContext derives the context for one upstream call from r. It keeps
// r's values and is canceled on client disconnect or shutdown.
func chatContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(r.Context())
	stop := context.AfterFunc(shutdownCtx, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

// aborted reports whether r's chat ended because of the client or shutdown
// rather than an upstream failure.
func aborted(r *http.Request) bool {
	return r.Context().Err() != nil || shutdownCtx.Err() != nil
}
