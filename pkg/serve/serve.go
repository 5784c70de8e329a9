// Package serve mounts a conn.Handler onto concrete servers. It owns the
// pieces the connection core delegates outward: accepting the request and
// building the binding, per-client rate limiting, request logging, and
// the outermost error boundary that decides whether anything more can be
// written after a handler failure.
package serve

import (
	"errors"
	"net/http"

	"github.com/valyala/fasthttp"

	"connkit/pkg/adapter"
	"connkit/pkg/conn"
	"connkit/pkg/logger"
	"connkit/pkg/parsers"
	"connkit/pkg/telemetry"
)

// Options configures the server-side glue around a handler.
type Options struct {
	// RPS and Burst configure per-client-IP rate limiting; RPS 0 disables it.
	RPS   float64
	Burst int
}

// NetHTTP adapts a conn.Handler into an http.Handler.
func NetHTTP(h conn.Handler, opts Options) http.Handler {
	pool := &limiterPool{rps: opts.RPS, burst: opts.Burst}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !pool.Allow(clientIP(r.RemoteAddr)) {
			w.Header().Set("Content-Type", "text/plain; charset=utf-8")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte("rate limit exceeded\n"))
			return
		}
		run(h, adapter.NetHTTP(w, r), r.RemoteAddr)
	})
}

// FastHTTP adapts a conn.Handler into a fasthttp.RequestHandler.
func FastHTTP(h conn.Handler, opts Options) fasthttp.RequestHandler {
	pool := &limiterPool{rps: opts.RPS, burst: opts.Burst}
	return func(ctx *fasthttp.RequestCtx) {
		remote := ctx.RemoteAddr().String()
		if !pool.Allow(clientIP(remote)) {
			ctx.Response.Header.Set("Content-Type", "text/plain; charset=utf-8")
			ctx.SetStatusCode(fasthttp.StatusTooManyRequests)
			_, _ = ctx.WriteString("rate limit exceeded\n")
			return
		}
		run(h, adapter.FastHTTP(ctx), remote)
	}
}

// run drives one connection through the handler and the error boundary.
func run(h conn.Handler, b adapter.Binding, remote string) {
	c := conn.New(b)
	telemetry.RequestsTotal.WithLabelValues(string(b.Kind), c.Method).Inc()
	logger.LogRequest(c, remote)

	out, err := h(c)
	finish(out, err)
}

// finish closes out the request. Handler errors while the connection is
// still unsent get a best-effort synthesized response; once bytes are on
// the wire the error is logged and surfaced no further, because no more
// response bytes can be sent.
func finish(c conn.Conn, err error) {
	if err == nil {
		if c.State() == conn.Unsent {
			// handler declined to respond; close the cycle cleanly
			var sendErr error
			if c, sendErr = c.Send(http.StatusNoContent, nil); sendErr != nil {
				logger.Error("empty_response_failed", "error", sendErr)
				return
			}
		}
		telemetry.ObserveResponse(c.StatusCode(), mode(c))
		return
	}

	if c.State() != conn.Unsent {
		logger.Error("handler_error_after_commit",
			"state", c.State().String(), "error", err)
		return
	}

	status := http.StatusInternalServerError
	var pe *parsers.ParseError
	switch {
	case errors.Is(err, conn.ErrBodyTooLarge):
		status = http.StatusRequestEntityTooLarge
	case errors.As(err, &pe):
		status = http.StatusBadRequest
	}
	logger.Warn("handler_error", "status", status, "error", err)
	c, sendErr := c.Send(status, []byte(http.StatusText(status)+"\n"))
	if sendErr != nil {
		logger.Error("error_response_failed", "error", sendErr)
		return
	}
	telemetry.ObserveResponse(c.StatusCode(), mode(c))
}

func mode(c conn.Conn) string {
	if c.State() == conn.Chunked {
		return "chunked"
	}
	return "full"
}
