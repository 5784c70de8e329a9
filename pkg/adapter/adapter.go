// Package adapter defines the binding between a connection and whichever
// concrete HTTP server accepted it. The core never touches a socket or an
// *http.Request directly; it only calls through the State capability set,
// so the same handler code runs unchanged on net/http and fasthttp.
package adapter

// Kind tags the concrete server implementation behind a Binding.
type Kind string

const (
	KindNetHTTP  Kind = "nethttp"
	KindFastHTTP Kind = "fasthttp"
	KindRecorder Kind = "recorder"
)

// Info is the request view a State provides before any body is read.
// Header keys are as received from the server; the connection layer
// normalizes them on ingestion.
type Info struct {
	Method      string
	Scheme      string // "http" or "https"
	Host        string
	Port        uint16
	Path        string
	QueryString string
	Headers     map[string]string
}

// State is the capability set every concrete server must provide.
//
// Calls that advance the request/response cycle return the next State; the
// caller must replace its handle with the returned value and never reuse
// the old one. Implementations are free to return themselves when they have
// no per-call state to thread, but callers may not rely on that.
type State interface {
	// Info describes the request line and headers.
	Info() Info

	// StreamBody returns the next chunk of the request body, at most maxLen
	// bytes. done is true once the body is exhausted; a call may return both
	// a final chunk and done=false followed by (nil, true) on the next call.
	// The sequence is forward-only: consumed chunks cannot be replayed.
	StreamBody(maxLen int) (chunk []byte, done bool, next State, err error)

	// SendResp transmits status line, headers and the whole body in one shot.
	SendResp(status int, headers map[string]string, body []byte) (State, error)

	// SendChunked transmits status line and headers with no content-length;
	// body fragments follow via Chunk.
	SendChunked(status int, headers map[string]string) (State, error)

	// Chunk forwards one body fragment of an in-progress chunked response.
	Chunk(data []byte) (State, error)
}

// Binding pairs a server tag with its opaque per-request state. A Binding
// is owned by exactly one connection for the lifetime of the request; it is
// never shared.
type Binding struct {
	Kind  Kind
	State State
}
