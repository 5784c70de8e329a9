// Package conn carries one request/response cycle through a uniform
// connection value, independent of which concrete server accepted the
// socket. A Conn is a linear, single-owner value: every state-changing
// operation consumes the old value and returns a new one, so there is no
// shared mutable state across the request lifetime.
package conn

import (
	"net/url"
	"strconv"
	"strings"

	"connkit/pkg/adapter"
)

// SendState is the lifecycle position of a connection's response.
// Transitions are Unsent→Sent or Unsent→Chunked, never out of a terminal
// state: the protocol forbids re-sending a status line, and full-body vs
// chunked responses have mutually exclusive framing.
type SendState int

const (
	Unsent SendState = iota
	Sent
	Chunked
)

func (s SendState) String() string {
	switch s {
	case Sent:
		return "sent"
	case Chunked:
		return "chunked"
	default:
		return "unsent"
	}
}

// UploadedFile is a multipart file part spooled to disk by a body parser.
// The temp file on disk is a separately owned resource; the params mapping
// holds only this descriptor and never outlives the request.
type UploadedFile struct {
	Path        string `json:"path"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
}

// Handler processes one connection and returns it in its final state.
type Handler func(Conn) (Conn, error)

// Conn is the state-carrying value for one request/response cycle.
type Conn struct {
	Method      string
	Scheme      string // "http" or "https"
	Host        string
	Port        uint16
	PathInfo    []string
	QueryString string

	reqHeaders  map[string]string
	respHeaders map[string]string
	params      map[string]any
	status      int
	state       SendState
	binding     adapter.Binding
}

// New builds a Conn from a server binding. Request headers are normalized
// to lower-case keys; duplicate names collapse to the last value seen.
func New(b adapter.Binding) Conn {
	info := b.State.Info()
	rh := make(map[string]string, len(info.Headers))
	for k, v := range info.Headers {
		rh[strings.ToLower(k)] = v
	}
	scheme := info.Scheme
	if scheme != "https" {
		scheme = "http"
	}
	return Conn{
		Method:      info.Method,
		Scheme:      scheme,
		Host:        info.Host,
		Port:        info.Port,
		PathInfo:    SplitPath(info.Path),
		QueryString: info.QueryString,
		reqHeaders:  rh,
		respHeaders: map[string]string{},
		params:      map[string]any{},
		state:       Unsent,
		binding:     b,
	}
}

// SplitPath segments a request path on '/', dropping empty segments from
// repeated, leading or trailing slashes.
func SplitPath(p string) []string {
	parts := strings.Split(p, "/")
	out := make([]string, 0, len(parts))
	for _, s := range parts {
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// State reports the lifecycle position.
func (c Conn) State() SendState { return c.state }

// StatusCode reports the status set via PutStatus, or 0 when unset.
func (c Conn) StatusCode() int { return c.status }

// Binding exposes the adapter binding for server integrations.
func (c Conn) Binding() adapter.Binding { return c.binding }

// GetReqHeader looks up a request header case-insensitively.
func (c Conn) GetReqHeader(key string) (string, bool) {
	v, ok := c.reqHeaders[strings.ToLower(key)]
	return v, ok
}

// ReqHeaders returns a copy of the request headers (lower-cased keys).
func (c Conn) ReqHeaders() map[string]string { return cloneStrMap(c.reqHeaders) }

// RespHeaders returns a copy of the response headers set so far.
func (c Conn) RespHeaders() map[string]string { return cloneStrMap(c.respHeaders) }

// Param looks up one merged request param.
func (c Conn) Param(key string) (any, bool) {
	v, ok := c.params[key]
	return v, ok
}

// Params returns a shallow copy of the merged params mapping.
func (c Conn) Params() map[string]any {
	out := make(map[string]any, len(c.params))
	for k, v := range c.params {
		out[k] = v
	}
	return out
}

// PutRespHeader sets a response header. Headers are frozen once the
// response is committed.
func (c Conn) PutRespHeader(key, value string) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	h := cloneStrMap(c.respHeaders)
	h[strings.ToLower(key)] = value
	c.respHeaders = h
	return c, nil
}

// DeleteRespHeader removes a response header before commit.
func (c Conn) DeleteRespHeader(key string) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	h := cloneStrMap(c.respHeaders)
	delete(h, strings.ToLower(key))
	c.respHeaders = h
	return c, nil
}

// PutStatus records the status to use when Send is called with status 0.
func (c Conn) PutStatus(status int) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	c.status = status
	return c, nil
}

// PutParam sets one param. Call-site params take the highest precedence:
// they overwrite anything derived from the body or the query string.
func (c Conn) PutParam(key string, value any) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	p := cloneParams(c.params)
	p[key] = value
	c.params = p
	return c, nil
}

// MergeParams merges values into the params mapping, overwriting existing
// keys. Body parsers use this so body-derived data wins over the less
// trusted query string.
func (c Conn) MergeParams(vals map[string]any) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	p := cloneParams(c.params)
	for k, v := range vals {
		p[k] = v
	}
	c.params = p
	return c, nil
}

// FetchQueryParams decodes the query string into params without clobbering
// keys already present, keeping query-derived values at the lowest
// precedence regardless of when it is called.
func (c Conn) FetchQueryParams() (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	if c.QueryString == "" {
		return c, nil
	}
	vals, err := url.ParseQuery(c.QueryString)
	if err != nil {
		// A malformed query string yields no params rather than failing the
		// request; the raw string stays available on the Conn.
		return c, nil
	}
	p := cloneParams(c.params)
	for k, vs := range vals {
		if _, exists := p[k]; exists || len(vs) == 0 {
			continue
		}
		p[k] = vs[len(vs)-1]
	}
	c.params = p
	return c, nil
}

// Send commits the whole response in one call and moves the connection to
// Sent. A content-length for the computed body and a text/plain
// content-type are merged in unless the caller already set them. For HEAD
// requests the body is computed for length purposes but never transmitted.
func (c Conn) Send(status int, body []byte) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	if status == 0 {
		status = c.status
	}
	if status == 0 {
		status = 200
	}
	h := cloneStrMap(c.respHeaders)
	if _, ok := h["content-length"]; !ok && !bodiless(status) {
		h["content-length"] = strconv.Itoa(len(body))
	}
	if _, ok := h["content-type"]; !ok && !bodiless(status) {
		h["content-type"] = "text/plain; charset=utf-8"
	}
	out := body
	if strings.EqualFold(c.Method, "HEAD") {
		out = nil
	}
	next, err := c.binding.State.SendResp(status, h, out)
	c.binding.State = next
	if err != nil {
		// The adapter may have transmitted part of the response before
		// failing. The connection is terminal either way: a retry would
		// tell the server to finalize a second time.
		c.state = Sent
		return c, &AdapterError{Kind: c.binding.Kind, Err: err}
	}
	c.respHeaders = h
	c.status = status
	c.state = Sent
	return c, nil
}

// SendChunked transmits status and headers immediately with no
// content-length and moves the connection to Chunked. Body fragments
// follow via Chunk.
func (c Conn) SendChunked(status int) (Conn, error) {
	if c.state != Unsent {
		return c, ErrAlreadySent
	}
	if status == 0 {
		status = c.status
	}
	if status == 0 {
		status = 200
	}
	h := cloneStrMap(c.respHeaders)
	delete(h, "content-length")
	if _, ok := h["content-type"]; !ok {
		h["content-type"] = "text/plain; charset=utf-8"
	}
	next, err := c.binding.State.SendChunked(status, h)
	c.binding.State = next
	if err != nil {
		// Terminal on failure, same as Send. Sent (not Chunked) so a
		// follow-up Chunk fails with ErrNotChunking instead of writing
		// into a half-committed response.
		c.state = Sent
		return c, &AdapterError{Kind: c.binding.Kind, Err: err}
	}
	c.respHeaders = h
	c.status = status
	c.state = Chunked
	return c, nil
}

// Chunk forwards one body fragment of an in-progress chunked response.
func (c Conn) Chunk(data []byte) (Conn, error) {
	if c.state != Chunked {
		return c, ErrNotChunking
	}
	next, err := c.binding.State.Chunk(data)
	if err != nil {
		c.binding.State = next
		return c, &AdapterError{Kind: c.binding.Kind, Err: err}
	}
	c.binding.State = next
	return c, nil
}

// bodiless reports whether the status code forbids a message body, so
// neither a content-length nor a content-type default applies.
func bodiless(status int) bool {
	return status == 204 || status == 304 || (status >= 100 && status < 200)
}

func cloneStrMap(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func cloneParams(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
