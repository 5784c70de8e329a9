package adapter

import (
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
)

// NetHTTP builds a Binding over a standard library request/response pair.
// The returned binding must only be used from the handler goroutine, like
// the ResponseWriter it wraps.
func NetHTTP(w http.ResponseWriter, r *http.Request) Binding {
	return Binding{Kind: KindNetHTTP, State: &stdState{w: w, r: r, body: r.Body}}
}

type stdState struct {
	w    http.ResponseWriter
	r    *http.Request
	body io.Reader
}

func (s *stdState) Info() Info {
	scheme := "http"
	if s.r.TLS != nil {
		scheme = "https"
	}
	host, port := splitHostPort(s.r.Host, scheme)
	hdr := make(map[string]string, len(s.r.Header))
	for k, vals := range s.r.Header {
		if len(vals) > 0 {
			hdr[k] = vals[len(vals)-1]
		}
	}
	return Info{
		Method:      s.r.Method,
		Scheme:      scheme,
		Host:        host,
		Port:        port,
		Path:        s.r.URL.Path,
		QueryString: s.r.URL.RawQuery,
		Headers:     hdr,
	}
}

func (s *stdState) StreamBody(maxLen int) ([]byte, bool, State, error) {
	next := *s
	buf := make([]byte, maxLen)
	for {
		n, err := s.body.Read(buf)
		if n > 0 {
			return buf[:n], false, &next, nil
		}
		if err == io.EOF {
			return nil, true, &next, nil
		}
		if err != nil {
			return nil, false, &next, err
		}
	}
}

func (s *stdState) SendResp(status int, headers map[string]string, body []byte) (State, error) {
	next := *s
	h := s.w.Header()
	for k, v := range headers {
		h.Set(k, v)
	}
	s.w.WriteHeader(status)
	if len(body) > 0 {
		if _, err := s.w.Write(body); err != nil {
			return &next, err
		}
	}
	return &next, nil
}

func (s *stdState) SendChunked(status int, headers map[string]string) (State, error) {
	next := *s
	h := s.w.Header()
	for k, v := range headers {
		h.Set(k, v)
	}
	// No content-length: net/http switches to chunked transfer on its own.
	s.w.WriteHeader(status)
	s.flush()
	return &next, nil
}

func (s *stdState) Chunk(data []byte) (State, error) {
	next := *s
	if _, err := s.w.Write(data); err != nil {
		return &next, err
	}
	s.flush()
	return &next, nil
}

func (s *stdState) flush() {
	if f, ok := s.w.(http.Flusher); ok {
		f.Flush()
	}
}

// splitHostPort separates a Host header into name and port, defaulting the
// port from the scheme when absent.
func splitHostPort(hostport, scheme string) (string, uint16) {
	host := hostport
	port := uint16(80)
	if scheme == "https" {
		port = 443
	}
	if h, p, err := net.SplitHostPort(hostport); err == nil {
		host = h
		if pi, err := strconv.Atoi(p); err == nil && pi > 0 && pi < 1<<16 {
			port = uint16(pi)
		}
	}
	return strings.TrimSpace(host), port
}
