package adapter

import (
	"bytes"
	"io"

	"github.com/valyala/fasthttp"
)

// FastHTTP builds a Binding over a fasthttp request context. When the
// server runs with StreamRequestBody enabled the body is pulled from the
// underlying stream; otherwise it is served from the buffered PostBody.
func FastHTTP(ctx *fasthttp.RequestCtx) Binding {
	var body io.Reader
	if ctx.Request.IsBodyStream() {
		body = ctx.RequestBodyStream()
	} else {
		body = bytes.NewReader(ctx.PostBody())
	}
	return Binding{Kind: KindFastHTTP, State: &fastState{ctx: ctx, body: body}}
}

type fastState struct {
	ctx  *fasthttp.RequestCtx
	body io.Reader

	// chunks buffers fragments of a chunked response until fasthttp
	// serializes the body stream after the handler returns.
	chunks *bytes.Buffer
}

func (s *fastState) Info() Info {
	scheme := "http"
	if s.ctx.IsTLS() {
		scheme = "https"
	}
	host, port := splitHostPort(string(s.ctx.Host()), scheme)
	hdr := make(map[string]string)
	s.ctx.Request.Header.VisitAll(func(k, v []byte) {
		hdr[string(k)] = string(v)
	})
	return Info{
		Method:      string(s.ctx.Method()),
		Scheme:      scheme,
		Host:        host,
		Port:        port,
		Path:        string(s.ctx.Path()),
		QueryString: string(s.ctx.QueryArgs().QueryString()),
		Headers:     hdr,
	}
}

func (s *fastState) StreamBody(maxLen int) ([]byte, bool, State, error) {
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

func (s *fastState) SendResp(status int, headers map[string]string, body []byte) (State, error) {
	next := *s
	for k, v := range headers {
		s.ctx.Response.Header.Set(k, v)
	}
	s.ctx.SetStatusCode(status)
	if len(body) > 0 {
		if _, err := s.ctx.Write(body); err != nil {
			return &next, err
		}
	}
	return &next, nil
}

func (s *fastState) SendChunked(status int, headers map[string]string) (State, error) {
	for k, v := range headers {
		s.ctx.Response.Header.Set(k, v)
	}
	s.ctx.SetStatusCode(status)
	// A body stream with length -1 makes fasthttp emit
	// Transfer-Encoding: chunked and no Content-Length on the wire.
	s.chunks = &bytes.Buffer{}
	s.ctx.Response.SetBodyStream(s.chunks, -1)
	next := *s
	return &next, nil
}

// Chunk appends one fragment to the chunked body stream. fasthttp drains
// the stream and writes the wire framing when the handler returns.
func (s *fastState) Chunk(data []byte) (State, error) {
	next := *s
	if s.chunks == nil {
		return &next, io.ErrClosedPipe
	}
	_, err := s.chunks.Write(data)
	return &next, err
}
