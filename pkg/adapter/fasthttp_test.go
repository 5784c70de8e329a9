package adapter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/valyala/fasthttp"
)

func newFastCtx(method, uri string, body []byte) *fasthttp.RequestCtx {
	var req fasthttp.Request
	req.Header.SetMethod(method)
	req.SetRequestURI(uri)
	if body != nil {
		req.SetBody(body)
	}
	var ctx fasthttp.RequestCtx
	ctx.Init(&req, nil, nil)
	return &ctx
}

func TestFastHTTPInfo(t *testing.T) {
	ctx := newFastCtx("POST", "http://example.com:9000/a/b?x=1", nil)
	ctx.Request.Header.Set("X-Test", "value")

	b := FastHTTP(ctx)
	if b.Kind != KindFastHTTP {
		t.Fatalf("kind = %s", b.Kind)
	}
	info := b.State.Info()
	if info.Method != "POST" {
		t.Fatalf("method = %q", info.Method)
	}
	if info.Host != "example.com" || info.Port != 9000 {
		t.Fatalf("host = %s:%d", info.Host, info.Port)
	}
	if info.Path != "/a/b" {
		t.Fatalf("path = %q", info.Path)
	}
	if info.QueryString != "x=1" {
		t.Fatalf("query = %q", info.QueryString)
	}
	if info.Headers["X-Test"] != "value" {
		t.Fatalf("headers = %v", info.Headers)
	}
}

func TestFastHTTPStreamBody(t *testing.T) {
	body := bytes.Repeat([]byte("0123456789"), 50)
	ctx := newFastCtx("POST", "http://example.com/up", body)

	st := FastHTTP(ctx).State
	var collected []byte
	for {
		chunk, done, next, err := st.StreamBody(33)
		if err != nil {
			t.Fatalf("StreamBody: %v", err)
		}
		st = next
		collected = append(collected, chunk...)
		if done {
			break
		}
	}
	if !bytes.Equal(collected, body) {
		t.Fatalf("collected %d bytes, want %d", len(collected), len(body))
	}
}

func TestFastHTTPSendResp(t *testing.T) {
	ctx := newFastCtx("GET", "http://example.com/x", nil)
	st := FastHTTP(ctx).State
	if _, err := st.SendResp(201, map[string]string{"content-type": "application/json"}, []byte(`{"ok":true}`)); err != nil {
		t.Fatalf("SendResp: %v", err)
	}
	if ctx.Response.StatusCode() != 201 {
		t.Fatalf("status = %d", ctx.Response.StatusCode())
	}
	if got := string(ctx.Response.Header.Peek("Content-Type")); got != "application/json" {
		t.Fatalf("content-type = %q", got)
	}
	if got := string(ctx.Response.Body()); got != `{"ok":true}` {
		t.Fatalf("body = %q", got)
	}
}

func TestFastHTTPChunks(t *testing.T) {
	ctx := newFastCtx("GET", "http://example.com/x", nil)
	st := FastHTTP(ctx).State
	st, err := st.SendChunked(200, map[string]string{"content-type": "text/plain"})
	if err != nil {
		t.Fatalf("SendChunked: %v", err)
	}
	for _, part := range []string{"one", "two"} {
		if st, err = st.Chunk([]byte(part)); err != nil {
			t.Fatalf("Chunk: %v", err)
		}
	}

	if cl := ctx.Response.Header.ContentLength(); cl != -1 {
		t.Fatalf("content length = %d, want -1 (streamed)", cl)
	}
	wire := ctx.Response.String()
	if !strings.Contains(wire, "Transfer-Encoding: chunked") {
		t.Fatalf("wire missing chunked transfer encoding:\n%s", wire)
	}
	if strings.Contains(wire, "Content-Length") {
		t.Fatalf("chunked wire carries Content-Length:\n%s", wire)
	}
	if !strings.Contains(wire, "onetwo") || !strings.HasSuffix(wire, "0\r\n\r\n") {
		t.Fatalf("wire body not chunk-framed:\n%s", wire)
	}
}

func TestRecorderRoundTrip(t *testing.T) {
	b, rec := NewRecorder(Info{Method: "POST", Path: "/x"}, []byte("payload"))
	st := b.State
	var collected []byte
	for {
		chunk, done, next, err := st.StreamBody(3)
		if err != nil {
			t.Fatalf("StreamBody: %v", err)
		}
		st = next
		collected = append(collected, chunk...)
		if done {
			break
		}
	}
	if string(collected) != "payload" {
		t.Fatalf("collected = %q", collected)
	}
	if _, err := st.SendResp(200, map[string]string{"a": "b"}, []byte("done")); err != nil {
		t.Fatalf("SendResp: %v", err)
	}
	if rec.Status != 200 || string(rec.Sent) != "done" || !rec.HeadSent {
		t.Fatalf("recorder = %+v", rec)
	}
}
