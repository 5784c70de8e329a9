package adapter

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNetHTTPInfo(t *testing.T) {
	var got Info
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b := NetHTTP(w, r)
		if b.Kind != KindNetHTTP {
			t.Errorf("kind = %s", b.Kind)
		}
		got = b.State.Info()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	req, _ := http.NewRequest(http.MethodGet, srv.URL+"//build//foo//bar?x=1&y=2", nil)
	req.Header.Set("X-Test", "value")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	resp.Body.Close()

	if got.Method != http.MethodGet {
		t.Fatalf("method = %q", got.Method)
	}
	if got.Scheme != "http" {
		t.Fatalf("scheme = %q", got.Scheme)
	}
	if got.Path != "//build//foo//bar" {
		t.Fatalf("path = %q", got.Path)
	}
	if got.QueryString != "x=1&y=2" {
		t.Fatalf("query = %q", got.QueryString)
	}
	if got.Headers["X-Test"] != "value" {
		t.Fatalf("headers = %v", got.Headers)
	}
	if got.Port == 0 {
		t.Fatalf("port not parsed from host %q", got.Host)
	}
}

func TestNetHTTPStreamBody(t *testing.T) {
	body := strings.Repeat("abcdefghij", 100)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := NetHTTP(w, r).State
		var collected []byte
		for {
			chunk, done, next, err := st.StreamBody(64)
			if err != nil {
				t.Errorf("StreamBody: %v", err)
				break
			}
			st = next
			collected = append(collected, chunk...)
			if done {
				break
			}
		}
		if string(collected) != body {
			t.Errorf("collected %d bytes, want %d", len(collected), len(body))
		}
		if _, err := st.SendResp(http.StatusOK, map[string]string{"content-type": "text/plain"}, []byte("ok")); err != nil {
			t.Errorf("SendResp: %v", err)
		}
	}))
	defer srv.Close()

	resp, err := http.Post(srv.URL, "text/plain", strings.NewReader(body))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(out) != "ok" {
		t.Fatalf("response body = %q", out)
	}
}

func TestNetHTTPChunkedResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		st := NetHTTP(w, r).State
		st, err := st.SendChunked(http.StatusOK, map[string]string{"content-type": "text/plain"})
		if err != nil {
			t.Errorf("SendChunked: %v", err)
			return
		}
		for _, part := range []string{"alpha", "beta", "gamma"} {
			if st, err = st.Chunk([]byte(part)); err != nil {
				t.Errorf("Chunk: %v", err)
				return
			}
		}
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	out, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if string(out) != "alphabetagamma" {
		t.Fatalf("body = %q", out)
	}
	if cl := resp.Header.Get("Content-Length"); cl != "" {
		t.Fatalf("chunked response carried content-length %q", cl)
	}
}

func TestSplitHostPortDefaults(t *testing.T) {
	h, p := splitHostPort("example.com", "https")
	if h != "example.com" || p != 443 {
		t.Fatalf("got %s:%d", h, p)
	}
	h, p = splitHostPort("example.com:9000", "http")
	if h != "example.com" || p != 9000 {
		t.Fatalf("got %s:%d", h, p)
	}
	h, p = splitHostPort("example.com", "http")
	if h != "example.com" || p != 80 {
		t.Fatalf("got %s:%d", h, p)
	}
}
