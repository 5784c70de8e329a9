package app

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"testing"

	"connkit/pkg/adapter"
	"connkit/pkg/config"
	"connkit/pkg/conn"
)

func testApp(t *testing.T) *App {
	t.Helper()
	cfg := &config.Config{}
	cfg.Uploads.Dir = t.TempDir()
	return &App{eff: config.EffectiveConfigResult{Config: cfg, Source: "flags"}}
}

func recConn(method, path, query string, headers map[string]string, body []byte) (conn.Conn, *adapter.Recorder) {
	b, rec := adapter.NewRecorder(adapter.Info{
		Method:      method,
		Path:        path,
		QueryString: query,
		Headers:     headers,
	}, body)
	return conn.New(b), rec
}

func TestDispatchUnknownPath(t *testing.T) {
	a := testApp(t)
	c, rec := recConn("GET", "/v1/nope", "", nil, nil)
	if _, err := a.dispatch(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.Status != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Status)
	}
}

func TestEchoStreamsBodyBack(t *testing.T) {
	a := testApp(t)
	body := bytes.Repeat([]byte("payload "), 1000)
	c, rec := recConn("POST", "/v1/echo", "",
		map[string]string{"Content-Type": "text/plain"}, body)

	if _, err := a.dispatch(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.Status != http.StatusOK {
		t.Fatalf("status = %d", rec.Status)
	}
	if !rec.Chunked {
		t.Fatal("response not chunked")
	}
	if !bytes.Equal(rec.BodyWritten(), body) {
		t.Fatalf("echoed %d bytes, want %d", len(rec.BodyWritten()), len(body))
	}
	if rec.Headers["content-type"] != "text/plain" {
		t.Fatalf("content-type = %q", rec.Headers["content-type"])
	}
}

func TestEchoRejectsGet(t *testing.T) {
	a := testApp(t)
	c, rec := recConn("GET", "/v1/echo", "", nil, nil)
	if _, err := a.dispatch(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.Status != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d", rec.Status)
	}
}

func TestEchoOverLimit(t *testing.T) {
	a := testApp(t)
	a.eff.Config.Adapter.MaxBody = 16
	c, _ := recConn("POST", "/v1/echo", "", nil, bytes.Repeat([]byte("x"), 64))
	_, err := a.dispatch(c)
	if err == nil {
		t.Fatal("oversized body accepted")
	}
}

func TestUploadMultipart(t *testing.T) {
	a := testApp(t)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.WriteField("label", "invoice"); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	fw, err := w.CreateFormFile("doc", "invoice.pdf")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write([]byte("%PDF-1.4 fake")); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	c, rec := recConn("POST", "/v1/upload", "",
		map[string]string{"Content-Type": w.FormDataContentType()}, buf.Bytes())
	if _, err := a.dispatch(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.Status != http.StatusOK {
		t.Fatalf("status = %d", rec.Status)
	}
	if rec.Headers["content-type"] != "application/json" {
		t.Fatalf("content-type = %q", rec.Headers["content-type"])
	}

	var resp map[string]map[string]json.RawMessage
	if err := json.Unmarshal(rec.Sent, &resp); err != nil {
		t.Fatalf("unmarshal response %q: %v", rec.Sent, err)
	}
	params := resp["params"]
	var label string
	if err := json.Unmarshal(params["label"], &label); err != nil || label != "invoice" {
		t.Fatalf("label = %s (%v)", params["label"], err)
	}
	var doc struct {
		Filename string `json:"filename"`
		StoredAs string `json:"stored_as"`
		Size     int64  `json:"size"`
	}
	if err := json.Unmarshal(params["doc"], &doc); err != nil {
		t.Fatalf("doc param: %v", err)
	}
	if doc.Filename != "invoice.pdf" || doc.Size != int64(len("%PDF-1.4 fake")) {
		t.Fatalf("doc = %+v", doc)
	}
}

func TestInfoMergesQueryParams(t *testing.T) {
	a := testApp(t)
	c, rec := recConn("GET", "/v1/info", "topic=go&lang=en", nil, nil)
	if _, err := a.dispatch(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.Status != http.StatusOK {
		t.Fatalf("status = %d", rec.Status)
	}
	var resp struct {
		Method   string         `json:"method"`
		PathInfo []string       `json:"path_info"`
		Params   map[string]any `json:"params"`
	}
	if err := json.Unmarshal(rec.Sent, &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.Method != "GET" {
		t.Fatalf("method = %q", resp.Method)
	}
	if len(resp.PathInfo) != 2 || resp.PathInfo[0] != "v1" || resp.PathInfo[1] != "info" {
		t.Fatalf("path_info = %v", resp.PathInfo)
	}
	if resp.Params["topic"] != "go" || resp.Params["lang"] != "en" {
		t.Fatalf("params = %v", resp.Params)
	}
}

func TestInfoHeadSendsNoBody(t *testing.T) {
	a := testApp(t)
	c, rec := recConn("HEAD", "/v1/info", "", nil, nil)
	if _, err := a.dispatch(c); err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if rec.Status != http.StatusOK {
		t.Fatalf("status = %d", rec.Status)
	}
	if len(rec.Sent) != 0 {
		t.Fatalf("HEAD body = %q", rec.Sent)
	}
	if rec.Headers["content-length"] == "" || rec.Headers["content-length"] == "0" {
		t.Fatalf("content-length = %q", rec.Headers["content-length"])
	}
}

func TestValidateConfig(t *testing.T) {
	good := config.EffectiveConfigResult{Config: &config.Config{}}
	if err := validateConfig(good); err != nil {
		t.Fatalf("empty config rejected: %v", err)
	}

	bad := config.EffectiveConfigResult{Config: &config.Config{}}
	bad.Config.Adapter.Kind = "cgi"
	if err := validateConfig(bad); err == nil {
		t.Fatal("unknown adapter kind accepted")
	}

	tlsHalf := config.EffectiveConfigResult{Config: &config.Config{}}
	tlsHalf.Config.Server.TLS.CertFile = "/tmp/cert.pem"
	if err := validateConfig(tlsHalf); err == nil {
		t.Fatal("half-configured TLS accepted")
	}

	neg := config.EffectiveConfigResult{Config: &config.Config{}}
	neg.Config.Adapter.MaxBody = -1
	if err := validateConfig(neg); err == nil {
		t.Fatal("negative max_body accepted")
	}
}
