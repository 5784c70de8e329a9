package app

import (
	"net/http"
	"os"
	"path/filepath"

	"connkit/pkg/conn"
	"connkit/pkg/parsers"
	"connkit/pkg/telemetry"
	"connkit/pkg/utils"
)

const (
	defaultMaxBody   = 8 << 20 // 8 MiB
	defaultChunkSize = 64 << 10
)

// uploadRules bounds the optional metadata fields clients may attach to an
// upload. File parts themselves are bounded by the body limit.
var uploadRules = parsers.Rules{
	Types:  map[string]string{"label": "string"},
	MaxLen: map[string]int{"label": 256},
}

func (a *App) limits() (maxBody, chunkSize int) {
	maxBody = int(a.eff.Config.Adapter.MaxBody)
	if maxBody <= 0 {
		maxBody = defaultMaxBody
	}
	chunkSize = int(a.eff.Config.Adapter.ChunkSize)
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	return maxBody, chunkSize
}

// dispatch routes connection requests by path segments. Both adapters end
// up here, so the handlers below never know which server accepted the
// socket.
func (a *App) dispatch(c conn.Conn) (conn.Conn, error) {
	if len(c.PathInfo) == 2 && c.PathInfo[0] == "v1" {
		switch c.PathInfo[1] {
		case "echo":
			return a.echoHandler(c)
		case "upload":
			return a.uploadHandler(c)
		case "info":
			return a.infoHandler(c)
		}
	}
	return c.Send(http.StatusNotFound, []byte("not found\n"))
}

// echoHandler streams the request body back as a chunked response.
func (a *App) echoHandler(c conn.Conn) (conn.Conn, error) {
	if c.Method != http.MethodPost && c.Method != http.MethodPut {
		return c.Send(http.StatusMethodNotAllowed, []byte("method not allowed\n"))
	}
	maxBody, chunkSize := a.limits()
	c, body, err := c.ReadBody(maxBody, chunkSize)
	if err != nil {
		return c, err
	}
	telemetry.BodyBytesTotal.Add(float64(len(body)))

	if ct, ok := c.GetReqHeader("content-type"); ok {
		if c, err = c.PutRespHeader("content-type", ct); err != nil {
			return c, err
		}
	}
	if c, err = c.SendChunked(http.StatusOK); err != nil {
		return c, err
	}
	for off := 0; off < len(body); off += chunkSize {
		end := off + chunkSize
		if end > len(body) {
			end = len(body)
		}
		if c, err = c.Chunk(body[off:end]); err != nil {
			return c, err
		}
	}
	return c, nil
}

// uploadHandler parses a multipart or urlencoded body and reports the
// resulting params, including spooled file descriptors.
func (a *App) uploadHandler(c conn.Conn) (conn.Conn, error) {
	if c.Method != http.MethodPost {
		return c.Send(http.StatusMethodNotAllowed, []byte("method not allowed\n"))
	}
	maxBody, chunkSize := a.limits()
	c, err := parsers.Parse(c, parsers.Options{
		MaxBody:   maxBody,
		ChunkSize: chunkSize,
		UploadDir: a.eff.Config.Uploads.Dir,
	})
	if err != nil {
		return c, err
	}
	if err := parsers.Validate(c, uploadRules); err != nil {
		return c, err
	}

	report := map[string]any{}
	for k, v := range c.Params() {
		switch f := v.(type) {
		case conn.UploadedFile:
			entry := map[string]any{
				"filename":     f.Filename,
				"content_type": f.ContentType,
				"stored_as":    filepath.Base(f.Path),
			}
			if fi, err := os.Stat(f.Path); err == nil {
				entry["size"] = fi.Size()
			}
			report[k] = entry
		default:
			report[k] = v
		}
	}
	return utils.JSONSend(c, http.StatusOK, map[string]any{"params": report})
}

// infoHandler returns the connection facts as JSON. HEAD requests get the
// computed content-length with no body bytes.
func (a *App) infoHandler(c conn.Conn) (conn.Conn, error) {
	if c.Method != http.MethodGet && c.Method != http.MethodHead {
		return c.Send(http.StatusMethodNotAllowed, []byte("method not allowed\n"))
	}
	c, err := c.FetchQueryParams()
	if err != nil {
		return c, err
	}
	return utils.JSONSend(c, http.StatusOK, map[string]any{
		"method":       c.Method,
		"scheme":       c.Scheme,
		"host":         c.Host,
		"port":         c.Port,
		"path_info":    c.PathInfo,
		"query_string": c.QueryString,
		"params":       c.Params(),
	})
}
