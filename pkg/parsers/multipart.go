package parsers

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"

	"connkit/pkg/conn"
	"connkit/pkg/telemetry"
	"connkit/pkg/upload"
)

func parseMultipart(c conn.Conn, boundary string, opts Options) (conn.Conn, error) {
	if boundary == "" {
		return c, &ParseError{Parser: "multipart", Err: fmt.Errorf("missing boundary")}
	}
	br, err := c.BodyReader(opts.MaxBody, opts.ChunkSize)
	if err != nil {
		return c, &ParseError{Parser: "multipart", Err: err}
	}
	mr := multipart.NewReader(br, boundary)

	params := map[string]any{}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return br.Conn(), multipartError(err)
		}
		name := part.FormName()
		if name == "" {
			_ = part.Close()
			continue
		}
		if part.FileName() == "" {
			val, err := io.ReadAll(part)
			_ = part.Close()
			if err != nil {
				return br.Conn(), multipartError(err)
			}
			assign(params, name, string(val))
			continue
		}
		uf, err := upload.Spool(opts.UploadDir, part, part.FileName(), part.Header.Get("Content-Type"))
		_ = part.Close()
		if err != nil {
			return br.Conn(), multipartError(err)
		}
		assign(params, name, uf)
	}

	c = br.Conn()
	telemetry.BodyBytesTotal.Add(float64(br.BytesRead()))
	return c.MergeParams(params)
}

func multipartError(err error) error {
	if errors.Is(err, conn.ErrBodyTooLarge) {
		telemetry.BodyTooLargeTotal.Inc()
	}
	return &ParseError{Parser: "multipart", Err: err}
}
