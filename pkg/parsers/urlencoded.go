package parsers

import (
	"errors"
	"net/url"

	"connkit/pkg/conn"
	"connkit/pkg/telemetry"
)

func parseURLEncoded(c conn.Conn, opts Options) (conn.Conn, error) {
	c, body, err := c.ReadBody(opts.MaxBody, opts.ChunkSize)
	if err != nil {
		if errors.Is(err, conn.ErrBodyTooLarge) {
			telemetry.BodyTooLargeTotal.Inc()
		}
		return c, &ParseError{Parser: "urlencoded", Err: err}
	}
	telemetry.BodyBytesTotal.Add(float64(len(body)))

	vals, err := url.ParseQuery(string(body))
	if err != nil {
		return c, &ParseError{Parser: "urlencoded", Err: err}
	}
	params := make(map[string]any, len(vals))
	for k, vs := range vals {
		if len(vs) == 0 {
			continue
		}
		// last value wins, same as the header mapping
		assign(params, k, vs[len(vs)-1])
	}
	return c.MergeParams(params)
}
