// Package parsers populates a connection's params mapping from its
// request body. Parsers are pure consumers of the streaming body: they
// pull chunks on demand under a caller-supplied byte limit and never
// buffer more than that.
//
// Merge precedence, highest first: explicit PutParam calls, parsed body
// params, query-string params. Body-derived structured data cannot be
// overridden by the less trusted query string by accident.
package parsers

import (
	"fmt"
	"mime"
	"strings"

	"connkit/pkg/conn"
)

// DefaultChunkSize is the pull size used when Options.ChunkSize is unset.
const DefaultChunkSize = 64 * 1024

// Options controls body parsing.
type Options struct {
	// MaxBody caps the total request body size in bytes; 0 means unlimited.
	MaxBody int
	// ChunkSize is the per-pull read size; defaults to DefaultChunkSize.
	ChunkSize int
	// UploadDir receives spooled multipart file parts.
	UploadDir string
}

// ParseError reports a failed body parse. The cause is propagated
// unchanged; callers decide how to map it onto a response.
type ParseError struct {
	Parser string // "urlencoded" or "multipart"
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s body: %v", e.Parser, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Parse dispatches on the request content-type, decodes the body into
// params, and finally merges query-string params at the lowest
// precedence. Content types without a registered parser pass through with
// the body untouched.
func Parse(c conn.Conn, opts Options) (conn.Conn, error) {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}

	ct, _ := c.GetReqHeader("content-type")
	if ct != "" {
		mt, mp, err := mime.ParseMediaType(ct)
		if err == nil {
			switch mt {
			case "application/x-www-form-urlencoded":
				c, err = parseURLEncoded(c, opts)
			case "multipart/form-data":
				c, err = parseMultipart(c, mp["boundary"], opts)
			}
			if err != nil {
				return c, err
			}
		}
	}
	return c.FetchQueryParams()
}

// assign stores val under key, supporting the one level of bracket
// nesting HTML forms produce ("user[name]"). Deeper nesting is stored
// under the literal key.
func assign(params map[string]any, key string, val any) {
	if i := strings.IndexByte(key, '['); i > 0 && strings.HasSuffix(key, "]") {
		sub := key[i+1 : len(key)-1]
		if sub != "" && !strings.ContainsAny(sub, "[]") {
			base := key[:i]
			m, ok := params[base].(map[string]any)
			if !ok {
				m = map[string]any{}
			}
			m[sub] = val
			params[base] = m
			return
		}
	}
	params[key] = val
}
