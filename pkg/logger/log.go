package logger

import (
	"strings"

	"connkit/pkg/conn"
)

var sensitive = map[string]struct{}{
	"authorization":    {},
	"cookie":           {},
	"x-api-key":        {},
	"x-user-signature": {},
}

func redactHeaderValue(k, v string) string {
	if v == "" {
		return ""
	}
	if _, ok := sensitive[strings.ToLower(k)]; ok {
		return "<redacted>"
	}
	return v
}

// SafeHeaders returns a compact string representation of request headers
// suitable for logging with sensitive values redacted.
func SafeHeaders(c conn.Conn) string {
	hdrs := c.ReqHeaders()
	parts := make([]string, 0, len(hdrs))
	for k, v := range hdrs {
		parts = append(parts, k+"="+redactHeaderValue(k, v))
	}
	return strings.Join(parts, "; ")
}

// LogRequest logs a concise, safe summary of an incoming connection.
func LogRequest(c conn.Conn, remote string) {
	if Log == nil {
		return
	}
	Log.Info("incoming_request",
		"method", c.Method,
		"path", "/"+strings.Join(c.PathInfo, "/"),
		"remote", remote,
		"headers", SafeHeaders(c),
	)
}
