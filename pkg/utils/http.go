package utils

import (
	"encoding/json"
	"net/http"

	"connkit/pkg/conn"
)

// JSONSend commits v as a JSON response with the given status code. The
// content-type header is set before commit; the usual HEAD suppression
// applies.
func JSONSend(c conn.Conn, status int, v any) (conn.Conn, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return c, err
	}
	c, err = c.PutRespHeader("content-type", "application/json")
	if err != nil {
		return c, err
	}
	return c.Send(status, b)
}

// JSONError commits a JSON error body with the given status code.
func JSONError(c conn.Conn, status int, message string) (conn.Conn, error) {
	if message == "" {
		message = http.StatusText(status)
	}
	return JSONSend(c, status, map[string]string{"error": message})
}
