package conn

import (
	"errors"
	"fmt"

	"connkit/pkg/adapter"
)

// Programmer errors. These are never recovered internally: callers are
// expected to catch them at their outermost boundary and synthesize an
// error response only while the connection is still unsent.
var (
	// ErrAlreadySent reports a header/status mutation or a second send
	// after the response was committed.
	ErrAlreadySent = errors.New("response already sent")

	// ErrNotChunking reports a Chunk call outside the chunked state.
	ErrNotChunking = errors.New("connection is not in chunked mode")

	// ErrBodyTooLarge reports a streaming read that exceeded the caller's
	// byte limit.
	ErrBodyTooLarge = errors.New("request body exceeds limit")

	// ErrConfig reports invalid call arguments, e.g. a zero chunk size.
	ErrConfig = errors.New("invalid streaming configuration")
)

// AdapterError wraps an opaque failure from the underlying server, e.g. a
// socket reset mid-write. The cause is surfaced unchanged and is never
// retried by this package.
type AdapterError struct {
	Kind adapter.Kind
	Err  error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.Kind, e.Err)
}

func (e *AdapterError) Unwrap() error { return e.Err }
