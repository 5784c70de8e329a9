package conn

import (
	"io"
)

// ReadBody drains the streaming request body, pulling chunks of at most
// chunkSize bytes until the adapter reports the body exhausted. The
// accumulated length is checked against limit after every chunk, so a body
// larger than limit fails with ErrBodyTooLarge before more than limit
// bytes have been buffered. A limit of 0 means unlimited.
//
// The sequence is forward-only and non-restartable: the underlying
// transport does not buffer consumed chunks.
func (c Conn) ReadBody(limit, chunkSize int) (Conn, []byte, error) {
	if chunkSize <= 0 {
		return c, nil, ErrConfig
	}
	var body []byte
	st := c.binding.State
	for {
		chunk, done, next, err := st.StreamBody(chunkSize)
		st = next
		if err != nil {
			c.binding.State = st
			return c, nil, &AdapterError{Kind: c.binding.Kind, Err: err}
		}
		if limit > 0 && len(body)+len(chunk) > limit {
			c.binding.State = st
			return c, nil, ErrBodyTooLarge
		}
		body = append(body, chunk...)
		if done {
			break
		}
	}
	c.binding.State = st
	return c, body, nil
}

// BodyReader exposes the streaming body as an io.Reader for push-based
// consumers such as the multipart parser. Reads pull chunks on demand; the
// limit is enforced continuously and a read past it fails with
// ErrBodyTooLarge.
//
// The reader owns the connection's body stream while in use. Call Conn to
// get the connection back with its adapter state advanced; the original
// value passed to Conn.BodyReader must not be reused.
type BodyReader struct {
	conn      Conn
	chunkSize int
	limit     int
	read      int
	pending   []byte
	done      bool
	err       error
}

// BodyReader returns a reader over the request body. chunkSize must be
// positive; limit 0 means unlimited.
func (c Conn) BodyReader(limit, chunkSize int) (*BodyReader, error) {
	if chunkSize <= 0 {
		return nil, ErrConfig
	}
	return &BodyReader{conn: c, chunkSize: chunkSize, limit: limit}, nil
}

// Conn returns the connection with the adapter state advanced past
// whatever has been read so far.
func (r *BodyReader) Conn() Conn { return r.conn }

// BytesRead reports how many body bytes have been pulled so far.
func (r *BodyReader) BytesRead() int { return r.read }

func (r *BodyReader) Read(p []byte) (int, error) {
	if r.err != nil {
		return 0, r.err
	}
	if len(r.pending) == 0 {
		if r.done {
			return 0, io.EOF
		}
		if err := r.pull(); err != nil {
			r.err = err
			return 0, err
		}
		if len(r.pending) == 0 && r.done {
			return 0, io.EOF
		}
	}
	n := copy(p, r.pending)
	r.pending = r.pending[n:]
	return n, nil
}

func (r *BodyReader) pull() error {
	st := r.conn.binding.State
	chunk, done, next, err := st.StreamBody(r.chunkSize)
	r.conn.binding.State = next
	if err != nil {
		return &AdapterError{Kind: r.conn.binding.Kind, Err: err}
	}
	if r.limit > 0 && r.read+len(chunk) > r.limit {
		return ErrBodyTooLarge
	}
	r.read += len(chunk)
	r.pending = chunk
	r.done = done
	return nil
}

var _ io.Reader = (*BodyReader)(nil)
