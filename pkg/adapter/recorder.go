package adapter

// Recorder is an in-memory State for tests. It streams a canned request
// body and records everything the connection layer transmits, so tests can
// assert on status, headers and the exact body bytes that went out.
//
// All StreamBody/Send calls return the same *Recorder as the next state,
// which keeps the caller's original handle valid for inspection.
type Recorder struct {
	Req  Info
	Body []byte // request body to stream
	off  int

	Status   int
	Headers  map[string]string
	Sent     []byte   // body bytes transmitted by SendResp
	Chunks   [][]byte // fragments transmitted by Chunk
	Chunked  bool
	HeadSent bool
}

// NewRecorder returns a recorder Binding for the given request view.
func NewRecorder(req Info, body []byte) (Binding, *Recorder) {
	if req.Method == "" {
		req.Method = "GET"
	}
	if req.Scheme == "" {
		req.Scheme = "http"
	}
	if req.Host == "" {
		req.Host = "localhost"
	}
	if req.Port == 0 {
		req.Port = 80
	}
	r := &Recorder{Req: req, Body: body}
	return Binding{Kind: KindRecorder, State: r}, r
}

func (r *Recorder) Info() Info { return r.Req }

func (r *Recorder) StreamBody(maxLen int) ([]byte, bool, State, error) {
	if r.off >= len(r.Body) {
		return nil, true, r, nil
	}
	end := r.off + maxLen
	if end > len(r.Body) {
		end = len(r.Body)
	}
	chunk := r.Body[r.off:end]
	r.off = end
	return chunk, false, r, nil
}

func (r *Recorder) SendResp(status int, headers map[string]string, body []byte) (State, error) {
	r.Status = status
	r.Headers = headers
	r.Sent = append([]byte(nil), body...)
	r.HeadSent = true
	return r, nil
}

func (r *Recorder) SendChunked(status int, headers map[string]string) (State, error) {
	r.Status = status
	r.Headers = headers
	r.Chunked = true
	r.HeadSent = true
	return r, nil
}

func (r *Recorder) Chunk(data []byte) (State, error) {
	r.Chunks = append(r.Chunks, append([]byte(nil), data...))
	return r, nil
}

// BodyWritten concatenates every chunk transmitted so far.
func (r *Recorder) BodyWritten() []byte {
	var out []byte
	for _, c := range r.Chunks {
		out = append(out, c...)
	}
	return out
}
