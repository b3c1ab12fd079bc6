// Package responsewriter records what a handler wrote so that logging and
// metrics middleware can report it after the fact.
package responsewriter

import "net/http"

// Recorder passes writes through to the wrapped writer and remembers the
// status code and body size. The first status written wins.
type Recorder struct {
	http.ResponseWriter
	status int
	size   int
}

// New wraps w. Until the handler writes, Status reports 200.
func New(w http.ResponseWriter) *Recorder {
	return &Recorder{ResponseWriter: w}
}

func (r *Recorder) WriteHeader(status int) {
	if r.status != 0 {
		return
	}
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *Recorder) Write(b []byte) (int, error) {
	if r.status == 0 {
		r.WriteHeader(http.StatusOK)
	}
	n, err := r.ResponseWriter.Write(b)
	r.size += n
	return n, err
}

// Flush lets streamed responses through when the wrapped writer supports it.
func (r *Recorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		if r.status == 0 {
			r.status = http.StatusOK
		}
		f.Flush()
	}
}

// Status is the code sent to the client, 200 if the handler never set one.
func (r *Recorder) Status() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}

// Size is the number of body bytes written.
func (r *Recorder) Size() int {
	return r.size
}

// Unwrap supports http.ResponseController.
func (r *Recorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}
