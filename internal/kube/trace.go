package kube

import (
	"net/http"
	"sync"
	"time"

	"k8s.io/client-go/rest"
)

// Attempt is one API round trip. Status is 0 when no response arrived.
type Attempt struct {
	Method   string
	Path     string
	Status   int
	Duration time.Duration
	Err      error
}

// Trace records the attempts sent through a rest.Config.
type Trace struct {
	mu       sync.Mutex
	attempts []Attempt
}

func (t *Trace) add(a Attempt) {
	t.mu.Lock()
	t.attempts = append(t.attempts, a)
	t.mu.Unlock()
}

// Attempts returns a copy of the recorded attempts in order.
func (t *Trace) Attempts() []Attempt {
	if t == nil {
		return nil
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Attempt(nil), t.attempts...)
}

// Last returns the most recent attempt.
func (t *Trace) Last() (Attempt, bool) {
	attempts := t.Attempts()
	if len(attempts) == 0 {
		return Attempt{}, false
	}
	return attempts[len(attempts)-1], true
}

type traceRoundTripper struct {
	base  http.RoundTripper
	trace *Trace
}

func (rt *traceRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := rt.base.RoundTrip(req)
	a := Attempt{Method: req.Method, Path: req.URL.Path, Duration: time.Since(start), Err: err}
	if resp != nil {
		a.Status = resp.StatusCode
	}
	rt.trace.add(a)
	return resp, err
}

// TraceRequests wraps the config transport so every request lands in trace.
// A nil trace leaves cfg unchanged.
func TraceRequests(cfg *rest.Config, trace *Trace) {
	if cfg == nil || trace == nil {
		return
	}
	wrap := cfg.WrapTransport
	cfg.WrapTransport = func(rt http.RoundTripper) http.RoundTripper {
		if wrap != nil {
			rt = wrap(rt)
		}
		return &traceRoundTripper{base: rt, trace: trace}
	}
}
