// Package mockhttp is a programmable HTTP mock service used by integration
// and end-to-end tests. Expectations are registered over HTTP (POST "/") or
// in process, and any other request is answered by the first expectation
// whose pattern is a subset of the request.
package mockhttp

import (
	"encoding/json"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
)

// RequestPattern describes the subset of a request an expectation must match.
// Zero-valued fields are ignored.
type RequestPattern struct {
	Method  string            `json:"method,omitempty"`
	Path    string            `json:"path,omitempty"`
	Query   map[string]string `json:"query,omitempty"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    any               `json:"body,omitempty"`
}

// ResponseSpec is the canned response returned on a match. A string body is
// written verbatim, anything else is JSON encoded.
type ResponseSpec struct {
	Status int `json:"status"`
	Body   any `json:"body,omitempty"`
}

// Expectation pairs a request pattern with its response.
type Expectation struct {
	Request  RequestPattern `json:"request"`
	Response ResponseSpec   `json:"response"`
}

// Server holds registered expectations. It is safe for concurrent use.
type Server struct {
	mu       sync.Mutex
	expected []Expectation
}

func NewServer() *Server {
	return &Server{}
}

// Expect registers an expectation without going through the HTTP surface.
func (s *Server) Expect(e Expectation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expected = append(s.expected, e)
}

// Reset drops all registered expectations.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expected = nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost && r.URL.Path == "/reset" {
		s.Reset()
		_, _ = w.Write([]byte("ok"))
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/" {
		var e Expectation
		if err := json.NewDecoder(r.Body).Decode(&e); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"message": "invalid expectation"}`))
			return
		}
		s.Expect(e)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status": "ok"}`))
		return
	}

	body := decodeBody(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, e := range s.expected {
		if matches(e.Request, r, body) {
			writeResponse(w, e.Response)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusInternalServerError)
	_, _ = w.Write([]byte(`{"message": "no mock matching request"}`))
}

// decodeBody reads the request body as JSON when possible, falling back to
// the raw string. An empty body decodes to nil.
func decodeBody(r *http.Request) any {
	raw, err := io.ReadAll(r.Body)
	if err != nil || len(raw) == 0 {
		return nil
	}
	var decoded any
	if json.Unmarshal(raw, &decoded) == nil {
		return decoded
	}
	return string(raw)
}

func matches(p RequestPattern, r *http.Request, body any) bool {
	if p.Method != "" && !strings.EqualFold(p.Method, r.Method) {
		return false
	}
	if p.Path != "" && strings.TrimPrefix(p.Path, "/") != strings.TrimPrefix(r.URL.Path, "/") {
		return false
	}
	for k, v := range p.Query {
		if r.URL.Query().Get(k) != v {
			return false
		}
	}
	for k, v := range p.Headers {
		if r.Header.Get(k) != v {
			return false
		}
	}
	if p.Body != nil && !isSubset(p.Body, body) {
		return false
	}
	return true
}

// isSubset reports whether want is a partial deep match of got: every key of
// a wanted object must be present with a matching value, scalars must be
// equal.
func isSubset(want, got any) bool {
	switch w := want.(type) {
	case map[string]any:
		g, ok := got.(map[string]any)
		if !ok {
			return false
		}
		for k, v := range w {
			if !isSubset(v, g[k]) {
				return false
			}
		}
		return true
	case []any:
		g, ok := got.([]any)
		if !ok || len(g) != len(w) {
			return false
		}
		for i, v := range w {
			if !isSubset(v, g[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(want, got)
	}
}

func writeResponse(w http.ResponseWriter, spec ResponseSpec) {
	status := spec.Status
	if status == 0 {
		status = http.StatusOK
	}
	switch body := spec.Body.(type) {
	case nil:
		w.WriteHeader(status)
	case string:
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	default:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}
}
