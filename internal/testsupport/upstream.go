package testsupport

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// Upstream is a fake remote service that records every request body.
type Upstream struct {
	*httptest.Server

	mu     sync.Mutex
	bodies [][]byte
	header []http.Header
}

func newUpstream(t testing.TB, respond func(w http.ResponseWriter, r *http.Request, body []byte)) *Upstream {
	t.Helper()
	u := &Upstream{}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		u.mu.Lock()
		u.bodies = append(u.bodies, body)
		u.header = append(u.header, r.Header.Clone())
		u.mu.Unlock()
		respond(w, r, body)
	}))
	t.Cleanup(u.Close)
	return u
}

// Calls returns how many requests the upstream has received.
func (u *Upstream) Calls() int {
	u.mu.Lock()
	defer u.mu.Unlock()
	return len(u.bodies)
}

// LastBody returns the most recent request body.
func (u *Upstream) LastBody() []byte {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.bodies) == 0 {
		return nil
	}
	return u.bodies[len(u.bodies)-1]
}

// LastHeader returns the most recent request headers.
func (u *Upstream) LastHeader() http.Header {
	u.mu.Lock()
	defer u.mu.Unlock()
	if len(u.header) == 0 {
		return nil
	}
	return u.header[len(u.header)-1]
}

// NewGeminiUpstream fakes the generateContent endpoint, answering every
// request with image as inline data.
func NewGeminiUpstream(t testing.TB, image []byte) *Upstream {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString(image)
	return newUpstream(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []any{
				map[string]any{
					"content": map[string]any{
						"parts": []any{
							map[string]any{"text": "here you go"},
							map[string]any{"inlineData": map[string]any{"mimeType": "image/png", "data": encoded}},
						},
					},
				},
			},
		})
	})
}

// NewTTSUpstream fakes the speech endpoint, answering with audio.
func NewTTSUpstream(t testing.TB, audio []byte) *Upstream {
	t.Helper()
	return newUpstream(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "audio/wav")
		_, _ = w.Write(audio)
	})
}

// NewStatusUpstream answers every request with status and body.
func NewStatusUpstream(t testing.TB, status int, body string) *Upstream {
	t.Helper()
	return newUpstream(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	})
}

// NewJSONUpstream answers every request with status and v encoded as JSON.
func NewJSONUpstream(t testing.TB, status int, v any) *Upstream {
	t.Helper()
	return newUpstream(t, func(w http.ResponseWriter, _ *http.Request, _ []byte) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(v)
	})
}
