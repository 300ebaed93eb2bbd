package adapter

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelfTest(t *testing.T) {
	assert.Nil(t, SelfTest())
}

func TestHealthHandlerLive(t *testing.T) {
	health := NewHealthHandler()
	req, _ := http.NewRequest("GET", "/live", nil)
	rw := &testResponseWriter{}
	health.ServeHTTP(rw, req)
	assert.Equal(t, 200, rw.status)
}

type testResponseWriter struct {
	headers http.Header
	status  int
	body    []byte
}

func (w *testResponseWriter) Header() http.Header {
	if w.headers == nil {
		w.headers = make(http.Header)
	}
	return w.headers
}

func (w *testResponseWriter) Write(b []byte) (int, error) {
	w.body = append(w.body, b...)
	return len(b), nil
}

func (w *testResponseWriter) WriteHeader(statusCode int) {
	w.status = statusCode
}
