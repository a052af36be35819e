package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

type loggerFunc func(string, ...any)

func (f loggerFunc) Info(msg string, v ...any) { f(msg, v...) }

func TestLoggerMiddleware(t *testing.T) {
	var mu sync.Mutex
	called := 0
	var msg string
	var args []any

	logger := loggerFunc(func(m string, v ...any) {
		mu.Lock()
		defer mu.Unlock()
		called++
		msg = m
		args = v
	})

	h := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		w.WriteHeader(http.StatusInternalServerError) // superfluous, must not be logged
		_, err := w.Write([]byte("hi"))
		require.NoError(t, err, "should write response")
	})

	srv := httptest.NewServer(RequestID(LoggerMiddleware(logger)(h)))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/create/alice")
	require.NoError(t, err, "should make request to test server")
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err, "should read response body")
	defer resp.Body.Close() // nolint:errcheck

	require.Equalf(t, http.StatusTeapot, resp.StatusCode, "should return status Teapot. Resp: %s", string(body))
	require.Equal(t, "hi", string(body), "should return 'hi' in response")

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 1, called, "logger should be called once")
	require.Equal(t, "handled HTTP request", msg)
	require.Len(t, args, 12, "logger should log 12 fields")
	require.Equal(t, "request_id", args[0])
	require.Equal(t, resp.Header.Get(RequestIDHeader), args[1], "should log the same request id client got")
	require.Equal(t, "method", args[2])
	require.Equal(t, "GET", args[3])
	require.Equal(t, "uri", args[4])
	require.Equal(t, "/create/alice", args[5])
	require.Equal(t, "duration", args[6])
	require.NotEmpty(t, args[7], "duration should not be empty")
	require.Equal(t, "status", args[8])
	require.Equal(t, http.StatusTeapot, args[9])
	require.Equal(t, "size", args[10])
	require.Equal(t, 2, args[11], "size should be 2 (length of 'hi')")
}

func TestLoggerMiddleware_ImplicitOK(t *testing.T) {
	var status any
	logger := loggerFunc(func(_ string, v ...any) { status = v[9] })

	h := LoggerMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("Success deleting user"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/delete/alice", nil))

	require.Equal(t, http.StatusOK, status, "status should default to OK when handler only writes body")
}
