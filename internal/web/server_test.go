package web

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"golang.org/x/net/http2"

	"smtdump/internal/config"
	"smtdump/internal/drivers"
	"smtdump/internal/model"
	"smtdump/internal/scene"
	"smtdump/internal/sink"
)

const webScene = `
roots:
  - name: Canvas
    children:
      - name: Buttons_Bar
        children:
          - name: Hire
            button: true
  - name: NPC
    components:
      - type: NPC_Manager
        fields:
          maxEmployees: 14
`

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	host, err := scene.Parse([]byte(webScene))
	require.NoError(t, err)
	cfg := config.DefaultConfig()
	s := &Server{
		Runner: &drivers.Runner{Host: host, Sink: &sink.Sink{}, Config: cfg},
		Gate:   drivers.NewGate(cfg, nil),
		Logger: zap.NewNop(),
	}
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func get(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func TestHandleReports(t *testing.T) {
	ts := newServer(t)
	resp, body := get(t, ts.URL+"/api/reports")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []reportInfo
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, len(drivers.Names()))
	assert.Equal(t, reportInfo{Name: "ui", Title: "Buttons_Bar Dump", Key: "5"}, got[4])
}

func TestHandleReport(t *testing.T) {
	ts := newServer(t)
	resp, body := get(t, ts.URL+"/api/report?name=ui")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	assert.Equal(t, "ui", got["name"])
	assert.Equal(t, model.Version, got["version"])
	assert.NotEmpty(t, got["id"])
	assert.Contains(t, got["report"], "Root: Canvas/Buttons_Bar")
	assert.NotContains(t, got, "dump_error")
}

func TestHandleReport_All(t *testing.T) {
	ts := newServer(t)
	resp, body := get(t, ts.URL+"/api/report?name=all")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []map[string]any
	require.NoError(t, json.Unmarshal(body, &got))
	require.Len(t, got, len(drivers.Names()))
	for i, name := range drivers.Names() {
		assert.Equal(t, name, got[i]["name"])
	}
}

func TestHandleReport_Errors(t *testing.T) {
	ts := newServer(t)
	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{"missing name", "/api/report", http.StatusBadRequest, "name is required"},
		{"unknown name", "/api/report?name=inventory", http.StatusNotFound, `unknown report "inventory"`},
		{"unknown route", "/api/nothing", http.StatusNotFound, "404"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := get(t, ts.URL+tt.path)
			assert.Equal(t, tt.status, resp.StatusCode)
			assert.Contains(t, string(body), tt.body)
		})
	}
}

func TestMethodNotAllowed(t *testing.T) {
	ts := newServer(t)
	resp, err := http.Post(ts.URL+"/api/report?name=ui", "text/plain", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, http.MethodGet, resp.Header.Get("Allow"))
}

func TestHandleExtras(t *testing.T) {
	ts := newServer(t)
	_, body := get(t, ts.URL+"/api/extras")
	assert.JSONEq(t, `{"employee_extras_unlocked": false}`, string(body))

	s := &Server{Runner: &drivers.Runner{Host: scene.New()}}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/extras", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHelp(t *testing.T) {
	ts := newServer(t)
	resp, body := get(t, ts.URL+"/api/help")
	assert.Equal(t, "text/markdown; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, model.Help(), string(body))
}

func TestH2C(t *testing.T) {
	ts := newServer(t)
	client := &http.Client{
		Transport: &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				var d net.Dialer
				return d.DialContext(ctx, network, addr)
			},
		},
	}
	resp, err := client.Get(ts.URL + "/api/reports")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, 2, resp.ProtoMajor)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	client.CloseIdleConnections()
}

func TestServe_ShutsDownOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	s := &Server{Runner: &drivers.Runner{Host: scene.New()}}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, body := get(t, "http://"+ln.Addr().String()+"/api/help")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body)
	http.DefaultClient.CloseIdleConnections()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestListenAndServe_BadAddr(t *testing.T) {
	s := &Server{Addr: "127.0.0.1:-1"}
	assert.ErrorContains(t, s.ListenAndServe(context.Background()), "failed to listen")
}
