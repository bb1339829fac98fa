// Package web serves the report drivers over HTTP. Requests arrive over
// HTTP/1.1 or cleartext HTTP/2 (h2c).
package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"smtdump/internal/config"
	"smtdump/internal/drivers"
	"smtdump/internal/model"
)

// Server exposes the drivers of Runner.
type Server struct {
	Runner *drivers.Runner
	Gate   *drivers.Gate // nil disables /api/extras
	Addr   string
	Logger *zap.Logger
}

type reportInfo struct {
	Name  string `json:"name"`
	Title string `json:"title"`
	Key   string `json:"key"`
}

type reportResponse struct {
	drivers.Output
	DumpError string `json:"dump_error,omitempty"`
	Version   string `json:"version"`
}

func (s *Server) logger() *zap.Logger {
	if s.Logger == nil {
		return zap.NewNop()
	}
	return s.Logger
}

func (s *Server) keys() config.KeysConfig {
	if s.Runner != nil && s.Runner.Config != nil {
		return s.Runner.Config.Keys
	}
	return config.DefaultConfig().Keys
}

// Handler returns the API routes wrapped for h2c.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/reports", s.handleReports)
	mux.HandleFunc("/api/report", s.handleReport)
	mux.HandleFunc("/api/extras", s.handleExtras)
	mux.HandleFunc("/api/help", handleHelp)
	return h2c.NewHandler(mux, &http2.Server{})
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	s.logger().Info("web server listening", zap.String("addr", ln.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("web server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("web server shutdown: %w", err)
		}
		<-errc
		return nil
	}
}

func allowGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", http.MethodGet)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(v)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	keys := s.keys()
	var out []reportInfo
	for _, d := range drivers.All() {
		out = append(out, reportInfo{Name: d.Name, Title: d.Title, Key: d.Key(keys)})
	}
	writeJSON(w, out)
}

// handleReport runs one driver, or every driver for name=all.
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}

	if name == "all" {
		outs, err := s.Runner.RunAll(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		resp := make([]reportResponse, 0, len(outs))
		for _, o := range outs {
			resp = append(resp, s.response(o))
		}
		writeJSON(w, resp)
		return
	}

	out, err := s.Runner.Run(name)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	writeJSON(w, s.response(out))
}

func (s *Server) response(o drivers.Output) reportResponse {
	resp := reportResponse{Output: o, Version: model.Version}
	if o.DumpErr != nil {
		resp.DumpError = o.DumpErr.Error()
	}
	s.logger().Debug("report served", zap.String("name", o.Name), zap.String("report", o.ID))
	return resp
}

func (s *Server) handleExtras(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	if s.Gate == nil {
		http.NotFound(w, r)
		return
	}
	writeJSON(w, map[string]bool{
		"employee_extras_unlocked": s.Gate.EmployeeExtrasUnlocked(s.Runner.Host),
	})
}

func handleHelp(w http.ResponseWriter, r *http.Request) {
	if !allowGet(w, r) {
		return
	}
	w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
	w.Write([]byte(model.Help()))
}
