// Package adminserver implements the read-only HTTP surface the wire
// protocol's core spec pushes out of scope: health, metrics, and a debug
// dump of the store, routed with gorilla/mux and wrapped in
// gorilla/handlers middleware exactly as cc-backend's cmd/cc-backend
// wraps its own router.
package adminserver

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wirekv/wirekv/internal/command"
	"github.com/wirekv/wirekv/internal/kvlog"
	"github.com/wirekv/wirekv/internal/metrics"
	"github.com/wirekv/wirekv/internal/store"
)

// New builds the admin HTTP handler: /healthz, /metrics, and
// /debug/store, wrapped in compression, panic recovery and request
// logging the way cc-backend's main.go wraps its own router.
func New(st *store.Store, m *metrics.Registry) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/healthz", healthzHandler(st)).Methods(http.MethodGet)
	r.HandleFunc("/debug/store", debugStoreHandler(st)).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.HandlerFor(m.Gatherer(), promhttp.HandlerOpts{})).Methods(http.MethodGet)

	r.Use(handlers.CompressHandler)
	r.Use(handlers.RecoveryHandler(handlers.PrintRecoveryStack(true)))

	return handlers.CustomLoggingHandler(io.Discard, r, func(_ io.Writer, params handlers.LogFormatterParams) {
		kvlog.Debugf("admin %s %s (%d, %dms)",
			params.Request.Method, params.URL.RequestURI(),
			params.StatusCode, time.Since(params.TimeStamp).Milliseconds())
	})
}

func healthzHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stat := st.Stat()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"status":   "ok",
			"keys":     stat.Keys,
			"hashKeys": stat.HashKeys,
			"setKeys":  stat.SetKeys,
		})
	}
}

func debugStoreHandler(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		bw := bufio.NewWriter(w)
		if err := st.DebugDump(bw); err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if key := r.URL.Query().Get("hgetall"); key != "" {
			bw.WriteString("sorted hgetall " + key + " = " + command.HGetAllSorted(st, key).String() + "\n")
			bw.Flush()
		}
	}
}

// Serve runs the admin HTTP server until ctx is cancelled, then shuts it
// down gracefully.
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	kvlog.Infof("adminserver: listening on %s", addr)

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
