package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/blueprint-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the extraction API server",
	Long:  "Accepts drawing extraction requests over HTTP and exposes run status and stored results.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(ctx, env),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the API routes. runCtx outlives individual requests so
// async extractions survive the request that submitted them.
func newRouter(runCtx context.Context, env *pipelineEnv) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST"},
		AllowedHeaders: []string{"Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/api/parse", handleParse(runCtx, env))
	r.Get("/api/runs", handleRunsList(env))
	r.Get("/api/runs/{id}", handleRunShow(env))
	r.Get("/api/documents/{docID}", handleDocumentShow(env))

	return r
}

func handleParse(runCtx context.Context, env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Path string `json:"path"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if req.Path == "" {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path is required"})
			return
		}

		// Run extraction asynchronously; clients poll the runs endpoints.
		go func() {
			doc, err := env.Pipeline.Run(runCtx, req.Path)
			if err != nil {
				zap.L().Error("api extraction failed",
					zap.String("drawing", req.Path),
					zap.Error(err),
				)
				return
			}
			zap.L().Info("api extraction complete",
				zap.String("drawing", req.Path),
				zap.String("doc_id", doc.DocID),
			)
		}()

		writeJSON(w, http.StatusAccepted, map[string]string{
			"status": "accepted",
			"path":   req.Path,
		})
	}
}

func handleRunsList(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		filter := store.RunFilter{
			DocID: q.Get("doc_id"),
			Limit: 50,
		}

		runs, err := env.Store.ListRuns(r.Context(), filter)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "list runs failed"})
			return
		}
		writeJSON(w, http.StatusOK, runs)
	}
}

func handleRunShow(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		run, err := env.Store.GetRun(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "run not found"})
			return
		}
		writeJSON(w, http.StatusOK, run)
	}
}

func handleDocumentShow(env *pipelineEnv) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		docID := chi.URLParam(r, "docID")
		doc, err := env.Store.GetDocument(r.Context(), docID)
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "load document failed"})
			return
		}
		if doc == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "no document for doc id"})
			return
		}
		writeJSON(w, http.StatusOK, doc)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
