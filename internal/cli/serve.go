package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/matzehuels/actgraph/pkg/cache"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/pipeline"
	"github.com/matzehuels/actgraph/pkg/render/dot"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

const shutdownTimeout = 10 * time.Second

// serveCommand creates the serve command.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the diagrams over HTTP",
		Long: `Serve the diagrams of an ACT platform over HTTP.

Routes:
  GET /healthz                 liveness probe
  GET /schema                  the fetched data model as JSON
  GET /views                   the available views
  GET /views/{view}/{format}   one diagram (format: dot, svg, png, json)

The data model is fetched on demand and reused for a few minutes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd, nil)
			if err != nil {
				return err
			}
			return c.runServer(cmd.Context(), cfg)
		},
	}
	cmd.Flags().String(keyListen, defaultConfig().Listen, "listen address")
	addRenderFlags(cmd)
	return cmd
}

func (c *CLI) runServer(ctx context.Context, cfg Config) error {
	actCfg, err := cfg.ACTConfig()
	if err != nil {
		return err
	}
	opts := pipeline.Options{
		ACT:       actCfg,
		Exclude:   splitList(cfg.Exclude),
		RankDir:   cfg.RankDir,
		SchemaTTL: cache.TTLSchema,
		Logger:    c.Logger,
	}
	if opts.Exclude == nil {
		opts.Exclude = []string{}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return err
	}

	store := cache.NewMemoryCache(time.Minute)
	srv := newServer(pipeline.NewRunner(store, c.Logger), opts, c.Logger)
	defer srv.runner.Close()

	httpServer := &http.Server{
		Addr:              cfg.Listen,
		Handler:           srv.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	printSuccess("Serving %s", StyleHighlight.Render(cfg.URL))
	printKeyValue("listen", cfg.Listen)
	printKeyValue("diagram", "/views/complete/svg")

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	c.Logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return ctx.Err()
}

// server renders diagrams on request.
type server struct {
	runner *pipeline.Runner
	opts   pipeline.Options
	logger *log.Logger
}

func newServer(runner *pipeline.Runner, opts pipeline.Options, logger *log.Logger) *server {
	return &server{runner: runner, opts: opts, logger: logger}
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok\n"))
	})
	r.Get("/schema", s.handleSchema)
	r.Get("/views", s.handleViews)
	r.Get("/views/{view}/{format}", s.handleView)
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

func (s *server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.runner.FetchSchema(r.Context(), s.opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(schema)
}

func (s *server) handleViews(w http.ResponseWriter, r *http.Request) {
	type viewInfo struct {
		Name  typegraph.View `json:"name"`
		Title string         `json:"title"`
	}
	views := make([]viewInfo, 0, len(typegraph.Views))
	for _, v := range typegraph.Views {
		views = append(views, viewInfo{Name: v, Title: v.Title()})
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(views)
}

func (s *server) handleView(w http.ResponseWriter, r *http.Request) {
	view, err := typegraph.ParseView(chi.URLParam(r, "view"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	format := chi.URLParam(r, "format")
	if err := pipeline.ValidateFormat(format); err != nil {
		s.writeError(w, err)
		return
	}

	schema, err := s.runner.FetchSchema(r.Context(), s.opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	opts := s.opts
	opts.Views = []typegraph.View{view}
	graphs, err := s.runner.Build(r.Context(), schema, opts)
	if err != nil {
		s.writeError(w, err)
		return
	}
	g := graphs[view]
	data, err := pipeline.RenderGraph(r.Context(), g, dot.ToDOT(g, opts.DOTOptions()), format)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.Write(data)
}

var contentTypes = map[string]string{
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatJSON: "application/json",
}

// writeError maps error codes to HTTP statuses. Failures of the platform
// itself are reported as 502.
func (s *server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch apperrors.GetCode(err) {
	case apperrors.ErrCodeInvalidView:
		status = http.StatusNotFound
	case apperrors.ErrCodeInvalidFormat, apperrors.ErrCodeInvalidInput:
		status = http.StatusBadRequest
	case apperrors.ErrCodeNetwork, apperrors.ErrCodeUnauthorized, apperrors.ErrCodeForbidden,
		apperrors.ErrCodeNotFound, apperrors.ErrCodeInvalidSchema, apperrors.ErrCodeUnknownObjectType:
		status = http.StatusBadGateway
	}
	if status >= 500 {
		s.logger.Error("request failed", "error", err)
	}
	http.Error(w, apperrors.UserMessage(err), status)
}
