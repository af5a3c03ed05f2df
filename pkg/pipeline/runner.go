package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/actgraph/pkg/cache"
	"github.com/matzehuels/actgraph/pkg/datamodel"
	"github.com/matzehuels/actgraph/pkg/integrations/act"
	"github.com/matzehuels/actgraph/pkg/observability"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

// Runner executes the pipeline against a change cache.
//
// The Runner keeps no per-run state, so the server shares one Runner between
// concurrent requests.
type Runner struct {
	Cache  cache.Cache
	Logger *log.Logger
}

// NewRunner creates a runner. A nil cache disables change detection.
func NewRunner(c cache.Cache, logger *log.Logger) *Runner {
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{Cache: c, Logger: logger}
}

// Execute runs fetch → change detection → build → render.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	// Stage 1: Fetch
	fetchStart := time.Now()
	schema, hit, err := r.FetchSchemaWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	result := &Result{
		Schema:      schema,
		Fingerprint: schema.Fingerprint(),
		Stats: Stats{
			ObjectTypes: len(schema.ObjectTypes),
			FactTypes:   len(schema.FactTypes),
			FetchTime:   time.Since(fetchStart),
			SchemaHit:   hit,
		},
	}
	r.Logger.Info("fetched schema",
		"object_types", result.Stats.ObjectTypes,
		"fact_types", result.Stats.FactTypes,
		"duration", result.Stats.FetchTime)

	// Stage 2: Change detection
	key := cache.FingerprintKey(r.baseURL(opts))
	if !opts.Force && r.unchanged(ctx, key, result.Fingerprint) {
		r.Logger.Info("schema unchanged, skipping render", "fingerprint", short(result.Fingerprint))
		return result, nil
	}
	result.Changed = true

	// Stage 3: Build
	buildStart := time.Now()
	graphs, err := r.Build(ctx, schema, opts)
	if err != nil {
		return nil, fmt.Errorf("build: %w", err)
	}
	result.Graphs = graphs
	result.Stats.BuildTime = time.Since(buildStart)

	// Stage 4: Render
	renderStart := time.Now()
	result.Sources = make(map[typegraph.View]string, len(graphs))
	result.Artifacts = make(map[typegraph.View]map[string][]byte, len(graphs))
	for _, view := range opts.Views {
		source, artifacts, err := renderView(ctx, view, graphs[view], opts)
		if err != nil {
			return nil, fmt.Errorf("render: %w", err)
		}
		result.Sources[view] = source
		result.Artifacts[view] = artifacts
	}
	result.Stats.RenderTime = time.Since(renderStart)
	r.Logger.Info("rendered outputs",
		"views", opts.Views,
		"formats", opts.Formats,
		"duration", result.Stats.RenderTime)

	// Stage 5: Remember the fingerprint
	if err := r.Cache.Set(ctx, key, []byte(result.Fingerprint), cache.TTLFingerprint); err != nil {
		r.Logger.Warn("could not store schema fingerprint", "error", err)
	} else {
		observability.Cache().OnCacheSet(ctx, key, len(result.Fingerprint))
	}

	return result, nil
}

// FetchSchemaWithCacheInfo downloads the schema, serving it from the cache
// when opts.SchemaTTL is positive and a fresh copy is stored.
func (r *Runner) FetchSchemaWithCacheInfo(ctx context.Context, opts Options) (datamodel.Schema, bool, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return datamodel.Schema{}, false, err
	}
	key := cache.SchemaKey(r.baseURL(opts))

	if opts.SchemaTTL > 0 {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var schema datamodel.Schema
			if err := json.NewDecoder(bytes.NewReader(data)).Decode(&schema); err == nil {
				observability.Cache().OnCacheHit(ctx, key)
				return schema, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, key)
	}

	fetcher := opts.Fetcher
	if fetcher == nil {
		client, err := act.NewClient(opts.ACT)
		if err != nil {
			return datamodel.Schema{}, false, err
		}
		fetcher = client
	}
	schema, err := fetcher.FetchSchema(ctx)
	if err != nil {
		return datamodel.Schema{}, false, err
	}

	if opts.SchemaTTL > 0 {
		data, err := json.Marshal(schema)
		if err == nil {
			err = r.Cache.Set(ctx, key, data, opts.SchemaTTL)
		}
		if err != nil {
			r.Logger.Warn("could not cache schema", "error", err)
		} else {
			observability.Cache().OnCacheSet(ctx, key, len(data))
		}
	}
	return schema, false, nil
}

// FetchSchema is a convenience wrapper that discards the cache hit info.
func (r *Runner) FetchSchema(ctx context.Context, opts Options) (datamodel.Schema, error) {
	schema, _, err := r.FetchSchemaWithCacheInfo(ctx, opts)
	return schema, err
}

// Build constructs every view in opts.Views from schema.
func (r *Runner) Build(ctx context.Context, schema datamodel.Schema, opts Options) (map[typegraph.View]*typegraph.Graph, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	graphs := make(map[typegraph.View]*typegraph.Graph, len(opts.Views))
	for _, view := range opts.Views {
		g, err := typegraph.Build(schema, view, opts.BuildOptions(view))
		if g != nil {
			observability.Pipeline().OnBuildComplete(ctx, string(view), g.NodeCount(), g.EdgeCount(), err)
		} else {
			observability.Pipeline().OnBuildComplete(ctx, string(view), 0, 0, err)
		}
		if err != nil {
			return nil, fmt.Errorf("%s view: %w", view, err)
		}
		r.Logger.Debug("built view", "view", view, "nodes", g.NodeCount(), "edges", g.EdgeCount())
		graphs[view] = g
	}
	return graphs, nil
}

// Forget drops the stored fingerprint for baseURL so the next run renders.
func (r *Runner) Forget(ctx context.Context, baseURL string) error {
	return r.Cache.Delete(ctx, cache.FingerprintKey(baseURL))
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) unchanged(ctx context.Context, key, fingerprint string) bool {
	data, hit, err := r.Cache.Get(ctx, key)
	if err != nil {
		r.Logger.Warn("could not read schema fingerprint", "error", err)
		return false
	}
	if !hit {
		observability.Cache().OnCacheMiss(ctx, key)
		r.Logger.Info("first run for this platform")
		return false
	}
	observability.Cache().OnCacheHit(ctx, key)
	return string(data) == fingerprint
}

func (r *Runner) baseURL(opts Options) string {
	if opts.ACT.BaseURL != "" {
		return opts.ACT.BaseURL
	}
	return "local"
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	return fingerprint
}
