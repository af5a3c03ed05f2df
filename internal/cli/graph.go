package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/matzehuels/actgraph/pkg/integrations/confluence"
	"github.com/matzehuels/actgraph/pkg/pipeline"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

// runGraph fetches, renders, writes and optionally publishes the diagrams.
func (c *CLI) runGraph(ctx context.Context, cfg Config) error {
	opts, err := graphOptions(cfg)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	logger := c.Logger.With("run", runID[:8])
	opts.Logger = logger
	logger.Debug("starting run", "url", cfg.URL, "views", opts.Views, "formats", opts.Formats)

	runner, err := c.newRunner(ctx, cfg)
	if err != nil {
		return err
	}
	defer runner.Close()
	runner.Logger = logger

	prog := newProgress(logger)
	result, err := runner.Execute(ctx, opts)
	if err != nil {
		return err
	}
	if !result.Changed {
		printInfo("Data model unchanged since the last run, nothing to do")
		printDetail("Use --force to render anyway")
		return nil
	}
	prog.done(fmt.Sprintf("Rendered %d views", len(result.Graphs)))

	for _, view := range opts.Views {
		g := result.Graphs[view]
		printSuccess("%s", StyleHighlight.Render(view.Title()))
		printStats(g.NodeCount(), g.EdgeCount())
	}

	if err := writeArtifacts(cfg.Output, opts, result); err != nil {
		return c.abandon(ctx, runner, cfg, err)
	}
	if cfg.DumpSource != "" {
		if err := writeSources(cfg.DumpSource, opts.Views, result); err != nil {
			return c.abandon(ctx, runner, cfg, err)
		}
	}

	if cfg.ParentID == "" && cfg.ConfluenceURL != "" {
		printWarning("--%s is set but --%s is not, nothing is published", keyConfluenceURL, keyParentID)
	}
	if cfg.ParentID != "" {
		names, err := runner.Publish(ctx, result, publishOptions(cfg))
		if err != nil {
			return c.abandon(ctx, runner, cfg, err)
		}
		printSuccess("Attached %d files to page %s", len(names), StyleValue.Render(cfg.ParentID))
	}
	return nil
}

// abandon forgets the stored fingerprint so a failed delivery is retried on
// the next run, then returns err.
func (c *CLI) abandon(ctx context.Context, runner *pipeline.Runner, cfg Config, err error) error {
	if ferr := runner.Forget(ctx, cfg.URL); ferr != nil {
		c.Logger.Warn("could not reset change detection", "error", ferr)
	}
	return err
}

// graphOptions converts the configuration into pipeline options.
func graphOptions(cfg Config) (pipeline.Options, error) {
	actCfg, err := cfg.ACTConfig()
	if err != nil {
		return pipeline.Options{}, err
	}
	views, err := pipeline.ParseViews(splitList(cfg.View))
	if err != nil {
		return pipeline.Options{}, err
	}
	opts := pipeline.Options{
		ACT:     actCfg,
		Views:   views,
		Formats: splitList(cfg.Format),
		Exclude: splitList(cfg.Exclude),
		RankDir: cfg.RankDir,
		Force:   cfg.Force,
	}
	if opts.Exclude == nil {
		opts.Exclude = []string{}
	}
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return pipeline.Options{}, err
	}
	return opts, nil
}

func publishOptions(cfg Config) pipeline.PublishOptions {
	timeout, _ := cfg.TimeoutDuration()
	return pipeline.PublishOptions{
		PageID:         cfg.ParentID,
		IncludeSources: cfg.DumpSource != "",
		Confluence: confluence.Config{
			BaseURL:  cfg.ConfluenceURL,
			Username: cfg.ConfluenceUser,
			Password: cfg.ConfluencePassword,
			CACert:   cfg.CACert,
			Timeout:  timeout,
		},
	}
}

// writeArtifacts writes every rendered artifact to dir/<view>.<format>.
func writeArtifacts(dir string, opts pipeline.Options, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	for _, view := range opts.Views {
		for _, format := range opts.Formats {
			path := filepath.Join(dir, pipeline.Filename(view, format))
			if err := os.WriteFile(path, result.Artifacts[view][format], 0o644); err != nil {
				return fmt.Errorf("write %s: %w", path, err)
			}
			printFile(path)
		}
	}
	return nil
}

// writeSources writes the DOT source of each view to dir/<view>.dot.
func writeSources(dir string, views []typegraph.View, result *pipeline.Result) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create source directory: %w", err)
	}
	for _, view := range views {
		path := filepath.Join(dir, pipeline.Filename(view, pipeline.FormatDOT))
		if err := os.WriteFile(path, []byte(result.Sources[view]), 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		printFile(path)
	}
	return nil
}
