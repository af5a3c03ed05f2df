// Package pipeline provides the fetch → build → render → publish pipeline
// behind the actgraph CLI and server.
//
// # Stages
//
//  1. Fetch: download object and fact types from the ACT platform
//  2. Detect changes: compare the schema fingerprint with the last run
//  3. Build: turn the schema into one graph per view
//  4. Render: produce DOT, SVG, PNG or JSON per view and format
//  5. Publish: attach the artifacts to a Confluence page (optional)
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, logger)
//	result, err := runner.Execute(ctx, pipeline.Options{
//	    ACT:     act.Config{BaseURL: "https://act.example.com", UserID: 1},
//	    Formats: []string{pipeline.FormatPNG},
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if result.Changed {
//	    png := result.Artifacts[typegraph.ViewComplete][pipeline.FormatPNG]
//	}
//
// An unchanged schema yields a Result with Changed set to false and no
// graphs or artifacts, unless Options.Force is set.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/actgraph/pkg/datamodel"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/integrations/act"
	"github.com/matzehuels/actgraph/pkg/render/dot"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

// Format constants for output formats.
const (
	FormatDOT  = "dot"
	FormatSVG  = "svg"
	FormatPNG  = "png"
	FormatJSON = "json"
)

// ValidFormats is the set of supported output formats.
var ValidFormats = map[string]bool{
	FormatDOT:  true,
	FormatSVG:  true,
	FormatPNG:  true,
	FormatJSON: true,
}

// DefaultFormat is the output format when none is requested.
const DefaultFormat = FormatPNG

// DefaultExclude lists the fact types left out of the double view.
// "mentions" binds nearly every object type and drowns the diagram.
var DefaultExclude = []string{"mentions"}

// Fetcher downloads a platform schema.
type Fetcher interface {
	FetchSchema(ctx context.Context) (datamodel.Schema, error)
}

// Options contains all configuration for a pipeline run.
type Options struct {
	// ACT identifies the platform to graph.
	ACT act.Config `json:"act"`

	// Views to build. Defaults to every view.
	Views []typegraph.View `json:"views,omitempty"`

	// Formats to render per view. Defaults to png.
	Formats []string `json:"formats,omitempty"`

	// Exclude lists fact type names dropped from the double view.
	// Nil means DefaultExclude; an empty non-nil slice excludes nothing.
	Exclude []string `json:"exclude,omitempty"`

	// RankDir is the Graphviz layout direction.
	RankDir string `json:"rank_dir,omitempty"`

	// Force renders even when the schema is unchanged.
	Force bool `json:"force,omitempty"`

	// SchemaTTL, when positive, caches the fetched schema itself.
	SchemaTTL time.Duration `json:"-"`

	// Runtime options (not serialized)
	Logger  *log.Logger `json:"-"`
	Fetcher Fetcher     `json:"-"` // overrides the ACT client built from ACT

	validated bool
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Schema is the fetched platform schema.
	Schema datamodel.Schema

	// Fingerprint is the schema content hash.
	Fingerprint string

	// Changed is false when the fingerprint matched the previous run and
	// nothing was built.
	Changed bool

	// Graphs holds one graph per requested view.
	Graphs map[typegraph.View]*typegraph.Graph

	// Sources holds the DOT text per view, regardless of Formats.
	Sources map[typegraph.View]string

	// Artifacts holds rendered outputs keyed by view, then format.
	Artifacts map[typegraph.View]map[string][]byte

	Stats Stats
}

// Stats contains pipeline execution statistics.
type Stats struct {
	ObjectTypes int
	FactTypes   int
	FetchTime   time.Duration
	BuildTime   time.Duration
	RenderTime  time.Duration
	SchemaHit   bool // schema came from the cache
}

// ValidateFormat checks that a format is valid.
func ValidateFormat(format string) error {
	if !ValidFormats[format] {
		return apperrors.New(apperrors.ErrCodeInvalidFormat,
			"invalid format: %q (must be one of: dot, svg, png, json)", format)
	}
	return nil
}

// ValidateFormats checks that all formats are valid.
func ValidateFormats(formats []string) error {
	for _, f := range formats {
		if err := ValidateFormat(f); err != nil {
			return err
		}
	}
	return nil
}

// ParseViews validates view names, dropping duplicates.
func ParseViews(names []string) ([]typegraph.View, error) {
	views := make([]typegraph.View, 0, len(names))
	for _, n := range names {
		v, err := typegraph.ParseView(n)
		if err != nil {
			return nil, err
		}
		if !slices.Contains(views, v) {
			views = append(views, v)
		}
	}
	return views, nil
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// It is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Fetcher == nil {
		if err := apperrors.ValidateURL(o.ACT.BaseURL); err != nil {
			return err
		}
	}
	if len(o.Views) == 0 {
		o.Views = slices.Clone(typegraph.Views)
	}
	for _, v := range o.Views {
		if _, err := typegraph.ParseView(string(v)); err != nil {
			return err
		}
	}
	if len(o.Formats) == 0 {
		o.Formats = []string{DefaultFormat}
	}
	if err := ValidateFormats(o.Formats); err != nil {
		return err
	}
	if o.Exclude == nil {
		o.Exclude = slices.Clone(DefaultExclude)
	}
	if err := dot.ValidateRankDir(o.RankDir); err != nil {
		return apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "rank direction")
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// BuildOptions returns the graph options for view. Exclusions only apply to
// the double view.
func (o *Options) BuildOptions(view typegraph.View) typegraph.Options {
	if view == typegraph.ViewDouble {
		return typegraph.Options{Exclude: o.Exclude}
	}
	return typegraph.Options{}
}

// DOTOptions returns the renderer options.
func (o *Options) DOTOptions() dot.Options {
	return dot.Options{RankDir: o.RankDir}
}

// Filename returns the artifact file name for a view and format.
func Filename(view typegraph.View, format string) string {
	return fmt.Sprintf("%s.%s", view, format)
}
