package pipeline

import (
	"context"
	"fmt"

	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/integrations/confluence"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

// Attacher uploads one file to a wiki page.
type Attacher interface {
	Attach(ctx context.Context, pageID, name string, data []byte, comment string) (*confluence.Attachment, error)
}

// PublishOptions configures where artifacts are published.
type PublishOptions struct {
	// Confluence is used to build a client when Attacher is nil.
	Confluence confluence.Config

	// PageID is the page receiving the attachments.
	PageID string

	// IncludeSources also attaches the DOT source of each view.
	IncludeSources bool

	Attacher Attacher
}

// imageFormats are the rendered formats attached to the page.
var imageFormats = []string{FormatPNG, FormatSVG}

// Publish attaches the rendered images of result to a Confluence page, in
// view order. Nothing is published for an unchanged result. It returns the
// names of the uploaded files.
func (r *Runner) Publish(ctx context.Context, result *Result, opts PublishOptions) ([]string, error) {
	if result == nil || !result.Changed {
		return nil, nil
	}
	if err := apperrors.ValidatePageID(opts.PageID); err != nil {
		return nil, err
	}
	attacher := opts.Attacher
	if attacher == nil {
		client, err := confluence.NewClient(opts.Confluence)
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrCodePublish, err, "confluence client")
		}
		attacher = client
	}

	var uploaded []string
	upload := func(name string, data []byte, comment string) error {
		if _, err := attacher.Attach(ctx, opts.PageID, name, data, comment); err != nil {
			return err
		}
		r.Logger.Info("attached file", "page", opts.PageID, "name", name, "bytes", len(data))
		uploaded = append(uploaded, name)
		return nil
	}

	for _, view := range orderedViews(result) {
		for _, format := range imageFormats {
			data, ok := result.Artifacts[view][format]
			if !ok {
				continue
			}
			if err := upload(Filename(view, format), data, view.Title()); err != nil {
				return uploaded, err
			}
		}
	}
	if opts.IncludeSources {
		for _, view := range orderedViews(result) {
			source, ok := result.Sources[view]
			if !ok {
				continue
			}
			if err := upload(Filename(view, FormatDOT), []byte(source), fmt.Sprintf("%s source", view)); err != nil {
				return uploaded, err
			}
		}
	}
	if len(uploaded) == 0 {
		r.Logger.Warn("nothing to publish: no png or svg artifacts rendered")
	}
	return uploaded, nil
}

// orderedViews returns the views present in result in canonical order.
func orderedViews(result *Result) []typegraph.View {
	views := make([]typegraph.View, 0, len(result.Sources))
	for _, v := range typegraph.Views {
		_, hasSource := result.Sources[v]
		_, hasArtifacts := result.Artifacts[v]
		if hasSource || hasArtifacts {
			views = append(views, v)
		}
	}
	return views
}
