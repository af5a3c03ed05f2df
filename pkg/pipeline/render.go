package pipeline

import (
	"context"
	"time"

	apperrors "github.com/matzehuels/actgraph/pkg/errors"
	"github.com/matzehuels/actgraph/pkg/observability"
	"github.com/matzehuels/actgraph/pkg/render/dot"
	"github.com/matzehuels/actgraph/pkg/typegraph"
)

// RenderGraph produces one artifact for g. source is the DOT text of g and is
// reused for every Graphviz format.
func RenderGraph(ctx context.Context, g *typegraph.Graph, source, format string) ([]byte, error) {
	switch format {
	case FormatDOT:
		return []byte(source), nil
	case FormatSVG:
		return dot.RenderSVG(ctx, source)
	case FormatPNG:
		return dot.RenderPNG(ctx, source)
	case FormatJSON:
		return typegraph.MarshalGraph(g)
	default:
		return nil, ValidateFormat(format)
	}
}

// renderView renders every format of one view.
func renderView(ctx context.Context, view typegraph.View, g *typegraph.Graph, opts Options) (string, map[string][]byte, error) {
	source := dot.ToDOT(g, opts.DOTOptions())
	out := make(map[string][]byte, len(opts.Formats))

	for _, format := range opts.Formats {
		start := time.Now()
		data, err := RenderGraph(ctx, g, source, format)
		observability.Pipeline().OnRenderComplete(ctx, string(view), format, len(data), time.Since(start), err)
		if err != nil {
			if apperrors.GetCode(err) == "" {
				err = apperrors.Wrap(apperrors.ErrCodeInternal, err, "render %s as %s", view, format)
			}
			return "", nil, err
		}
		out[format] = data
		opts.Logger.Debug("rendered view", "view", view, "format", format, "bytes", len(data))
	}
	return source, out, nil
}
