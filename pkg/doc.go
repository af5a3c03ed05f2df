// Package pkg provides the libraries behind actgraph, a tool that draws the
// type schema of an ACT platform as a graph.
//
// # Overview
//
// The pkg directory is organized by concern:
//
//  1. [datamodel] - Wire types of the platform API (object types, fact types, origins)
//  2. [typegraph] - Schema to graph transformation (complete, double and single views)
//  3. [render/dot] - Graphviz DOT output and in-process SVG/PNG rendering
//  4. [integrations] - HTTP clients for the platform and for Confluence
//  5. [pipeline] - Orchestration (fetch → change detection → build → render → publish)
//  6. [cache] - Fingerprint and schema caches (file, redis, memory)
//
// # Architecture
//
// The typical data flow:
//
//	ACT platform API
//	         ↓
//	    [integrations/act] (fetch object types and fact types)
//	         ↓
//	    [typegraph] (build one graph per view)
//	         ↓
//	    [render/dot] (DOT, SVG, PNG)
//	         ↓
//	    files on disk and/or [integrations/confluence] attachments
//
// # Quick Start
//
//	client, _ := act.NewClient(act.Config{BaseURL: "http://act.example.com:8888", UserID: 1})
//	schema, err := client.FetchSchema(ctx)
//	if err != nil {
//	    return err
//	}
//	g, err := typegraph.Build(schema, typegraph.ViewComplete, typegraph.Options{})
//	if err != nil {
//	    return err
//	}
//	svg, err := dot.RenderSVG(ctx, dot.ToDOT(g, dot.Options{}))
//
// Most callers go through [pipeline.Runner], which adds change detection and
// publishing on top of these steps.
//
// [datamodel]: github.com/matzehuels/actgraph/pkg/datamodel
// [typegraph]: github.com/matzehuels/actgraph/pkg/typegraph
// [render/dot]: github.com/matzehuels/actgraph/pkg/render/dot
// [integrations]: github.com/matzehuels/actgraph/pkg/integrations
// [integrations/act]: github.com/matzehuels/actgraph/pkg/integrations/act
// [integrations/confluence]: github.com/matzehuels/actgraph/pkg/integrations/confluence
// [pipeline]: github.com/matzehuels/actgraph/pkg/pipeline
// [pipeline.Runner]: github.com/matzehuels/actgraph/pkg/pipeline#Runner
// [cache]: github.com/matzehuels/actgraph/pkg/cache
package pkg
