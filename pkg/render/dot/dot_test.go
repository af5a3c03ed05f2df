package dot

import (
	"context"
	"strings"
	"testing"

	"github.com/matzehuels/actgraph/pkg/typegraph"
)

func sampleGraph(t *testing.T) *typegraph.Graph {
	t.Helper()
	g := typegraph.New("All Double Edged Facts")
	for _, n := range []typegraph.Node{
		{ID: "fqdn"},
		{ID: "ipv4"},
		{ID: "fact:category", Label: "category", Kind: typegraph.KindFact},
	} {
		if err := g.AddNode(n); err != nil {
			t.Fatal(err)
		}
	}
	for _, e := range []typegraph.Edge{
		{From: "fqdn", To: "ipv4", Label: "resolvesTo"},
		{From: "fqdn", To: "fqdn", Label: "alias", Bidirectional: true},
		{From: "ipv4", To: "fact:category"},
	} {
		if err := g.AddEdge(e); err != nil {
			t.Fatal(err)
		}
	}
	return g
}

func TestToDOT(t *testing.T) {
	out := ToDOT(sampleGraph(t), Options{})

	wants := []string{
		"// All Double Edged Facts\n",
		"digraph G {",
		"rankdir=TB;",
		`"fqdn" [label="fqdn"];`,
		`"fact:category" [label="category", shape=diamond, style=filled, fillcolor=lightgrey];`,
		`"fqdn" -> "ipv4" [label="resolvesTo"];`,
		`"fqdn" -> "fqdn" [label="alias", dir=both];`,
		`"ipv4" -> "fact:category";`,
	}
	for _, want := range wants {
		if !strings.Contains(out, want) {
			t.Errorf("DOT output missing %q\n%s", want, out)
		}
	}
}

func TestToDOTDeterministic(t *testing.T) {
	a := ToDOT(sampleGraph(t), Options{})
	b := ToDOT(sampleGraph(t), Options{})
	if a != b {
		t.Error("ToDOT should be deterministic")
	}
}

func TestToDOTRankDir(t *testing.T) {
	out := ToDOT(sampleGraph(t), Options{RankDir: "LR"})
	if !strings.Contains(out, "rankdir=LR;") {
		t.Errorf("expected rankdir=LR in\n%s", out)
	}
}

func TestToDOTQuotesNames(t *testing.T) {
	g := typegraph.New("")
	_ = g.AddNode(typegraph.Node{ID: `say "hi"`})
	out := ToDOT(g, Options{})
	if !strings.Contains(out, `"say \"hi\""`) {
		t.Errorf("node ID not escaped:\n%s", out)
	}
	if strings.HasPrefix(out, "//") {
		t.Error("untitled graph should not emit a title comment")
	}
}

func TestValidateRankDir(t *testing.T) {
	for _, dir := range []string{"", "TB", "LR", "BT", "RL"} {
		if err := ValidateRankDir(dir); err != nil {
			t.Errorf("ValidateRankDir(%q) = %v", dir, err)
		}
	}
	if err := ValidateRankDir("UP"); err == nil {
		t.Error("ValidateRankDir(UP) should fail")
	}
}

func TestRenderSVG(t *testing.T) {
	svg, err := RenderSVG(context.Background(), ToDOT(sampleGraph(t), Options{}))
	if err != nil {
		t.Fatalf("RenderSVG: %v", err)
	}
	if !strings.Contains(string(svg), "<svg") {
		t.Error("output is not SVG")
	}
	if !strings.Contains(string(svg), "resolvesTo") {
		t.Error("edge label missing from SVG")
	}
}

func TestRenderPNG(t *testing.T) {
	png, err := RenderPNG(context.Background(), ToDOT(sampleGraph(t), Options{}))
	if err != nil {
		t.Fatalf("RenderPNG: %v", err)
	}
	if len(png) < 8 || string(png[1:4]) != "PNG" {
		t.Error("output is not a PNG")
	}
}
