package typegraph

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"github.com/matzehuels/actgraph/pkg/datamodel"
	apperrors "github.com/matzehuels/actgraph/pkg/errors"
)

// View selects which part of the schema a graph shows.
type View string

const (
	ViewComplete View = "complete"
	ViewDouble   View = "double"
	ViewSingle   View = "single"
)

// Views lists every view in rendering order.
var Views = []View{ViewComplete, ViewDouble, ViewSingle}

// Title returns the human-readable title used for diagrams and attachments.
func (v View) Title() string {
	switch v {
	case ViewDouble:
		return "Double Edged Facts"
	case ViewSingle:
		return "Single Edged Facts"
	default:
		return "All Double Edged Facts"
	}
}

// ParseView validates a view name.
func ParseView(s string) (View, error) {
	v := View(s)
	if !slices.Contains(Views, v) {
		return "", apperrors.New(apperrors.ErrCodeInvalidView,
			"invalid view: %s (must be 'complete', 'double', or 'single')", s)
	}
	return v, nil
}

// FactNodePrefix prefixes the IDs of fact nodes in the single view so they
// cannot collide with object type names.
const FactNodePrefix = "fact:"

// ErrUnknownObjectType is matched by errors.Is when a binding references an
// object type that is not part of the schema.
var ErrUnknownObjectType = errors.New("unknown object type")

// Options tunes graph construction.
type Options struct {
	// Exclude lists fact type names to leave out of the graph.
	Exclude []string
}

// Build constructs the requested view of schema.
func Build(schema datamodel.Schema, view View, opts Options) (*Graph, error) {
	idx, err := newTypeIndex(schema.ObjectTypes)
	if err != nil {
		return nil, err
	}

	facts := slices.Clone(schema.FactTypes)
	datamodel.SortFactTypes(facts)
	facts = slices.DeleteFunc(facts, func(f datamodel.FactType) bool {
		return slices.Contains(opts.Exclude, f.Name)
	})

	b := &builder{g: New(view.Title()), idx: idx}
	switch view {
	case ViewComplete:
		err = b.complete(facts)
	case ViewDouble:
		err = b.double(facts)
	case ViewSingle:
		err = b.single(facts)
	default:
		_, err = ParseView(string(view))
	}
	if err != nil {
		return nil, err
	}
	return b.g, nil
}

// BuildAll constructs each of views from the same schema.
func BuildAll(schema datamodel.Schema, views []View, opts func(View) Options) (map[View]*Graph, error) {
	out := make(map[View]*Graph, len(views))
	for _, v := range views {
		var o Options
		if opts != nil {
			o = opts(v)
		}
		g, err := Build(schema, v, o)
		if err != nil {
			return nil, fmt.Errorf("build %s view: %w", v, err)
		}
		out[v] = g
	}
	return out, nil
}

type builder struct {
	g   *Graph
	idx *typeIndex
}

// binding is a resolved two-ended binding.
type binding struct {
	fact     string
	src, dst string
	bidi     bool
}

func (b *builder) complete(facts []datamodel.FactType) error {
	edges, _, err := b.resolve(facts)
	if err != nil {
		return err
	}
	for _, name := range b.idx.names() {
		if err := b.g.AddNode(Node{ID: name}); err != nil {
			return err
		}
	}
	return b.addEdges(edges)
}

func (b *builder) double(facts []datamodel.FactType) error {
	edges, _, err := b.resolve(facts)
	if err != nil {
		return err
	}
	var names []string
	for _, e := range edges {
		names = append(names, e.src, e.dst)
	}
	slices.Sort(names)
	for _, name := range slices.Compact(names) {
		if err := b.g.AddNode(Node{ID: name}); err != nil {
			return err
		}
	}
	return b.addEdges(edges)
}

func (b *builder) single(facts []datamodel.FactType) error {
	_, singles, err := b.resolve(facts)
	if err != nil {
		return err
	}

	var nodes []Node
	for _, s := range singles {
		nodes = append(nodes,
			Node{ID: s.src},
			Node{ID: FactNodePrefix + s.fact, Label: s.fact, Kind: KindFact})
	}
	slices.SortFunc(nodes, func(a, b Node) int {
		return cmp.Or(cmp.Compare(a.Kind, b.Kind), cmp.Compare(a.ID, b.ID))
	})
	for _, n := range slices.Compact(nodes) {
		if err := b.g.AddNode(n); err != nil {
			if errors.Is(err, ErrDuplicateNodeID) {
				return apperrors.Wrap(apperrors.ErrCodeInvalidSchema, err,
					"object type %q clashes with the node of fact type %q", n.ID, n.Label)
			}
			return err
		}
	}
	for _, s := range singles {
		if err := b.g.AddEdge(Edge{From: s.src, To: FactNodePrefix + s.fact}); err != nil {
			return err
		}
	}
	return nil
}

func (b *builder) addEdges(edges []binding) error {
	for _, e := range edges {
		err := b.g.AddEdge(Edge{From: e.src, To: e.dst, Label: e.fact, Bidirectional: e.bidi})
		if err != nil {
			return fmt.Errorf("add edge %s→%s: %w", e.src, e.dst, err)
		}
	}
	return nil
}

// resolve maps every binding of facts to object type names, split into
// two-ended and single-ended bindings. It fails on the first reference to an
// unknown object type.
func (b *builder) resolve(facts []datamodel.FactType) (double, single []binding, err error) {
	for _, f := range facts {
		if f.Name == "" {
			return nil, nil, apperrors.New(apperrors.ErrCodeInvalidSchema, "fact type %s has no name", f.ID)
		}
		for i, bnd := range f.Bindings {
			src, err := b.idx.lookup(bnd.Source)
			if err != nil {
				return nil, nil, bindingError(f, i, "source", err)
			}
			if !bnd.TwoEnded() {
				single = append(single, binding{fact: f.Name, src: src})
				continue
			}
			dst, err := b.idx.lookup(*bnd.Destination)
			if err != nil {
				return nil, nil, bindingError(f, i, "destination", err)
			}
			double = append(double, binding{fact: f.Name, src: src, dst: dst, bidi: bnd.Bidirectional})
		}
	}
	return double, single, nil
}

func bindingError(f datamodel.FactType, i int, end string, err error) error {
	return apperrors.Wrap(apperrors.ErrCodeUnknownObjectType, err,
		"fact type %q binding %d %s", f.Name, i, end)
}

// typeIndex resolves binding references to canonical object type names.
type typeIndex struct {
	byID   map[string]string
	byName map[string]bool
}

func newTypeIndex(objects []datamodel.ObjectType) (*typeIndex, error) {
	idx := &typeIndex{
		byID:   make(map[string]string, len(objects)),
		byName: make(map[string]bool, len(objects)),
	}
	for _, o := range objects {
		if o.Name == "" {
			return nil, apperrors.New(apperrors.ErrCodeInvalidSchema, "object type %s has no name", o.ID)
		}
		if idx.byName[o.Name] {
			return nil, apperrors.New(apperrors.ErrCodeInvalidSchema, "duplicate object type name %q", o.Name)
		}
		idx.byName[o.Name] = true
		if o.ID != "" {
			idx.byID[o.ID] = o.Name
		}
	}
	return idx, nil
}

// lookup resolves by id when the reference carries one, otherwise by name.
func (idx *typeIndex) lookup(ref datamodel.TypeRef) (string, error) {
	if ref.ID != "" {
		if name, ok := idx.byID[ref.ID]; ok {
			return name, nil
		}
		return "", fmt.Errorf("%w: %s (%s)", ErrUnknownObjectType, ref.Name, ref.ID)
	}
	if idx.byName[ref.Name] {
		return ref.Name, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownObjectType, ref.Name)
}

func (idx *typeIndex) names() []string {
	names := make([]string, 0, len(idx.byName))
	for name := range idx.byName {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
