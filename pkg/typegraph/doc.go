// Package typegraph turns platform type metadata into a directed graph of
// object types connected by fact types.
//
// # Views
//
// [Build] produces one of three views of a [datamodel.Schema]:
//
//   - [ViewComplete]: every object type is a node; every two-ended binding
//     of every fact type is an edge labeled with the fact type name.
//   - [ViewDouble]: only the object types that take part in a two-ended
//     binding, and those edges.
//   - [ViewSingle]: single-ended bindings, drawn as an edge from the source
//     object type to a diamond-shaped fact node.
//
// Fact types named in [Options.Exclude] are left out of any view.
//
// # Ordering
//
// Output is deterministic. Nodes are sorted by name; edges follow fact types
// sorted by name (then id) and, within a fact type, the declared binding
// order. Building the same schema twice yields equal graphs.
//
// # Errors
//
// A binding that references an object type missing from the schema is a
// malformed schema. Build fails with an error matching
// [ErrUnknownObjectType] instead of dropping the edge.
//
// # Serialization
//
// [MarshalGraph] and [ReadGraph] use a small node-link JSON format:
//
//	{
//	  "nodes": [{"id": "email"}, {"id": "person"}],
//	  "edges": [{"from": "person", "to": "email", "label": "sends"}]
//	}
package typegraph
