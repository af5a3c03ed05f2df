// Package datamodel defines the type metadata served by an ACT platform
// instance: object types, fact types and the bindings between them.
//
// The platform wraps every list response in an envelope:
//
//	{"data": [{"id": "...", "name": "ipv4"}, null, ...], "count": 2}
//
// [DecodeObjectTypes] and [DecodeFactTypes] unwrap the envelope and drop the
// null entries the platform occasionally returns.
//
// # Bindings
//
// A fact type lists the object types it may bind in relevantObjectBindings.
// A binding with a destination is two-ended and becomes an edge in the
// rendered graph. A binding without one is single-ended: the fact is
// attached to just one object (tags, names, categories).
//
// # Change detection
//
// [Schema.Fingerprint] hashes a canonical form of the schema, so a server that
// returns the same types in a different order does not count as a change.
package datamodel
