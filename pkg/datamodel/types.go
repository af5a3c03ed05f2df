package datamodel

import (
	"cmp"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"slices"
)

// TypeRef identifies an object type from inside a binding.
type TypeRef struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ObjectType is a node category in the platform data model.
type ObjectType struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Ref returns a reference to o suitable for use in a [Binding].
func (o ObjectType) Ref() TypeRef { return TypeRef{ID: o.ID, Name: o.Name} }

// Binding is one allowed (source, destination) pair of a fact type.
// Destination is nil for single-ended bindings.
type Binding struct {
	Source        TypeRef  `json:"sourceObjectType"`
	Destination   *TypeRef `json:"destinationObjectType"`
	Bidirectional bool     `json:"bidirectionalBinding"`
}

// TwoEnded reports whether the binding connects two object types.
func (b Binding) TwoEnded() bool { return b.Destination != nil }

// FactType is a labeled relationship category binding object types.
type FactType struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Bindings []Binding `json:"relevantObjectBindings"`
}

// Schema is the full type metadata fetched from one platform instance.
type Schema struct {
	ObjectTypes []ObjectType `json:"objectTypes"`
	FactTypes   []FactType   `json:"factTypes"`
}

// Origin is a source of facts registered with the platform.
type Origin struct {
	ID           string  `json:"id,omitempty"`
	Name         string  `json:"name"`
	Description  string  `json:"description,omitempty"`
	Trust        float64 `json:"trust"`
	Organization string  `json:"organization,omitempty"`
}

func (o Origin) String() string {
	return fmt.Sprintf("%s (%s) trust=%.2f %s", o.Name, o.ID, o.Trust, o.Description)
}

// envelope is the list wrapper used by every platform endpoint.
type envelope[T any] struct {
	Data []*T `json:"data"`
}

func decodeList[T any](r io.Reader) ([]T, error) {
	var env envelope[T]
	if err := json.NewDecoder(r).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	out := make([]T, 0, len(env.Data))
	for _, item := range env.Data {
		if item == nil {
			continue
		}
		out = append(out, *item)
	}
	return out, nil
}

// DecodeObjectTypes reads an object type list response.
func DecodeObjectTypes(r io.Reader) ([]ObjectType, error) {
	return decodeList[ObjectType](r)
}

// DecodeFactTypes reads a fact type list response.
func DecodeFactTypes(r io.Reader) ([]FactType, error) {
	return decodeList[FactType](r)
}

// DecodeOrigins reads an origin list response.
func DecodeOrigins(r io.Reader) ([]Origin, error) {
	return decodeList[Origin](r)
}

// Fingerprint returns a SHA-256 hex digest of the canonical schema.
// Object types and fact types are sorted by name then id; binding order
// within a fact type is kept because it drives edge order.
func (s Schema) Fingerprint() string {
	canon := Schema{
		ObjectTypes: slices.Clone(s.ObjectTypes),
		FactTypes:   slices.Clone(s.FactTypes),
	}
	slices.SortFunc(canon.ObjectTypes, func(a, b ObjectType) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
	SortFactTypes(canon.FactTypes)

	data, _ := json.Marshal(canon)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// SortFactTypes orders fact types by name, then id. The sort is stable so
// duplicates keep their fetched order.
func SortFactTypes(facts []FactType) {
	slices.SortStableFunc(facts, func(a, b FactType) int {
		return cmp.Or(cmp.Compare(a.Name, b.Name), cmp.Compare(a.ID, b.ID))
	})
}
