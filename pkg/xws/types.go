package xws

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
	"strings"
)

// Type describes how a response (or error) body is turned into a Go value.
//
// XWS wraps almost every payload in one or more envelope objects, e.g.
// {"users": [{...}]} for a single profile. Rather than declaring a wrapper
// struct per endpoint, a Type names the envelope keys ("roots") that lead to
// the value and the shape of the value found there:
//
//	xws.First[User]("users")          // {"users": [{...}, ...]} -> User
//	xws.List[Contact]("contacts", "users") // {"contacts": {"users": [...]}} -> []Contact
//	xws.Single[Group]("group")        // {"group": {...}} -> Group
//
// Types compose, so a list of wrapped values can be described with ListOf.
type Type[T any] interface {
	// Decode converts a fully buffered body into T.
	Decode(data []byte) (T, error)

	String() string
}

// bodyless is implemented by types that never read the response body.
type bodyless interface {
	skipsBody() bool
}

type composite[T any] struct {
	name  string
	roots []string
	leaf  func(raw json.RawMessage) (T, error)
}

func (c composite[T]) Decode(data []byte) (T, error) {
	var zero T

	raw, err := walkRoots(data, c.roots)
	if err != nil || raw == nil {
		return zero, err
	}

	return c.leaf(raw)
}

func (c composite[T]) String() string {
	return fmt.Sprintf("%s[%s]%v", c.name, typeName[T](), c.roots)
}

// Single describes a single T located under roots.
func Single[T any](roots ...string) Type[T] {
	return composite[T]{name: "Single", roots: roots, leaf: unmarshal[T]}
}

// List describes a JSON array of T located under roots.
func List[T any](roots ...string) Type[[]T] {
	return composite[[]T]{name: "List", roots: roots, leaf: unmarshal[[]T]}
}

// First describes the first element of a JSON array of T located under roots.
// A null or empty array yields the zero value of T.
func First[T any](roots ...string) Type[T] {
	return composite[T]{name: "First", roots: roots, leaf: func(raw json.RawMessage) (T, error) {
		list, err := unmarshal[[]T](raw)
		if err != nil || len(list) == 0 {
			var zero T
			return zero, err
		}
		return list[0], nil
	}}
}

// SingleOf locates roots first and then hands the value found there to inner.
func SingleOf[T any](inner Type[T], roots ...string) Type[T] {
	return composite[T]{name: "SingleOf", roots: roots, leaf: func(raw json.RawMessage) (T, error) {
		return inner.Decode(raw)
	}}
}

// ListOf describes a JSON array located under roots whose elements are each
// decoded by inner.
func ListOf[T any](inner Type[T], roots ...string) Type[[]T] {
	return composite[[]T]{name: "ListOf", roots: roots, leaf: func(raw json.RawMessage) ([]T, error) {
		return decodeElements(inner, raw)
	}}
}

// FirstOf is ListOf reduced to its first element.
func FirstOf[T any](inner Type[T], roots ...string) Type[T] {
	return composite[T]{name: "FirstOf", roots: roots, leaf: func(raw json.RawMessage) (T, error) {
		list, err := decodeElements(inner, raw)
		if err != nil || len(list) == 0 {
			var zero T
			return zero, err
		}
		return list[0], nil
	}}
}

// Void never reads the body and always yields the zero value of T.
func Void[T any]() Type[T] {
	return voidType[T]{}
}

// Text yields the body as a string without any JSON processing.
func Text() Type[string] {
	return textType{}
}

// Bytes yields a copy of the raw body.
func Bytes() Type[[]byte] {
	return bytesType{}
}

type voidType[T any] struct{}

func (voidType[T]) Decode([]byte) (T, error) {
	var zero T
	return zero, nil
}

func (voidType[T]) String() string { return "Void" }

func (voidType[T]) skipsBody() bool { return true }

type textType struct{}

func (textType) Decode(data []byte) (string, error) { return string(data), nil }

func (textType) String() string { return "Text" }

type bytesType struct{}

func (bytesType) Decode(data []byte) ([]byte, error) {
	return bytes.Clone(data), nil
}

func (bytesType) String() string { return "Bytes" }

// walkRoots descends through the object keys in roots and returns the raw
// value found at the end. A nil result means a JSON null was met on the way.
func walkRoots(data []byte, roots []string) (json.RawMessage, error) {
	raw := json.RawMessage(data)

	for _, root := range roots {
		if isNull(raw) {
			return nil, nil
		}

		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, fmt.Errorf("decoding envelope %q: %w", root, err)
		}

		next, ok := obj[root]
		if !ok {
			return nil, fmt.Errorf("%w for roots %v", ErrStructure, roots)
		}
		raw = next
	}

	if isNull(raw) {
		return nil, nil
	}
	return raw, nil
}

func unmarshal[T any](raw json.RawMessage) (T, error) {
	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("decoding %s: %w", typeName[T](), err)
	}
	return v, nil
}

func decodeElements[T any](inner Type[T], raw json.RawMessage) ([]T, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding list of %s: %w", inner, err)
	}

	out := make([]T, 0, len(items))
	for i, item := range items {
		v, err := inner.Decode(item)
		if err != nil {
			return nil, fmt.Errorf("decoding element %d: %w", i, err)
		}
		out = append(out, v)
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return string(bytes.TrimSpace(raw)) == "null"
}

func typeName[T any]() string {
	name := reflect.TypeFor[T]().String()
	return strings.TrimPrefix(name, "interface {}")
}
