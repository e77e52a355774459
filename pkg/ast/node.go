// Package ast defines the pattern syntax tree. Every node carries a canonical
// form rebuilt from its semantic content, so two pattern texts that differ
// only in spacing or quote style produce identical canonical strings.
package ast

import (
	"strconv"
	"strings"
)

// Kind identifies the variant of a Node.
type Kind uint8

const (
	KindArgumentList Kind = iota
	KindWildcard
	KindNull
	KindUndefined
	KindBoolean
	KindNumber
	KindString
	KindIdentifier
	KindBinder
	KindArray
	KindRest
	KindObject
	KindKey
	KindKeyValue
	KindClass
	KindExtractor
)

var kindNames = [...]string{
	KindArgumentList: "argumentList",
	KindWildcard:     "wildcard",
	KindNull:         "null",
	KindUndefined:    "undefined",
	KindBoolean:      "boolean",
	KindNumber:       "number",
	KindString:       "string",
	KindIdentifier:   "identifier",
	KindBinder:       "binder",
	KindArray:        "array",
	KindRest:         "rest",
	KindObject:       "object",
	KindKey:          "key",
	KindKeyValue:     "keyValue",
	KindClass:        "class",
	KindExtractor:    "extractor",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// MarshalText renders the kind by name in JSON dumps of the tree.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Destructure says how a class pattern takes its value apart.
type Destructure uint8

const (
	DestructureNone Destructure = iota
	DestructurePositional
	DestructureKeyed
)

// Node is a pattern syntax tree node.
//
// Value holds the literal for Boolean/Number/String nodes, the name for
// Identifier, Binder, Class and Extractor nodes, and the unquoted key for
// Key and KeyValue nodes.
type Node struct {
	Kind        Kind        `json:"kind"`
	Canonical   string      `json:"canonical"`
	Value       any         `json:"value,omitempty"`
	Destructure Destructure `json:"destructure,omitempty"`
	Children    []*Node     `json:"children,omitempty"`
}

// Name returns Value as a string, or "" when Value is not a string.
func (n *Node) Name() string {
	s, _ := n.Value.(string)
	return s
}

// Child returns the single sub-pattern of a Binder, Rest, KeyValue, Class or
// Extractor node, or nil when there is none.
func (n *Node) Child() *Node {
	if len(n.Children) == 0 {
		return nil
	}
	return n.Children[0]
}

// HasRest reports whether any direct child is a Rest node.
func (n *Node) HasRest() bool {
	for _, c := range n.Children {
		if c.Kind == KindRest {
			return true
		}
	}
	return false
}

func canonicals(children []*Node) string {
	parts := make([]string, len(children))
	for i, c := range children {
		parts[i] = c.Canonical
	}
	return strings.Join(parts, ",")
}

func ArgumentList(children []*Node) *Node {
	return &Node{Kind: KindArgumentList, Canonical: canonicals(children), Children: children}
}

func Wildcard() *Node {
	return &Node{Kind: KindWildcard, Canonical: "_"}
}

func Null() *Node {
	return &Node{Kind: KindNull, Canonical: "null"}
}

func Undefined() *Node {
	return &Node{Kind: KindUndefined, Canonical: "undefined"}
}

func Boolean(b bool) *Node {
	return &Node{Kind: KindBoolean, Canonical: strconv.FormatBool(b), Value: b}
}

// Number renders the parsed value, not the source spelling, so `1e2`,
// `100` and `100.0` share one canonical form.
func Number(f float64) *Node {
	return &Node{Kind: KindNumber, Canonical: FormatNumber(f), Value: f}
}

func String(s string) *Node {
	return &Node{Kind: KindString, Canonical: Quote(s), Value: s}
}

func Identifier(name string) *Node {
	return &Node{Kind: KindIdentifier, Canonical: name, Value: name}
}

func Binder(name string, sub *Node) *Node {
	return &Node{Kind: KindBinder, Canonical: name + "@" + sub.Canonical, Value: name, Children: []*Node{sub}}
}

func Array(children []*Node) *Node {
	return &Node{Kind: KindArray, Canonical: "[" + canonicals(children) + "]", Children: children}
}

// Rest builds a rest element. A nil sub-pattern means an anonymous rest and
// is stored as a Wildcard.
func Rest(sub *Node) *Node {
	if sub == nil {
		sub = Wildcard()
	}
	canon := "..."
	if sub.Kind != KindWildcard {
		canon += sub.Canonical
	}
	return &Node{Kind: KindRest, Canonical: canon, Children: []*Node{sub}}
}

func Object(children []*Node) *Node {
	return &Node{Kind: KindObject, Canonical: "{" + canonicals(children) + "}", Children: children}
}

func Key(name string) *Node {
	return &Node{Kind: KindKey, Canonical: Quote(name), Value: name}
}

func KeyValue(name string, sub *Node) *Node {
	return &Node{Kind: KindKeyValue, Canonical: Quote(name) + ":" + sub.Canonical, Value: name, Children: []*Node{sub}}
}

// Class builds a class pattern. sub must be an Array node for positional
// destructuring, an Object node for keyed destructuring, or nil.
func Class(name string, sub *Node) *Node {
	n := &Node{Kind: KindClass, Canonical: name, Value: name}
	if sub == nil {
		return n
	}
	n.Children = []*Node{sub}
	switch sub.Kind {
	case KindArray:
		n.Destructure = DestructurePositional
		n.Canonical += "(" + canonicals(sub.Children) + ")"
	default:
		n.Destructure = DestructureKeyed
		n.Canonical += sub.Canonical
	}
	return n
}

func Extractor(name string, sub *Node) *Node {
	n := &Node{Kind: KindExtractor, Canonical: "$" + name, Value: name}
	if sub != nil {
		n.Children = []*Node{sub}
		n.Canonical += "(" + sub.Canonical + ")"
	}
	return n
}

// FormatNumber is the canonical rendering of a number literal.
func FormatNumber(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
