// Package decl implements the descriptor model: immutable values describing
// what a visual tree should look like.
//
// A Desc describes one visual node: a type tag, a frozen property map, an
// ordered list of children, an optional identity key, and an ordered list of
// modifiers. Descs are never mutated after construction; the With* methods
// return new values that share unchanged parts with the receiver.
//
// Every Desc carries a fingerprint, a digest over its entire structure
// computed once at construction. Equal fingerprints make equality likely but
// not certain; Equal falls back to a full structural comparison.
package decl

import (
	"reflect"
	"sort"

	"github.com/vtree-ui/vtree/pkg/decl/hash"
)

// Desc is an immutable description of one visual node. The zero value is not
// useful; use New.
type Desc struct {
	typ         string
	key         string
	props       []Prop // sorted by name
	children    []*Desc
	modifiers   []Modifier
	fingerprint uint64
	memoized    bool
}

// Prop is a single named property. Values are plain data; function values are
// permitted but excluded from equality and fingerprint comparisons, since
// closures are rebuilt on every pass and are not value-comparable.
type Prop struct {
	Name  string
	Value any
}

// Modifier is a tagged style or behavior operation attached to a node.
// Modifiers are ordered; the same type may appear more than once.
type Modifier struct {
	Type  string
	Value any
}

// New creates a descriptor with the given type tag, properties and children.
// The props map is copied; the caller remains free to reuse it.
func New(typ string, props map[string]any, children ...*Desc) *Desc {
	ps := make([]Prop, 0, len(props))
	for name, value := range props {
		ps = append(ps, Prop{name, value})
	}
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
	d := &Desc{typ: typ, props: ps, children: copyChildren(children)}
	d.fingerprint = d.computeFingerprint()
	return d
}

// TextType is the type tag of text leaves created by Text.
const TextType = "text"

// TextProp is the property under which Text stores its payload.
const TextProp = "text"

// Text creates a leaf descriptor holding a text payload.
func Text(s string) *Desc {
	return New(TextType, map[string]any{TextProp: s})
}

// WithKey returns a copy of d with the given identity key. A key gives a
// node explicit identity in keyed child diffing; without one, identity is
// positional.
func (d *Desc) WithKey(key string) *Desc {
	e := *d
	e.key = key
	e.memoized = false
	e.fingerprint = e.computeFingerprint()
	return &e
}

// WithModifier returns a copy of d with the given modifier appended.
func (d *Desc) WithModifier(m Modifier) *Desc {
	e := *d
	e.modifiers = make([]Modifier, len(d.modifiers)+1)
	copy(e.modifiers, d.modifiers)
	e.modifiers[len(d.modifiers)] = m
	e.memoized = false
	e.fingerprint = e.computeFingerprint()
	return &e
}

// WithProp returns a copy of d with the named property set to the given
// value, replacing any previous value.
func (d *Desc) WithProp(name string, value any) *Desc {
	e := *d
	i := sort.Search(len(d.props), func(i int) bool { return d.props[i].Name >= name })
	if i < len(d.props) && d.props[i].Name == name {
		e.props = make([]Prop, len(d.props))
		copy(e.props, d.props)
		e.props[i] = Prop{name, value}
	} else {
		e.props = make([]Prop, len(d.props)+1)
		copy(e.props, d.props[:i])
		e.props[i] = Prop{name, value}
		copy(e.props[i+1:], d.props[i:])
	}
	e.memoized = false
	e.fingerprint = e.computeFingerprint()
	return &e
}

// WithChildren returns a copy of d with the given children, replacing any
// previous children.
func (d *Desc) WithChildren(children ...*Desc) *Desc {
	e := *d
	e.children = copyChildren(children)
	e.memoized = false
	e.fingerprint = e.computeFingerprint()
	return &e
}

// Type returns the type tag.
func (d *Desc) Type() string { return d.typ }

// Key returns the identity key, or "" if the node has none.
func (d *Desc) Key() string { return d.key }

// Prop returns the value of the named property and whether it is set.
func (d *Desc) Prop(name string) (any, bool) {
	i := sort.Search(len(d.props), func(i int) bool { return d.props[i].Name >= name })
	if i < len(d.props) && d.props[i].Name == name {
		return d.props[i].Value, true
	}
	return nil, false
}

// Props calls f for each property in name order.
func (d *Desc) Props(f func(Prop)) {
	for _, p := range d.props {
		f(p)
	}
}

// NumProps returns the number of properties.
func (d *Desc) NumProps() int { return len(d.props) }

// Children returns the ordered children. The returned slice is shared;
// callers must not mutate it.
func (d *Desc) Children() []*Desc { return d.children }

// NumChildren returns the number of children.
func (d *Desc) NumChildren() int { return len(d.children) }

// Child returns the i-th child.
func (d *Desc) Child(i int) *Desc { return d.children[i] }

// Modifiers returns the ordered modifiers. The returned slice is shared;
// callers must not mutate it.
func (d *Desc) Modifiers() []Modifier { return d.modifiers }

// Fingerprint returns the structural digest computed at construction.
func (d *Desc) Fingerprint() uint64 { return d.fingerprint }

// Memoized reports whether d was produced by a memoized factory and is
// trusted to be unchanged whenever its fingerprint matches.
func (d *Desc) Memoized() bool { return d.memoized }

func copyChildren(children []*Desc) []*Desc {
	if len(children) == 0 {
		return nil
	}
	cs := make([]*Desc, len(children))
	copy(cs, children)
	return cs
}

func (d *Desc) computeFingerprint() uint64 {
	h := hash.DJB(hash.String(d.typ), hash.String(d.key))
	for _, p := range d.props {
		h = hash.DJBCombine(h, hash.String(p.Name))
		h = hash.DJBCombine(h, hashValue(p.Value))
	}
	for _, m := range d.modifiers {
		h = hash.DJBCombine(h, hash.String(m.Type))
		h = hash.DJBCombine(h, hashValue(m.Value))
	}
	for _, c := range d.children {
		h = hash.DJBCombine(h, c.fingerprint)
	}
	return h
}

// funcValueHash stands in for any function-valued prop or modifier, which
// cannot participate in structural hashing.
const funcValueHash uint64 = 0x66756e63 // "func"

func hashValue(v any) uint64 {
	switch v := v.(type) {
	case nil:
		return 0
	case string:
		return hash.String(v)
	case bool:
		return hash.Bool(v)
	case int:
		return hash.UInt64(uint64(v))
	case int64:
		return hash.UInt64(uint64(v))
	case uint64:
		return hash.UInt64(v)
	case float64:
		return hash.UInt64(uint64(int64(v*1024)))
	case *Desc:
		return v.fingerprint
	default:
		if reflect.ValueOf(v).Kind() == reflect.Func {
			return funcValueHash
		}
		return hash.String(reflect.TypeOf(v).String())
	}
}

// Equal reports whether two descriptors are structurally equal. It returns
// true iff the fingerprints match and a full field-by-field comparison also
// matches. Function-valued props and modifiers always compare equal, since a
// producer allocates fresh closures on every build.
func Equal(a, b *Desc) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil {
		return false
	}
	if a.fingerprint != b.fingerprint {
		return false
	}
	if a.typ != b.typ || a.key != b.key {
		return false
	}
	if len(a.props) != len(b.props) || len(a.modifiers) != len(b.modifiers) ||
		len(a.children) != len(b.children) {
		return false
	}
	for i, p := range a.props {
		q := b.props[i]
		if p.Name != q.Name || !ValueEqual(p.Value, q.Value) {
			return false
		}
	}
	for i, m := range a.modifiers {
		n := b.modifiers[i]
		if m.Type != n.Type || !ValueEqual(m.Value, n.Value) {
			return false
		}
	}
	for i, c := range a.children {
		if !Equal(c, b.children[i]) {
			return false
		}
	}
	return true
}

// ValueEqual reports whether two property or modifier values are equal under
// the descriptor model's rules: function values always compare equal, nested
// descriptors compare structurally, and other values compare with == when
// comparable.
func ValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == b
	}
	if isFunc(a) || isFunc(b) {
		return isFunc(a) && isFunc(b)
	}
	if d, ok := a.(*Desc); ok {
		e, ok := b.(*Desc)
		return ok && Equal(d, e)
	}
	ra := reflect.ValueOf(a)
	if ra.Comparable() {
		return a == b
	}
	return reflect.DeepEqual(a, b)
}

func isFunc(v any) bool {
	return reflect.ValueOf(v).Kind() == reflect.Func
}
