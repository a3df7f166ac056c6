// Package scene loads descriptor trees from YAML documents. Scenes give
// tests and tools a compact way to write trees down:
//
//	type: column
//	props: {gap: 2}
//	children:
//	  - text: hello
//	  - type: button
//	    key: ok
//	    props: {title: OK}
//	    modifiers:
//	      - type: padding
//	        value: 4
//
// A node with just a "text" field is shorthand for a text leaf.
package scene

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/vtree-ui/vtree/pkg/decl"
)

type nodeSpec struct {
	Type      string         `yaml:"type"`
	Key       string         `yaml:"key"`
	Text      *string        `yaml:"text"`
	Props     map[string]any `yaml:"props"`
	Modifiers []modifierSpec `yaml:"modifiers"`
	Children  []nodeSpec     `yaml:"children"`
}

type modifierSpec struct {
	Type  string `yaml:"type"`
	Value any    `yaml:"value"`
}

// Read parses one scene document from r.
func Read(r io.Reader) (*decl.Desc, error) {
	var spec nodeSpec
	if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return buildNode(spec, "/")
}

// ReadString parses one scene document from a string.
func ReadString(s string) (*decl.Desc, error) {
	var spec nodeSpec
	if err := yaml.Unmarshal([]byte(s), &spec); err != nil {
		return nil, fmt.Errorf("parse scene: %w", err)
	}
	return buildNode(spec, "/")
}

// Load parses the scene document in the named file.
func Load(fname string) (*decl.Desc, error) {
	f, err := os.Open(fname)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Read(f)
}

func buildNode(spec nodeSpec, where string) (*decl.Desc, error) {
	typ := spec.Type
	props := spec.Props
	if spec.Text != nil {
		if typ != "" && typ != decl.TextType {
			return nil, fmt.Errorf("node at %s: text shorthand on type %q", where, typ)
		}
		typ = decl.TextType
		if props == nil {
			props = map[string]any{}
		}
		props[decl.TextProp] = *spec.Text
	}
	if typ == "" {
		return nil, fmt.Errorf("node at %s: missing type", where)
	}

	children := make([]*decl.Desc, len(spec.Children))
	for i, c := range spec.Children {
		d, err := buildNode(c, fmt.Sprintf("%s%d/", where, i))
		if err != nil {
			return nil, err
		}
		children[i] = d
	}

	d := decl.New(typ, props, children...)
	if spec.Key != "" {
		d = d.WithKey(spec.Key)
	}
	for _, m := range spec.Modifiers {
		if m.Type == "" {
			return nil, fmt.Errorf("node at %s: modifier missing type", where)
		}
		d = d.WithModifier(decl.Modifier{Type: m.Type, Value: m.Value})
	}
	return d, nil
}
