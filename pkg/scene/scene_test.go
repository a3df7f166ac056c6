package scene

import (
	"strings"
	"testing"

	"github.com/vtree-ui/vtree/pkg/decl"
	"github.com/vtree-ui/vtree/pkg/must"
)

var sceneDoc = strings.TrimLeft(`
type: column
props: {gap: 2}
children:
  - text: hello
  - type: button
    key: ok
    props: {title: OK}
    modifiers:
      - type: padding
        value: 4
`, "\n")

func TestReadString(t *testing.T) {
	got := must.OK1(ReadString(sceneDoc))
	want := decl.New("column", map[string]any{"gap": 2},
		decl.Text("hello"),
		decl.New("button", map[string]any{"title": "OK"}).
			WithKey("ok").
			WithModifier(decl.Modifier{Type: "padding", Value: 4}),
	)
	if !decl.Equal(got, want) {
		t.Errorf("parsed scene differs from expected descriptor")
	}
}

func TestReadString_FingerprintStable(t *testing.T) {
	a := must.OK1(ReadString(sceneDoc))
	b := must.OK1(ReadString(sceneDoc))
	if a.Fingerprint() != b.Fingerprint() {
		t.Errorf("same document, different fingerprints")
	}
}

func TestRead(t *testing.T) {
	got := must.OK1(Read(strings.NewReader("type: row")))
	if got.Type() != "row" {
		t.Errorf("Type = %q, want row", got.Type())
	}
}

func TestReadString_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"missing type", "props: {a: 1}"},
		{"missing type in child", "type: row\nchildren:\n  - props: {a: 1}"},
		{"text shorthand on other type", "type: row\ntext: x"},
		{"modifier missing type", "type: row\nmodifiers:\n  - value: 3"},
		{"malformed yaml", "type: [unclosed"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if _, err := ReadString(test.doc); err == nil {
				t.Errorf("no error for %q", test.doc)
			}
		})
	}
}
