package spec

import (
	"testing"
)

func TestGetPresetByYAML(t *testing.T) {
	raw := []byte(`
name: "  demo "
id: 7
params: {a: 1, t0: 0.2, b: 0.5, d: 0}
limits: {max_subintervals: 10}
draws: 1000
`)
	ps, err := GetPresetByYAML(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Name != "demo" || ps.ID != 7 || ps.Draws != 1000 {
		t.Fatalf("unexpected preset: %+v", ps)
	}
	if ps.Params.A != 1 || ps.Params.T0 != 0.2 || ps.Params.B != 0.5 {
		t.Fatalf("unexpected params: %+v", ps.Params)
	}
	if ps.Limits.MaxSubintervals != 10 {
		t.Fatalf("unexpected limits: %+v", ps.Limits)
	}
}

func TestGetPresetByJSON(t *testing.T) {
	raw := []byte(`{"name":"j","id":3,"params":{"a":2,"t0":0.1,"b":0.3,"d":-1}}`)
	ps, err := GetPresetByJSON(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ps.Params.D != -1 || ps.ID != 3 {
		t.Fatalf("unexpected preset: %+v", ps)
	}
}

func TestPresetInvalid(t *testing.T) {
	cases := map[string]string{
		"no name":        `{"id":1}`,
		"zero id":        `{"name":"x"}`,
		"negative draws": `{"name":"x","id":1,"draws":-1}`,
		"negative limit": `{"name":"x","id":1,"limits":{"max_terms":-5}}`,
		"bad json":       `{"name":`,
	}
	for name, raw := range cases {
		if _, err := GetPresetByJSON([]byte(raw)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}
