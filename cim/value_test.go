package cim_test

import (
	"math"
	"testing"

	"github.com/tony23/pywbem/cim"
)

func TestParseInteger_RangeRejected(t *testing.T) {
	t.Parallel()

	if _, err := cim.ParseInteger(cim.TypeUint8, "256"); err == nil {
		t.Error("ParseInteger(uint8, 256) error = nil, want range error")
	}
	v, err := cim.ParseInteger(cim.TypeUint8, "255")
	if err != nil {
		t.Fatalf("ParseInteger(uint8, 255) error = %v", err)
	}
	if v != cim.Uint8(255) {
		t.Errorf("ParseInteger(uint8, 255) = %v, want 255", v)
	}
}

func TestParseReal_SpecialForms(t *testing.T) {
	t.Parallel()

	v, err := cim.ParseReal(cim.TypeReal64, "NAN")
	if err != nil {
		t.Fatalf("ParseReal error = %v", err)
	}
	r, ok := v.(cim.Real64)
	if !ok || !math.IsNaN(float64(r)) {
		t.Errorf("ParseReal(NAN) = %v, want NaN", v)
	}
	if got := r.Render(); got != "NAN" {
		t.Errorf("Render() = %q, want NAN", got)
	}

	v, err = cim.ParseReal(cim.TypeReal64, "-INF")
	if err != nil {
		t.Fatalf("ParseReal error = %v", err)
	}
	if got := v.Render(); got != "-INF" {
		t.Errorf("Render() = %q, want -INF", got)
	}
}

func TestBoolean_RenderAndParse(t *testing.T) {
	t.Parallel()

	if got := cim.Boolean(true).Render(); got != "TRUE" {
		t.Errorf("Render() = %q, want TRUE", got)
	}
	for _, s := range []string{"true", "TRUE", "True"} {
		b, ok := cim.ParseBoolean(s)
		if !ok || !bool(b) {
			t.Errorf("ParseBoolean(%q) = (%v,%v), want (true,true)", s, b, ok)
		}
	}
}

func TestArray_Equal(t *testing.T) {
	t.Parallel()

	a := &cim.Array{Elem: cim.TypeString, Items: []cim.Value{cim.String("a"), cim.String("b")}}
	b := &cim.Array{Elem: cim.TypeString, Items: []cim.Value{cim.String("a"), cim.String("b")}}
	c := &cim.Array{Elem: cim.TypeString, Items: []cim.Value{cim.String("a"), cim.String("c")}}

	if !a.Equal(b) {
		t.Error("a.Equal(b) = false, want true")
	}
	if a.Equal(c) {
		t.Error("a.Equal(c) = true, want false")
	}
}
