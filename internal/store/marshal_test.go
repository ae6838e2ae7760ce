package store

import (
	"testing"

	"github.com/lyssym/opendial/internal/core"
	"github.com/lyssym/opendial/internal/rules"
)

func TestMarshalInput_Canonical(t *testing.T) {
	a, err := core.ParseAssignment("Y=1, X=a")
	if err != nil {
		t.Fatalf("ParseAssignment() failed: %v", err)
	}

	// Variables are sorted regardless of declaration order.
	if got := marshalInput(a); got != "X=a ^ Y=1" {
		t.Errorf("marshalInput() = %q, expected %q", got, "X=a ^ Y=1")
	}
}

func TestMarshalInput_Empty(t *testing.T) {
	if got := marshalInput(core.Assignment{}); got != "[]" {
		t.Errorf("marshalInput() = %q, expected %q", got, "[]")
	}
}

func TestUnmarshalInput_RoundTrip(t *testing.T) {
	original, err := core.ParseAssignment("X=a ^ Y=1")
	if err != nil {
		t.Fatalf("ParseAssignment() failed: %v", err)
	}

	got, err := unmarshalInput(marshalInput(original))
	if err != nil {
		t.Fatalf("unmarshalInput() failed: %v", err)
	}
	if !got.Equal(original) {
		t.Errorf("round trip changed assignment: %s vs %s", got.String(), original.String())
	}
}

func TestUnmarshalInput_EmptyText(t *testing.T) {
	got, err := unmarshalInput("")
	if err != nil {
		t.Fatalf("unmarshalInput() failed: %v", err)
	}
	if got.Size() != 0 {
		t.Errorf("expected empty assignment, got %s", got.String())
	}
}

func TestUnmarshalInput_Malformed(t *testing.T) {
	if _, err := unmarshalInput("not-an-assignment"); err == nil {
		t.Error("expected error for malformed input text")
	}
}

func TestMarshalEffect_Nil(t *testing.T) {
	if got := marshalEffect(nil); got != "Void" {
		t.Errorf("marshalEffect(nil) = %q, expected %q", got, "Void")
	}
}

func TestMarshalEffect_RoundTrip(t *testing.T) {
	original, err := rules.ParseEffect("Z:=2 ^ Y:=1")
	if err != nil {
		t.Fatalf("ParseEffect() failed: %v", err)
	}

	text := marshalEffect(original)
	if text != "Y:=1 ^ Z:=2" {
		t.Errorf("marshalEffect() = %q, expected canonical %q", text, "Y:=1 ^ Z:=2")
	}

	got, err := unmarshalEffect(text)
	if err != nil {
		t.Fatalf("unmarshalEffect() failed: %v", err)
	}
	if !got.Equal(original) {
		t.Errorf("round trip changed effect: %s vs %s", got.String(), original.String())
	}
}

func TestUnmarshalEffect_Void(t *testing.T) {
	got, err := unmarshalEffect("Void")
	if err != nil {
		t.Fatalf("unmarshalEffect() failed: %v", err)
	}
	if !got.Empty() {
		t.Errorf("expected void effect, got %s", got.String())
	}
}

func TestUnmarshalEffect_Malformed(t *testing.T) {
	if _, err := unmarshalEffect("Y=1"); err == nil {
		t.Error("expected error for effect text without := separator")
	}
}
