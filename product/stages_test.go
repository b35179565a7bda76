package product

import "testing"

func TestDefaultStages(t *testing.T) {
	s := DefaultStages

	if s.Max() != Delivered {
		t.Errorf("Max() = %d, want %d", s.Max(), Delivered)
	}
	if !s.Terminal(Delivered) || s.Terminal(InTransit) {
		t.Error("only Delivered should be terminal")
	}

	tests := []struct {
		status Status
		valid  bool
		name   string
	}{
		{Manufactured, true, "Manufactured"},
		{InTransit, true, "InTransit"},
		{Delivered, true, "Delivered"},
		{3, false, "Status(3)"},
		{255, false, "Status(255)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Valid(tt.status); got != tt.valid {
				t.Errorf("Valid(%d) = %v, want %v", tt.status, got, tt.valid)
			}
			if got := s.Name(tt.status); got != tt.name {
				t.Errorf("Name(%d) = %q, want %q", tt.status, got, tt.name)
			}
		})
	}
}

func TestStagesParse(t *testing.T) {
	s := Stages{"Manufactured", "InTransit", "Customs", "Delivered"}

	st, ok := s.Parse(" customs ")
	if !ok || st != 2 {
		t.Errorf("Parse(customs) = (%d, %v), want (2, true)", st, ok)
	}
	if _, ok := s.Parse("Recalled"); ok {
		t.Error("expected unknown stage to fail")
	}
	if s.Max() != 3 {
		t.Errorf("Max() = %d, want 3", s.Max())
	}
}

func TestStagesClone(t *testing.T) {
	s := Stages{"A", "B", "C"}
	c := s.Clone()
	c[0] = "Z"
	if s[0] != "A" {
		t.Error("Clone shares storage with the original")
	}
}

func TestEmptyStages(t *testing.T) {
	var s Stages
	if s.Valid(0) {
		t.Error("empty enumeration has no valid status")
	}
	if s.Terminal(0) {
		t.Error("empty enumeration has no terminal status")
	}
}
