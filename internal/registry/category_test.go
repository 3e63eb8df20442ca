package registry_test

import (
	"testing"

	"studio/internal/registry"
)

func TestCategoryFor(t *testing.T) {
	tests := []struct {
		imageType, mode string
		want            registry.Category
		wantErr         bool
	}{
		{"character", "text", registry.CategoryCharacterText, false},
		{"character", "ref", registry.CategoryCharacterReference, false},
		{"Background", "reference", registry.CategoryBackgroundReference, false},
		{"background", "text", registry.CategoryBackgroundText, false},
		{"prop", "text", "", true},
		{"character", "sketch", "", true},
	}
	for _, tt := range tests {
		got, err := registry.CategoryFor(tt.imageType, tt.mode)
		if (err != nil) != tt.wantErr {
			t.Fatalf("CategoryFor(%q,%q) err=%v wantErr=%v", tt.imageType, tt.mode, err, tt.wantErr)
		}
		if got != tt.want {
			t.Fatalf("CategoryFor(%q,%q)=%q want %q", tt.imageType, tt.mode, got, tt.want)
		}
	}
}

func TestCategoryAccessors(t *testing.T) {
	c := registry.CategoryBackgroundReference
	if c.ImageType() != "background" || c.Mode() != "reference" || !c.IsReference() {
		t.Fatalf("unexpected accessors for %s", c)
	}
	if got := registry.CategoryCharacterText.Label(); got != "Character Image By Text" {
		t.Fatalf("unexpected label %q", got)
	}
	if _, err := registry.ParseCategory(" character-image-by-text "); err != nil {
		t.Fatalf("ParseCategory: %v", err)
	}
	if _, err := registry.ParseCategory("unknown"); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestControlBoardSnapshot(t *testing.T) {
	board := registry.NewControlBoard()
	controls := board.Bind(registry.DefaultControlIDs())
	control, ok := controls.Resolve(registry.CategoryBackgroundText)
	if !ok {
		t.Fatal("expected control for background text")
	}
	control.SetBusy(true)

	states := board.Snapshot()
	if len(states) != 4 {
		t.Fatalf("expected 4 controls, got %d", len(states))
	}
	busy := 0
	for _, s := range states {
		if s.Busy {
			busy++
			if s.ID != "btn-background-text-generate" {
				t.Fatalf("unexpected busy control %s", s.ID)
			}
		}
	}
	if busy != 1 {
		t.Fatalf("expected exactly one busy control, got %d", busy)
	}
}
