package strx

import "testing"

func TestCoalesce(t *testing.T) {
	if got := Coalesce("", "pico", "host"); got != "pico" {
		t.Fatalf("got %q", got)
	}
	if got := Coalesce("", ""); got != "" {
		t.Fatalf("got %q", got)
	}
	if got := Coalesce(); got != "" {
		t.Fatalf("got %q", got)
	}
}
