package mathx

import "testing"

func TestClamp(t *testing.T) {
	if got := Clamp(20, 0, 14); got != 14 {
		t.Fatalf("Clamp(20,0,14) = %d", got)
	}
	if got := Clamp(-3, 14, 0); got != 0 {
		t.Fatalf("Clamp with swapped bounds = %d", got)
	}
	if got := Clamp(uint16(7), 0, 14); got != 7 {
		t.Fatalf("Clamp in range = %d", got)
	}
}

func TestMinMax(t *testing.T) {
	if Min(3, 9) != 3 || Max(3, 9) != 9 {
		t.Fatal("Min/Max wrong")
	}
}

func TestBits(t *testing.T) {
	if got := Bits[uint8](); got != 8 {
		t.Fatalf("Bits[uint8] = %d", got)
	}
	if got := Bits[uint16](); got != 16 {
		t.Fatalf("Bits[uint16] = %d", got)
	}
	if got := Bits[uint64](); got != 64 {
		t.Fatalf("Bits[uint64] = %d", got)
	}
}

func TestCeilDiv(t *testing.T) {
	cases := []struct{ a, b, want uint }{
		{15, 4, 4},
		{16, 4, 4},
		{15, 1, 15},
		{1, 15, 1},
		{5, 0, 0},
	}
	for _, c := range cases {
		if got := CeilDiv(c.a, c.b); got != c.want {
			t.Fatalf("CeilDiv(%d,%d) = %d, want %d", c.a, c.b, got, c.want)
		}
	}
}
