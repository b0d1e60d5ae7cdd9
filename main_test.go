package main

import (
	"strings"
	"testing"
)

// All 41 rows of the bench demo, five per line. Realignments fall on rows
// 15 and 31.
const demoGolden = "" +
	"0011 0101 0011 0001 0011 " +
	"0111 0001 0010 0001 0111 " +
	"0011 0001 0011 0101 0011 " +
	"0011 0101 0011 0001 0011 " +
	"0111 0001 0010 0001 0111 " +
	"0011 0001 0011 0101 0011 " +
	"0011 0011 0101 0011 0001 " +
	"0011 0111 0001 0010 0001 " +
	"0111"

func TestBenchDemoGolden(t *testing.T) {
	got, err := demoRows(rows)
	if err != nil {
		t.Fatal(err)
	}
	want := strings.Fields(demoGolden)
	if len(got) != len(want) || len(want) != 41 {
		t.Fatalf("%d rows, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("row %d = %s, want %s", i, got[i], want[i])
		}
	}
}

// The first window carries exactly each channel's level.
func TestBenchDemoFirstWindow(t *testing.T) {
	lines, err := demoRows(resolution)
	if err != nil {
		t.Fatal(err)
	}
	ones := [pins]int{}
	for _, r := range lines {
		if r[0] != '0' {
			t.Fatalf("channel 0 on in row %q", r)
		}
		for i := range r {
			if r[i] == '1' {
				ones[i]++
			}
		}
	}
	if ones != [pins]int{0, 4, 9, 14} {
		t.Fatalf("on counts per channel = %v", ones)
	}
}
