package models

import (
	"testing"
)

func TestParseWordLocation(t *testing.T) {
	tests := []struct {
		in   string
		want Location
		ok   bool
	}{
		{"54:26:4", Location{54, 26, 4}, true},
		{"DOC_QURAN_HAFS:12:23:TOK_05", Location{12, 23, 5}, true},
		{" 1:1:1 ", Location{1, 1, 1}, true},
		{"1:1:tok_7", Location{1, 1, 7}, true},
		{"1:1", Location{}, false},
		{"a:1:1", Location{}, false},
		{"1:1:TOK_x", Location{}, false},
		{"", Location{}, false},
	}
	for _, tt := range tests {
		got, ok := ParseWordLocation(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("ParseWordLocation(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestLocationString(t *testing.T) {
	if got := (Location{Surah: 2, Ayah: 255, TokenIndex: 3}).String(); got != "2:255:3" {
		t.Errorf("got %q", got)
	}
}

func TestComposeIDs(t *testing.T) {
	if got := ComposeContainerID(18); got != "C:QURAN:18" {
		t.Errorf("container: %q", got)
	}
	if got := ComposeAyahUnitID(18, 10); got != "U:C:QURAN:18:10" {
		t.Errorf("ayah unit: %q", got)
	}
	if got := ComposePassageUnitID(18, 9, 12); got != "U:C:QURAN:18:9-12" {
		t.Errorf("passage unit: %q", got)
	}
	if got := ComposePassageUnitID(18, 9, 9); got != "U:C:QURAN:18:9" {
		t.Errorf("single verse passage: %q", got)
	}
}

func TestLemmaLocationRow_Locate(t *testing.T) {
	intp := func(v int) *int { return &v }
	strp := func(v string) *string { return &v }

	tests := []struct {
		name        string
		row         LemmaLocationRow
		surah, ayah int
		want        Location
		ok          bool
	}{
		{"explicit fields", LemmaLocationRow{Surah: intp(2), Ayah: intp(3), TokenIndex: intp(4)}, 0, 0, Location{2, 3, 4}, true},
		{"from word location", LemmaLocationRow{WordLocation: strp("54:26:4")}, 0, 0, Location{54, 26, 4}, true},
		{"fallback verse", LemmaLocationRow{TokenIndex: intp(1)}, 1, 7, Location{1, 7, 1}, true},
		{"token index overrides location", LemmaLocationRow{WordLocation: strp("54:26:4"), TokenIndex: intp(9)}, 0, 0, Location{54, 26, 9}, true},
		{"no position", LemmaLocationRow{}, 1, 1, Location{}, false},
		{"no verse", LemmaLocationRow{TokenIndex: intp(1)}, 0, 0, Location{}, false},
		{"bad word location falls back", LemmaLocationRow{WordLocation: strp("x"), TokenIndex: intp(2)}, 3, 4, Location{3, 4, 2}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.row.Locate(tt.surah, tt.ayah)
			if ok != tt.ok || got != tt.want {
				t.Errorf("Locate() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestStringHelpers(t *testing.T) {
	if StringPtr("") != nil {
		t.Error("expected nil for empty string")
	}
	if p := StringPtr("x"); p == nil || *p != "x" {
		t.Error("expected pointer to x")
	}
	if StringOr(nil, "f") != "f" || StringOr(StringPtr("v"), "f") != "v" {
		t.Error("StringOr fallback mismatch")
	}
}
