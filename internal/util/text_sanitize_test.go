package util

import "testing"

func TestSanitizeTextRemovesNulAndControls(t *testing.T) {
	in := "ab\x00cd\x01\x02\n\txy"
	out := SanitizeText(in)
	if out != "abcd\n\txy" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSanitizeTextCollapsesBlankRuns(t *testing.T) {
	in := "first\n\n\n\n\nsecond\n\nthird"
	out := SanitizeText(in)
	if out != "first\n\nsecond\n\nthird" {
		t.Fatalf("unexpected sanitized output: %q", out)
	}
}

func TestSuffixTimestamp(t *testing.T) {
	got := SuffixTimestamp("notes.pdf", 1700000000)
	if got != "notes_1700000000.pdf" {
		t.Fatalf("unexpected suffixed name: %s", got)
	}
	got = SuffixTimestamp("clip.tar.mp4", 42)
	if got != "clip.tar_42.mp4" {
		t.Fatalf("unexpected suffixed name: %s", got)
	}
}
