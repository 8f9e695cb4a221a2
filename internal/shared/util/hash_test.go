package util

import "testing"

func TestContentHashStable(t *testing.T) {
	a := ContentHash("What is this? It is a test.")
	b := ContentHash("What is this? It is a test.")
	if a != b {
		t.Fatalf("expected identical hashes, got %s and %s", a, b)
	}
	if len(a) != 64 {
		t.Fatalf("expected 64 hex chars, got %d", len(a))
	}
}

func TestContentHashDistinct(t *testing.T) {
	if ContentHash("a") == ContentHash("b") {
		t.Fatal("expected different hashes for different inputs")
	}
}

func TestSanitizeFileNameTable(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"report.pdf", "report.pdf", false},
		{" notes.txt ", "notes.txt", false},
		{"a/b.pdf", "a_b.pdf", false},
		{"a\\b.pdf", "a_b.pdf", false},
		{"../../etc/passwd", "", true},
		{"   ", "", true},
	}
	for _, tc := range cases {
		got, err := SanitizeFileName(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Fatalf("SanitizeFileName(%q): expected error", tc.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("SanitizeFileName(%q): %v", tc.in, err)
		}
		if got != tc.want {
			t.Fatalf("SanitizeFileName(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
