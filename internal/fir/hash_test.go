package fir

import "testing"

func TestContentHashHex_Consistency(t *testing.T) {
	data := []byte("hello world")
	h1 := ContentHashHex(data)
	h2 := ContentHashHex(data)
	if h1 != h2 {
		t.Errorf("expected identical hashes, got %q and %q", h1, h2)
	}
	want := "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9"
	if h1 != want {
		t.Errorf("expected hash %q, got %q", want, h1)
	}
}

func TestDocumentHash_KeyOrderIndependent(t *testing.T) {
	a, err := DocumentHash(map[string]any{"a": 1, "b": []any{"x"}})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	b, _ := DocumentHash(map[string]any{"b": []any{"x"}, "a": 1})
	if a != b {
		t.Errorf("expected equal hashes, got %q and %q", a, b)
	}
	c, _ := DocumentHash(map[string]any{"a": 2, "b": []any{"x"}})
	if a == c {
		t.Error("expected different hashes for different documents")
	}
}
