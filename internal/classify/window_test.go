package classify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
)

func TestWindows_ShortTextIsOneWindow(t *testing.T) {
	got := Windows("  my phone was snatched near the bus stop  ", DefaultWindow, windowOverlap)
	if len(got) != 1 {
		t.Fatalf("expected 1 window, got %d", len(got))
	}
	if got[0] != "my phone was snatched near the bus stop" {
		t.Errorf("unexpected window %q", got[0])
	}
}

func TestWindows_LongParagraphSplitsOnSentences(t *testing.T) {
	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 300)
	got := Windows(text, 400, 50)

	if len(got) < 5 {
		t.Fatalf("expected at least 5 windows, got %d", len(got))
	}
	for i, w := range got {
		if n := EstimateTokens(w); n > 440 {
			t.Errorf("window %d has %d tokens", i, n)
		}
		if !strings.HasSuffix(w, "dog.") {
			t.Errorf("window %d does not end on a sentence: %q", i, w[len(w)-20:])
		}
	}
	tail := lastWords(got[0], 50)
	if tail == "" || !strings.HasPrefix(got[1], tail) {
		t.Errorf("expected window 1 to start with the overlap %q", tail)
	}
}

func TestWindows_Paragraphs(t *testing.T) {
	para := func(word string) string { return strings.TrimSpace(strings.Repeat(word+" ", 200)) }
	text := para("alpha") + "\n\n" + para("beta") + "\n\n" + para("gamma")

	got := Windows(text, 300, 20)
	if len(got) != 3 {
		t.Fatalf("expected 3 windows, got %d", len(got))
	}
	if got[0] != para("alpha") {
		t.Errorf("expected first window to be the first paragraph")
	}
	if !strings.HasSuffix(got[2], para("gamma")) {
		t.Errorf("expected last window to end with the last paragraph")
	}
}

func TestSentences_Danda(t *testing.T) {
	got := sentences("मेरा फोन चोरी हो गया। वह भाग गया। Then he ran")
	if len(got) != 3 {
		t.Fatalf("expected 3 sentences, got %d: %q", len(got), got)
	}
	if got[2] != "Then he ran" {
		t.Errorf("unexpected last sentence %q", got[2])
	}
}

func TestEstimateTokens(t *testing.T) {
	if n := EstimateTokens(""); n != 0 {
		t.Errorf("expected 0, got %d", n)
	}
	if n := EstimateTokens("one"); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
	if n := EstimateTokens(strings.Repeat("w ", 300)); n != 399 {
		t.Errorf("expected 399, got %d", n)
	}
}

func TestMerge(t *testing.T) {
	got := merge([][]Section{
		{{Act: "BNS", Code: "303", Probability: 0.6}, {Act: "BNS", Code: "115", Probability: 0.1}},
		{{Act: "BNS", Code: "109", Title: "Attempt to murder", Probability: 0.9}, {Act: "BNS", Code: "303", Title: "Theft", Probability: 0.2}},
	}, 2)

	if len(got) != 2 {
		t.Fatalf("expected 2 sections, got %d", len(got))
	}
	if got[0].Code != "109" || got[1].Code != "303" {
		t.Errorf("unexpected order %+v", got)
	}
	if got[1].Probability != 0.6 || got[1].Title != "Theft" {
		t.Errorf("expected 303 to keep 0.6 and pick up its title, got %+v", got[1])
	}
}

func TestPredict_LongNarrativeIsWindowed(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		var req predictRequest
		json.NewDecoder(r.Body).Decode(&req)
		if strings.Contains(req.Text, "knife") {
			w.Write([]byte(`{"sections":[{"section":"109","title":"Attempt to murder","probability":0.9},{"section":"303","probability":0.2}]}`))
			return
		}
		w.Write([]byte(`{"sections":[{"section":"303","title":"Theft","probability":0.6}]}`))
	}))
	defer srv.Close()

	text := strings.Repeat("phone ", 30) + "\n\n" + strings.Repeat("knife ", 30)
	got, err := NewClient(srv.URL, 3).WithWindow(50).WithRetry(fastRetry).Predict(context.Background(), text)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls.Load() != 2 {
		t.Errorf("expected 2 classifier calls, got %d", calls.Load())
	}
	if len(got) != 2 || got[0].Code != "109" || got[1].Code != "303" {
		t.Fatalf("unexpected sections %+v", got)
	}
	if got[1].Probability != 0.6 {
		t.Errorf("expected merged probability 0.6, got %v", got[1].Probability)
	}
}
