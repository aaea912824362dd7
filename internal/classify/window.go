package classify

import (
	"cmp"
	"slices"
	"strings"
	"unicode/utf8"
)

// DefaultWindow is the most tokens sent to the classifier in one request.
// Longer narratives are split into overlapping windows.
const (
	DefaultWindow = 400
	windowOverlap = 50
)

// EstimateTokens approximates a token count at about 1.33 tokens per word.
func EstimateTokens(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	return max(int(float64(words)*1.33), 1)
}

// Windows splits text into passages of at most size tokens, breaking on
// paragraphs first and sentences inside long paragraphs. Consecutive
// passages share roughly overlap tokens.
func Windows(text string, size, overlap int) []string {
	if EstimateTokens(text) <= size {
		return []string{strings.TrimSpace(text)}
	}
	var out []string
	var cur []string
	curTokens := 0
	fresh := false

	flush := func(sep string) {
		joined := strings.Join(cur, sep)
		out = append(out, joined)
		cur, curTokens, fresh = nil, 0, false
		if tail := lastWords(joined, overlap); tail != "" {
			cur = []string{tail}
			curTokens = EstimateTokens(tail)
		}
	}

	for _, para := range paragraphs(text) {
		n := EstimateTokens(para)
		if n > size {
			for _, sent := range sentences(para) {
				sn := EstimateTokens(sent)
				if curTokens+sn > size && fresh {
					flush(" ")
				}
				cur = append(cur, sent)
				curTokens += sn
				fresh = true
			}
			continue
		}
		if curTokens+n > size && fresh {
			flush("\n\n")
		}
		cur = append(cur, para)
		curTokens += n
		fresh = true
	}
	if fresh {
		out = append(out, strings.Join(cur, "\n\n"))
	}
	return out
}

func paragraphs(text string) []string {
	var out []string
	for p := range strings.SplitSeq(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func sentences(text string) []string {
	var out []string
	start := 0
	for i, r := range text {
		if !strings.ContainsRune(".!?।", r) {
			continue
		}
		end := i + utf8.RuneLen(r)
		if end == len(text) || text[end] == ' ' || text[end] == '\n' {
			if s := strings.TrimSpace(text[start:end]); s != "" {
				out = append(out, s)
			}
			start = end
		}
	}
	if s := strings.TrimSpace(text[start:]); s != "" {
		out = append(out, s)
	}
	return out
}

// lastWords returns the trailing words of text worth about tokens tokens.
func lastWords(text string, tokens int) string {
	words := strings.Fields(text)
	n := int(float64(tokens) / 1.33)
	if n <= 0 || len(words) <= n {
		return ""
	}
	return strings.Join(words[len(words)-n:], " ")
}

// merge combines per-window predictions, keeping each section's highest
// probability, most probable first, at most topK.
func merge(groups [][]Section, topK int) []Section {
	var out []Section
	seen := make(map[string]int)
	for _, g := range groups {
		for _, s := range g {
			key := s.Act + " " + s.Code
			if i, ok := seen[key]; ok {
				if s.Probability > out[i].Probability {
					out[i].Probability = s.Probability
				}
				if out[i].Title == "" {
					out[i].Title = s.Title
				}
				continue
			}
			seen[key] = len(out)
			out = append(out, s)
		}
	}
	slices.SortStableFunc(out, func(a, b Section) int {
		return cmp.Compare(b.Probability, a.Probability)
	})
	if topK > 0 && len(out) > topK {
		out = out[:topK]
	}
	return out
}
