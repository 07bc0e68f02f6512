package interview

import "strings"

// DefaultDedupThreshold is the similarity above which a candidate
// question counts as a near-duplicate of a prior one.
const DefaultDedupThreshold = 0.8

// stopwords are filler tokens ignored by the token-overlap score; they
// carry no diagnostic content and differ freely across phrasings of the
// same question ("Do you have a fever?" / "Have you had any fever?").
var stopwords = map[string]bool{
	"a": true, "an": true, "the": true, "any": true, "some": true,
	"do": true, "does": true, "did": true, "have": true, "has": true,
	"had": true, "is": true, "are": true, "was": true, "were": true,
	"you": true, "your": true, "there": true, "been": true, "ever": true,
	"or": true, "and": true, "of": true, "in": true, "on": true,
	"to": true, "at": true, "it": true,
}

// IsDuplicate reports whether candidate is a near-duplicate of any entry
// in history at the given threshold.
func IsDuplicate(candidate string, history []string, threshold float64) bool {
	for _, prior := range history {
		if Similarity(candidate, prior) >= threshold {
			return true
		}
	}
	return false
}

// Similarity scores two questions in [0,1]. Both inputs are normalized
// (case, punctuation, whitespace); the score is the better of a
// character-level LCS sequence ratio and a content-token overlap
// coefficient. The sequence ratio catches rewordings that share long
// runs; the token overlap catches paraphrases where inflection changes
// ("have"/"had") break the character alignment.
func Similarity(a, b string) float64 {
	na, nb := normalizeQuestion(a), normalizeQuestion(b)
	if na == "" || nb == "" {
		return 0
	}
	if na == nb {
		return 1
	}

	score := lcsRatio(na, nb)
	if t := tokenOverlap(na, nb); t > score {
		score = t
	}
	return score
}

// normalizeQuestion lowercases, strips punctuation, and collapses
// whitespace.
func normalizeQuestion(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	lastSpace := true
	for _, r := range strings.ToLower(s) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastSpace = false
		default:
			if !lastSpace {
				b.WriteByte(' ')
				lastSpace = true
			}
		}
	}
	return strings.TrimSpace(b.String())
}

// lcsRatio is 2*LCS(a,b) / (len(a)+len(b)) over bytes of the normalized
// strings.
func lcsRatio(a, b string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	// Single-row DP; b is the inner dimension.
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				cur[j] = prev[j-1] + 1
			} else if prev[j] >= cur[j-1] {
				cur[j] = prev[j]
			} else {
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}

	lcs := prev[len(b)]
	return 2 * float64(lcs) / float64(len(a)+len(b))
}

// tokenOverlap is |shared content tokens| / min(|A|,|B|) after stopword
// removal. Returns 0 when either side has no content tokens, leaving the
// decision to the sequence ratio.
func tokenOverlap(a, b string) float64 {
	ta := contentTokens(a)
	tb := contentTokens(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	shared := 0
	for tok := range ta {
		if tb[tok] {
			shared++
		}
	}

	minLen := len(ta)
	if len(tb) < minLen {
		minLen = len(tb)
	}
	return float64(shared) / float64(minLen)
}

func contentTokens(s string) map[string]bool {
	out := make(map[string]bool)
	for _, tok := range strings.Fields(s) {
		if !stopwords[tok] {
			out[tok] = true
		}
	}
	return out
}
