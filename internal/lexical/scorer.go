package lexical

import (
	"sort"
	"strings"
)

// Scorer returns a similarity in [0,100] between a query and a candidate.
type Scorer func(query, choice string) float64

const (
	unbaseScale  = 0.95
	partialScale = 0.9
	longScale    = 0.6
)

// Ratio is the normalized indel similarity: 100 * 2*LCS / (len(a)+len(b)).
func Ratio(s1, s2 string) float64 {
	return ratioRunes([]rune(s1), []rune(s2))
}

func ratioRunes(a, b []rune) float64 {
	total := len(a) + len(b)
	if total == 0 {
		return 100
	}
	return 100 * float64(2*LCSLength(a, b)) / float64(total)
}

// PartialRatio aligns the shorter string against every window of the longer one
// (including windows clipped at either edge) and returns the best Ratio.
func PartialRatio(s1, s2 string) float64 {
	a, b := []rune(s1), []rune(s2)
	if len(a) == 0 || len(b) == 0 {
		if len(a) == len(b) {
			return 100
		}
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	best := partialWindows(a, b)
	if len(a) == len(b) && best < 100 {
		best = max(best, partialWindows(b, a))
	}
	return best
}

func partialWindows(short, long []rune) float64 {
	m := len(short)
	best := 0.0
	for i := 1; i < m && i <= len(long); i++ {
		best = max(best, ratioRunes(short, long[:i]))
	}
	for i := 0; i+m <= len(long); i++ {
		best = max(best, ratioRunes(short, long[i:i+m]))
		if best == 100 {
			return best
		}
	}
	for i := max(len(long)-m+1, 1); i < len(long); i++ {
		best = max(best, ratioRunes(short, long[i:]))
	}
	return best
}

// TokenSortRatio compares the strings after sorting their whitespace-separated tokens.
func TokenSortRatio(s1, s2 string) float64 {
	return Ratio(sortedJoin(strings.Fields(s1)), sortedJoin(strings.Fields(s2)))
}

// TokenSetRatio compares the shared tokens against each side's full token set, so that
// a candidate containing all of the query's tokens scores 100.
func TokenSetRatio(s1, s2 string) float64 {
	t1, t2 := tokenSet(s1), tokenSet(s2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}
	inter, diff12, diff21 := splitTokens(t1, t2)
	if len(inter) > 0 && (len(diff12) == 0 || len(diff21) == 0) {
		return 100
	}
	sect := strings.Join(inter, " ")
	combined12 := strings.TrimSpace(sect + " " + strings.Join(diff12, " "))
	combined21 := strings.TrimSpace(sect + " " + strings.Join(diff21, " "))
	best := Ratio(combined12, combined21)
	if sect != "" {
		best = max(best, Ratio(sect, combined12), Ratio(sect, combined21))
	}
	return best
}

// TokenRatio is the better of TokenSortRatio and TokenSetRatio.
func TokenRatio(s1, s2 string) float64 {
	return max(TokenSortRatio(s1, s2), TokenSetRatio(s1, s2))
}

// PartialTokenRatio is 100 when the token sets intersect, otherwise the PartialRatio
// of the sorted token strings.
func PartialTokenRatio(s1, s2 string) float64 {
	t1, t2 := tokenSet(s1), tokenSet(s2)
	if len(t1) == 0 || len(t2) == 0 {
		return 0
	}
	if inter, _, _ := splitTokens(t1, t2); len(inter) > 0 {
		return 100
	}
	return PartialRatio(strings.Join(t1, " "), strings.Join(t2, " "))
}

// WRatio is a weighted ratio: plain Ratio for similar-length strings, blended with
// token-aware scores; substring (partial) scores take over as the length gap grows.
func WRatio(s1, s2 string) float64 {
	if s1 == "" || s2 == "" {
		return 0
	}
	len1, len2 := len([]rune(s1)), len([]rune(s2))
	lenRatio := float64(max(len1, len2)) / float64(min(len1, len2))

	end := Ratio(s1, s2)
	if lenRatio < 1.5 {
		return max(end, TokenRatio(s1, s2)*unbaseScale)
	}
	scale := partialScale
	if lenRatio >= 8 {
		scale = longScale
	}
	end = max(end, PartialRatio(s1, s2)*scale)
	return max(end, PartialTokenRatio(s1, s2)*unbaseScale*scale)
}

func sortedJoin(tokens []string) string {
	sorted := append([]string(nil), tokens...)
	sort.Strings(sorted)
	return strings.Join(sorted, " ")
}

// tokenSet returns the sorted unique whitespace-separated tokens of s.
func tokenSet(s string) []string {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return nil
	}
	sort.Strings(fields)
	out := fields[:1]
	for _, f := range fields[1:] {
		if f != out[len(out)-1] {
			out = append(out, f)
		}
	}
	return out
}

// splitTokens partitions two sorted unique token lists.
func splitTokens(t1, t2 []string) (inter, only1, only2 []string) {
	i, j := 0, 0
	for i < len(t1) && j < len(t2) {
		switch {
		case t1[i] == t2[j]:
			inter = append(inter, t1[i])
			i++
			j++
		case t1[i] < t2[j]:
			only1 = append(only1, t1[i])
			i++
		default:
			only2 = append(only2, t2[j])
			j++
		}
	}
	only1 = append(only1, t1[i:]...)
	only2 = append(only2, t2[j:]...)
	return inter, only1, only2
}
