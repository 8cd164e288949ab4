package matching

// Scorer computes a similarity ratio between two strings after
// normalization.  The ratio is the classic sequence-matcher measure
// 2*M / (len(a) + len(b)), where M is the total length of the matching
// blocks found by a greedy longest-matching-block search over runes.
type Scorer struct {
	normalizer *Normalizer
}

// NewScorer wires a scorer over the given normalizer.
func NewScorer(n *Normalizer) *Scorer {
	return &Scorer{normalizer: n}
}

// Ratio normalizes both inputs and returns their similarity in [0, 1].
// If either input normalizes to the empty string the ratio is 0.0, so
// blank or all-stop-word text never matches anything.  The measure is
// symmetric over the normalized forms.
func (s *Scorer) Ratio(a, b string) float64 {
	na := s.normalizer.Normalize(a)
	nb := s.normalizer.Normalize(b)
	if na == "" || nb == "" {
		return 0.0
	}
	ra, rb := []rune(na), []rune(nb)
	matched := totalMatching(ra, rb)
	return 2.0 * float64(matched) / float64(len(ra)+len(rb))
}

// totalMatching sums the lengths of the matching blocks between a and b:
// repeatedly find the longest common block, then recurse into the regions
// left and right of it.  Processed iteratively with an explicit queue.
func totalMatching(a, b []rune) int {
	b2j := make(map[rune][]int, len(b))
	for j, r := range b {
		b2j[r] = append(b2j[r], j)
	}

	type region struct{ alo, ahi, blo, bhi int }
	queue := []region{{0, len(a), 0, len(b)}}
	total := 0
	for len(queue) > 0 {
		rg := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		i, j, size := longestMatch(a, b2j, rg.alo, rg.ahi, rg.blo, rg.bhi)
		if size == 0 {
			continue
		}
		total += size
		if rg.alo < i && rg.blo < j {
			queue = append(queue, region{rg.alo, i, rg.blo, j})
		}
		if i+size < rg.ahi && j+size < rg.bhi {
			queue = append(queue, region{i + size, rg.ahi, j + size, rg.bhi})
		}
	}
	return total
}

// longestMatch finds the longest block a[i:i+size] == b[j:j+size] within the
// given bounds, preferring the earliest block on ties.  j2len[j] tracks the
// length of the match ending at a[i-1], b[j]; one pass over a extends or
// restarts those runs.
func longestMatch(a []rune, b2j map[rune][]int, alo, ahi, blo, bhi int) (besti, bestj, bestsize int) {
	besti, bestj = alo, blo
	j2len := make(map[int]int)
	for i := alo; i < ahi; i++ {
		newj2len := make(map[int]int)
		for _, j := range b2j[a[i]] {
			if j < blo {
				continue
			}
			if j >= bhi {
				break
			}
			k := j2len[j-1] + 1
			newj2len[j] = k
			if k > bestsize {
				besti, bestj, bestsize = i-k+1, j-k+1, k
			}
		}
		j2len = newj2len
	}
	return besti, bestj, bestsize
}
