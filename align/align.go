package align

// Result is the outcome of merging a set of ordered stop-id sequences.
//
// Supersequence contains every input sequence as an order-preserving
// subsequence. Mappings has one entry per input sequence, in input order;
// Mappings[k][i] is the Supersequence index at which sequence k's i-th
// element landed. Each mapping is injective and strictly increasing.
type Result struct {
	Supersequence []string
	Mappings      [][]int
}

// Merge computes a common supersequence of the given sequences by
// incremental pairwise merging: the running supersequence is merged with
// each subsequent sequence using the standard LCS dynamic-programming
// table, emitting shared elements once and side-only elements in their own
// relative order.
//
// The result is a heuristic, not a minimal common supersequence (true
// multi-sequence SCS is NP-hard); per-route trip and stop counts are small
// enough that this does not matter in practice. Each merge step is
// O(len(super) * len(next)).
//
// When the LCS table admits several optimal alignments the merge prefers
// consuming the running-supersequence element before the incoming one, so
// the output is deterministic for a given input order.
func Merge(sequences [][]string) Result {
	if len(sequences) == 0 {
		return Result{Supersequence: []string{}, Mappings: [][]int{}}
	}

	super := make([]string, len(sequences[0]))
	copy(super, sequences[0])
	mappings := make([][]int, 1, len(sequences))
	mappings[0] = identity(len(super))

	for _, seq := range sequences[1:] {
		merged, oldToNew, seqMapping := mergePair(super, seq)
		for k, m := range mappings {
			remapped := make([]int, len(m))
			for i, pos := range m {
				remapped[i] = oldToNew[pos]
			}
			mappings[k] = remapped
		}
		mappings = append(mappings, seqMapping)
		super = merged
	}
	return Result{Supersequence: super, Mappings: mappings}
}

func identity(n int) []int {
	m := make([]int, n)
	for i := range m {
		m[i] = i
	}
	return m
}

// mergePair merges one sequence into the running supersequence. It returns
// the merged ordering, the new index of every old supersequence element,
// and the mapping for the incoming sequence.
func mergePair(super, seq []string) (merged []string, oldToNew, seqMapping []int) {
	m, n := len(super), len(seq)

	// lcs[i][j] is the LCS length of super[i:] and seq[j:]. Working with
	// suffixes lets the reconstruction below walk forward, which makes the
	// tie-break rule (supersequence element first) direct to apply.
	lcs := make([][]int, m+1)
	for i := range lcs {
		lcs[i] = make([]int, n+1)
	}
	for i := m - 1; i >= 0; i-- {
		for j := n - 1; j >= 0; j-- {
			if super[i] == seq[j] {
				lcs[i][j] = lcs[i+1][j+1] + 1
			} else if lcs[i+1][j] >= lcs[i][j+1] {
				lcs[i][j] = lcs[i+1][j]
			} else {
				lcs[i][j] = lcs[i][j+1]
			}
		}
	}

	merged = make([]string, 0, m+n-lcs[0][0])
	oldToNew = make([]int, m)
	seqMapping = make([]int, n)

	i, j := 0, 0
	for i < m && j < n {
		switch {
		case super[i] == seq[j] && lcs[i][j] == lcs[i+1][j+1]+1:
			oldToNew[i] = len(merged)
			seqMapping[j] = len(merged)
			merged = append(merged, super[i])
			i++
			j++
		case lcs[i+1][j] >= lcs[i][j+1]:
			oldToNew[i] = len(merged)
			merged = append(merged, super[i])
			i++
		default:
			seqMapping[j] = len(merged)
			merged = append(merged, seq[j])
			j++
		}
	}
	for ; i < m; i++ {
		oldToNew[i] = len(merged)
		merged = append(merged, super[i])
	}
	for ; j < n; j++ {
		seqMapping[j] = len(merged)
		merged = append(merged, seq[j])
	}
	return merged, oldToNew, seqMapping
}
