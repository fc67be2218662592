// Package diff implements the token-level comparison engine used for conflict
// evidence and human-readable change reports.
//
// Compare tokenizes both inputs into whitespace/word/punctuation runs,
// computes a longest-common-subsequence table over the token sequences, and
// backtracks to a minimal edit script of merged spans. The output is lossless:
// concatenating the Removed and Unchanged spans reproduces the old text, and
// concatenating the Added and Unchanged spans reproduces the new text.
//
// All functions are pure and deterministic: the same inputs always yield the
// same result, byte for byte, and concurrent use is safe.
package diff

// ChangeKind tags a single span within a diff.
type ChangeKind string

const (
	Added     ChangeKind = "added"
	Removed   ChangeKind = "removed"
	Unchanged ChangeKind = "unchanged"
)

// ResultKind classifies the overall comparison.
type ResultKind string

const (
	ResultAdded     ResultKind = "added"
	ResultRemoved   ResultKind = "removed"
	ResultChanged   ResultKind = "changed"
	ResultUnchanged ResultKind = "unchanged"
)

// Change is one contiguous span of the edit script.
type Change struct {
	Kind ChangeKind `json:"kind"`
	Text string     `json:"text"`
}

// Summary counts spans by kind.
type Summary struct {
	Added     int `json:"added"`
	Removed   int `json:"removed"`
	Unchanged int `json:"unchanged"`
}

// Result is the outcome of comparing two text snapshots. It is derived and
// ephemeral: never persisted, recomputed on demand.
type Result struct {
	Kind    ResultKind `json:"kind"`
	Changes []Change   `json:"changes"`
	Summary Summary    `json:"summary"`
}

// HasChanges reports whether the comparison found any added or removed span.
func (r Result) HasChanges() bool {
	return r.Summary.Added > 0 || r.Summary.Removed > 0
}

// Compare produces the token-level edit script between two text snapshots.
//
// Edge cases: two empty inputs yield an unchanged result with no changes; one
// empty input yields a single added or removed span covering the other side.
func Compare(oldText, newText string) Result {
	if oldText == "" && newText == "" {
		return Result{Kind: ResultUnchanged}
	}
	if oldText == "" {
		return finish([]Change{{Kind: Added, Text: newText}})
	}
	if newText == "" {
		return finish([]Change{{Kind: Removed, Text: oldText}})
	}

	oldTokens := tokenize(oldText)
	newTokens := tokenize(newText)
	script := backtrack(lcsTable(oldTokens, newTokens), oldTokens, newTokens)
	return finish(mergeRuns(script))
}

// lcsTable computes the dense O(m*n) longest-common-subsequence length table.
// Dense DP is acceptable for the expected input sizes (marketing copy, not
// large documents).
func lcsTable(oldTokens, newTokens []string) [][]int {
	m, n := len(oldTokens), len(newTokens)
	table := make([][]int, m+1)
	for i := range table {
		table[i] = make([]int, n+1)
	}
	for i := 1; i <= m; i++ {
		for k := 1; k <= n; k++ {
			if oldTokens[i-1] == newTokens[k-1] {
				table[i][k] = table[i-1][k-1] + 1
			} else if table[i-1][k] >= table[i][k-1] {
				table[i][k] = table[i-1][k]
			} else {
				table[i][k] = table[i][k-1]
			}
		}
	}
	return table
}

// backtrack walks the LCS table from the bottom-right corner, emitting one
// Change per token in left-to-right order.
//
// Tie-break: when a matching token could also be skipped without shortening
// the common subsequence (table[i][k-1] == table[i][k]), it is emitted as
// Added instead. This anchors common tokens to their earliest occurrence in
// the new text, which groups insertions ahead of the span they duplicate
// ("Hello " / +"brave " / "world" rather than "Hello" / +" brave" / " world").
func backtrack(table [][]int, oldTokens, newTokens []string) []Change {
	script := make([]Change, 0, len(oldTokens)+len(newTokens))
	i, k := len(oldTokens), len(newTokens)
	for i > 0 || k > 0 {
		switch {
		case i > 0 && k > 0 && oldTokens[i-1] == newTokens[k-1] && table[i][k-1] != table[i][k]:
			script = append(script, Change{Kind: Unchanged, Text: oldTokens[i-1]})
			i--
			k--
		case k > 0 && (i == 0 || table[i][k-1] >= table[i-1][k]):
			script = append(script, Change{Kind: Added, Text: newTokens[k-1]})
			k--
		default:
			script = append(script, Change{Kind: Removed, Text: oldTokens[i-1]})
			i--
		}
	}
	// Emitted back-to-front; reverse in place.
	for a, z := 0, len(script)-1; a < z; a, z = a+1, z-1 {
		script[a], script[z] = script[z], script[a]
	}
	return script
}

// mergeRuns collapses consecutive changes of the same kind into single spans.
func mergeRuns(script []Change) []Change {
	if len(script) == 0 {
		return nil
	}
	merged := []Change{script[0]}
	for _, c := range script[1:] {
		last := &merged[len(merged)-1]
		if c.Kind == last.Kind {
			last.Text += c.Text
			continue
		}
		merged = append(merged, c)
	}
	return merged
}

// finish derives the summary and overall kind from a merged edit script.
func finish(changes []Change) Result {
	r := Result{Changes: changes}
	for _, c := range changes {
		switch c.Kind {
		case Added:
			r.Summary.Added++
		case Removed:
			r.Summary.Removed++
		case Unchanged:
			r.Summary.Unchanged++
		}
	}
	switch {
	case r.Summary.Added > 0 && r.Summary.Removed > 0:
		r.Kind = ResultChanged
	case r.Summary.Added > 0:
		r.Kind = ResultAdded
	case r.Summary.Removed > 0:
		r.Kind = ResultRemoved
	default:
		r.Kind = ResultUnchanged
	}
	return r
}
