package task

// Merger accumulates source batches in precedence order. The first record
// seen for a key keeps its position; later duplicates are dropped.
type Merger struct {
	out  []Definition
	seen map[string]struct{}
}

func NewMerger() *Merger {
	return &Merger{seen: make(map[string]struct{})}
}

// Add appends the unseen records of one batch and returns how many were kept.
func (m *Merger) Add(batch []Definition) int {
	added := 0
	for _, d := range batch {
		k := d.Key()
		if _, dup := m.seen[k]; dup {
			continue
		}
		m.seen[k] = struct{}{}
		m.out = append(m.out, d.Normalized())
		added++
	}
	return added
}

// Len is the number of distinct records merged so far.
func (m *Merger) Len() int { return len(m.out) }

// Tasks returns the merged list, or a single-element list holding help when
// nothing was merged. The returned slice is owned by the caller.
func (m *Merger) Tasks(help Definition) []Definition {
	if len(m.out) == 0 {
		return []Definition{help.Normalized()}
	}
	out := make([]Definition, len(m.out))
	copy(out, m.out)
	return out
}

// Merge is the one-shot form of Merger.
func Merge(help Definition, batches ...[]Definition) []Definition {
	m := NewMerger()
	for _, b := range batches {
		m.Add(b)
	}
	return m.Tasks(help)
}
