package finding

// Reconciliation splits candidate findings into rows that already exist for
// the repository and rows that must be inserted. Every candidate ends up in
// exactly one of the two sets; duplicate candidates within one submission
// merge silently into the first occurrence.
type Reconciliation struct {
	Reused []*Finding
	Fresh  []*Finding
}

// Reconcile matches candidates against the repository's existing findings by
// identity tuple. Matching uses a map keyed by the tuple, and each existing
// finding satisfies at most one candidate.
func Reconcile(existing []*Finding, candidates []*Finding) Reconciliation {
	pool := make(map[Identity]*Finding, len(existing))
	for _, f := range existing {
		pool[f.Identity()] = f
	}

	seen := make(map[Identity]struct{}, len(candidates))
	result := Reconciliation{}
	for _, c := range candidates {
		id := c.Identity()
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		if match, ok := pool[id]; ok {
			result.Reused = append(result.Reused, match)
			delete(pool, id)
			continue
		}
		result.Fresh = append(result.Fresh, c)
	}
	return result
}
