package scan

// ChainLink is the minimal projection of a scan row needed for chain walking.
// Links must be supplied ordered by timestamp descending.
type ChainLink struct {
	ID       int64
	ScanType Type
}

// Chain is the ordered set of scan ids from a reference point back to the
// nearest base scan, most recent first. Complete is false when the walk
// exhausted the history without reaching a base scan, which indicates stale
// or corrupted scan data for the branch.
type Chain struct {
	ScanIDs  []int64
	Complete bool
}

// Len returns the number of scans in the chain.
func (c Chain) Len() int {
	return len(c.ScanIDs)
}

// BuildChain walks links ordered by timestamp descending, collecting ids
// until the first base scan inclusive. An empty history yields an empty,
// complete chain.
func BuildChain(links []ChainLink) Chain {
	chain := Chain{ScanIDs: make([]int64, 0, len(links)), Complete: true}
	for _, link := range links {
		chain.ScanIDs = append(chain.ScanIDs, link.ID)
		if link.ScanType == TypeBase {
			return chain
		}
	}
	chain.Complete = len(links) == 0
	return chain
}

// Plan is the orchestrator's decision for a newly submitted scan.
type Plan struct {
	ScanType        Type
	IncrementNumber int
}

// PlanNext decides the scan type and increment number for the next scan of a
// branch. previous is the branch's most recent scan by timestamp, or nil when
// the branch has never been scanned.
//
// The first scan of a branch is always a base scan regardless of forceBase.
func PlanNext(previous *Scan, forceBase bool) Plan {
	if previous == nil || forceBase {
		return Plan{ScanType: TypeBase, IncrementNumber: 0}
	}
	return Plan{ScanType: TypeIncremental, IncrementNumber: previous.IncrementNumber + 1}
}
