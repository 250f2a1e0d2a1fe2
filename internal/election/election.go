// Package election implements the stateless leader-election rule
// described in spec.md §4.5, grounded on election.py's detect_master:
// the leader is the reachable candidate with the longest chain, ties
// broken by a fixed priority list's order. It is recomputed on demand
// from a snapshot the caller assembles; it holds no state itself.
package election

// Candidate is one replica's observed status at election time.
type Candidate struct {
	Hostname    string
	Reachable   bool
	ChainLength int64
}

// Elect returns the hostname of the leader among candidates, given a
// fixed priority list (earlier entries win ties). A candidate not
// present in priority is treated as lowest priority, in the order it
// appears in candidates, after every prioritized candidate.
//
// Returns ("", false) if no candidate is reachable.
func Elect(priority []string, candidates []Candidate) (string, bool) {
	rank := make(map[string]int, len(priority))
	for i, host := range priority {
		rank[host] = i
	}

	best := -1
	var bestHost string
	bestRank := len(priority)
	bestChain := int64(-1)

	for i, c := range candidates {
		if !c.Reachable {
			continue
		}
		r, known := rank[c.Hostname]
		if !known {
			// Unprioritized candidates rank after every known one, in
			// the order supplied, via a synthetic rank beyond the list.
			r = len(priority) + i
		}
		if best == -1 || c.ChainLength > bestChain || (c.ChainLength == bestChain && r < bestRank) {
			best = i
			bestHost = c.Hostname
			bestRank = r
			bestChain = c.ChainLength
		}
	}

	if best == -1 {
		return "", false
	}
	return bestHost, true
}

// IsLeader reports whether hostname is the elected leader among
// candidates.
func IsLeader(priority []string, candidates []Candidate, hostname string) bool {
	leader, ok := Elect(priority, candidates)
	return ok && leader == hostname
}
