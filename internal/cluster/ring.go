// Package cluster implements job-key routing across a fixed set of peer
// gateways using consistent hashing, so that repeated pushes for the same
// job land on the same node without every node needing to agree on state.
package cluster

import (
	"sort"

	"github.com/cespare/xxhash/v2"
)

type ringEntry struct {
	key  uint64
	node string
}

// Ring is a sorted consistent-hash ring over a fixed set of string nodes,
// keyed by xxhash64. Lookup finds the first node whose key is greater
// than or equal to the query key, wrapping to the ring's first entry when
// the query key is past every node — the standard consistent-hashing
// rule. The original implementation this is grounded on instead did a
// linear forward scan returning the first entry whose key the query was
// greater-or-equal to, which (since entries are sorted ascending) returns
// the wrong node for all but the smallest key on the ring; Ring corrects
// that with a proper binary search for the successor.
type Ring struct {
	entries []ringEntry
}

// New builds a Ring containing the given nodes. Duplicate nodes are not
// removed: each occurrence gets its own entry under the same key.
func New(nodes []string) *Ring {
	r := &Ring{entries: make([]ringEntry, 0, len(nodes))}
	for _, n := range nodes {
		r.Add(n)
	}
	return r
}

// Add inserts node into the ring, keeping entries sorted by key.
func (r *Ring) Add(node string) {
	key := xxhash.Sum64String(node)
	idx := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].key >= key })
	r.entries = append(r.entries, ringEntry{})
	copy(r.entries[idx+1:], r.entries[idx:])
	r.entries[idx] = ringEntry{key: key, node: node}
}

// NodeFor returns the node owning val, or "" if the ring is empty.
func (r *Ring) NodeFor(val string) string {
	if len(r.entries) == 0 {
		return ""
	}
	key := xxhash.Sum64String(val)
	idx := sort.Search(len(r.entries), func(i int) bool { return r.entries[i].key >= key })
	if idx == len(r.entries) {
		idx = 0
	}
	return r.entries[idx].node
}

// Len reports the number of nodes on the ring.
func (r *Ring) Len() int { return len(r.entries) }
