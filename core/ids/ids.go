// Package ids allocates the stable 64-bit identifiers HIR uses to link
// declarations, instead of pointers. See the "stable identifiers instead
// of pointers" design note: the declaration of Post.author: User and
// User.posts: [Post] must not materialize a reference cycle.
package ids

// HirId uniquely identifies one struct, enum, let-binding or type-alias
// declaration within a single lowering run.
type HirId uint64

// Invalid is never assigned to a real declaration; used as a zero value
// sentinel before name resolution completes.
const Invalid HirId = 0

// Allocator hands out HirIds in allocation order. A single HIR lowering
// run owns exactly one Allocator; ids are never reused across runs, so two
// lowerings of identical source agree node-for-node only because phase 1
// walks declarations in the same order both times, not because ids are
// content-derived.
type Allocator struct {
	next HirId
}

// NewAllocator returns an Allocator whose first Next() call yields id 1.
func NewAllocator() *Allocator {
	return &Allocator{next: 1}
}

// Next returns the next unused HirId.
func (a *Allocator) Next() HirId {
	id := a.next
	a.next++
	return id
}
