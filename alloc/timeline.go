package alloc

import (
	"fmt"
	"sort"
)

// NurseVisitBlock is one scheduled visit: a nurse covering a room for
// [Start, Stop) hours within the scheduling horizon.
type NurseVisitBlock struct {
	NurseID string  `json:"id"`
	RoomID  string  `json:"room"`
	Start   float64 `json:"start"`
	Stop    float64 `json:"stop"`
}

// Overlaps reports whether two half-open intervals intersect.
func (b NurseVisitBlock) Overlaps(start, stop float64) bool {
	return b.Start < stop && start < b.Stop
}

func (b NurseVisitBlock) String() string {
	return fmt.Sprintf("Visit(%s@%s [%.2f, %.2f))", b.NurseID, b.RoomID, b.Start, b.Stop)
}

// NurseTimeline tracks every nurse's visit blocks across ALL rooms. It is
// the authority for the anti-double-booking invariant: a nurse assigned a
// slot in one room must never hold an overlapping slot anywhere else.
type NurseTimeline struct {
	blocks map[string][]NurseVisitBlock // nurse ID -> blocks, unordered
}

// NewNurseTimeline creates an empty timeline.
func NewNurseTimeline() *NurseTimeline {
	return &NurseTimeline{blocks: make(map[string][]NurseVisitBlock)}
}

// Free reports whether the nurse has no block overlapping [start, stop)
// in any room.
func (t *NurseTimeline) Free(nurseID string, start, stop float64) bool {
	for _, b := range t.blocks[nurseID] {
		if b.Overlaps(start, stop) {
			return false
		}
	}
	return true
}

// Add records a block. Double-booking here is a bug-class invariant breach,
// not an input condition — the allocator filters with Free first — so a
// detected overlap panics rather than being silently tolerated.
func (t *NurseTimeline) Add(block NurseVisitBlock) {
	for _, b := range t.blocks[block.NurseID] {
		if b.Overlaps(block.Start, block.Stop) {
			panic(fmt.Sprintf("nurse %s double-booked: %v overlaps %v", block.NurseID, block, b))
		}
	}
	t.blocks[block.NurseID] = append(t.blocks[block.NurseID], block)
}

// Blocks returns the nurse's blocks sorted by start time.
func (t *NurseTimeline) Blocks(nurseID string) []NurseVisitBlock {
	out := make([]NurseVisitBlock, len(t.blocks[nurseID]))
	copy(out, t.blocks[nurseID])
	sort.Slice(out, func(i, j int) bool { return out[i].Start < out[j].Start })
	return out
}

// NurseIDs returns the nurses holding at least one block, sorted.
func (t *NurseTimeline) NurseIDs() []string {
	ids := make([]string, 0, len(t.blocks))
	for id := range t.blocks {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
