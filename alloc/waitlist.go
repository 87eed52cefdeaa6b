// Implements the Waitlist, the priority queue of patients that could not be
// assigned a room. Ordering: risk category severity descending, then
// bed-need probability descending, then arrival order ascending, so equal
// priorities dequeue FIFO.

package alloc

import (
	"container/heap"
	"fmt"
	"strings"
	"time"
)

// WaitlistEntry is one queued patient with its computed priority inputs.
type WaitlistEntry struct {
	PatientID   string
	Category    RiskCategory
	Probability float64
	Arrival     int       // arrival order (CSV row index)
	EnqueuedAt  time.Time // wall-clock enqueue time, reported in the view
	seq         int       // monotonic insertion sequence, stabilizes equal priorities
}

// less orders entries for the heap: higher severity first, then higher
// probability, then earlier arrival, then insertion order.
func (e *WaitlistEntry) less(o *WaitlistEntry) bool {
	if e.Category.Severity() != o.Category.Severity() {
		return e.Category.Severity() > o.Category.Severity()
	}
	if e.Probability != o.Probability {
		return e.Probability > o.Probability
	}
	if e.Arrival != o.Arrival {
		return e.Arrival < o.Arrival
	}
	return e.seq < o.seq
}

// entryHeap implements heap.Interface over waitlist entries.
// See canonical Golang example here: https://pkg.go.dev/container/heap#example-package-IntHeap
type entryHeap []*WaitlistEntry

func (h entryHeap) Len() int           { return len(h) }
func (h entryHeap) Less(i, j int) bool { return h[i].less(h[j]) }
func (h entryHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *entryHeap) Push(x any) {
	*h = append(*h, x.(*WaitlistEntry))
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[0 : n-1]
	return item
}

// Waitlist holds patients awaiting a freed room.
type Waitlist struct {
	entries entryHeap
	nextSeq int
	now     func() time.Time
}

// NewWaitlist creates an empty waitlist.
func NewWaitlist() *Waitlist {
	return &Waitlist{now: time.Now}
}

// Enqueue adds a patient to the waitlist and returns its entry.
func (w *Waitlist) Enqueue(p *Patient) *WaitlistEntry {
	entry := &WaitlistEntry{
		PatientID:   p.ID,
		Category:    p.Category,
		Probability: p.BedNeedProbability,
		Arrival:     p.RowIndex,
		EnqueuedAt:  w.now(),
		seq:         w.nextSeq,
	}
	w.nextSeq++
	heap.Push(&w.entries, entry)
	return entry
}

// Peek returns the highest-priority entry without removing it.
// Returns nil if the waitlist is empty.
func (w *Waitlist) Peek() *WaitlistEntry {
	if len(w.entries) == 0 {
		return nil
	}
	return w.entries[0]
}

// Dequeue removes and returns the highest-priority entry, or nil when empty.
func (w *Waitlist) Dequeue() *WaitlistEntry {
	if len(w.entries) == 0 {
		return nil
	}
	return heap.Pop(&w.entries).(*WaitlistEntry)
}

// Len returns the number of queued patients.
func (w *Waitlist) Len() int {
	return len(w.entries)
}

// Ranked returns the entries in dequeue order without mutating the
// waitlist. Rank 1 is the next patient to place.
func (w *Waitlist) Ranked() []*WaitlistEntry {
	tmp := make(entryHeap, len(w.entries))
	copy(tmp, w.entries)
	out := make([]*WaitlistEntry, 0, len(tmp))
	for tmp.Len() > 0 {
		out = append(out, heap.Pop(&tmp).(*WaitlistEntry))
	}
	return out
}

func (w *Waitlist) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i, e := range w.Ranked() {
		sb.WriteString(fmt.Sprintf("%s(%s)", e.PatientID, e.Category))
		if i < w.Len()-1 {
			sb.WriteString(" ")
		}
	}
	sb.WriteString("]")
	return sb.String()
}
