package alloc

import "fmt"

// Certification names recognized by the allocator. Rosters may carry other
// strings; only these two gate room eligibility.
const (
	CertICU       = "icu-certified"
	CertIsolation = "isolation-certified"
	CertGeneral   = "general"
)

// Nurse models one roster member. BaseLoad is the assignment count the nurse
// arrives with; LoadBias is the additive adjustment computed by the Feedback
// Adjuster before the run. runLoad accumulates assignments made during the
// current run so that later slot decisions see earlier ones.
type Nurse struct {
	ID             string
	Certifications []string
	BaseLoad       int
	LoadBias       float64

	runLoad      int // visit blocks assigned so far in this run
	lastAssigned int // monotonic sequence of the most recent assignment, -1 if none
}

// NewNurse creates a roster nurse with no run-local state.
func NewNurse(id string, certs []string, baseLoad int) *Nurse {
	return &Nurse{
		ID:             id,
		Certifications: certs,
		BaseLoad:       baseLoad,
		lastAssigned:   -1,
	}
}

// EffectiveLoad is the workload score used for slot selection:
// baseLoad + feedback bias + assignments made earlier in this run.
func (n *Nurse) EffectiveLoad() float64 {
	return float64(n.BaseLoad+n.runLoad) + n.LoadBias
}

// Holds reports whether the nurse holds the named certification.
func (n *Nurse) Holds(cert string) bool {
	for _, c := range n.Certifications {
		if c == cert {
			return true
		}
	}
	return false
}

// Qualified reports whether the nurse may cover a room of the given
// category. General rooms accept any nurse with at least one certification.
func (n *Nurse) Qualified(cat RoomCategory) bool {
	required := cat.RequiredCertifications()
	if len(required) == 0 {
		return len(n.Certifications) > 0
	}
	for _, cert := range required {
		if !n.Holds(cert) {
			return false
		}
	}
	return true
}

// recordAssignment bumps the running load and the recency marker.
// seq is a run-wide monotonic counter supplied by the nurse allocator.
func (n *Nurse) recordAssignment(seq int) {
	n.runLoad++
	n.lastAssigned = seq
}

func (n Nurse) String() string {
	return fmt.Sprintf("Nurse(ID: %s, Certs: %v, EffectiveLoad: %.1f)", n.ID, n.Certifications, n.EffectiveLoad())
}
