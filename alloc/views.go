// Result views: the JSON documents a run produces. final_allocations.json
// carries the full run, patient_view.json and nurse_view.json are the
// per-audience slices, and hospital_space.json is the occupancy snapshot
// that chains into the next batch.

package alloc

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// PatientView is one patient's outcome as reported to clinicians.
type PatientView struct {
	PatientID          string  `json:"patient_id"`
	State              string  `json:"state"`
	BedNeedProbability float64 `json:"bed_need_probability"`
	LengthOfStayHours  float64 `json:"length_of_stay_hours"`
	RiskCategory       string  `json:"risk_category"`
	Isolation          bool    `json:"isolation"`
	RoomID             string  `json:"room,omitempty"`
	Start              float64 `json:"start"`
	Stop               float64 `json:"stop"`
}

// RoomView is one room's occupancy snapshot. The hospital_space.json file
// is a list of these; a later run restores windows from it.
type RoomView struct {
	RoomID    string  `json:"room_id"`
	Floor     int     `json:"floor"`
	Category  string  `json:"category"`
	PatientID string  `json:"patient,omitempty"`
	Start     float64 `json:"start"`
	Stop      float64 `json:"stop"`
}

// NurseView is one nurse's schedule for the run.
type NurseView struct {
	NurseID        string            `json:"nurse_id"`
	Certifications []string          `json:"certifications"`
	EffectiveLoad  float64           `json:"effective_load"`
	Visits         []NurseVisitBlock `json:"visits"`
}

// WaitlistView is one waitlisted patient with its queue position.
// Rank 1 is next in line.
type WaitlistView struct {
	Rank        int       `json:"rank"`
	PatientID   string    `json:"patient_id"`
	Category    string    `json:"category"`
	Probability float64   `json:"probability"`
	Arrival     int       `json:"arrival"`
	EnqueuedAt  time.Time `json:"enqueued_at"`
}

// Result is the complete output of one run.
type Result struct {
	RunID        string         `json:"run_id"`
	GeneratedAt  time.Time      `json:"generated_at"`
	Patients     []PatientView  `json:"patients"`
	Rooms        []RoomView     `json:"rooms"`
	Nurses       []NurseView    `json:"nurses"`
	WaitlistView []WaitlistView `json:"waitlist"`
	CoverageGaps []CoverageGap  `json:"coverage_gaps"`
}

// AssignedCount returns the number of patients holding a room.
func (r *Result) AssignedCount() int {
	n := 0
	for _, p := range r.Patients {
		if p.State == string(PatientAssigned) {
			n++
		}
	}
	return n
}

// VisitBlockCount returns the total visit blocks across all nurses.
func (r *Result) VisitBlockCount() int {
	n := 0
	for _, nv := range r.Nurses {
		n += len(nv.Visits)
	}
	return n
}

// BuildResult assembles the run's views from the finalized context and the
// nurse allocator's timeline. Ordering is deterministic throughout: patients
// in CSV order, rooms in roster order, nurses by ID, waitlist by priority.
func BuildResult(runID string, ac *AllocationContext, na *NurseAllocator, gaps []CoverageGap) *Result {
	r := &Result{
		RunID:        runID,
		GeneratedAt:  time.Now().UTC(),
		CoverageGaps: gaps,
	}

	for _, p := range ac.Patients {
		r.Patients = append(r.Patients, PatientView{
			PatientID:          p.ID,
			State:              string(p.State),
			BedNeedProbability: p.BedNeedProbability,
			LengthOfStayHours:  p.LengthOfStayHours,
			RiskCategory:       string(p.Category),
			Isolation:          p.Isolation,
			RoomID:             p.RoomID,
			Start:              p.Start,
			Stop:               p.Stop,
		})
	}

	for _, room := range ac.Rooms {
		r.Rooms = append(r.Rooms, RoomView{
			RoomID:    room.ID,
			Floor:     room.Floor,
			Category:  string(room.Category),
			PatientID: room.PatientID,
			Start:     room.Start,
			Stop:      room.Stop,
		})
	}

	timeline := na.Timeline()
	for _, n := range ac.Nurses {
		r.Nurses = append(r.Nurses, NurseView{
			NurseID:        n.ID,
			Certifications: n.Certifications,
			EffectiveLoad:  n.EffectiveLoad(),
			Visits:         timeline.Blocks(n.ID),
		})
	}

	for i, e := range ac.Waitlist.Ranked() {
		r.WaitlistView = append(r.WaitlistView, WaitlistView{
			Rank:        i + 1,
			PatientID:   e.PatientID,
			Category:    string(e.Category),
			Probability: e.Probability,
			Arrival:     e.Arrival,
			EnqueuedAt:  e.EnqueuedAt,
		})
	}

	return r
}

// WriteOutput writes the run's four JSON documents into dir, creating it
// if needed.
func (r *Result) WriteOutput(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating output dir %s: %w", dir, err)
	}
	files := map[string]any{
		"final_allocations.json": r,
		"patient_view.json":      r.Patients,
		"nurse_view.json":        r.Nurses,
		"hospital_space.json":    r.Rooms,
	}
	for name, doc := range files {
		if err := writeJSON(filepath.Join(dir, name), doc); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, doc any) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

// LoadHospitalSpace reads a hospital_space.json snapshot from a previous
// run. The caller restores it onto the current roster with ApplyHospitalSpace.
func LoadHospitalSpace(path string) ([]RoomView, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("reading hospital space %s", path), err)
	}
	var views []RoomView
	if err := json.Unmarshal(data, &views); err != nil {
		return nil, NewConfigError(fmt.Sprintf("parsing hospital space %s", path), err)
	}
	return views, nil
}

// ApplyHospitalSpace restores occupancy windows from a snapshot onto the
// roster, matching rooms by ID. Snapshot entries for rooms no longer in
// the roster are dropped with a warning from the caller's log context.
func ApplyHospitalSpace(rooms []*Room, views []RoomView) {
	byID := make(map[string]*Room, len(rooms))
	for _, r := range rooms {
		byID[r.ID] = r
	}
	for _, v := range views {
		room, ok := byID[v.RoomID]
		if !ok {
			continue
		}
		room.Start = v.Start
		room.Stop = v.Stop
		room.PatientID = v.PatientID
		if v.Category != "" {
			room.Category = RoomCategory(v.Category)
		}
	}
}
