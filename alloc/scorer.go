// Two-stage risk scoring: bed-need probability gates the length-of-stay
// prediction, and clinical markers derive the risk category.

package alloc

import (
	"context"
	"math"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wardsched/wardsched/alloc/events"
)

// BedNeedThreshold gates the second-stage model: length of stay is computed
// only when the bed-need probability exceeds it.
const BedNeedThreshold = 0.35

// Length-of-stay plausibility bounds in hours (6 hours to 14 days).
// Model output outside the range is clamped, matching the trained models'
// calibration window.
const (
	LOSHoursMin = 6.0
	LOSHoursMax = 14.0 * 24.0
)

// Marker columns read for category derivation. A cell is truthy when it
// holds "1", "true", "yes", or "y" in any case.
const (
	markerSepsis          = "sepsis"
	markerDecliningVitals = "declining_vitals"
	markerOnPressors      = "on_pressors"
	markerInfectious      = "infectious"
)

// RiskScorer wraps the two coefficient models behind a uniform scoring
// interface. It mutates only the patient's derived fields.
type RiskScorer struct {
	artifact *ModelArtifact
	emitter  *events.Emitter
}

// NewRiskScorer builds a scorer over a loaded artifact. The emitter may be
// nil when no progress events are wanted (tests).
func NewRiskScorer(artifact *ModelArtifact, emitter *events.Emitter) *RiskScorer {
	return &RiskScorer{artifact: artifact, emitter: emitter}
}

// Score runs the two-stage prediction for one patient and sets the derived
// fields in place. The context deadline is the orchestrator's model-call
// timeout; exceeding it aborts the run.
//
// Stage gate: length of stay is computed iff bedNeedProbability > 0.35.
// At or below the threshold, LOS stays Unassigned and the patient is marked
// as not needing a bed.
func (s *RiskScorer) Score(ctx context.Context, p *Patient) error {
	encoded, warnings := s.artifact.Encode(p.Features)
	for _, w := range warnings {
		logrus.Warnf("patient %s: feature %q value %q: %s", p.ID, w.Feature, w.Value, w.Reason)
		s.emitter.Emit(events.ValidationWarning, map[string]any{
			"patient_id": p.ID,
			"feature":    w.Feature,
			"value":      w.Value,
			"reason":     w.Reason,
		})
	}

	prob, err := s.predictBedNeed(ctx, p.ID, encoded)
	if err != nil {
		return err
	}
	p.BedNeedProbability = prob
	p.Category, p.Isolation = deriveCategory(p.Features, prob)

	if prob <= BedNeedThreshold {
		p.LengthOfStayHours = Unassigned
		p.State = PatientNoBed
		logrus.Infof("patient %s: bed need %.4f <= %.2f, no bed required", p.ID, prob, BedNeedThreshold)
		return nil
	}

	los, err := s.predictLengthOfStay(ctx, p.ID, encoded)
	if err != nil {
		return err
	}
	p.LengthOfStayHours = los
	p.State = PatientScored
	logrus.Infof("patient %s: bed need %.4f, LOS %.0fh, category %s (isolation=%v)",
		p.ID, prob, los, p.Category, p.Isolation)
	return nil
}

// predictBedNeed evaluates the first-stage classifier: sigmoid over the
// linear form. Emits model_call/model_result around the evaluation.
func (s *RiskScorer) predictBedNeed(ctx context.Context, patientID string, encoded []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewConfigError("bed-need model call aborted", err)
	}
	s.emitter.Emit(events.ModelCall, map[string]any{"patient_id": patientID, "model": "bed_need"})
	logit := s.artifact.apply(&s.artifact.BedNeed, encoded)
	prob := 1.0 / (1.0 + math.Exp(-logit))
	s.emitter.Emit(events.ModelResult, map[string]any{
		"patient_id":  patientID,
		"model":       "bed_need",
		"probability": prob,
	})
	return prob, nil
}

// predictLengthOfStay evaluates the second-stage regressor, clamping to the
// plausible range and rounding to the nearest hour.
func (s *RiskScorer) predictLengthOfStay(ctx context.Context, patientID string, encoded []float64) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, NewConfigError("length-of-stay model call aborted", err)
	}
	s.emitter.Emit(events.ModelCall, map[string]any{"patient_id": patientID, "model": "length_of_stay"})
	hours := s.artifact.apply(&s.artifact.LengthOfStay, encoded)
	if hours < LOSHoursMin {
		hours = LOSHoursMin
	} else if hours > LOSHoursMax {
		hours = LOSHoursMax
	}
	hours = math.Round(hours)
	s.emitter.Emit(events.ModelResult, map[string]any{
		"patient_id": patientID,
		"model":      "length_of_stay",
		"hours":      hours,
	})
	return hours, nil
}

// deriveCategory maps clinical severity markers to a risk tier, with an
// independent isolation flag from infection-control markers.
//
// Sepsis, or declining vitals while on pressors, is Critical. Declining
// vitals alone, or a bed-need probability of 0.65 or higher, is
// Observation. Everything else is General.
func deriveCategory(fv FeatureVector, prob float64) (RiskCategory, bool) {
	isolation := truthy(fv[markerInfectious])
	switch {
	case truthy(fv[markerSepsis]),
		truthy(fv[markerDecliningVitals]) && truthy(fv[markerOnPressors]):
		return CategoryCritical, isolation
	case truthy(fv[markerDecliningVitals]), prob >= 0.65:
		return CategoryObservation, isolation
	default:
		return CategoryGeneral, isolation
	}
}

// truthy interprets a marker cell, tolerating the case variants the ward
// exports use.
func truthy(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	default:
		return false
	}
}
