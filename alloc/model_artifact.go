// Loads the risk-model artifact: coefficient models for bed need and length
// of stay plus the explicit feature schema they were trained against.

package alloc

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MissingCategory is the distinguished category every categorical feature
// must carry a code for. Unknown or empty cells encode to it.
const MissingCategory = "missing"

// FeatureKind distinguishes how a schema column is encoded.
type FeatureKind string

const (
	FeatureNumeric     FeatureKind = "numeric"
	FeatureCategorical FeatureKind = "categorical"
)

// FeatureSpec describes one column of the model input, in training order.
type FeatureSpec struct {
	Name       string             `yaml:"name"`
	Kind       FeatureKind        `yaml:"kind"`
	Categories map[string]float64 `yaml:"categories,omitempty"` // value -> code, categorical only
}

// CoefficientModel is a linear form over the encoded feature vector.
// Bed need applies a sigmoid on top; length of stay uses the raw value.
type CoefficientModel struct {
	Intercept float64            `yaml:"intercept"`
	Weights   map[string]float64 `yaml:"weights"`
}

// ModelArtifact is the models.yaml structure. All top-level sections must be
// listed to satisfy KnownFields(true) strict parsing.
type ModelArtifact struct {
	Version      string           `yaml:"version"`
	Features     []FeatureSpec    `yaml:"features"`
	BedNeed      CoefficientModel `yaml:"bed_need"`
	LengthOfStay CoefficientModel `yaml:"length_of_stay"`
}

// artifactFileName is the expected file name inside the model directory.
const artifactFileName = "models.yaml"

// LoadModelArtifact reads and validates models.yaml from modelDir.
// A missing or malformed artifact is a ConfigError: scoring without the
// trained coefficients would risk clinically unsafe allocation, so there
// is no silent default.
func LoadModelArtifact(modelDir string) (*ModelArtifact, error) {
	path := filepath.Join(modelDir, artifactFileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("model artifact %s unavailable", path), err)
	}

	var art ModelArtifact
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&art); err != nil {
		return nil, NewConfigError(fmt.Sprintf("model artifact %s malformed", path), err)
	}
	if err := art.validate(); err != nil {
		return nil, NewConfigError(fmt.Sprintf("model artifact %s invalid", path), err)
	}
	return &art, nil
}

func (a *ModelArtifact) validate() error {
	if len(a.Features) == 0 {
		return fmt.Errorf("no features declared")
	}
	seen := make(map[string]bool, len(a.Features))
	for _, f := range a.Features {
		if f.Name == "" {
			return fmt.Errorf("feature with empty name")
		}
		if seen[f.Name] {
			return fmt.Errorf("duplicate feature %q", f.Name)
		}
		seen[f.Name] = true
		switch f.Kind {
		case FeatureNumeric:
		case FeatureCategorical:
			if _, ok := f.Categories[MissingCategory]; !ok {
				return fmt.Errorf("categorical feature %q lacks a %q category", f.Name, MissingCategory)
			}
		default:
			return fmt.Errorf("feature %q has unknown kind %q", f.Name, f.Kind)
		}
	}
	if len(a.BedNeed.Weights) == 0 {
		return fmt.Errorf("bed_need model has no weights")
	}
	if len(a.LengthOfStay.Weights) == 0 {
		return fmt.Errorf("length_of_stay model has no weights")
	}
	for name := range a.BedNeed.Weights {
		if !seen[name] {
			return fmt.Errorf("bed_need weight references unknown feature %q", name)
		}
	}
	for name := range a.LengthOfStay.Weights {
		if !seen[name] {
			return fmt.Errorf("length_of_stay weight references unknown feature %q", name)
		}
	}
	return nil
}

// EncodeWarning records one cell that could not be encoded as declared and
// fell back to the missing sentinel. Surfaced as a validation_warning event.
type EncodeWarning struct {
	Feature string
	Value   string
	Reason  string
}

// Encode maps a raw feature vector onto the schema, producing one encoded
// value per declared feature in training order. Missing or unencodable
// cells take the missing sentinel (categorical) or zero (numeric) and are
// reported as warnings rather than failing the row.
func (a *ModelArtifact) Encode(fv FeatureVector) ([]float64, []EncodeWarning) {
	encoded := make([]float64, len(a.Features))
	var warnings []EncodeWarning
	for i, spec := range a.Features {
		raw, present := fv[spec.Name]
		switch spec.Kind {
		case FeatureNumeric:
			if !present || raw == "" {
				encoded[i] = 0
				continue
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				warnings = append(warnings, EncodeWarning{
					Feature: spec.Name, Value: raw, Reason: "not numeric, substituted 0",
				})
				encoded[i] = 0
				continue
			}
			encoded[i] = v
		case FeatureCategorical:
			if !present || raw == "" {
				encoded[i] = spec.Categories[MissingCategory]
				continue
			}
			code, ok := spec.Categories[raw]
			if !ok {
				warnings = append(warnings, EncodeWarning{
					Feature: spec.Name, Value: raw, Reason: "unknown category, substituted missing",
				})
				code = spec.Categories[MissingCategory]
			}
			encoded[i] = code
		}
	}
	return encoded, warnings
}

// apply evaluates the linear form over the encoded vector. Weights are keyed
// by feature name; features without a weight contribute nothing.
func (a *ModelArtifact) apply(m *CoefficientModel, encoded []float64) float64 {
	sum := m.Intercept
	for i, spec := range a.Features {
		if w, ok := m.Weights[spec.Name]; ok {
			sum += w * encoded[i]
		}
	}
	return sum
}
