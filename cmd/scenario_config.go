package cmd

import (
	"bytes"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/wardsched/wardsched/alloc"
)

// Scenario describes one preset run configuration in scenarios.yaml.
type Scenario struct {
	Rooms       []string       `yaml:"rooms"`
	Nurses      []NurseSpec    `yaml:"nurses"`
	SlotMinutes int            `yaml:"slot_minutes"`
	MaxPatients int            `yaml:"max_patients"`
	PreOccupied []PreOccupancy `yaml:"pre_occupied"`
}

// NurseSpec is one roster entry in a scenario preset.
type NurseSpec struct {
	Name           string   `yaml:"name"`
	Certifications []string `yaml:"certifications"`
	Load           int      `yaml:"load"`
}

// PreOccupancy marks a room as already holding a patient when the run
// starts, as if carried over from a previous batch.
type PreOccupancy struct {
	Room    string  `yaml:"room"`
	Patient string  `yaml:"patient"`
	Start   float64 `yaml:"start"`
	Stop    float64 `yaml:"stop"`
}

// ScenarioFile represents the full scenarios.yaml structure.
// All top-level sections must be listed to satisfy KnownFields(true)
// strict parsing.
type ScenarioFile struct {
	Version   string              `yaml:"version"`
	Scenarios map[string]Scenario `yaml:"scenarios"`
}

// resolveScenario loads the named preset, or a zero Scenario when no name
// is given. A named preset that cannot be found or parsed is fatal: a
// typoed scenario silently falling back to defaults would mask the error.
func resolveScenario(path, name string) Scenario {
	if name == "" {
		return Scenario{}
	}
	cfg := loadScenarioFile(path)
	preset, ok := cfg.Scenarios[name]
	if !ok {
		logrus.Fatalf("scenario %q not found in %s", name, path)
	}
	return preset
}

// loadScenarioFile parses scenarios.yaml with strict field checking so
// typos in preset definitions cause errors.
func loadScenarioFile(path string) ScenarioFile {
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Fatalf("Failed to read scenarios file %s: %v", path, err)
	}
	var cfg ScenarioFile
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil {
		logrus.Fatalf("Failed to parse scenarios YAML: %v", err)
	}
	return cfg
}

// BuildRooms materializes the preset's room list.
func (s Scenario) BuildRooms() ([]*alloc.Room, error) {
	var rooms []*alloc.Room
	for _, spec := range s.Rooms {
		parsed, err := alloc.ParseRoomSpecs(spec)
		if err != nil {
			return nil, err
		}
		rooms = append(rooms, parsed...)
	}
	return rooms, nil
}

// BuildNurses materializes the preset's nurse roster.
func (s Scenario) BuildNurses() []*alloc.Nurse {
	var nurses []*alloc.Nurse
	for _, spec := range s.Nurses {
		certs := spec.Certifications
		if len(certs) == 0 {
			certs = []string{alloc.CertGeneral}
		}
		nurses = append(nurses, alloc.NewNurse(spec.Name, certs, spec.Load))
	}
	return nurses
}

// applyPreOccupancy restores the preset's carried-over occupancy windows.
func applyPreOccupancy(rooms []*alloc.Room, preset Scenario) {
	if len(preset.PreOccupied) == 0 {
		return
	}
	views := make([]alloc.RoomView, 0, len(preset.PreOccupied))
	for _, po := range preset.PreOccupied {
		views = append(views, alloc.RoomView{
			RoomID:    po.Room,
			PatientID: po.Patient,
			Start:     po.Start,
			Stop:      po.Stop,
		})
	}
	alloc.ApplyHospitalSpace(rooms, views)
}
