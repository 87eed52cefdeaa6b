// Patient intake: reads the admission CSV into Patients. The reader is
// schema-tolerant on purpose; column meaning is decided later by the model
// artifact's feature schema, so intake only needs the header and the
// encounter identifier.

package alloc

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/wardsched/wardsched/alloc/events"
)

// encounterIDColumn is the preferred identifier column. When absent the
// first column serves as the identifier.
const encounterIDColumn = "encounter_id"

// LoadPatients reads the admission CSV at path and returns patients for
// rows [startIndex, startIndex+maxPatients) of the data section. Malformed
// rows are skipped with a validation warning; an unreadable file or header
// is a configuration error.
func LoadPatients(path string, startIndex, maxPatients int, emitter *events.Emitter) ([]*Patient, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("opening patient csv %s", path), err)
	}
	defer func() { _ = file.Close() }()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // row width validated per row below

	header, err := reader.Read()
	if err != nil {
		return nil, NewConfigError(fmt.Sprintf("reading csv header of %s", path), err)
	}
	for i, col := range header {
		header[i] = strings.TrimSpace(col)
	}
	idCol := 0
	for i, col := range header {
		if strings.EqualFold(col, encounterIDColumn) {
			idCol = i
			break
		}
	}

	if startIndex < 0 {
		startIndex = 0
	}
	if maxPatients <= 0 {
		maxPatients = DefaultMaxPatients
	}

	var patients []*Patient
	seen := make(map[string]bool)
	row := -1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		row++
		if err != nil {
			warnRow(emitter, row, fmt.Sprintf("unparseable row: %v", err))
			continue
		}
		if row < startIndex {
			continue
		}
		if len(patients) >= maxPatients {
			break
		}

		p, derr := parsePatientRow(header, record, row, idCol)
		if derr != nil {
			warnRow(emitter, row, derr.Error())
			continue
		}
		if seen[p.ID] {
			warnRow(emitter, row, fmt.Sprintf("duplicate encounter id %s", p.ID))
			continue
		}
		seen[p.ID] = true
		patients = append(patients, p)
	}

	logrus.Infof("loaded %d patients from %s (start index %d)", len(patients), path, startIndex)
	return patients, nil
}

func parsePatientRow(header, record []string, row, idCol int) (*Patient, error) {
	if len(record) != len(header) {
		return nil, NewDataError(row, fmt.Sprintf("expected %d fields, got %d", len(header), len(record)))
	}
	fv := make(FeatureVector, len(header))
	for i, col := range header {
		fv[col] = strings.TrimSpace(record[i])
	}
	id := strings.TrimSpace(record[idCol])
	if id == "" {
		return nil, NewDataError(row, "empty encounter id")
	}
	return &Patient{
		ID:                id,
		RowIndex:          row,
		Features:          fv,
		State:             PatientPending,
		LengthOfStayHours: Unassigned,
		Start:             Unassigned,
		Stop:              Unassigned,
	}, nil
}

// warnRow reports a skipped row. Intake runs before the orchestrator, so
// its warnings carry a phase marker: consumers reading the event stream
// must not mistake them for part of the pipeline_start..pipeline_complete
// frame.
func warnRow(emitter *events.Emitter, row int, reason string) {
	logrus.Warnf("patient csv row %d skipped: %s", row, reason)
	emitter.Emit(events.ValidationWarning, map[string]any{
		"source": "intake",
		"phase":  "pre_run",
		"row":    row,
		"reason": reason,
	})
}
