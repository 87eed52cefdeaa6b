// Roster parsing: rooms and nurses as configured by environment or
// scenario preset. Room specs are compact strings ("302:icu"), nurse
// rosters are JSON arrays matching the shape the ward systems export.

package alloc

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ParseRoomSpecs builds rooms from a comma-separated list of specs, each
// "id", "id:category", or "id:category:floor". Category defaults to
// General; floor defaults to the leading digit of a numeric id (room 302
// sits on floor 3) and to 1 otherwise.
func ParseRoomSpecs(list string) ([]*Room, error) {
	var rooms []*Room
	seen := make(map[string]bool)
	for _, raw := range strings.Split(list, ",") {
		spec := strings.TrimSpace(raw)
		if spec == "" {
			continue
		}
		room, err := parseRoomSpec(spec)
		if err != nil {
			return nil, err
		}
		if seen[room.ID] {
			return nil, NewConfigError(fmt.Sprintf("duplicate room id %s", room.ID), nil)
		}
		seen[room.ID] = true
		rooms = append(rooms, room)
	}
	if len(rooms) == 0 {
		return nil, NewConfigError("room roster is empty", nil)
	}
	return rooms, nil
}

func parseRoomSpec(spec string) (*Room, error) {
	parts := strings.Split(spec, ":")
	room := &Room{ID: strings.TrimSpace(parts[0]), Category: RoomGeneral, Start: Unassigned, Stop: Unassigned}
	if room.ID == "" {
		return nil, NewConfigError(fmt.Sprintf("room spec %q has empty id", spec), nil)
	}
	if len(parts) > 1 && parts[1] != "" {
		cat, err := parseRoomCategory(parts[1])
		if err != nil {
			return nil, err
		}
		room.Category = cat
	}
	if len(parts) > 2 && parts[2] != "" {
		floor, err := strconv.Atoi(strings.TrimSpace(parts[2]))
		if err != nil {
			return nil, NewConfigError(fmt.Sprintf("room spec %q has bad floor", spec), err)
		}
		room.Floor = floor
	} else {
		room.Floor = inferFloor(room.ID)
	}
	if len(parts) > 3 {
		return nil, NewConfigError(fmt.Sprintf("room spec %q has too many fields", spec), nil)
	}
	return room, nil
}

func parseRoomCategory(s string) (RoomCategory, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "general":
		return RoomGeneral, nil
	case "icu":
		return RoomICU, nil
	case "isolation", "negative-pressure":
		return RoomIsolation, nil
	default:
		return "", NewConfigError(fmt.Sprintf("unknown room category %q", s), nil)
	}
}

// inferFloor reads the floor from the leading digit of a numeric room id
// (302 -> 3). Non-numeric ids land on floor 1.
func inferFloor(id string) int {
	if len(id) > 0 && id[0] >= '1' && id[0] <= '9' {
		if _, err := strconv.Atoi(id); err == nil {
			return int(id[0] - '0')
		}
	}
	return 1
}

// nurseSpec mirrors the JSON shape of exported nurse rosters.
type nurseSpec struct {
	Name           string   `json:"name"`
	Certifications []string `json:"certifications"`
	Load           int      `json:"load"`
}

// ParseNurseRoster builds nurses from a JSON array of
// {"name", "certifications", "load"} objects.
func ParseNurseRoster(data []byte) ([]*Nurse, error) {
	var specs []nurseSpec
	if err := json.Unmarshal(data, &specs); err != nil {
		return nil, NewConfigError("parsing nurse roster json", err)
	}
	var nurses []*Nurse
	seen := make(map[string]bool)
	for i, s := range specs {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return nil, NewConfigError(fmt.Sprintf("nurse roster entry %d has empty name", i), nil)
		}
		if seen[name] {
			return nil, NewConfigError(fmt.Sprintf("duplicate nurse %s", name), nil)
		}
		seen[name] = true
		certs := s.Certifications
		if len(certs) == 0 {
			certs = []string{CertGeneral}
		}
		nurses = append(nurses, NewNurse(name, certs, s.Load))
	}
	if len(nurses) == 0 {
		return nil, NewConfigError("nurse roster is empty", nil)
	}
	return nurses, nil
}

// DefaultRooms returns the fallback roster used when nothing is
// configured: fifty general rooms split across two floors, numbered the
// way the ward numbers physical beds.
func DefaultRooms() []*Room {
	rooms := make([]*Room, 0, 50)
	for i := 0; i < 50; i++ {
		floor := 1 + i%2
		id := fmt.Sprintf("%d%02d", floor, i/2+1)
		rooms = append(rooms, &Room{ID: id, Floor: floor, Category: RoomGeneral, Start: Unassigned, Stop: Unassigned})
	}
	return rooms
}

// DefaultNurses returns the fallback nurse roster: thirty nurses, every
// third one ICU-certified and every fifth isolation-certified so the
// default scenarios always have qualified coverage.
func DefaultNurses() []*Nurse {
	nurses := make([]*Nurse, 0, 30)
	for i := 1; i <= 30; i++ {
		certs := []string{CertGeneral}
		if i%3 == 0 {
			certs = append(certs, CertICU)
		}
		if i%5 == 0 {
			certs = append(certs, CertIsolation)
		}
		nurses = append(nurses, NewNurse(fmt.Sprintf("Nurse_%d", i), certs, 0))
	}
	return nurses
}
