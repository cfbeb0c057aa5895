package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Species enumerates the poultry species the incubator can schedule.
type Species string

const (
	SpeciesChicken Species = "chicken"
	SpeciesDuck    Species = "duck"
	SpeciesQuail   Species = "quail"
	SpeciesGoose   Species = "goose"
)

type speciesInfo struct {
	label          string
	incubationDays int
}

var speciesTable = map[Species]speciesInfo{
	SpeciesChicken: {label: "Chicken", incubationDays: 21},
	SpeciesDuck:    {label: "Duck", incubationDays: 28},
	SpeciesQuail:   {label: "Quail", incubationDays: 18},
	SpeciesGoose:   {label: "Goose", incubationDays: 30},
}

// speciesAliases maps the variant names written by the first version of the
// incubator app onto the current identifiers.
var speciesAliases = map[string]Species{
	"gallina": SpeciesChicken,
	"anatra":  SpeciesDuck,
	"quaglia": SpeciesQuail,
	"oca":     SpeciesGoose,
}

// AllSpecies lists every supported species in display order.
func AllSpecies() []Species {
	return []Species{SpeciesChicken, SpeciesDuck, SpeciesQuail, SpeciesGoose}
}

// IncubationDays returns the number of days eggs of this species need from
// insertion to hatching. Unknown values report 0.
func (s Species) IncubationDays() int {
	return speciesTable[s].incubationDays
}

// Label returns the human readable species name.
func (s Species) Label() string {
	if info, ok := speciesTable[s]; ok {
		return info.label
	}
	return string(s)
}

// Valid reports whether s is one of the enumerated species.
func (s Species) Valid() bool {
	_, ok := speciesTable[s]
	return ok
}

func (s Species) String() string {
	return string(s)
}

// ParseSpecies resolves a species identifier, case-insensitively.
func ParseSpecies(value string) (Species, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if sp := Species(normalized); sp.Valid() {
		return sp, nil
	}
	if sp, ok := speciesAliases[normalized]; ok {
		return sp, nil
	}
	return "", fmt.Errorf("unknown species %q", value)
}

// UnmarshalJSON accepts any spelling ParseSpecies understands.
func (s *Species) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("species must be a string: %w", err)
	}
	parsed, err := ParseSpecies(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
