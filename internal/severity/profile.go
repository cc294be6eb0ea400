// Package severity maps offense types to severity weights and computes
// district crime indexes from raw offense counts.
package severity

import (
	"fmt"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// DefaultCategory is the profile entry assigned to offense types missing
// from the table. Unknown types are never silently dropped.
const DefaultCategory = "Other Crime"

// Entry holds the severity parameters for one offense type.
type Entry struct {
	Severity float64 `yaml:"severity"` // 1-100
	Weight   float64 `yaml:"weight"`   // 1.0-3.0
}

// Profile is the static offense type -> severity reference table.
type Profile map[string]Entry

// DefaultProfile returns the built-in severity table covering the WA Police
// offense categories.
func DefaultProfile() Profile {
	return Profile{
		"Murder":                             {Severity: 100, Weight: 3.0},
		"Attempted Murder":                   {Severity: 95, Weight: 3.0},
		"Manslaughter":                       {Severity: 90, Weight: 3.0},
		"Sexual Assault":                     {Severity: 85, Weight: 2.8},
		"Aggravated Robbery":                 {Severity: 75, Weight: 2.5},
		"Non-Aggravated Robbery":             {Severity: 65, Weight: 2.3},
		"Assault (Family)":                   {Severity: 60, Weight: 2.2},
		"Assault (Non-Family)":               {Severity: 55, Weight: 2.0},
		"Threatening Behaviour":              {Severity: 45, Weight: 1.8},
		"Deprivation of Liberty":             {Severity: 70, Weight: 2.4},
		"Burglary":                           {Severity: 40, Weight: 2.0},
		"Stealing of Motor Vehicle":          {Severity: 35, Weight: 1.8},
		"Stealing":                           {Severity: 25, Weight: 1.5},
		"Property Damage":                    {Severity: 20, Weight: 1.4},
		"Arson":                              {Severity: 55, Weight: 2.2},
		"Drug Offences":                      {Severity: 30, Weight: 1.6},
		"Graffiti":                           {Severity: 10, Weight: 1.1},
		"Fraud & Related Offences":           {Severity: 25, Weight: 1.4},
		"Breach of Violence Restraint Order": {Severity: 50, Weight: 2.0},
		DefaultCategory:                      {Severity: 30, Weight: 1.5},
	}
}

// LoadProfile reads a severity table from a YAML file.
func LoadProfile(path string) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrap(err, "severity: read profile")
	}

	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "severity: parse profile")
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Lookup returns the entry for an offense type, falling back to the
// default category for unknown types.
func (p Profile) Lookup(offenseType string) Entry {
	if e, ok := p[offenseType]; ok {
		return e
	}
	return p[DefaultCategory]
}

// Validate checks every entry is in range and the default category exists.
// A bad table would silently bias every score, so this is fatal at startup.
func (p Profile) Validate() error {
	var errs []string

	if len(p) == 0 {
		errs = append(errs, "profile is empty")
	}
	if _, ok := p[DefaultCategory]; !ok {
		errs = append(errs, fmt.Sprintf("missing %q entry", DefaultCategory))
	}
	for name, e := range p {
		if e.Severity < 1 || e.Severity > 100 {
			errs = append(errs, fmt.Sprintf("%s: severity %.1f outside [1,100]", name, e.Severity))
		}
		if e.Weight < 1.0 || e.Weight > 3.0 {
			errs = append(errs, fmt.Sprintf("%s: weight %.2f outside [1.0,3.0]", name, e.Weight))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("severity: profile validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
