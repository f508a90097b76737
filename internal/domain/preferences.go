package domain

import (
	"encoding/json"
	"math"
	"sort"

	"github.com/samber/oops"
)

// Inclusive bounds for every preference trait
const (
	MinPreference = 1
	MaxPreference = 10
)

// Preferences holds the investor profile traits. A nil trait was never set.
type Preferences struct {
	RiskAversion        *int `json:"riskAversion,omitempty"`
	VolatilityTolerance *int `json:"volatilityTolerance,omitempty"`
	GrowthFocus         *int `json:"growthFocus,omitempty"`
	CryptoExperience    *int `json:"cryptoExperience,omitempty"`
	InnovationTrust     *int `json:"innovationTrust,omitempty"`
	ImpactInterest      *int `json:"impactInterest,omitempty"`
	Diversification     *int `json:"diversification,omitempty"`
	HoldingPatience     *int `json:"holdingPatience,omitempty"`
	MonitoringFrequency *int `json:"monitoringFrequency,omitempty"`
	AdviceOpenness      *int `json:"adviceOpenness,omitempty"`
}

type trait struct {
	name   string
	column string
	field  func(p *Preferences) **int
}

var traits = []trait{
	{"riskAversion", "risk_aversion", func(p *Preferences) **int { return &p.RiskAversion }},
	{"volatilityTolerance", "volatility_tolerance", func(p *Preferences) **int { return &p.VolatilityTolerance }},
	{"growthFocus", "growth_focus", func(p *Preferences) **int { return &p.GrowthFocus }},
	{"cryptoExperience", "crypto_experience", func(p *Preferences) **int { return &p.CryptoExperience }},
	{"innovationTrust", "innovation_trust", func(p *Preferences) **int { return &p.InnovationTrust }},
	{"impactInterest", "impact_interest", func(p *Preferences) **int { return &p.ImpactInterest }},
	{"diversification", "diversification", func(p *Preferences) **int { return &p.Diversification }},
	{"holdingPatience", "holding_patience", func(p *Preferences) **int { return &p.HoldingPatience }},
	{"monitoringFrequency", "monitoring_frequency", func(p *Preferences) **int { return &p.MonitoringFrequency }},
	{"adviceOpenness", "advice_openness", func(p *Preferences) **int { return &p.AdviceOpenness }},
}

var traitsByName = func() map[string]trait {
	m := make(map[string]trait, len(traits))
	for _, t := range traits {
		m[t.name] = t
	}
	return m
}()

// ParsePreferences validates raw decoded JSON values keyed by trait name.
// Every value is checked before anything is returned, so a single bad trait
// rejects the whole set. Unknown names are rejected too.
func ParsePreferences(raw map[string]any) (Preferences, error) {
	var prefs Preferences

	// Sorted so the reported trait is stable when several are invalid.
	names := make([]string, 0, len(raw))
	for name := range raw {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		t, ok := traitsByName[name]
		if !ok {
			return Preferences{}, oops.With("trait", name).
				Wrapf(ErrInvalidPreferenceValue, "unknown preference %q", name)
		}
		v, err := preferenceValue(name, raw[name])
		if err != nil {
			return Preferences{}, err
		}
		*t.field(&prefs) = &v
	}
	return prefs, nil
}

func preferenceValue(name string, value any) (int, error) {
	var f float64
	switch v := value.(type) {
	case float64:
		f = v
	case float32:
		f = float64(v)
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, invalidPreference(name, value)
		}
		f = parsed
	default:
		return 0, invalidPreference(name, value)
	}
	if math.IsNaN(f) || f != math.Trunc(f) || f < MinPreference || f > MaxPreference {
		return 0, invalidPreference(name, value)
	}
	return int(f), nil
}

func invalidPreference(name string, value any) error {
	return oops.With("trait", name).With("value", value).
		Wrapf(ErrInvalidPreferenceValue, "%s must be a number between %d and %d", name, MinPreference, MaxPreference)
}

// Fields returns the column updates for every trait that is set.
func (p Preferences) Fields() Fields {
	fields := Fields{}
	for _, t := range traits {
		if v := *t.field(&p); v != nil {
			fields[t.column] = *v
		}
	}
	return fields
}

// setColumn assigns a trait by its column name.
func (p *Preferences) setColumn(column string, value int) bool {
	for _, t := range traits {
		if t.column == column {
			*t.field(p) = &value
			return true
		}
	}
	return false
}

// Clone returns a deep copy.
func (p Preferences) Clone() Preferences {
	var cp Preferences
	for _, t := range traits {
		if v := *t.field(&p); v != nil {
			n := *v
			*t.field(&cp) = &n
		}
	}
	return cp
}
