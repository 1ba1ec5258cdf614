package model

// CountryAttributes holds the inputs of the country scorer. All indices are
// on a 0-100 scale where higher is better.
type CountryAttributes struct {
	PoliticalStabilityIndex   *float64 `json:"political_stability_index,omitempty" yaml:"political_stability_index,omitempty"`
	EconomicFreedomIndex      *float64 `json:"economic_freedom_index,omitempty" yaml:"economic_freedom_index,omitempty"`
	CorruptionPerceptionIndex *float64 `json:"corruption_perception_index,omitempty" yaml:"corruption_perception_index,omitempty"`
	GDPUSD                    *int64   `json:"gdp_usd,omitempty" yaml:"gdp_usd,omitempty"`
	Population                *int64   `json:"population,omitempty" yaml:"population,omitempty"`
}

// GDPPerCapita returns GDP divided by population. ok is false when either
// value is missing or population is not positive.
func (a CountryAttributes) GDPPerCapita() (perCapita float64, ok bool) {
	if a.GDPUSD == nil || a.Population == nil || *a.Population <= 0 {
		return 0, false
	}
	return float64(*a.GDPUSD) / float64(*a.Population), true
}

// Features maps the attributes onto the predictive model's feature names.
// Missing attributes are omitted so the model applies its own default.
func (a CountryAttributes) Features() map[string]float64 {
	f := make(map[string]float64, 4)
	if a.PoliticalStabilityIndex != nil {
		f["political_stability"] = *a.PoliticalStabilityIndex
	}
	if a.EconomicFreedomIndex != nil {
		f["economic_freedom"] = *a.EconomicFreedomIndex
	}
	if a.CorruptionPerceptionIndex != nil {
		f["corruption_index"] = *a.CorruptionPerceptionIndex
	}
	if pc, ok := a.GDPPerCapita(); ok {
		f["gdp_per_capita"] = pc
	}
	return f
}

// Country is a scorable country with identity.
type Country struct {
	ID     string `json:"id" yaml:"id"`
	Code   string `json:"country_code,omitempty" yaml:"country_code,omitempty"`
	Name   string `json:"country_name,omitempty" yaml:"country_name,omitempty"`
	Region string `json:"region,omitempty" yaml:"region,omitempty"`

	CountryAttributes `yaml:",inline"`

	// Extra model features (trade_volume, tariff_rate, cyber_incidents).
	Features map[string]float64 `json:"features,omitempty" yaml:"features,omitempty"`
}

// ModelFeatures merges derived attribute features with explicit extras.
// Explicit values win.
func (c Country) ModelFeatures() map[string]float64 {
	f := c.CountryAttributes.Features()
	for k, v := range c.Features {
		f[k] = v
	}
	return f
}
