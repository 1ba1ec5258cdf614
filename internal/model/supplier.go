package model

// SupplierAttributes holds the inputs of the supplier scorer.
type SupplierAttributes struct {
	FinancialHealthScore *float64 `json:"financial_health_score,omitempty" yaml:"financial_health_score,omitempty"` // higher = better
	CyberRiskScore       *float64 `json:"cyber_risk_score,omitempty" yaml:"cyber_risk_score,omitempty"`             // higher = worse
	OperationalRiskScore *float64 `json:"operational_risk_score,omitempty" yaml:"operational_risk_score,omitempty"` // higher = worse
	Tier                 *int     `json:"tier,omitempty" yaml:"tier,omitempty"`                                     // 1 (direct) .. 6 (deepest)
	AnnualRevenue        *float64 `json:"annual_revenue,omitempty" yaml:"annual_revenue,omitempty"`
}

// Supplier is a scorable supplier located in a country.
type Supplier struct {
	ID        string `json:"id" yaml:"id"`
	Name      string `json:"name,omitempty" yaml:"name,omitempty"`
	CountryID string `json:"country_id,omitempty" yaml:"country_id,omitempty"`
	Industry  string `json:"industry,omitempty" yaml:"industry,omitempty"`

	SupplierAttributes `yaml:",inline"`
}
