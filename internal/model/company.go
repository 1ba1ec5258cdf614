package model

// Company is the organization whose supply chain is assessed. The id lists
// reference portfolio entities; an empty list means all of that kind.
type Company struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name,omitempty" yaml:"name,omitempty"`
	Sector      string   `json:"sector,omitempty" yaml:"sector,omitempty"`
	SupplierIDs []string `json:"supplier_ids,omitempty" yaml:"supplier_ids,omitempty"`
	RouteIDs    []string `json:"route_ids,omitempty" yaml:"route_ids,omitempty"`
	ProductIDs  []string `json:"product_ids,omitempty" yaml:"product_ids,omitempty"`
}

// ScoredSupplier is a supplier whose overall risk was already computed.
type ScoredSupplier struct {
	ID               string   `json:"id,omitempty" yaml:"id,omitempty"`
	CountryID        string   `json:"country_id,omitempty" yaml:"country_id,omitempty"`
	OverallRiskScore *float64 `json:"overall_risk_score,omitempty" yaml:"overall_risk_score,omitempty"`
}

// ScoredRoute is a route whose vulnerability was already computed.
type ScoredRoute struct {
	ID                 string   `json:"id,omitempty" yaml:"id,omitempty"`
	VulnerabilityScore *float64 `json:"vulnerability_score,omitempty" yaml:"vulnerability_score,omitempty"`
}

// ScoredProduct carries the product criticality used as its risk proxy,
// either as a 0-1 fraction or on a 0-100 scale.
type ScoredProduct struct {
	ID               string   `json:"id,omitempty" yaml:"id,omitempty"`
	CriticalityScore *float64 `json:"criticality_score,omitempty" yaml:"criticality_score,omitempty"`
}
