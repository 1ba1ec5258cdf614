package model

import "sort"

// Supplier breakdown keys.
const (
	KeyFinancialRisk   = "financial_risk"
	KeyCyberRisk       = "cyber_risk"
	KeyOperationalRisk = "operational_risk"
	KeyCountryRisk     = "country_risk"
	KeyTierRisk        = "tier_risk"
	KeyOverallRisk     = "overall_risk"
)

// Supply-chain assessment keys.
const (
	KeySupplierRisk            = "supplier_risk"
	KeyRouteRisk               = "route_risk"
	KeyProductRisk             = "product_risk"
	KeyConcentrationRisk       = "concentration_risk"
	KeyGeographicConcentration = "geographic_concentration"
	KeyOverallSupplyChainRisk  = "overall_supply_chain_risk"
)

// Breakdown maps named risk components to 0-100 values. Every breakdown
// carries a terminal overall key.
type Breakdown map[string]float64

// Overall returns the terminal score of the breakdown, whichever of the
// overall keys it carries.
func (b Breakdown) Overall() float64 {
	if v, ok := b[KeyOverallRisk]; ok {
		return v
	}
	return b[KeyOverallSupplyChainRisk]
}

// Keys returns the component names in sorted order.
func (b Breakdown) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
