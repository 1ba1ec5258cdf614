package model

// ProductAttributes holds the inputs of the product scorer. Scores are
// conceptually 0-1; criticality and volatility may arrive on a 0-100 scale.
type ProductAttributes struct {
	CriticalityScore       *float64 `json:"criticality_score,omitempty" yaml:"criticality_score,omitempty"`
	PriceVolatility        *float64 `json:"price_volatility,omitempty" yaml:"price_volatility,omitempty"`
	SubstitutionDifficulty *float64 `json:"substitution_difficulty,omitempty" yaml:"substitution_difficulty,omitempty"`
	BasePriceUSD           *float64 `json:"base_price_usd,omitempty" yaml:"base_price_usd,omitempty"`
}

// MarketConditions are the market-wide inputs of the product scorer.
type MarketConditions struct {
	OverallVolatility     *float64 `json:"overall_volatility,omitempty" yaml:"overall_volatility,omitempty"`
	SupplyDemandImbalance *float64 `json:"supply_demand_imbalance,omitempty" yaml:"supply_demand_imbalance,omitempty"` // > 0 when demand exceeds supply
}

// Product is a scorable traded product.
type Product struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Category string `json:"category,omitempty" yaml:"category,omitempty"`
	HSCode   string `json:"hs_code,omitempty" yaml:"hs_code,omitempty"`

	ProductAttributes `yaml:",inline"`
}
