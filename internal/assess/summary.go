package assess

import "sort"

// Summary is the dashboard view of an assessment.
type Summary struct {
	Countries int `json:"total_countries"`
	Suppliers int `json:"total_suppliers"`
	Routes    int `json:"total_routes"`
	Products  int `json:"total_products"`
	Companies int `json:"total_companies"`

	AverageCountryRisk  float64 `json:"average_country_risk"`
	AverageSupplierRisk float64 `json:"average_supplier_risk"`
	AverageRouteRisk    float64 `json:"average_route_vulnerability"`
	AverageProductRisk  float64 `json:"average_product_risk"`

	HighRiskThreshold float64 `json:"high_risk_threshold"`
	HighRiskCountries int     `json:"high_risk_countries"`
	HighRiskSuppliers int     `json:"high_risk_suppliers"`
	HighRiskRoutes    int     `json:"high_risk_routes"`

	Regions    []GroupSummary `json:"regions,omitempty"`
	Industries []GroupSummary `json:"industries,omitempty"`
}

// GroupSummary aggregates the scores of one region or industry.
type GroupSummary struct {
	Name        string  `json:"name"`
	Count       int     `json:"count"`
	AverageRisk float64 `json:"average_risk"`
}

// unknownGroup names entities without a region or industry.
const unknownGroup = "unknown"

func summarize(r *Result, threshold float64) Summary {
	s := Summary{
		Countries:         len(r.Countries),
		Suppliers:         len(r.Suppliers),
		Routes:            len(r.Routes),
		Products:          len(r.Products),
		Companies:         len(r.Companies),
		HighRiskThreshold: threshold,
	}

	regions := newGrouper()
	var countryScores []float64
	for _, c := range r.Countries {
		countryScores = append(countryScores, c.Score)
		regions.add(c.Region, c.Score)
		if c.Score >= threshold {
			s.HighRiskCountries++
		}
	}

	industries := newGrouper()
	var supplierScores []float64
	for _, sup := range r.Suppliers {
		v := sup.Breakdown.Overall()
		supplierScores = append(supplierScores, v)
		industries.add(sup.Industry, v)
		if v >= threshold {
			s.HighRiskSuppliers++
		}
	}

	var routeScores []float64
	for _, rt := range r.Routes {
		routeScores = append(routeScores, rt.Score)
		if rt.Score >= threshold {
			s.HighRiskRoutes++
		}
	}

	var productScores []float64
	for _, p := range r.Products {
		productScores = append(productScores, p.Score)
	}

	s.AverageCountryRisk = mean(countryScores)
	s.AverageSupplierRisk = mean(supplierScores)
	s.AverageRouteRisk = mean(routeScores)
	s.AverageProductRisk = mean(productScores)
	s.Regions = regions.summaries()
	s.Industries = industries.summaries()
	return s
}

type grouper struct {
	sums   map[string]float64
	counts map[string]int
}

func newGrouper() *grouper {
	return &grouper{sums: map[string]float64{}, counts: map[string]int{}}
}

func (g *grouper) add(name string, v float64) {
	if name == "" {
		name = unknownGroup
	}
	g.sums[name] += v
	g.counts[name]++
}

func (g *grouper) summaries() []GroupSummary {
	if len(g.counts) == 0 {
		return nil
	}
	out := make([]GroupSummary, 0, len(g.counts))
	for name, n := range g.counts {
		out = append(out, GroupSummary{Name: name, Count: n, AverageRisk: g.sums[name] / float64(n)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// mean is 0 for no values.
func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}
