package assess

import (
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/model"
)

// chainIndex holds the scored entities a company's supply chain is built from.
type chainIndex struct {
	suppliers []model.ScoredSupplier
	routes    []model.ScoredRoute
	products  []model.ScoredProduct

	supplierByID map[string]int
	routeByID    map[string]int
	productByID  map[string]int
}

func newChainIndex(p *Portfolio, res *Result) *chainIndex {
	ci := &chainIndex{
		suppliers:    make([]model.ScoredSupplier, len(res.Suppliers)),
		routes:       make([]model.ScoredRoute, len(res.Routes)),
		products:     make([]model.ScoredProduct, len(p.Products)),
		supplierByID: make(map[string]int, len(res.Suppliers)),
		routeByID:    make(map[string]int, len(res.Routes)),
		productByID:  make(map[string]int, len(p.Products)),
	}
	for i, s := range res.Suppliers {
		ci.suppliers[i] = model.ScoredSupplier{
			ID:               s.ID,
			CountryID:        s.CountryID,
			OverallRiskScore: model.Ptr(s.Breakdown.Overall()),
		}
		ci.supplierByID[s.ID] = i
	}
	for i, r := range res.Routes {
		ci.routes[i] = model.ScoredRoute{ID: r.ID, VulnerabilityScore: model.Ptr(r.Score)}
		ci.routeByID[r.ID] = i
	}
	// Product criticality, not the product score, is the aggregator's proxy.
	for i, pr := range p.Products {
		ci.products[i] = model.ScoredProduct{ID: pr.ID, CriticalityScore: pr.CriticalityScore}
		ci.productByID[pr.ID] = i
	}
	return ci
}

// resolve returns the entities a company references. An empty id list
// selects every entity of that kind; unknown ids are skipped.
func (ci *chainIndex) resolve(c model.Company) ([]model.ScoredSupplier, []model.ScoredRoute, []model.ScoredProduct) {
	return pick(c.ID, model.EntitySupplier, c.SupplierIDs, ci.suppliers, ci.supplierByID),
		pick(c.ID, model.EntityRoute, c.RouteIDs, ci.routes, ci.routeByID),
		pick(c.ID, model.EntityProduct, c.ProductIDs, ci.products, ci.productByID)
}

func pick[T any](companyID string, kind model.EntityType, ids []string, all []T, byID map[string]int) []T {
	if len(ids) == 0 {
		return all
	}
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		i, ok := byID[id]
		if !ok {
			zap.L().Warn("assess: company references unknown entity",
				zap.String("company_id", companyID),
				zap.String("entity_type", string(kind)),
				zap.String("entity_id", id),
			)
			continue
		}
		out = append(out, all[i])
	}
	return out
}
