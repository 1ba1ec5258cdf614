package assess

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sentinel/internal/config"
	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/predict"
	"github.com/sells-group/sentinel/internal/scorer"
)

func newTestEngine(t *testing.T) *scorer.Engine {
	t.Helper()
	e, err := scorer.NewEngine(config.DefaultWeights())
	require.NoError(t, err)
	return e
}

func testPortfolio() *Portfolio {
	return &Portfolio{
		Countries: []model.Country{
			{ID: "DE", Name: "Germany", Region: "Europe", CountryAttributes: model.CountryAttributes{
				PoliticalStabilityIndex:   model.Ptr(85.0),
				EconomicFreedomIndex:      model.Ptr(80.0),
				CorruptionPerceptionIndex: model.Ptr(79.0),
				GDPUSD:                    model.Ptr(int64(4_200_000_000_000)),
				Population:                model.Ptr(int64(84_000_000)),
			}},
			{ID: "XX", Name: "Unstable", CountryAttributes: model.CountryAttributes{
				PoliticalStabilityIndex:   model.Ptr(5.0),
				EconomicFreedomIndex:      model.Ptr(10.0),
				CorruptionPerceptionIndex: model.Ptr(8.0),
			}},
		},
		Suppliers: []model.Supplier{
			{ID: "s1", CountryID: "DE", Industry: "chips", SupplierAttributes: model.SupplierAttributes{
				FinancialHealthScore: model.Ptr(85.0),
				CyberRiskScore:       model.Ptr(30.0),
				OperationalRiskScore: model.Ptr(40.0),
				Tier:                 model.Ptr(1),
			}},
			{ID: "s2", CountryID: "XX", Industry: "chips", SupplierAttributes: model.SupplierAttributes{
				FinancialHealthScore: model.Ptr(10.0),
				CyberRiskScore:       model.Ptr(95.0),
				OperationalRiskScore: model.Ptr(90.0),
				Tier:                 model.Ptr(6),
			}},
			{ID: "s3", CountryID: "ZZ"},
		},
		Routes: []model.TradeRoute{
			{ID: "r1", OriginCountryID: "XX", DestinationCountryID: "DE", RouteAttributes: model.RouteAttributes{
				DistanceKM: model.Ptr(12000.0), RouteType: model.RouteSea, ChokepointRisk: model.Ptr(60.0),
			}},
		},
		Products: []model.Product{
			{ID: "p1", ProductAttributes: model.ProductAttributes{CriticalityScore: model.Ptr(0.9)}},
			{ID: "p2"},
		},
		Market: model.MarketConditions{SupplyDemandImbalance: model.Ptr(0.3)},
		Companies: []model.Company{
			{ID: "acme", Name: "Acme"},
			{ID: "narrow", SupplierIDs: []string{"s1", "nope"}, RouteIDs: []string{"r1"}, ProductIDs: []string{"p1"}},
		},
	}
}

func TestAssess_MatchesEngine(t *testing.T) {
	e := newTestEngine(t)
	p := testPortfolio()
	a := New(e, nil, Options{MaxConcurrency: 4})

	res, err := a.Assess(context.Background(), p)
	require.NoError(t, err)

	require.Len(t, res.Countries, 2)
	de := e.CountryRisk(p.Countries[0].CountryAttributes)
	xx := e.CountryRisk(p.Countries[1].CountryAttributes)
	assert.Equal(t, de, res.Countries[0].Score)
	assert.Equal(t, xx, res.Countries[1].Score)
	assert.Equal(t, model.SourceRules, res.Countries[0].Source)

	require.Len(t, res.Suppliers, 3)
	assert.Equal(t, e.SupplierRisk(p.Suppliers[0].SupplierAttributes, de), res.Suppliers[0].Breakdown)
	assert.Equal(t, e.SupplierRisk(p.Suppliers[1].SupplierAttributes, xx), res.Suppliers[1].Breakdown)
	assert.InDelta(t, scorer.NeutralScore, res.Suppliers[2].Breakdown[model.KeyCountryRisk], 0, "unknown country is neutral")

	require.Len(t, res.Routes, 1)
	assert.Equal(t, e.RouteRisk(p.Routes[0].RouteAttributes, xx, de), res.Routes[0].Score)

	require.Len(t, res.Products, 2)
	assert.Equal(t, e.ProductRisk(p.Products[0].ProductAttributes, p.Market), res.Products[0].Score)
}

func TestAssess_Companies(t *testing.T) {
	e := newTestEngine(t)
	p := testPortfolio()
	res, err := New(e, nil, Options{MaxConcurrency: 2}).Assess(context.Background(), p)
	require.NoError(t, err)
	require.Len(t, res.Companies, 2)

	acme := res.Companies[0]
	assert.Equal(t, 3, acme.Suppliers, "empty list selects all")
	assert.Equal(t, 1, acme.Routes)
	assert.Equal(t, 2, acme.Products)

	narrow := res.Companies[1]
	assert.Equal(t, 1, narrow.Suppliers, "unknown id skipped")
	assert.Equal(t, 1, narrow.Routes)
	assert.Equal(t, 1, narrow.Products)

	want := e.SupplyChainRisk(p.Companies[1],
		[]model.ScoredSupplier{{ID: "s1", CountryID: "DE", OverallRiskScore: model.Ptr(res.Suppliers[0].Breakdown.Overall())}},
		[]model.ScoredRoute{{ID: "r1", VulnerabilityScore: model.Ptr(res.Routes[0].Score)}},
		[]model.ScoredProduct{{ID: "p1", CriticalityScore: model.Ptr(0.9)}},
	)
	assert.Equal(t, want, narrow.Breakdown)
}

func TestAssess_EmptyPortfolio(t *testing.T) {
	res, err := New(newTestEngine(t), nil, Options{}).Assess(context.Background(), &Portfolio{
		Companies: []model.Company{{ID: "solo"}},
	})
	require.NoError(t, err)
	require.Len(t, res.Companies, 1)
	assert.InDelta(t, 62.5, res.Companies[0].Breakdown.Overall(), 1e-9)
	assert.Zero(t, res.Summary.AverageCountryRisk)
	assert.Nil(t, res.Summary.Regions)
}

func TestAssess_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(newTestEngine(t), nil, Options{MaxConcurrency: 2}).Assess(ctx, testPortfolio())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assess: score countries")
}

func trainedPredictor(t *testing.T) *predict.Predictor {
	t.Helper()
	ds := &model.Dataset{Columns: []string{"political_stability"}}
	for i := range 100 {
		ds.Records = append(ds.Records, model.Record{
			Values: map[string]float64{"political_stability": float64(i)},
			Target: model.Ptr(100 - float64(i)),
		})
	}
	opts := predict.DefaultOptions()
	opts.Trees = 20
	opts.BoostStages = 50
	p := predict.New(config.DefaultWeights(), opts)
	_, err := p.Train(context.Background(), ds)
	require.NoError(t, err)
	return p
}

func TestAssess_UsePredictor(t *testing.T) {
	e := newTestEngine(t)
	p := testPortfolio()

	res, err := New(e, trainedPredictor(t), Options{UsePredictor: true}).Assess(context.Background(), p)
	require.NoError(t, err)

	de := res.Countries[0]
	assert.Equal(t, model.SourceModel, de.Source)
	assert.InDelta(t, 15, de.Score, 10)
	assert.GreaterOrEqual(t, de.Score, 0.0)
	assert.LessOrEqual(t, de.Score, 100.0)

	// Supplier country risk follows the model score.
	assert.Equal(t, de.Score, res.Suppliers[0].Breakdown[model.KeyCountryRisk])
}

func TestAssess_UntrainedPredictorFallsBack(t *testing.T) {
	e := newTestEngine(t)
	p := testPortfolio()
	untrained := predict.New(config.DefaultWeights(), predict.DefaultOptions())

	res, err := New(e, untrained, Options{UsePredictor: true}).Assess(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, model.SourceRules, res.Countries[0].Source)
	assert.Equal(t, e.CountryRisk(p.Countries[0].CountryAttributes), res.Countries[0].Score)
}

func TestResult_EntityScores(t *testing.T) {
	res, err := New(newTestEngine(t), nil, Options{}).Assess(context.Background(), testPortfolio())
	require.NoError(t, err)

	scores := res.EntityScores()
	require.Len(t, scores, 10)

	assert.Equal(t, model.EntityCountry, scores[0].EntityType)
	assert.Equal(t, "Germany", scores[0].Name)

	sup := scores[2]
	assert.Equal(t, model.EntitySupplier, sup.EntityType)
	assert.Equal(t, res.Suppliers[0].Breakdown.Overall(), sup.Score)
	assert.Equal(t, res.Suppliers[0].Breakdown, sup.Components)

	assert.Equal(t, model.EntityRoute, scores[5].EntityType)
	assert.Equal(t, model.EntityProduct, scores[6].EntityType)

	last := scores[9]
	assert.Equal(t, model.EntityCompany, last.EntityType)
	assert.Equal(t, "narrow", last.EntityID)
	assert.Contains(t, last.Components, model.KeyOverallSupplyChainRisk)

	for _, s := range scores {
		assert.GreaterOrEqual(t, s.Score, 0.0)
		assert.LessOrEqual(t, s.Score, 100.0)
	}
}

func TestSummary(t *testing.T) {
	res := &Result{
		Countries: []CountryResult{
			{ID: "a", Region: "Asia", Score: 80},
			{ID: "b", Region: "Asia", Score: 60},
			{ID: "c", Score: 10},
		},
		Suppliers: []SupplierResult{
			{ID: "s1", Industry: "chips", Breakdown: model.Breakdown{model.KeyOverallRisk: 70}},
			{ID: "s2", Breakdown: model.Breakdown{model.KeyOverallRisk: 20}},
		},
		Routes:   []RouteResult{{ID: "r", Score: 69.99}},
		Products: []ProductResult{{ID: "p", Score: 40}},
	}

	s := summarize(res, DefaultHighRiskScore)
	assert.Equal(t, 3, s.Countries)
	assert.Equal(t, 2, s.Suppliers)
	assert.InDelta(t, 50, s.AverageCountryRisk, 1e-9)
	assert.InDelta(t, 45, s.AverageSupplierRisk, 1e-9)
	assert.InDelta(t, 69.99, s.AverageRouteRisk, 1e-9)
	assert.InDelta(t, 40, s.AverageProductRisk, 1e-9)
	assert.Equal(t, 1, s.HighRiskCountries)
	assert.Equal(t, 1, s.HighRiskSuppliers, "threshold is inclusive")
	assert.Equal(t, 0, s.HighRiskRoutes)

	assert.Equal(t, []GroupSummary{
		{Name: "Asia", Count: 2, AverageRisk: 70},
		{Name: unknownGroup, Count: 1, AverageRisk: 10},
	}, s.Regions)
	assert.Equal(t, []GroupSummary{
		{Name: "chips", Count: 1, AverageRisk: 70},
		{Name: unknownGroup, Count: 1, AverageRisk: 20},
	}, s.Industries)
}
