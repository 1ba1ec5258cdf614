// Package assess scores a whole portfolio: countries first, then the
// suppliers, routes and products that depend on them, and finally each
// company's supply chain.
package assess

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/predict"
	"github.com/sells-group/sentinel/internal/scorer"
)

// DefaultHighRiskScore is the threshold at or above which an entity counts
// as high risk in the summary.
const DefaultHighRiskScore = 70.0

// Options configures an Assessor.
type Options struct {
	UsePredictor   bool
	MaxConcurrency int
	HighRiskScore  float64
}

// Assessor runs portfolio assessments with one engine and an optional
// trained predictor.
type Assessor struct {
	engine    *scorer.Engine
	predictor *predict.Predictor
	opts      Options
}

// New creates an Assessor. predictor may be nil.
func New(engine *scorer.Engine, predictor *predict.Predictor, opts Options) *Assessor {
	if opts.MaxConcurrency < 1 {
		opts.MaxConcurrency = 1
	}
	if opts.HighRiskScore <= 0 {
		opts.HighRiskScore = DefaultHighRiskScore
	}
	return &Assessor{engine: engine, predictor: predictor, opts: opts}
}

// CountryResult is the score of one country.
type CountryResult struct {
	ID     string  `json:"id"`
	Name   string  `json:"name,omitempty"`
	Region string  `json:"region,omitempty"`
	Score  float64 `json:"score"`
	Source string  `json:"source"`
}

// SupplierResult is the breakdown of one supplier.
type SupplierResult struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	CountryID string          `json:"country_id,omitempty"`
	Industry  string          `json:"industry,omitempty"`
	Breakdown model.Breakdown `json:"breakdown"`
}

// RouteResult is the vulnerability score of one trade route.
type RouteResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Score float64 `json:"score"`
}

// ProductResult is the risk score of one product.
type ProductResult struct {
	ID    string  `json:"id"`
	Name  string  `json:"name,omitempty"`
	Score float64 `json:"score"`
}

// CompanyResult is the supply-chain assessment of one company.
type CompanyResult struct {
	ID        string          `json:"id"`
	Name      string          `json:"name,omitempty"`
	Sector    string          `json:"sector,omitempty"`
	Suppliers int             `json:"suppliers"`
	Routes    int             `json:"routes"`
	Products  int             `json:"products"`
	Breakdown model.Breakdown `json:"breakdown"`
}

// Result holds every score produced by one assessment.
type Result struct {
	Countries []CountryResult  `json:"countries"`
	Suppliers []SupplierResult `json:"suppliers"`
	Routes    []RouteResult    `json:"routes"`
	Products  []ProductResult  `json:"products"`
	Companies []CompanyResult  `json:"companies"`
	Summary   Summary          `json:"summary"`
}

// Assess scores every entity of the portfolio. Results keep the portfolio
// order. Only cancellation makes it fail.
func (a *Assessor) Assess(ctx context.Context, p *Portfolio) (*Result, error) {
	start := time.Now()
	res := &Result{
		Countries: make([]CountryResult, len(p.Countries)),
		Suppliers: make([]SupplierResult, len(p.Suppliers)),
		Routes:    make([]RouteResult, len(p.Routes)),
		Products:  make([]ProductResult, len(p.Products)),
		Companies: make([]CompanyResult, len(p.Companies)),
	}

	useModel := a.opts.UsePredictor && a.predictor != nil && a.predictor.Trained()
	if a.opts.UsePredictor && !useModel {
		zap.L().Warn("assess: predictor requested but not trained, using rule-based country scores")
	}

	err := a.each(ctx, len(p.Countries), func(i int) {
		c := p.Countries[i]
		r := CountryResult{ID: c.ID, Name: c.Name, Region: c.Region, Source: model.SourceRules}
		if useModel {
			r.Score = scorer.Clamp(a.predictor.Predict(c.ModelFeatures()))
			r.Source = model.SourceModel
		} else {
			r.Score = a.engine.CountryRisk(c.CountryAttributes)
		}
		res.Countries[i] = r
	})
	if err != nil {
		return nil, eris.Wrap(err, "assess: score countries")
	}

	countryRisk := make(map[string]float64, len(res.Countries))
	for _, c := range res.Countries {
		countryRisk[c.ID] = c.Score
	}
	lookup := func(id string) float64 {
		if v, ok := countryRisk[id]; ok {
			return v
		}
		if id != "" {
			zap.L().Debug("assess: unknown country, using neutral risk", zap.String("country_id", id))
		}
		return scorer.NeutralScore
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.each(gctx, len(p.Suppliers), func(i int) {
			s := p.Suppliers[i]
			res.Suppliers[i] = SupplierResult{
				ID:        s.ID,
				Name:      s.Name,
				CountryID: s.CountryID,
				Industry:  s.Industry,
				Breakdown: a.engine.SupplierRisk(s.SupplierAttributes, lookup(s.CountryID)),
			}
		})
	})
	g.Go(func() error {
		return a.each(gctx, len(p.Routes), func(i int) {
			r := p.Routes[i]
			res.Routes[i] = RouteResult{
				ID:    r.ID,
				Name:  r.Name,
				Score: a.engine.RouteRisk(r.RouteAttributes, lookup(r.OriginCountryID), lookup(r.DestinationCountryID)),
			}
		})
	})
	g.Go(func() error {
		return a.each(gctx, len(p.Products), func(i int) {
			pr := p.Products[i]
			res.Products[i] = ProductResult{
				ID:    pr.ID,
				Name:  pr.Name,
				Score: a.engine.ProductRisk(pr.ProductAttributes, p.Market),
			}
		})
	})
	if err := g.Wait(); err != nil {
		return nil, eris.Wrap(err, "assess: score entities")
	}

	chains := newChainIndex(p, res)
	err = a.each(ctx, len(p.Companies), func(i int) {
		c := p.Companies[i]
		suppliers, routes, products := chains.resolve(c)
		res.Companies[i] = CompanyResult{
			ID:        c.ID,
			Name:      c.Name,
			Sector:    c.Sector,
			Suppliers: len(suppliers),
			Routes:    len(routes),
			Products:  len(products),
			Breakdown: a.engine.SupplyChainRisk(c, suppliers, routes, products),
		}
	})
	if err != nil {
		return nil, eris.Wrap(err, "assess: score companies")
	}

	res.Summary = summarize(res, a.opts.HighRiskScore)

	zap.L().Info("assess: portfolio scored",
		zap.Int("countries", len(res.Countries)),
		zap.Int("suppliers", len(res.Suppliers)),
		zap.Int("routes", len(res.Routes)),
		zap.Int("products", len(res.Products)),
		zap.Int("companies", len(res.Companies)),
		zap.Bool("model", useModel),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, nil
}

// each runs fn for 0..n-1 with at most MaxConcurrency calls in flight. fn
// writes only to its own index.
func (a *Assessor) each(ctx context.Context, n int, fn func(i int)) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.opts.MaxConcurrency)
	for i := range n {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			fn(i)
			return nil
		})
	}
	return g.Wait()
}

// EntityScores flattens the result for the store.
func (r *Result) EntityScores() []model.EntityScore {
	out := make([]model.EntityScore, 0, len(r.Countries)+len(r.Suppliers)+len(r.Routes)+len(r.Products)+len(r.Companies))
	for _, c := range r.Countries {
		out = append(out, model.EntityScore{
			EntityType: model.EntityCountry, EntityID: c.ID, Name: c.Name, Score: c.Score, Source: c.Source,
		})
	}
	for _, s := range r.Suppliers {
		out = append(out, model.EntityScore{
			EntityType: model.EntitySupplier, EntityID: s.ID, Name: s.Name,
			Score: s.Breakdown.Overall(), Components: s.Breakdown, Source: model.SourceRules,
		})
	}
	for _, rt := range r.Routes {
		out = append(out, model.EntityScore{
			EntityType: model.EntityRoute, EntityID: rt.ID, Name: rt.Name, Score: rt.Score, Source: model.SourceRules,
		})
	}
	for _, p := range r.Products {
		out = append(out, model.EntityScore{
			EntityType: model.EntityProduct, EntityID: p.ID, Name: p.Name, Score: p.Score, Source: model.SourceRules,
		})
	}
	for _, c := range r.Companies {
		out = append(out, model.EntityScore{
			EntityType: model.EntityCompany, EntityID: c.ID, Name: c.Name,
			Score: c.Breakdown.Overall(), Components: c.Breakdown, Source: model.SourceRules,
		})
	}
	return out
}
