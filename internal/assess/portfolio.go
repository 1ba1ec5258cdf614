package assess

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/sentinel/internal/model"
)

// Portfolio is the set of entities assessed together. Suppliers and routes
// reference countries by id; companies reference suppliers, routes and
// products by id.
type Portfolio struct {
	Countries []model.Country        `yaml:"countries" json:"countries"`
	Suppliers []model.Supplier       `yaml:"suppliers" json:"suppliers"`
	Routes    []model.TradeRoute     `yaml:"routes" json:"routes"`
	Products  []model.Product        `yaml:"products" json:"products"`
	Market    model.MarketConditions `yaml:"market" json:"market"`
	Companies []model.Company        `yaml:"companies" json:"companies"`
}

// LoadPortfolio reads a portfolio from a YAML or JSON file.
func LoadPortfolio(path string) (*Portfolio, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "assess: read portfolio %s", path)
	}
	p, err := ParsePortfolio(data)
	if err != nil {
		return nil, eris.Wrapf(err, "assess: load portfolio %s", path)
	}
	return p, nil
}

// ParsePortfolio decodes and validates a portfolio document. JSON is
// accepted as a subset of YAML.
func ParsePortfolio(data []byte) (*Portfolio, error) {
	var p Portfolio
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, eris.Wrap(err, "assess: parse portfolio")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Validate checks that every entity has an id that is unique within its kind.
func (p *Portfolio) Validate() error {
	checks := []struct {
		kind model.EntityType
		ids  []string
	}{
		{model.EntityCountry, ids(p.Countries, func(c model.Country) string { return c.ID })},
		{model.EntitySupplier, ids(p.Suppliers, func(s model.Supplier) string { return s.ID })},
		{model.EntityRoute, ids(p.Routes, func(r model.TradeRoute) string { return r.ID })},
		{model.EntityProduct, ids(p.Products, func(pr model.Product) string { return pr.ID })},
		{model.EntityCompany, ids(p.Companies, func(c model.Company) string { return c.ID })},
	}
	for _, c := range checks {
		seen := make(map[string]bool, len(c.ids))
		for i, id := range c.ids {
			if id == "" {
				return eris.Errorf("assess: %s #%d has no id", c.kind, i+1)
			}
			if seen[id] {
				return eris.Errorf("assess: duplicate %s id %q", c.kind, id)
			}
			seen[id] = true
		}
	}
	return nil
}

// Size is the number of entities in the portfolio.
func (p *Portfolio) Size() int {
	return len(p.Countries) + len(p.Suppliers) + len(p.Routes) + len(p.Products) + len(p.Companies)
}

func ids[T any](items []T, id func(T) string) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = id(it)
	}
	return out
}
