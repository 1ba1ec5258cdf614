package model

// TargetColumn is the dataset column holding the historical risk score.
const TargetColumn = "risk_score"

// Record is one historical observation. A feature absent from Values is
// missing; a nil Target is a missing target.
type Record struct {
	Values map[string]float64 `json:"values"`
	Target *float64           `json:"target,omitempty"`
}

// Dataset is a table of historical records with its column names, excluding
// the target column.
type Dataset struct {
	Columns []string `json:"columns"`
	Records []Record `json:"records"`
}

// HasColumn reports whether the dataset carries the named column.
func (d *Dataset) HasColumn(name string) bool {
	for _, c := range d.Columns {
		if c == name {
			return true
		}
	}
	return false
}
