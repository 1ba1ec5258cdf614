package predict

import (
	"context"
	"encoding/json"

	"github.com/rotisserie/eris"
)

// Model kinds.
const (
	KindRandomForest     = "random_forest"
	KindGradientBoosting = "gradient_boosting"
)

// Regressor is a fitted regression model. The set of implementations is
// closed: RandomForest and GradientBoosting.
type Regressor interface {
	Kind() string
	Fit(ctx context.Context, x [][]float64, y []float64) error
	Predict(x []float64) float64

	// validate checks a decoded model against the artifact's feature count.
	validate(nFeatures int) error
	regressor()
}

// envelope tags a serialized model with its kind.
type envelope struct {
	Kind  string          `json:"kind"`
	Model json.RawMessage `json:"model"`
}

func marshalRegressor(r Regressor) (envelope, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return envelope{}, eris.Wrapf(err, "predict: marshal %s", r.Kind())
	}
	return envelope{Kind: r.Kind(), Model: data}, nil
}

func unmarshalRegressor(e envelope) (Regressor, error) {
	var r Regressor
	switch e.Kind {
	case KindRandomForest:
		r = &RandomForest{}
	case KindGradientBoosting:
		r = &GradientBoosting{}
	default:
		return nil, eris.Errorf("predict: unknown model kind %q", e.Kind)
	}
	if err := json.Unmarshal(e.Model, r); err != nil {
		return nil, eris.Wrapf(err, "predict: unmarshal %s", e.Kind)
	}
	return r, nil
}

func checkTrainingData(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return eris.New("predict: no training rows")
	}
	if len(x) != len(y) {
		return eris.Errorf("predict: %d rows but %d targets", len(x), len(y))
	}
	return nil
}
