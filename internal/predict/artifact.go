package predict

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/sentinel/internal/config"
)

// artifactVersion is bumped when the serialized layout changes.
const artifactVersion = 1

type artifact struct {
	Version           int                `json:"version"`
	Features          []string           `json:"features"`
	Models            []envelope         `json:"models"`
	FeatureImportance map[string]float64 `json:"feature_importance"`
	Weights           *config.Weights    `json:"weights,omitempty"`
	Metrics           map[string]float64 `json:"metrics,omitempty"`
	TrainedAt         time.Time          `json:"trained_at"`
}

// WriteTo writes the trained state as a JSON artifact. It fails when the
// predictor is untrained.
func (p *Predictor) WriteTo(w io.Writer) (int64, error) {
	st := p.State()
	if st == nil {
		return 0, eris.New("predict: no trained state to save")
	}

	a := artifact{
		Version:           artifactVersion,
		Features:          st.Features,
		FeatureImportance: st.FeatureImportance,
		Weights:           &st.Weights,
		Metrics:           st.Metrics,
		TrainedAt:         st.TrainedAt,
	}
	for _, m := range st.Models {
		e, err := marshalRegressor(m)
		if err != nil {
			return 0, err
		}
		a.Models = append(a.Models, e)
	}

	data, err := json.Marshal(a)
	if err != nil {
		return 0, eris.Wrap(err, "predict: marshal artifact")
	}
	n, err := w.Write(data)
	if err != nil {
		return int64(n), eris.Wrap(err, "predict: write artifact")
	}
	return int64(n), nil
}

// ReadFrom loads a JSON artifact and installs it. A malformed or
// structurally invalid artifact returns an error and leaves the current state untouched. Weights absent
// from the artifact fall back to the predictor's own.
func (p *Predictor) ReadFrom(r io.Reader) (int64, error) {
	data, err := io.ReadAll(r)
	n := int64(len(data))
	if err != nil {
		return n, eris.Wrap(err, "predict: read artifact")
	}

	var a artifact
	if err := json.Unmarshal(data, &a); err != nil {
		return n, eris.Wrap(err, "predict: decode artifact")
	}
	if a.Version != artifactVersion {
		return n, eris.Errorf("predict: unsupported artifact version %d", a.Version)
	}
	if len(a.Features) == 0 {
		return n, eris.New("predict: artifact has no features")
	}
	if len(a.Models) == 0 {
		return n, eris.New("predict: artifact has no models")
	}

	st := &State{
		Features:          a.Features,
		FeatureImportance: a.FeatureImportance,
		Metrics:           a.Metrics,
		TrainedAt:         a.TrainedAt,
		Weights:           p.weights,
	}
	if a.Weights != nil {
		st.Weights = *a.Weights
	}
	if st.FeatureImportance == nil {
		st.FeatureImportance = map[string]float64{}
	}
	for _, e := range a.Models {
		m, err := unmarshalRegressor(e)
		if err != nil {
			return n, err
		}
		if err := m.validate(len(a.Features)); err != nil {
			return n, eris.Wrapf(err, "predict: invalid %s model", e.Kind)
		}
		st.Models = append(st.Models, m)
	}

	p.install(st)
	return n, nil
}

// Save writes the trained state to path, creating parent directories.
func (p *Predictor) Save(path string) error {
	var buf bytes.Buffer
	if _, err := p.WriteTo(&buf); err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return eris.Wrapf(err, "predict: create dir %s", dir)
		}
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return eris.Wrapf(err, "predict: write %s", path)
	}
	zap.L().Info("predict: saved artifact", zap.String("path", path), zap.Int("bytes", buf.Len()))
	return nil
}

// Load reads the artifact at path. On error the current state is kept.
func (p *Predictor) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return eris.Wrapf(err, "predict: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	if _, err := p.ReadFrom(f); err != nil {
		return eris.Wrapf(err, "predict: load %s", path)
	}
	zap.L().Info("predict: loaded artifact", zap.String("path", path), zap.Strings("features", p.Features()))
	return nil
}
