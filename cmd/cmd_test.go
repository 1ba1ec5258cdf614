package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/sentinel/internal/config"
	"github.com/sells-group/sentinel/internal/model"
	"github.com/sells-group/sentinel/internal/store"
)

func TestParseFeatures(t *testing.T) {
	got, err := parseFeatures([]string{"Political_Stability=72", " tariff_rate = 3.5"})
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"political_stability": 72, "tariff_rate": 3.5}, got)

	tests := []struct {
		name    string
		pair    string
		wantErr string
	}{
		{"no equals", "tariff_rate", "want name=value"},
		{"empty name", "=3", "want name=value"},
		{"bad value", "tariff_rate=high", "invalid value for feature tariff_rate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parseFeatures([]string{tt.pair})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDecodeEntity(t *testing.T) {
	s, err := decodeEntity[model.Supplier]([]byte("id: s1\ntier: 3\nfinancial_health_score: 70\n"))
	require.NoError(t, err)
	assert.Equal(t, "s1", s.ID)
	assert.Equal(t, 3, *s.Tier)
	assert.InDelta(t, 70, *s.FinancialHealthScore, 0)

	r, err := decodeEntity[model.TradeRoute]([]byte(`{"id":"r1","route_type":"air","distance_km":900}`))
	require.NoError(t, err)
	assert.Equal(t, model.RouteAir, r.RouteType)

	_, err = decodeEntity[model.Product]([]byte("id: [unclosed"))
	assert.Error(t, err)
}

func TestMarketFromFlags(t *testing.T) {
	cmd := &cobra.Command{Use: "product"}
	cmd.Flags().Float64("market-volatility", 0, "")
	cmd.Flags().Float64("imbalance", 0, "")

	m := marketFromFlags(cmd)
	assert.Nil(t, m.OverallVolatility)
	assert.Nil(t, m.SupplyDemandImbalance)

	require.NoError(t, cmd.Flags().Set("imbalance", "0.4"))
	m = marketFromFlags(cmd)
	assert.Nil(t, m.OverallVolatility)
	require.NotNil(t, m.SupplyDemandImbalance)
	assert.InDelta(t, 0.4, *m.SupplyDemandImbalance, 0)
}

func TestInitStore_UnsupportedDriver(t *testing.T) {
	cfg = &config.Config{Store: config.StoreConfig{Driver: "mongo"}}
	t.Cleanup(func() { cfg = nil })

	_, err := initStore(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported store driver: mongo")
}

func TestPersistScores(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	ctx := context.Background()
	require.NoError(t, st.Migrate(ctx))

	run, err := persistScores(ctx, st, "hash", "nightly", sampleResult().EntityScores())
	require.NoError(t, err)
	assert.Equal(t, 2, run.EntityCount)

	got, err := st.ListEntityScores(ctx, store.ScoreFilter{RunID: run.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "s1", got[0].EntityID)
}
