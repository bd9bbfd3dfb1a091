package storage

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func findFamily(t *testing.T, families []*dto.MetricFamily, name string) *dto.MetricFamily {
	t.Helper()
	for _, family := range families {
		if family.GetName() == name {
			return family
		}
	}
	return nil
}

func TestSetGaugeLastWriteWins(t *testing.T) {
	store := NewStore(zap.NewNop())

	store.SetGauge("g", prometheus.Labels{"a": "1"}, 5.0)
	store.SetGauge("g", prometheus.Labels{"a": "1"}, 3.0)

	families, err := store.Snapshot()
	require.NoError(t, err)

	family := findFamily(t, families, "g")
	require.NotNil(t, family, "expected gauge family 'g' to be registered")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, 3.0, family.GetMetric()[0].GetGauge().GetValue())
}

func TestIncrementCounterAccumulates(t *testing.T) {
	store := NewStore(zap.NewNop())

	store.IncrementCounter("c", prometheus.Labels{"a": "1"})
	store.IncrementCounter("c", prometheus.Labels{"a": "1"})

	families, err := store.Snapshot()
	require.NoError(t, err)

	family := findFamily(t, families, "c")
	require.NotNil(t, family, "expected counter family 'c' to be registered")
	require.Len(t, family.GetMetric(), 1)
	assert.Equal(t, 2.0, family.GetMetric()[0].GetCounter().GetValue())
}

func TestSeparateLabelValuesAreSeparateSeries(t *testing.T) {
	store := NewStore(zap.NewNop())

	store.SetGauge("g", prometheus.Labels{"partition": "0"}, 1.0)
	store.SetGauge("g", prometheus.Labels{"partition": "1"}, 2.0)

	families, err := store.Snapshot()
	require.NoError(t, err)

	family := findFamily(t, families, "g")
	require.NotNil(t, family)
	assert.Len(t, family.GetMetric(), 2)
}

func TestLabelShapeConflictPanics(t *testing.T) {
	store := NewStore(zap.NewNop())
	store.SetGauge("g", prometheus.Labels{"a": "1"}, 1.0)

	assert.Panics(t, func() {
		store.SetGauge("g", prometheus.Labels{"b": "1"}, 1.0)
	})
}

func TestGaugeAndCounterNameCollisionPanics(t *testing.T) {
	store := NewStore(zap.NewNop())
	store.SetGauge("m", prometheus.Labels{"a": "1"}, 1.0)

	// Re-registering the same fully-qualified name with a different type must
	// not silently corrupt the existing series.
	assert.Panics(t, func() {
		store.IncrementCounter("m", prometheus.Labels{"a": "1"})
	})
}
