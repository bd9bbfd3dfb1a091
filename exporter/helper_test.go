package exporter

import (
	"testing"

	"github.com/cloudhut/kexporter/storage"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kbin"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) (*Service, *storage.Store) {
	t.Helper()

	var cfg Config
	cfg.SetDefaults()

	store := storage.NewStore(zap.NewNop())
	return NewService(cfg, zap.NewNop(), nil, store, "kafka_consumer_group"), store
}

// encodeOffsetCommitKey builds a key buffer the way brokers write it onto the
// offsets topic: big-endian, strings prefixed with an int16 length.
func encodeOffsetCommitKey(version int16, group string, topic string, partition int32) []byte {
	buf := kbin.AppendInt16(nil, version)
	buf = kbin.AppendString(buf, group)
	buf = kbin.AppendString(buf, topic)
	buf = kbin.AppendInt32(buf, partition)

	return buf
}

func encodeOffsetCommitValue(version int16, offset int64, metadata string, commitTimestamp int64, expireTimestamp int64) []byte {
	buf := kbin.AppendInt16(nil, version)
	buf = kbin.AppendInt64(buf, offset)
	buf = kbin.AppendString(buf, metadata)
	buf = kbin.AppendInt64(buf, commitTimestamp)
	if version == 1 {
		buf = kbin.AppendInt64(buf, expireTimestamp)
	}

	return buf
}

// metricValue looks up one series by family name and exact label pairs.
func metricValue(t *testing.T, store *storage.Store, name string, labels map[string]string) (float64, bool) {
	t.Helper()

	families, err := store.Snapshot()
	require.NoError(t, err)

	for _, family := range families {
		if family.GetName() != name {
			continue
		}
		for _, metric := range family.GetMetric() {
			if len(metric.GetLabel()) != len(labels) {
				continue
			}
			matches := true
			for _, pair := range metric.GetLabel() {
				if labels[pair.GetName()] != pair.GetValue() {
					matches = false
					break
				}
			}
			if !matches {
				continue
			}

			if metric.GetGauge() != nil {
				return metric.GetGauge().GetValue(), true
			}
			return metric.GetCounter().GetValue(), true
		}
	}

	return 0, false
}
