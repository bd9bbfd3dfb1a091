package exporter

import (
	"context"
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kgo"
	"go.uber.org/zap"
)

// ConsumerClientOpts returns the client options that attach the offsets topic
// consumer to the kafka client. The exporter must not join a consumer group:
// it reads every partition of the topic on its own so that it never takes part
// in the cluster's group rebalancing.
func ConsumerClientOpts(cfg Config) []kgo.Opt {
	startOffset := kgo.NewOffset().AtEnd()
	if cfg.ConsumeFromStart {
		startOffset = kgo.NewOffset().AtStart()
	}

	return []kgo.Opt{
		kgo.ConsumeTopics(cfg.OffsetsTopic),
		kgo.ConsumeResetOffset(startOffset),
	}
}

// startConsumingOffsets consumes the offsets topic until ctx is cancelled and
// folds every record into the metric store.
func (s *Service) startConsumingOffsets(ctx context.Context) {
	client := s.kafkaSvc.Client
	s.logger.Info("starting to consume messages from offsets topic",
		zap.String("topic", s.cfg.OffsetsTopic),
		zap.Bool("consume_from_start", s.cfg.ConsumeFromStart))

	for {
		fetches := client.PollFetches(ctx)
		if fetches.IsClientClosed() || ctx.Err() != nil {
			return
		}

		// Log all errors and continue afterwards as we might get errors and
		// still have some fetch results.
		for _, err := range fetches.Errors() {
			if errors.Is(err.Err, context.Canceled) {
				continue
			}
			s.logger.Error("failed to fetch records from kafka",
				zap.String("topic", err.Topic),
				zap.Int32("partition", err.Partition),
				zap.Error(err.Err))
		}

		iter := fetches.RecordIter()
		for !iter.Done() {
			s.handleOffsetRecord(iter.Next())
		}
	}
}

// handleOffsetRecord publishes the exporter's own read position and, for
// decodable offset commits, the group's committed offset and commit count.
func (s *Service) handleOffsetRecord(record *kgo.Record) {
	// The exporter's consumption progress is tracked for every record,
	// independent of whether the record itself can be decoded.
	s.store.SetGauge(s.metricName("exporter_offset"),
		prometheus.Labels{"partition": strconv.Itoa(int(record.Partition))},
		float64(record.Offset))

	if len(record.Key) == 0 || len(record.Value) == 0 {
		// Tombstones (offset deletions) carry a key but no value.
		return
	}

	key, err := DecodeOffsetCommitKey(record.Key)
	if err != nil {
		s.logDecodeFailure("key", record, err)
		return
	}
	value, err := DecodeOffsetCommitValue(record.Value)
	if err != nil {
		s.logDecodeFailure("value", record, err)
		return
	}

	labels := prometheus.Labels{
		"group":     key.Group,
		"topic":     key.Topic,
		"partition": strconv.Itoa(int(key.Partition)),
	}
	s.store.SetGauge(s.metricName("offset"), labels, float64(value.Offset))
	s.store.IncrementCounter(s.metricName("commits"), labels)
}

func (s *Service) logDecodeFailure(part string, record *kgo.Record, err error) {
	if errors.Is(err, ErrUnsupportedVersion) {
		// Unknown schema versions show up whenever brokers introduce new
		// record types on the offsets topic. Skipping them is normal operation.
		return
	}
	s.logger.Warn("failed to decode offset commit "+part,
		zap.Int32("partition", record.Partition),
		zap.Int64("offset", record.Offset),
		zap.Error(err))
}
