package exporter

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
	"go.uber.org/zap"
)

// startTopologyRefresher periodically rebuilds the topic -> partition ->
// leader assignment from cluster metadata. Request failures are logged and
// swallowed so that the next tick always runs.
func (s *Service) startTopologyRefresher(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.TopologyRefreshInterval)
	defer ticker.Stop()

	// Refresh right away so the high water mark poller gets an assignment to
	// work with before the first full interval has passed.
	s.refreshTopology(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshTopology(ctx)
		}
	}
}

func (s *Service) refreshTopology(ctx context.Context) {
	s.logger.Debug("requesting topics and partition assignments")

	req := kmsg.NewMetadataRequest()
	req.Version = s.metadataVersion
	req.Topics = nil // all topics

	res, err := req.RequestWith(ctx, s.kafkaSvc.Client)
	if err != nil {
		s.logger.Error("failed to request topics and partition assignments", zap.Error(err))
		return
	}

	assignments := assignmentsFromMetadata(res, s.logger)

	// Replace wholesale. Stale topics disappear with the old map, there is no
	// entry-wise merging.
	s.assignmentsMu.Lock()
	s.assignments = assignments
	s.assignmentsMu.Unlock()

	s.isReadyBool.Store(true)
	s.store.SetGauge(s.metricName("topology_last_refresh_timestamp"), prometheus.Labels{}, float64(time.Now().Unix()))
	s.logger.Info("received topics and partition assignments", zap.Int("topic_count", len(assignments)))
}

// assignmentsFromMetadata folds a metadata response into the assignment map.
// Topics and partitions that report an error code are skipped entry-wise; a
// response that yields nothing still produces a valid (empty) map.
func assignmentsFromMetadata(res *kmsg.MetadataResponse, logger *zap.Logger) map[string]map[int32]int32 {
	assignments := make(map[string]map[int32]int32, len(res.Topics))
	for _, topic := range res.Topics {
		if topic.Topic == nil {
			continue
		}
		topicName := *topic.Topic
		if err := kerr.ErrorForCode(topic.ErrorCode); err != nil {
			logger.Debug("metadata response contains an errored topic",
				zap.String("topic", topicName),
				zap.Error(err))
			continue
		}

		partitions := make(map[int32]int32, len(topic.Partitions))
		for _, partition := range topic.Partitions {
			if err := kerr.ErrorForCode(partition.ErrorCode); err != nil {
				// Usually a partition without an elected leader. It will show
				// up again on a later refresh.
				logger.Debug("metadata response contains an errored partition",
					zap.String("topic", topicName),
					zap.Int32("partition", partition.Partition),
					zap.Error(err))
				continue
			}
			partitions[partition.Partition] = partition.Leader
		}
		assignments[topicName] = partitions
	}

	return assignments
}

// currentAssignments returns the assignment map as of the last successful
// refresh. The map is never mutated after publication, so callers may read it
// without further locking.
func (s *Service) currentAssignments() map[string]map[int32]int32 {
	s.assignmentsMu.RLock()
	defer s.assignmentsMu.RUnlock()

	return s.assignments
}
