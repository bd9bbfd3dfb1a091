package exporter

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
	"go.uber.org/zap"
)

// startHighWaterRefresher periodically asks every partition leader for the
// latest produced offsets of the partitions it leads. Like the topology
// refresher it never stops on errors, a failed cycle is simply retried on the
// next tick.
func (s *Service) startHighWaterRefresher(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.HighWaterRefreshInterval)
	defer ticker.Stop()

	s.refreshHighWaterMarks(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.refreshHighWaterMarks(ctx)
		}
	}
}

func (s *Service) refreshHighWaterMarks(ctx context.Context) {
	assignments := s.currentAssignments()
	if len(assignments) == 0 {
		// Topology has not been discovered yet, try again next tick.
		s.logger.Debug("skipping high water mark refresh, no partition assignments known yet")
		return
	}

	s.logger.Debug("requesting high water marks")
	for leader, topics := range groupPartitionsByLeader(assignments) {
		req := newListOffsetsRequest(topics, s.listOffsetsVersion)
		res, err := req.RequestWith(ctx, s.kafkaSvc.Client.Broker(int(leader)))
		if err != nil {
			s.logger.Error("failed to request high water marks",
				zap.Int32("leader_id", leader),
				zap.Error(err))
			continue
		}
		s.applyHighWaterMarks(res)
	}
}

// groupPartitionsByLeader inverts the assignment map so that one batched
// request per leader node can cover all partitions that node leads.
func groupPartitionsByLeader(assignments map[string]map[int32]int32) map[int32]map[string][]int32 {
	byLeader := make(map[int32]map[string][]int32)
	for topicName, partitions := range assignments {
		for partition, leader := range partitions {
			if _, exists := byLeader[leader]; !exists {
				byLeader[leader] = make(map[string][]int32)
			}
			byLeader[leader][topicName] = append(byLeader[leader][topicName], partition)
		}
	}

	return byLeader
}

// newListOffsetsRequest builds a latest-offset request for all given
// partitions, grouped by topic.
func newListOffsetsRequest(topics map[string][]int32, version int16) *kmsg.ListOffsetsRequest {
	req := kmsg.NewListOffsetsRequest()
	req.Version = version
	req.ReplicaID = -1

	for topicName, partitions := range topics {
		reqTopic := kmsg.NewListOffsetsRequestTopic()
		reqTopic.Topic = topicName
		for _, partition := range partitions {
			reqPartition := kmsg.NewListOffsetsRequestTopicPartition()
			reqPartition.Partition = partition
			// Timestamp -1 resolves to the latest produced offset. MaxNumOffsets
			// is only read by version 0 brokers, which answer with an offset list.
			reqPartition.Timestamp = -1
			reqPartition.MaxNumOffsets = 1
			reqTopic.Partitions = append(reqTopic.Partitions, reqPartition)
		}
		req.Topics = append(req.Topics, reqTopic)
	}

	return &req
}

// applyHighWaterMarks folds one leader's response into the high water table
// and publishes each mark as a gauge. Partitions with an error code (leader
// moved since the last topology refresh, etc.) are skipped, the next cycle
// will pick them up from their new leader.
func (s *Service) applyHighWaterMarks(res *kmsg.ListOffsetsResponse) {
	for _, topic := range res.Topics {
		for _, partition := range topic.Partitions {
			if err := kerr.ErrorForCode(partition.ErrorCode); err != nil {
				s.logger.Debug("high water mark response contains an errored partition",
					zap.String("topic", topic.Topic),
					zap.Int32("partition", partition.Partition),
					zap.Error(err))
				continue
			}

			offset := partition.Offset
			if res.Version == 0 {
				if len(partition.OldStyleOffsets) == 0 {
					continue
				}
				offset = partition.OldStyleOffsets[0]
			}
			s.setHighWaterMark(topic.Topic, partition.Partition, offset)
		}
	}
}

func (s *Service) setHighWaterMark(topicName string, partition int32, offset int64) {
	s.highWaterMarks.Set(highWaterMarkKey(topicName, partition), offset)
	s.store.SetGauge(s.metricName("highwater"), prometheus.Labels{
		"topic":     topicName,
		"partition": strconv.Itoa(int(partition)),
	}, float64(offset))
}

// HighWaterMark returns the latest known produced offset for a partition.
func (s *Service) HighWaterMark(topicName string, partition int32) (int64, bool) {
	val, exists := s.highWaterMarks.Get(highWaterMarkKey(topicName, partition))
	if !exists {
		return 0, false
	}

	return val.(int64), true
}

func highWaterMarkKey(topicName string, partition int32) string {
	return fmt.Sprintf("%v:%v", topicName, partition)
}
