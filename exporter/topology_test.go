package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
	"go.uber.org/zap"
)

func TestAssignmentsFromMetadata(t *testing.T) {
	res := kmsg.NewMetadataResponse()
	res.Version = 7

	orders := kmsg.NewMetadataResponseTopic()
	orders.Topic = kmsg.StringPtr("orders")
	p0 := kmsg.NewMetadataResponseTopicPartition()
	p0.Partition = 0
	p0.Leader = 1
	p1 := kmsg.NewMetadataResponseTopicPartition()
	p1.Partition = 1
	p1.Leader = 2
	// A partition without an elected leader must be left out of the map.
	p2 := kmsg.NewMetadataResponseTopicPartition()
	p2.Partition = 2
	p2.ErrorCode = kerr.LeaderNotAvailable.Code
	orders.Partitions = append(orders.Partitions, p0, p1, p2)

	errored := kmsg.NewMetadataResponseTopic()
	errored.Topic = kmsg.StringPtr("deleted-topic")
	errored.ErrorCode = kerr.UnknownTopicOrPartition.Code

	unnamed := kmsg.NewMetadataResponseTopic()
	unnamed.Topic = nil

	res.Topics = append(res.Topics, orders, errored, unnamed)

	assignments := assignmentsFromMetadata(&res, zap.NewNop())

	require.Len(t, assignments, 1)
	require.Contains(t, assignments, "orders")
	assert.Equal(t, map[int32]int32{0: 1, 1: 2}, assignments["orders"])
}

func TestAssignmentsFromMetadataEmptyResponse(t *testing.T) {
	res := kmsg.NewMetadataResponse()
	res.Version = 7

	assignments := assignmentsFromMetadata(&res, zap.NewNop())
	assert.NotNil(t, assignments)
	assert.Empty(t, assignments)
}

func TestCurrentAssignmentsSnapshot(t *testing.T) {
	svc, _ := newTestService(t)
	assert.Empty(t, svc.currentAssignments())
	assert.False(t, svc.IsReady())

	published := map[string]map[int32]int32{"orders": {0: 1}}
	svc.assignmentsMu.Lock()
	svc.assignments = published
	svc.assignmentsMu.Unlock()

	assert.Equal(t, published, svc.currentAssignments())
}
