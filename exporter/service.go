package exporter

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cloudhut/kexporter/kafka"
	"github.com/cloudhut/kexporter/storage"
	cmap "github.com/orcaman/concurrent-map"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/atomic"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service owns all state derived from the cluster: the partition leader
// assignment, the high water marks and the metric store the scrape endpoint
// reads. Three long-lived goroutines feed it: the offsets topic consumer, the
// topology refresher and the high water mark poller.
type Service struct {
	cfg       Config
	logger    *zap.Logger
	kafkaSvc  *kafka.Service
	store     *storage.Store
	namespace string

	// assignments maps topic -> partition -> leader node id. It is replaced
	// wholesale on every successful topology refresh and never mutated
	// per-entry, so readers may hold on to a snapshot.
	assignmentsMu sync.RWMutex
	assignments   map[string]map[int32]int32

	// highWaterMarks is keyed "topic:partition". Entries are written one at a
	// time as the per-leader responses arrive and are never reset wholesale.
	highWaterMarks cmap.ConcurrentMap

	isReadyBool *atomic.Bool

	// Request versions pinned once at startup, see negotiateRequestVersions.
	metadataVersion    int16
	listOffsetsVersion int16
}

func NewService(cfg Config, logger *zap.Logger, kafkaSvc *kafka.Service, store *storage.Store, metricsNamespace string) *Service {
	return &Service{
		cfg:       cfg,
		logger:    logger.Named("exporter"),
		kafkaSvc:  kafkaSvc,
		store:     store,
		namespace: metricsNamespace,

		assignments:    make(map[string]map[int32]int32),
		highWaterMarks: cmap.New(),
		isReadyBool:    atomic.NewBool(false),
	}
}

// Start negotiates the request wire versions and then runs the consumer and
// the two pollers until ctx is cancelled. The pollers never stop on request
// errors; cancellation is the only way out.
func (s *Service) Start(ctx context.Context) error {
	negotiateCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := s.negotiateRequestVersions(negotiateCtx); err != nil {
		return fmt.Errorf("failed to negotiate request versions against Kafka: %w", err)
	}

	grp, ctx := errgroup.WithContext(ctx)
	grp.Go(func() error {
		s.startConsumingOffsets(ctx)
		return nil
	})
	grp.Go(func() error {
		s.startTopologyRefresher(ctx)
		return nil
	})
	grp.Go(func() error {
		s.startHighWaterRefresher(ctx)
		return nil
	})

	return grp.Wait()
}

// IsReady reports whether at least one topology refresh has succeeded.
func (s *Service) IsReady() bool {
	return s.isReadyBool.Load()
}

func (s *Service) metricName(name string) string {
	return prometheus.BuildFQName(s.namespace, "", name)
}
