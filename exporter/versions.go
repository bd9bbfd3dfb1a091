package exporter

import (
	"context"
	"fmt"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kmsg"
	"github.com/twmb/franz-go/pkg/kversion"
	"go.uber.org/zap"
)

// The exporter understands a small closed set of wire formats. Requests are
// pinned to the highest version within that set the cluster supports; the
// response folding branches on the pinned version where the shapes differ
// (list offsets version 0 returns an offset array, later versions a single
// offset).
const (
	maxMetadataVersion    int16 = 7
	maxListOffsetsVersion int16 = 2
)

// negotiateRequestVersions asks the cluster which request versions it speaks
// and pins the metadata and list offsets versions used by the pollers for the
// process lifetime.
func (s *Service) negotiateRequestVersions(ctx context.Context) error {
	versionsReq := kmsg.NewApiVersionsRequest()
	versionsReq.ClientSoftwareName = "kexporter"
	versionsReq.ClientSoftwareVersion = "v1"
	res, err := versionsReq.RequestWith(ctx, s.kafkaSvc.Client)
	if err != nil {
		return fmt.Errorf("failed to request api versions: %w", err)
	}
	err = kerr.ErrorForCode(res.ErrorCode)
	if err != nil {
		return fmt.Errorf("failed to request api versions. Inner kafka error: %w", err)
	}
	versions := kversion.FromApiVersionsResponse(res)

	metadataReq := kmsg.NewMetadataRequest()
	maxMetadata, ok := versions.LookupMaxKeyVersion(metadataReq.Key())
	if !ok {
		return fmt.Errorf("cluster does not advertise support for metadata requests")
	}
	s.metadataVersion = minVersion(maxMetadata, maxMetadataVersion)

	listOffsetsReq := kmsg.NewListOffsetsRequest()
	maxListOffsets, ok := versions.LookupMaxKeyVersion(listOffsetsReq.Key())
	if !ok {
		return fmt.Errorf("cluster does not advertise support for list offsets requests")
	}
	s.listOffsetsVersion = minVersion(maxListOffsets, maxListOffsetsVersion)

	s.logger.Info("negotiated request versions",
		zap.Int16("metadata_version", s.metadataVersion),
		zap.Int16("list_offsets_version", s.listOffsetsVersion))

	return nil
}

func minVersion(a, b int16) int16 {
	if a < b {
		return a
	}
	return b
}
