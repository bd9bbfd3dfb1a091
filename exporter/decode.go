package exporter

import (
	"errors"
	"fmt"

	"github.com/twmb/franz-go/pkg/kbin"
)

// ErrUnsupportedVersion is returned when a record on the offsets topic uses a
// schema version this exporter does not understand, e.g. group metadata
// records (key version 2). Such records are not malformed, they are skipped
// without a log line.
var ErrUnsupportedVersion = errors.New("unsupported offset commit schema version")

// OffsetCommitKey identifies the group partition an offset was committed for.
// Key versions 0 and 1 share the same layout.
type OffsetCommitKey struct {
	Version   int16
	Group     string
	Topic     string
	Partition int32
}

// OffsetCommitValue carries the committed offset itself. ExpireTimestamp is
// only present in version 1 values and stays zero otherwise.
type OffsetCommitValue struct {
	Version         int16
	Offset          int64
	Metadata        string
	CommitTimestamp int64
	ExpireTimestamp int64
}

// DecodeOffsetCommitKey decodes the key of a record on the offsets topic.
// All fields are big-endian, strings are prefixed with an int16 length.
func DecodeOffsetCommitKey(buf []byte) (OffsetCommitKey, error) {
	if len(buf) < 2 {
		return OffsetCommitKey{}, fmt.Errorf("offset commit key is supposed to be at least 2 bytes long")
	}

	reader := kbin.Reader{Src: buf}
	key := OffsetCommitKey{Version: reader.Int16()}
	switch key.Version {
	case 0, 1:
	default:
		return OffsetCommitKey{}, ErrUnsupportedVersion
	}

	key.Group = reader.String()
	key.Topic = reader.String()
	key.Partition = reader.Int32()
	if err := reader.Complete(); err != nil {
		return OffsetCommitKey{}, fmt.Errorf("failed to decode offset commit key: %w", err)
	}

	return key, nil
}

// DecodeOffsetCommitValue decodes the value of a record on the offsets topic.
// Version 0 carries offset, metadata and commit timestamp; version 1 appends
// an expire timestamp. A truncated buffer is a decode error for the whole
// record, there are no partially populated values.
func DecodeOffsetCommitValue(buf []byte) (OffsetCommitValue, error) {
	if len(buf) < 2 {
		return OffsetCommitValue{}, fmt.Errorf("offset commit value is supposed to be at least 2 bytes long")
	}

	reader := kbin.Reader{Src: buf}
	value := OffsetCommitValue{Version: reader.Int16()}
	switch value.Version {
	case 0, 1:
	default:
		return OffsetCommitValue{}, ErrUnsupportedVersion
	}

	value.Offset = reader.Int64()
	value.Metadata = reader.String()
	value.CommitTimestamp = reader.Int64()
	if value.Version == 1 {
		value.ExpireTimestamp = reader.Int64()
	}
	if err := reader.Complete(); err != nil {
		return OffsetCommitValue{}, fmt.Errorf("failed to decode offset commit value: %w", err)
	}

	return value, nil
}
