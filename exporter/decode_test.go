package exporter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeOffsetCommitKey(t *testing.T) {
	tt := []struct {
		name      string
		version   int16
		group     string
		topic     string
		partition int32
	}{
		{name: "version 0", version: 0, group: "console-consumer-36268", topic: "access-log", partition: 16},
		{name: "version 1", version: 1, group: "billing", topic: "invoices", partition: 0},
		{name: "empty strings", version: 1, group: "", topic: "", partition: 3},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			buf := encodeOffsetCommitKey(tc.version, tc.group, tc.topic, tc.partition)
			key, err := DecodeOffsetCommitKey(buf)
			require.NoError(t, err)
			assert.Equal(t, tc.version, key.Version)
			assert.Equal(t, tc.group, key.Group)
			assert.Equal(t, tc.topic, key.Topic)
			assert.Equal(t, tc.partition, key.Partition)
		})
	}
}

func TestDecodeOffsetCommitKeyRawBytes(t *testing.T) {
	// Captured from a real offsets topic: version 1, a console consumer group
	// committing for partition 16 of "access-log".
	buf := []byte("\x00\x01\x00\x16console-consumer-36268\x00\naccess-log\x00\x00\x00\x10")

	key, err := DecodeOffsetCommitKey(buf)
	require.NoError(t, err)
	assert.Equal(t, int16(1), key.Version)
	assert.Equal(t, "console-consumer-36268", key.Group)
	assert.Equal(t, "access-log", key.Topic)
	assert.Equal(t, int32(16), key.Partition)
}

func TestDecodeOffsetCommitKeyUnsupportedVersion(t *testing.T) {
	// Version 2 is used by group metadata records, higher versions by record
	// types introduced after this decoder was written. All of them are skipped
	// via the sentinel error rather than reported as malformed.
	for _, version := range []int16{-1, 2, 7} {
		buf := encodeOffsetCommitKey(version, "some-group", "some-topic", 0)
		_, err := DecodeOffsetCommitKey(buf)
		assert.ErrorIs(t, err, ErrUnsupportedVersion, "version %d", version)
	}
}

func TestDecodeOffsetCommitKeyMalformed(t *testing.T) {
	full := encodeOffsetCommitKey(1, "group", "topic", 5)

	tt := []struct {
		name string
		buf  []byte
	}{
		{name: "empty", buf: []byte{}},
		{name: "version only", buf: full[:2]},
		{name: "truncated partition", buf: full[:len(full)-2]},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeOffsetCommitKey(tc.buf)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrUnsupportedVersion)
		})
	}
}

func TestDecodeOffsetCommitValue(t *testing.T) {
	t.Run("version 0", func(t *testing.T) {
		buf := encodeOffsetCommitValue(0, 12345, "some metadata", 1594300000000, 0)
		value, err := DecodeOffsetCommitValue(buf)
		require.NoError(t, err)
		assert.Equal(t, int16(0), value.Version)
		assert.Equal(t, int64(12345), value.Offset)
		assert.Equal(t, "some metadata", value.Metadata)
		assert.Equal(t, int64(1594300000000), value.CommitTimestamp)
		assert.Equal(t, int64(0), value.ExpireTimestamp)
	})

	t.Run("version 1", func(t *testing.T) {
		buf := encodeOffsetCommitValue(1, 98765, "", 1594300000000, 1594386400000)
		value, err := DecodeOffsetCommitValue(buf)
		require.NoError(t, err)
		assert.Equal(t, int16(1), value.Version)
		assert.Equal(t, int64(98765), value.Offset)
		assert.Equal(t, "", value.Metadata)
		assert.Equal(t, int64(1594300000000), value.CommitTimestamp)
		assert.Equal(t, int64(1594386400000), value.ExpireTimestamp)
	})
}

func TestDecodeOffsetCommitValueUnsupportedVersion(t *testing.T) {
	buf := encodeOffsetCommitValue(0, 1, "", 0, 0)
	buf[0] = 0x00
	buf[1] = 0x02

	_, err := DecodeOffsetCommitValue(buf)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)
}

func TestDecodeOffsetCommitValueMalformed(t *testing.T) {
	full := encodeOffsetCommitValue(1, 42, "meta", 1594300000000, 1594386400000)

	tt := []struct {
		name string
		buf  []byte
	}{
		{name: "empty", buf: []byte{}},
		{name: "version only", buf: full[:2]},
		// A version 1 value that stops after the commit timestamp must not be
		// accepted as if it were version 0.
		{name: "missing expire timestamp", buf: full[:len(full)-8]},
	}

	for _, tc := range tt {
		t.Run(tc.name, func(t *testing.T) {
			_, err := DecodeOffsetCommitValue(tc.buf)
			require.Error(t, err)
			assert.NotErrorIs(t, err, ErrUnsupportedVersion)
		})
	}
}
