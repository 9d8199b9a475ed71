// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/profile/profiletest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() *model.Record {
	return &model.Record{
		StartNs: 100,
		EndNs:   9000,
		Events: []model.Event{
			{
				Name:        "matmul",
				Type:        model.EventTypeGPUKernel,
				DeviceID:    0,
				SubDeviceID: 2,
				StartNs:     150,
				EndNs:       450,
			},
			{
				Name:         "GpuMemcpyAsync",
				Type:         model.EventTypeCPU,
				DeviceID:     -1,
				SubDeviceID:  1,
				StartNs:      500,
				EndNs:        620,
				MemcopyBytes: 4096,
			},
			{
				Name:       "marker/compute/MarkerCUDA",
				Type:       model.EventTypeGPUKernel,
				DeviceID:   0,
				StartNs:    700,
				EndNs:      701,
				DetailInfo: "marker_forward_B",
			},
		},
		MemEvents: []model.MemEvent{
			{
				Place:    model.PlaceGPU,
				DeviceID: 0,
				ThreadID: 7,
				StartNs:  200,
				EndNs:    800,
				Bytes:    1 << 20,
			},
		},
	}
}

func TestParseRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.0")
	want := sampleRecord()
	require.NoError(t, profiletest.WriteFile(path, want))

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseGzip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.3.gz")
	want := sampleRecord()
	require.NoError(t, profiletest.WriteFileGzip(path, want))

	got, err := Parse(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestParseMissingMemEvents(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.1")
	rec := sampleRecord()
	rec.MemEvents = nil
	require.NoError(t, profiletest.WriteFile(path, rec))

	got, err := Parse(path)
	require.NoError(t, err)
	// Absent section decodes as an empty slice, not an error.
	assert.NotNil(t, got.MemEvents)
	assert.Empty(t, got.MemEvents)
}

func TestParseTruncated(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.0")
	data := profiletest.Marshal(sampleRecord())
	require.NoError(t, os.WriteFile(path, data[:len(data)-3], 0644))

	_, err := Parse(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParseError))
}

func TestParseGarbage(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.0")
	require.NoError(t, os.WriteFile(path, []byte{0xff, 0xff, 0xff, 0x07, 0x00}, 0644))

	_, err := Parse(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParseError))
}

func TestParseUnknownEnum(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "profile.0")
	rec := sampleRecord()
	rec.MemEvents[0].Place = model.Place(9)
	require.NoError(t, profiletest.WriteFile(path, rec))

	_, err := Parse(path)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeParseError))
}

func TestParseMissingFile(t *testing.T) {
	_, err := Parse(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.CodeIOError))
}
