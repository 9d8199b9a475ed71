// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package orchestrator

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rankFiles(n int) []model.RankFile {
	files := make([]model.RankFile, n)
	for i := range files {
		files[i] = model.RankFile{Path: model.RankKey(i), RankID: i}
	}
	return files
}

func TestRunMergesSortedByRank(t *testing.T) {
	parse := func(path string) (*model.Record, error) {
		return &model.Record{Events: []model.Event{}, MemEvents: []model.MemEvent{}}, nil
	}
	o := New(4, time.Minute, parse)

	partials, report, err := o.Run(context.Background(), rankFiles(11))
	require.NoError(t, err)
	assert.Nil(t, report)
	require.Len(t, partials, 11)
	for i, p := range partials {
		assert.Equal(t, i, p.File.RankID)
	}
}

func TestRunDeterministicUnderSkew(t *testing.T) {
	// Workers finishing in shuffled order must not change the merge.
	var calls int32
	parse := func(path string) (*model.Record, error) {
		if atomic.AddInt32(&calls, 1)%3 == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		return &model.Record{Events: []model.Event{}, MemEvents: []model.MemEvent{}}, nil
	}

	first, _, err := New(5, time.Minute, parse).Run(context.Background(), rankFiles(20))
	require.NoError(t, err)
	second, _, err := New(2, time.Minute, parse).Run(context.Background(), rankFiles(20))
	require.NoError(t, err)

	require.Len(t, second, len(first))
	for i := range first {
		assert.Equal(t, first[i].File, second[i].File)
	}
}

func TestRunReportsFailedRanks(t *testing.T) {
	parse := func(path string) (*model.Record, error) {
		if path == model.RankKey(2) {
			return nil, errors.NewError().WithCode(errors.CodeParseError).WithMessage("bad dump")
		}
		return &model.Record{Events: []model.Event{}, MemEvents: []model.MemEvent{}}, nil
	}

	partials, report, err := New(3, time.Minute, parse).Run(context.Background(), rankFiles(4))
	require.NoError(t, err)
	require.Len(t, partials, 3)
	for _, p := range partials {
		assert.NotEqual(t, 2, p.File.RankID)
	}

	require.NotNil(t, report)
	assert.NotEmpty(t, report.RunID)
	require.Len(t, report.FailedRanks, 1)
	assert.Equal(t, 2, report.FailedRanks[0].RankID)
	assert.True(t, errors.IsCode(report.FailedRanks[0].Err, errors.CodeParseError))
}

func TestRunTimeoutMarksRemaining(t *testing.T) {
	parse := func(path string) (*model.Record, error) {
		time.Sleep(20 * time.Millisecond)
		return &model.Record{Events: []model.Event{}, MemEvents: []model.MemEvent{}}, nil
	}

	partials, report, err := New(1, 10*time.Millisecond, parse).Run(context.Background(), rankFiles(5))
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Less(t, len(partials), 5)
	for _, fr := range report.FailedRanks {
		assert.True(t, errors.IsCode(fr.Err, errors.CodeWorkerTimeout))
	}
	assert.Len(t, partials, 5-len(report.FailedRanks))
}

func TestRunEmptyInput(t *testing.T) {
	o := New(4, time.Minute, func(string) (*model.Record, error) { return nil, nil })
	partials, report, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Nil(t, report)
	assert.Empty(t, partials)
}
