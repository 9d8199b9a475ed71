// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package orchestrator fans the rank-file list out over parallel parse
// workers and merges their results deterministically.
package orchestrator

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/log"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/metrics"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/reader"
	"github.com/google/uuid"
)

// ParseFunc parses one rank's dump.
type ParseFunc func(path string) (*model.Record, error)

// Partial is one successfully parsed rank.
type Partial struct {
	File   model.RankFile
	Record *model.Record
}

// RankFailure records one rank whose dump could not be parsed.
type RankFailure struct {
	RankID int
	Path   string
	Err    error
}

// FailureReport summarizes the ranks excluded from a run.
type FailureReport struct {
	RunID       string
	FailedRanks []RankFailure
}

type chunkResult struct {
	partials []Partial
	failures []RankFailure
}

// Orchestrator runs parse work across a bounded worker pool. A failed
// rank never aborts its chunk: the file is recorded in the failure
// report and the remaining files keep going.
type Orchestrator struct {
	parse   ParseFunc
	workers int
	timeout time.Duration
}

func New(workers int, timeout time.Duration, parse ParseFunc) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{parse: parse, workers: workers, timeout: timeout}
}

// Run parses files in parallel chunks and returns the merged partials
// sorted by rank id. The merge is independent of chunk completion order.
// The failure report is nil when every rank parsed.
func (o *Orchestrator) Run(ctx context.Context, files []model.RankFile) ([]Partial, *FailureReport, error) {
	chunks := reader.SplitTaskList(files, o.workers)
	log.Infof("using [%d] workers to do this work, total task num is %d!", len(chunks), len(files))

	results := make(chan chunkResult, len(chunks))
	var wg sync.WaitGroup
	for i, chunk := range chunks {
		wg.Add(1)
		go func(workerID int, chunk []model.RankFile) {
			defer wg.Done()
			results <- o.runChunk(ctx, workerID, chunk)
		}(i, chunk)
	}
	wg.Wait()
	close(results)

	var partials []Partial
	var failures []RankFailure
	for res := range results {
		partials = append(partials, res.partials...)
		failures = append(failures, res.failures...)
	}
	sort.Slice(partials, func(i, j int) bool { return partials[i].File.RankID < partials[j].File.RankID })
	sort.Slice(failures, func(i, j int) bool { return failures[i].RankID < failures[j].RankID })

	var report *FailureReport
	if len(failures) > 0 {
		report = &FailureReport{RunID: uuid.NewString(), FailedRanks: failures}
	}
	return partials, report, ctx.Err()
}

func (o *Orchestrator) runChunk(ctx context.Context, workerID int, chunk []model.RankFile) chunkResult {
	cctx := ctx
	if o.timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, o.timeout)
		defer cancel()
	}
	log.Infof("[worker %d]: started, total task num is %d ...", workerID, len(chunk))

	var res chunkResult
	failed := false
	for _, file := range chunk {
		if err := cctx.Err(); err != nil {
			res.failures = append(res.failures, RankFailure{
				RankID: file.RankID,
				Path:   file.Path,
				Err: errors.NewError().
					WithCode(errors.CodeWorkerTimeout).
					WithMessagef("worker %d gave up on %s", workerID, file.Path).
					WithError(err),
			})
			failed = true
			continue
		}
		rec, err := o.parse(file.Path)
		if err != nil {
			log.Errorf("[worker %d]: failed to process %s: %v", workerID, file.Path, err)
			res.failures = append(res.failures, RankFailure{RankID: file.RankID, Path: file.Path, Err: err})
			failed = true
			continue
		}
		log.Infof("[worker %d]: I finish processing %s!", workerID, file.Path)
		res.partials = append(res.partials, Partial{File: file, Record: rec})
	}

	if failed {
		metrics.IncWorkerChunk("error")
	} else {
		metrics.IncWorkerChunk("ok")
	}
	log.Infof("[worker %d]: exited! parsed %d of %d files", workerID, len(res.partials), len(chunk))
	return res
}
