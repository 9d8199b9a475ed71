// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package converter drives a full conversion run: discover the dumps of
// one trainer group, parse them in parallel, and write the pipeline and
// op-trace timeline documents.
package converter

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/chrometrace"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/config"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/log"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/memcounter"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/orchestrator"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/pipeline"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/profile"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/project"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/reader"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/tracks"
)

// Converter turns one trainer group's dumps into timeline documents.
type Converter struct {
	cfg    *config.Config
	reader *reader.FileReader
	orch   *orchestrator.Orchestrator
}

func New(cfg *config.Config) (*Converter, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	form := cfg.OrganizeForm
	if form == "" {
		form = reader.OrganizeFormByRank
	}
	fr, err := reader.NewFileReader(cfg.DataPath, form, cfg.GetGroupSize(), cfg.GetGpuPerTrainer())
	if err != nil {
		return nil, err
	}
	return &Converter{
		cfg:    cfg,
		reader: fr,
		orch:   orchestrator.New(cfg.GetWorkers(), cfg.GetWorkerTimeout(), profile.Parse),
	}, nil
}

func (c *Converter) alignTs(ns uint64) uint64 {
	if ns < c.cfg.MinTimestampNs {
		return 0
	}
	return ns - c.cfg.MinTimestampNs
}

// GetPipelineInfo builds the forward/backward span timeline of one
// trainer group, keyed by local gpu id. Every rank contributes spans on
// track 0 with its rank id as the thread id; ranks sharing a local gpu
// id land in the same section, headed by a pipeLineInfo metadata entry.
func (c *Converter) GetPipelineInfo(ctx context.Context, groupID int) (map[int][]chrometrace.Entry, *orchestrator.FailureReport, error) {
	files, err := c.reader.FileListForGroup(groupID)
	if err != nil {
		return nil, nil, err
	}
	partials, report, err := c.orch.Run(ctx, files)
	if err != nil {
		return nil, report, err
	}

	gpuPerTrainer := c.cfg.GetGpuPerTrainer()
	label := fmt.Sprintf("%02d_pipeLineInfo", c.cfg.TrackRanges.GetPipelineInfo())

	res := map[int][]chrometrace.Entry{}
	for _, p := range partials {
		gpuID := p.File.RankID % gpuPerTrainer
		if _, ok := res[gpuID]; !ok {
			f := chrometrace.NewFormatter()
			f.EmitPid(label, 0)
			res[gpuID] = f.Entries()
		}
		spans := pipeline.Reconstruct(p.Record.Events, 0, int64(p.File.RankID))
		for _, s := range spans {
			res[gpuID] = append(res[gpuID], chrometrace.Entry{
				Name:  s.Name,
				Phase: chrometrace.PhaseComplete,
				Cat:   "Op",
				Cname: s.Classification,
				Pid:   s.TrackID,
				Tid:   s.ThreadID,
				Ts:    c.alignTs(s.StartNs),
				Dur:   s.DurationNs,
				Args:  map[string]interface{}{"name": s.Name, "detail_info": s.Name},
			})
		}
	}
	return res, report, nil
}

// GetOpTraceInfo builds one op-trace document per local gpu id. Only
// ranks locally owning the gpu and whose trainer falls inside
// displaySize are read; metadata labels precede timeline entries, and
// memory counters come last.
func (c *Converter) GetOpTraceInfo(ctx context.Context, groupID int) (map[int]*chrometrace.Document, *orchestrator.FailureReport, error) {
	files, err := c.reader.FileListForGroup(groupID)
	if err != nil {
		return nil, nil, err
	}

	gpuPerTrainer := c.cfg.GetGpuPerTrainer()
	groupSize := c.cfg.GetGroupSize()
	displaySize := c.cfg.GetDisplaySize()
	basePid := c.cfg.TrackRanges.OpTraceBase()

	docs := map[int]*chrometrace.Document{}
	var report *orchestrator.FailureReport
	for gpuID := 0; gpuID < gpuPerTrainer; gpuID++ {
		selected := make([]model.RankFile, 0, len(files))
		for _, file := range files {
			if file.RankID%gpuPerTrainer == gpuID &&
				(file.RankID/gpuPerTrainer)%groupSize < displaySize {
				selected = append(selected, file)
			}
		}

		partials, rep, err := c.orch.Run(ctx, selected)
		if err != nil {
			return nil, mergeReports(report, rep), err
		}
		report = mergeReports(report, rep)

		records := make([]tracks.RankRecord, 0, len(partials))
		for _, p := range partials {
			records = append(records, tracks.RankRecord{
				RankID: p.File.RankID,
				Rank:   model.RankKey(p.File.RankID),
				Record: p.Record,
			})
		}

		meta := chrometrace.NewFormatter()
		table := tracks.Allocate(records, int32(gpuID), basePid, meta)

		events := chrometrace.NewFormatter()
		project.Project(records, table, int32(gpuID), gpuPerTrainer, c.alignTs, events)

		counters := chrometrace.NewFormatter()
		memcounter.Build(records, table, int32(gpuID), gpuPerTrainer, displaySize, c.alignTs, counters)

		entries := append(meta.Entries(), events.Entries()...)
		entries = append(entries, counters.Entries()...)
		docs[gpuID] = chrometrace.NewDocument(entries)
	}
	return docs, report, nil
}

// Run executes both passes for one group and writes the documents under
// the configured output directory.
func (c *Converter) Run(ctx context.Context, groupID int) error {
	pipelineInfo, pipeReport, err := c.GetPipelineInfo(ctx, groupID)
	if err != nil {
		return err
	}
	for gpuID, entries := range pipelineInfo {
		path := filepath.Join(c.cfg.GetOutputDir(), fmt.Sprintf("pipelineinfo.group%d.gpu%d.json", groupID, gpuID))
		if err := chrometrace.NewDocument(entries).WriteFile(path); err != nil {
			return errors.NewError().
				WithCode(errors.CodeIOError).
				WithMessagef("failed to dump %s", path).
				WithError(err)
		}
		log.Infof("wrote %s", path)
	}

	docs, opReport, err := c.GetOpTraceInfo(ctx, groupID)
	if err != nil {
		return err
	}
	for gpuID, doc := range docs {
		path := filepath.Join(c.cfg.GetOutputDir(), fmt.Sprintf("opinfo.group%d.gpu%d.json", groupID, gpuID))
		if err := doc.WriteFile(path); err != nil {
			return errors.NewError().
				WithCode(errors.CodeIOError).
				WithMessagef("failed to dump %s", path).
				WithError(err)
		}
		log.Infof("wrote %s", path)
	}

	logReport(pipeReport)
	logReport(opReport)
	return nil
}

func logReport(report *orchestrator.FailureReport) {
	if report == nil {
		return
	}
	log.Warnf("run %s excluded %d rank(s)", report.RunID, len(report.FailedRanks))
	for _, fr := range report.FailedRanks {
		log.Warnf("run %s: rank %d (%s): %v", report.RunID, fr.RankID, fr.Path, fr.Err)
	}
}

func mergeReports(a, b *orchestrator.FailureReport) *orchestrator.FailureReport {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	a.FailedRanks = append(a.FailedRanks, b.FailedRanks...)
	return a
}
