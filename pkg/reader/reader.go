// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package reader discovers per-rank trace dumps on disk and partitions
// them into work lists.
package reader

import (
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/log"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
)

// OrganizeFormByRank is the only supported dump layout: one file per
// rank, rank id encoded as the trailing dot-separated integer of the
// file name (profile.12, profile.12.gz).
const OrganizeFormByRank = "byRank"

// FileReader lists the dumps of one run.
type FileReader struct {
	dataPath      string
	organizeForm  string
	groupSize     int
	gpuPerTrainer int
}

func NewFileReader(dataPath, organizeForm string, groupSize, gpuPerTrainer int) (*FileReader, error) {
	if organizeForm != OrganizeFormByRank {
		return nil, errors.NewError().
			WithCode(errors.CodeInvalidArgument).
			WithMessagef("unsupported organize form %q", organizeForm)
	}
	return &FileReader{
		dataPath:      dataPath,
		organizeForm:  organizeForm,
		groupSize:     groupSize,
		gpuPerTrainer: gpuPerTrainer,
	}, nil
}

// RankID extracts the rank id from a dump file name. A trailing .gz
// extension is ignored.
func RankID(path string) (int, error) {
	name := filepath.Base(path)
	name = strings.TrimSuffix(name, ".gz")
	idx := strings.LastIndex(name, ".")
	if idx < 0 || idx == len(name)-1 {
		return 0, errors.NewError().
			WithCode(errors.CodeInvalidArgument).
			WithMessagef("no rank suffix in file name %q", name)
	}
	rank, err := strconv.Atoi(name[idx+1:])
	if err != nil || rank < 0 {
		return 0, errors.NewError().
			WithCode(errors.CodeInvalidArgument).
			WithMessagef("invalid rank suffix in file name %q", name).
			WithError(err)
	}
	return rank, nil
}

// GroupID returns the trainer group a rank belongs to.
func (r *FileReader) GroupID(rankID int) int {
	return rankID / r.gpuPerTrainer / r.groupSize
}

// FileListForGroup scans the data directory and returns the dumps of one
// trainer group, sorted by rank id. Entries without a parseable rank
// suffix are skipped with a warning.
func (r *FileReader) FileListForGroup(groupID int) ([]model.RankFile, error) {
	entries, err := os.ReadDir(r.dataPath)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeIOError).
			WithMessagef("failed to list data path %s", r.dataPath).
			WithError(err)
	}

	files := make([]model.RankFile, 0, len(entries))
	for _, ent := range entries {
		if ent.IsDir() {
			continue
		}
		rank, err := RankID(ent.Name())
		if err != nil {
			log.Warnf("skipping %s: %v", ent.Name(), err)
			continue
		}
		if r.GroupID(rank) != groupID {
			continue
		}
		files = append(files, model.RankFile{
			Path:   filepath.Join(r.dataPath, ent.Name()),
			RankID: rank,
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].RankID < files[j].RankID })
	return files, nil
}

// SplitTaskList partitions files into at most n contiguous chunks of
// near-equal size. Empty chunks are omitted.
func SplitTaskList(files []model.RankFile, n int) [][]model.RankFile {
	if n < 1 {
		n = 1
	}
	base := len(files) / n
	rem := len(files) % n

	chunks := make([][]model.RankFile, 0, n)
	start := 0
	for i := 0; i < n && start < len(files); i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		chunks = append(chunks, files[start:start+size])
		start += size
	}
	return chunks
}
