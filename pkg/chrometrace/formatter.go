// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package chrometrace assembles chrome://tracing compatible timeline
// documents.
package chrometrace

import (
	"encoding/json"
	"io"
	"os"
)

// Entry is one trace event in the chrome trace JSON array format.
type Entry struct {
	Name  string                 `json:"name"`
	Phase string                 `json:"ph"`
	Cat   string                 `json:"cat,omitempty"`
	Cname string                 `json:"cname,omitempty"`
	Pid   int64                  `json:"pid"`
	Tid   int64                  `json:"tid,omitempty"`
	Ts    uint64                 `json:"ts"`
	Dur   uint64                 `json:"dur,omitempty"`
	Args  map[string]interface{} `json:"args,omitempty"`
}

const (
	PhaseComplete = "X"
	PhaseMetadata = "M"
	PhaseCounter  = "C"
)

// Formatter accumulates entries in emission order. Metadata entries for a
// pid must be emitted before timeline entries referencing it; callers are
// responsible for that ordering and Formatter preserves it.
type Formatter struct {
	entries []Entry
}

func NewFormatter() *Formatter {
	return &Formatter{entries: []Entry{}}
}

// EmitPid emits a process_name metadata entry binding a display label to
// a track id.
func (f *Formatter) EmitPid(label string, pid int64) {
	f.entries = append(f.entries, Entry{
		Name:  "process_name",
		Phase: PhaseMetadata,
		Pid:   pid,
		Args:  map[string]interface{}{"name": label},
	})
}

// EmitRegion emits a complete-phase duration entry.
func (f *Formatter) EmitRegion(ts, dur uint64, pid, tid int64, category, name string, args map[string]interface{}) {
	f.entries = append(f.entries, Entry{
		Name:  name,
		Phase: PhaseComplete,
		Cat:   category,
		Pid:   pid,
		Tid:   tid,
		Ts:    ts,
		Dur:   dur,
		Args:  args,
	})
}

// EmitCounter emits a cumulative counter sample.
func (f *Formatter) EmitCounter(name string, pid int64, ts uint64, value int64) {
	f.entries = append(f.entries, Entry{
		Name:  name,
		Phase: PhaseCounter,
		Pid:   pid,
		Ts:    ts,
		Args:  map[string]interface{}{"value": value},
	})
}

// Append adds a pre-built entry, keeping emission order.
func (f *Formatter) Append(e Entry) {
	f.entries = append(f.entries, e)
}

// Entries returns the accumulated entries in emission order.
func (f *Formatter) Entries() []Entry {
	return f.entries
}

// Document is the top-level chrome trace JSON object.
type Document struct {
	TraceEvents []Entry `json:"traceEvents"`
}

// NewDocument wraps entries into a document, normalizing nil to an empty
// array so the JSON always carries "traceEvents": [].
func NewDocument(entries []Entry) *Document {
	if entries == nil {
		entries = []Entry{}
	}
	return &Document{TraceEvents: entries}
}

// Encode writes the document as JSON to w.
func (d *Document) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	return enc.Encode(d)
}

// WriteFile writes the document as JSON at path.
func (d *Document) WriteFile(path string) error {
	fh, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := d.Encode(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
