// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

// Package profiletest builds wire-format trace dumps for tests.
package profiletest

import (
	"bytes"
	"os"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/VictoriaMetrics/easyproto"
	"github.com/klauspost/compress/gzip"
)

var mp easyproto.MarshalerPool

// Marshal encodes rec into the profile.proto wire format.
func Marshal(rec *model.Record) []byte {
	m := mp.Get()
	defer mp.Put(m)

	mm := m.MessageMarshaler()
	for _, ev := range rec.Events {
		em := mm.AppendMessage(1)
		em.AppendString(1, ev.Name)
		em.AppendUint64(2, ev.StartNs)
		em.AppendUint64(3, ev.EndNs)
		em.AppendInt64(4, ev.SubDeviceID)
		em.AppendInt32(5, ev.DeviceID)
		if ev.MemcopyBytes > 0 {
			cm := em.AppendMessage(7)
			cm.AppendUint64(1, ev.MemcopyBytes)
		}
		em.AppendInt32(8, int32(ev.Type))
		if ev.DetailInfo != "" {
			em.AppendString(9, ev.DetailInfo)
		}
	}
	if rec.StartNs > 0 {
		mm.AppendUint64(2, rec.StartNs)
	}
	if rec.EndNs > 0 {
		mm.AppendUint64(3, rec.EndNs)
	}
	for _, mev := range rec.MemEvents {
		em := mm.AppendMessage(4)
		em.AppendUint64(1, mev.StartNs)
		em.AppendUint64(2, mev.EndNs)
		em.AppendUint64(3, mev.Bytes)
		em.AppendInt32(4, int32(mev.Place))
		em.AppendUint64(5, mev.ThreadID)
		em.AppendInt32(6, mev.DeviceID)
	}
	return m.Marshal(nil)
}

// WriteFile writes rec as a dump at path.
func WriteFile(path string, rec *model.Record) error {
	return os.WriteFile(path, Marshal(rec), 0644)
}

// WriteFileGzip writes rec as a gzip-compressed dump at path.
func WriteFileGzip(path string, rec *model.Record) error {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(Marshal(rec)); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0644)
}
