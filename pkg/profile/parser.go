// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package profile

import (
	"bytes"
	"io"
	"os"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/metrics"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/model"
	"github.com/VictoriaMetrics/easyproto"
	"github.com/klauspost/compress/gzip"
	pkgerrors "github.com/pkg/errors"
)

// Field numbers from profile.proto.
const (
	profileFieldEvents    = 1
	profileFieldStartNs   = 2
	profileFieldEndNs     = 3
	profileFieldMemEvents = 4

	eventFieldName        = 1
	eventFieldStartNs     = 2
	eventFieldEndNs       = 3
	eventFieldSubDeviceID = 4
	eventFieldDeviceID    = 5
	eventFieldMemcopy     = 7
	eventFieldType        = 8
	eventFieldDetailInfo  = 9

	memcopyFieldBytes = 1

	memEventFieldStartNs  = 1
	memEventFieldEndNs    = 2
	memEventFieldBytes    = 3
	memEventFieldPlace    = 4
	memEventFieldThreadID = 5
	memEventFieldDeviceID = 6
)

var gzipMagic = []byte{0x1f, 0x8b}

// Parse reads and decodes one rank's binary trace dump. Gzip-compressed
// dumps are decompressed transparently. A malformed dump fails the whole
// file with a CodeParseError; there is no partial recovery. A dump without
// a mem_events section yields an empty MemEvents slice.
func Parse(path string) (*model.Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeIOError).
			WithMessagef("failed to read trace dump %s", path).
			WithError(err)
	}

	if bytes.HasPrefix(data, gzipMagic) {
		data, err = gunzip(data)
		if err != nil {
			metrics.IncRankFileParse("error")
			return nil, parseError(path, err)
		}
	}

	rec, err := unmarshalRecord(data)
	if err != nil {
		metrics.IncRankFileParse("error")
		return nil, parseError(path, err)
	}
	metrics.IncRankFileParse("ok")
	return rec, nil
}

func parseError(path string, err error) error {
	return errors.NewError().
		WithCode(errors.CodeParseError).
		WithMessagef("malformed trace dump %s", path).
		WithError(err)
}

func gunzip(data []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "gzip header")
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "gzip body")
	}
	return out, nil
}

func unmarshalRecord(src []byte) (*model.Record, error) {
	rec := &model.Record{
		Events:    []model.Event{},
		MemEvents: []model.MemEvent{},
	}
	var fc easyproto.FieldContext
	var err error
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return nil, pkgerrors.Wrap(err, "cannot read profile field")
		}
		switch fc.FieldNum {
		case profileFieldEvents:
			data, ok := fc.MessageData()
			if !ok {
				return nil, pkgerrors.New("cannot read event message")
			}
			ev, err := unmarshalEvent(data)
			if err != nil {
				return nil, err
			}
			rec.Events = append(rec.Events, ev)
		case profileFieldStartNs:
			v, ok := fc.Uint64()
			if !ok {
				return nil, pkgerrors.New("cannot read profile start_ns")
			}
			rec.StartNs = v
		case profileFieldEndNs:
			v, ok := fc.Uint64()
			if !ok {
				return nil, pkgerrors.New("cannot read profile end_ns")
			}
			rec.EndNs = v
		case profileFieldMemEvents:
			data, ok := fc.MessageData()
			if !ok {
				return nil, pkgerrors.New("cannot read mem event message")
			}
			mev, err := unmarshalMemEvent(data)
			if err != nil {
				return nil, err
			}
			rec.MemEvents = append(rec.MemEvents, mev)
		}
	}
	return rec, nil
}

func unmarshalEvent(src []byte) (model.Event, error) {
	var ev model.Event
	var fc easyproto.FieldContext
	var err error
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return ev, pkgerrors.Wrap(err, "cannot read event field")
		}
		switch fc.FieldNum {
		case eventFieldName:
			v, ok := fc.String()
			if !ok {
				return ev, pkgerrors.New("cannot read event name")
			}
			ev.Name = v
		case eventFieldStartNs:
			v, ok := fc.Uint64()
			if !ok {
				return ev, pkgerrors.New("cannot read event start_ns")
			}
			ev.StartNs = v
		case eventFieldEndNs:
			v, ok := fc.Uint64()
			if !ok {
				return ev, pkgerrors.New("cannot read event end_ns")
			}
			ev.EndNs = v
		case eventFieldSubDeviceID:
			v, ok := fc.Int64()
			if !ok {
				return ev, pkgerrors.New("cannot read event sub_device_id")
			}
			ev.SubDeviceID = v
		case eventFieldDeviceID:
			v, ok := fc.Int32()
			if !ok {
				return ev, pkgerrors.New("cannot read event device_id")
			}
			ev.DeviceID = v
		case eventFieldMemcopy:
			data, ok := fc.MessageData()
			if !ok {
				return ev, pkgerrors.New("cannot read event memcopy")
			}
			v, err := unmarshalMemcopy(data)
			if err != nil {
				return ev, err
			}
			ev.MemcopyBytes = v
		case eventFieldType:
			v, ok := fc.Int32()
			if !ok {
				return ev, pkgerrors.New("cannot read event type")
			}
			ev.Type = model.EventType(v)
			if !ev.Type.Valid() {
				return ev, pkgerrors.Errorf("unknown event type %d", v)
			}
		case eventFieldDetailInfo:
			v, ok := fc.String()
			if !ok {
				return ev, pkgerrors.New("cannot read event detail_info")
			}
			ev.DetailInfo = v
		}
	}
	return ev, nil
}

func unmarshalMemcopy(src []byte) (uint64, error) {
	var fc easyproto.FieldContext
	var err error
	var b uint64
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return 0, pkgerrors.Wrap(err, "cannot read memcopy field")
		}
		if fc.FieldNum == memcopyFieldBytes {
			v, ok := fc.Uint64()
			if !ok {
				return 0, pkgerrors.New("cannot read memcopy bytes")
			}
			b = v
		}
	}
	return b, nil
}

func unmarshalMemEvent(src []byte) (model.MemEvent, error) {
	var mev model.MemEvent
	var fc easyproto.FieldContext
	var err error
	for len(src) > 0 {
		src, err = fc.NextField(src)
		if err != nil {
			return mev, pkgerrors.Wrap(err, "cannot read mem event field")
		}
		switch fc.FieldNum {
		case memEventFieldStartNs:
			v, ok := fc.Uint64()
			if !ok {
				return mev, pkgerrors.New("cannot read mem event start_ns")
			}
			mev.StartNs = v
		case memEventFieldEndNs:
			v, ok := fc.Uint64()
			if !ok {
				return mev, pkgerrors.New("cannot read mem event end_ns")
			}
			mev.EndNs = v
		case memEventFieldBytes:
			v, ok := fc.Uint64()
			if !ok {
				return mev, pkgerrors.New("cannot read mem event bytes")
			}
			mev.Bytes = v
		case memEventFieldPlace:
			v, ok := fc.Int32()
			if !ok {
				return mev, pkgerrors.New("cannot read mem event place")
			}
			mev.Place = model.Place(v)
			if !mev.Place.Valid() {
				return mev, pkgerrors.Errorf("unknown mem event place %d", v)
			}
		case memEventFieldThreadID:
			v, ok := fc.Uint64()
			if !ok {
				return mev, pkgerrors.New("cannot read mem event thread_id")
			}
			mev.ThreadID = v
		case memEventFieldDeviceID:
			v, ok := fc.Int32()
			if !ok {
				return mev, pkgerrors.New("cannot read mem event device_id")
			}
			mev.DeviceID = v
		}
	}
	return mev, nil
}
