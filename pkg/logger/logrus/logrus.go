// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package logrus

import (
	"os"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/conf"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var levelMap = map[conf.Level]logrus.Level{
	conf.FatalLevel: logrus.FatalLevel,
	conf.ErrorLevel: logrus.ErrorLevel,
	conf.WarnLevel:  logrus.WarnLevel,
	conf.InfoLevel:  logrus.InfoLevel,
	conf.DebugLevel: logrus.DebugLevel,
	conf.TraceLevel: logrus.TraceLevel,
}

// Wrapper adapts a logrus.Logger to the module's Logger interface.
type Wrapper struct {
	entry *logrus.Logger
}

func NewLogrusWrapper(cfg *conf.LogConfig) (*Wrapper, error) {
	l := logrus.New()

	level, ok := levelMap[cfg.Level]
	if !ok {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch cfg.GetFormatter() {
	case conf.JSONFormater:
		l.SetFormatter(&logrus.JSONFormatter{})
	default:
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	if cfg.File != "" {
		l.SetOutput(&lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.GetMaxSizeMB(),
			MaxBackups: cfg.GetMaxBackups(),
			MaxAge:     cfg.GetMaxAgeDays(),
		})
	} else {
		l.SetOutput(os.Stderr)
	}

	return &Wrapper{entry: l}, nil
}

func (w *Wrapper) Logf(level conf.Level, format string, v ...interface{}) {
	lv, ok := levelMap[level]
	if !ok {
		lv = logrus.InfoLevel
	}
	w.entry.Logf(lv, format, v...)
}

func (w *Wrapper) Log(level conf.Level, v ...interface{}) {
	lv, ok := levelMap[level]
	if !ok {
		lv = logrus.InfoLevel
	}
	w.entry.Log(lv, v...)
}
