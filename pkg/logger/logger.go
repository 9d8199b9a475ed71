// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package logger

import (
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/conf"
)

// Logger is the leveled logging interface the rest of the module codes
// against. The concrete implementation lives in the logrus subpackage.
type Logger interface {
	Logf(level conf.Level, format string, v ...interface{})
	Log(level conf.Level, v ...interface{})
}
