// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package conf

type Level uint32

const (
	FatalLevel Level = iota
	ErrorLevel
	WarnLevel
	InfoLevel
	DebugLevel
	TraceLevel
)

// LogConfig controls the global logger. Zero values fall back to the
// defaults from DefaultConfig.
type LogConfig struct {
	Core      string    `json:"core" yaml:"core"`
	Level     Level     `json:"level" yaml:"level"`
	Formatter Formatter `json:"formatter" yaml:"formatter"`
	// File enables file output with rotation when non-empty; otherwise
	// logs go to stderr.
	File       string `json:"file" yaml:"file"`
	MaxSizeMB  int    `json:"maxSizeMb" yaml:"maxSizeMb"`
	MaxBackups int    `json:"maxBackups" yaml:"maxBackups"`
	MaxAgeDays int    `json:"maxAgeDays" yaml:"maxAgeDays"`
}

func DefaultConfig() *LogConfig {
	return &LogConfig{
		Core:      "logrus",
		Level:     InfoLevel,
		Formatter: ConsoleFormater,
	}
}

func (c *LogConfig) GetFormatter() Formatter {
	if isValidFormatter(c.Formatter) {
		return c.Formatter
	}
	return ConsoleFormater
}

func (c *LogConfig) GetMaxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 100
	}
	return c.MaxSizeMB
}

func (c *LogConfig) GetMaxBackups() int {
	if c.MaxBackups <= 0 {
		return 5
	}
	return c.MaxBackups
}

func (c *LogConfig) GetMaxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 14
	}
	return c.MaxAgeDays
}
