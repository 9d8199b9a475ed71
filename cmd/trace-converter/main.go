// Copyright (C) 2025-2026, Advanced Micro Devices, Inc. All rights reserved.
// See LICENSE for license information.

package main

import (
	"context"
	"flag"
	"os"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/config"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/converter"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/log"
)

var (
	configPath = flag.String("config", "", "Path to the yaml config file (overrides CONFIG_PATH)")
	dataPath   = flag.String("dataPath", "", "Directory holding the per-rank trace dumps")
	outputDir  = flag.String("outputDir", "", "Directory the timeline documents are written to")
	groupID    = flag.Int("groupId", 0, "Trainer group to convert")
	workers    = flag.Int("workers", 0, "Number of parallel parse workers")
)

func main() {
	flag.Parse()

	cfg := loadConfig()
	if *dataPath != "" {
		cfg.DataPath = *dataPath
	}
	if *outputDir != "" {
		cfg.OutputDir = *outputDir
	}
	if *workers > 0 {
		cfg.Workers = *workers
	}

	if cfg.Log != nil {
		if err := log.InitGlobalLogger(cfg.Log); err != nil {
			log.Fatalf("Failed to initialize logger: %v", err)
		}
	}

	c, err := converter.New(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize trace converter: %v", err)
	}
	if err := c.Run(context.Background(), *groupID); err != nil {
		log.Fatalf("Failed to convert group %d: %v", *groupID, err)
	}
	log.Infof("Converted group %d into %s", *groupID, cfg.GetOutputDir())
}

// loadConfig reads the yaml config when one is present. A missing config
// file is fine as long as the flags provide the data path.
func loadConfig() *config.Config {
	if *configPath != "" {
		os.Setenv("CONFIG_PATH", *configPath)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		if *configPath != "" || *dataPath == "" {
			log.Fatalf("Failed to load config: %v", err)
		}
		return &config.Config{}
	}
	return cfg
}
