package config

import (
	"os"
	"time"

	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/errors"
	"github.com/AMD-AGI/Primus-SaFE/Lens/modules/trace-converter/pkg/logger/conf"
	"gopkg.in/yaml.v2"
)

// Config drives one conversion run. The topology fields (groupSize,
// displaySize, gpuPerTrainer) mirror the profiler's file layout: ranks are
// numbered globally, gpuPerTrainer ranks share one trainer, groupSize
// trainers form one group, and only the first displaySize trainers of a
// group are rendered.
type Config struct {
	DataPath     string `json:"dataPath" yaml:"dataPath"`
	OutputDir    string `json:"outputDir" yaml:"outputDir"`
	OrganizeForm string `json:"organizeForm" yaml:"organizeForm"`

	GroupSize     int `json:"groupSize" yaml:"groupSize"`
	DisplaySize   int `json:"displaySize" yaml:"displaySize"`
	GpuPerTrainer int `json:"gpuPerTrainer" yaml:"gpuPerTrainer"`

	// MinTimestampNs is subtracted from every emitted timestamp so the
	// rendered timeline starts near zero.
	MinTimestampNs uint64 `json:"minTimestampNs" yaml:"minTimestampNs"`

	Workers              int `json:"workers" yaml:"workers"`
	WorkerTimeoutSeconds int `json:"workerTimeoutSeconds" yaml:"workerTimeoutSeconds"`

	TrackRanges TrackRangesConfig `json:"trackRanges" yaml:"trackRanges"`

	Log *conf.LogConfig `json:"log" yaml:"log"`
}

// TrackRangesConfig reserves a non-overlapping numeric track-id range per
// trace category. Op-trace ids start immediately after the reserved ranges.
type TrackRangesConfig struct {
	PipelineInfo    int `json:"pipelineInfo" yaml:"pipelineInfo"`
	DeviceTelemetry int `json:"deviceTelemetry" yaml:"deviceTelemetry"`
	NetworkInfo     int `json:"networkInfo" yaml:"networkInfo"`
}

func (t TrackRangesConfig) GetPipelineInfo() int {
	if t.PipelineInfo <= 0 {
		return 1
	}
	return t.PipelineInfo
}

func (t TrackRangesConfig) GetDeviceTelemetry() int {
	if t.DeviceTelemetry <= 0 {
		return 10
	}
	return t.DeviceTelemetry
}

func (t TrackRangesConfig) GetNetworkInfo() int {
	if t.NetworkInfo <= 0 {
		return 10
	}
	return t.NetworkInfo
}

// OpTraceBase returns the first track id available to the op-trace
// category.
func (t TrackRangesConfig) OpTraceBase() int64 {
	return int64(t.GetPipelineInfo() + t.GetDeviceTelemetry() + t.GetNetworkInfo())
}

func (cfg *Config) GetWorkers() int {
	if cfg.Workers <= 0 {
		return 8
	}
	return cfg.Workers
}

func (cfg *Config) GetWorkerTimeout() time.Duration {
	if cfg.WorkerTimeoutSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(cfg.WorkerTimeoutSeconds) * time.Second
}

func (cfg *Config) GetGroupSize() int {
	if cfg.GroupSize <= 0 {
		return 1
	}
	return cfg.GroupSize
}

func (cfg *Config) GetDisplaySize() int {
	if cfg.DisplaySize <= 0 {
		return cfg.GetGroupSize()
	}
	return cfg.DisplaySize
}

func (cfg *Config) GetGpuPerTrainer() int {
	if cfg.GpuPerTrainer <= 0 {
		return 1
	}
	return cfg.GpuPerTrainer
}

func (cfg *Config) GetOutputDir() string {
	if cfg.OutputDir == "" {
		return "."
	}
	return cfg.OutputDir
}

func (cfg *Config) Validate() error {
	if cfg.DataPath == "" {
		return errors.NewError().
			WithCode(errors.CodeLackOfConfig).
			WithMessage("dataPath is required")
	}
	return nil
}

var config *Config

func LoadConfig() (*Config, error) {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}
	configFile, err := os.Open(configPath)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to open config file").
			WithError(err)
	}
	defer configFile.Close()
	decoder := yaml.NewDecoder(configFile)
	err = decoder.Decode(&config)
	if err != nil {
		return nil, errors.NewError().
			WithCode(errors.CodeInitializeError).
			WithMessage("failed to parse config file").
			WithError(err)
	}
	return config, nil
}
