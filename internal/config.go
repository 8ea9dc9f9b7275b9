// Simulator configuration.

// The configuration is loaded from a YAML file, with the following structure:
//
//  sim_config:
//    log_config:
//      ...
//    cpu_config:
//      ...
//    default_time_slice: 1
//  workload:
//     ...
//
// The "sim_config" section maps to the SimConfig structure, which is defined
// in this package. The "workload" section describes the module/thread
// hierarchy to simulate and is consumed by the hierarchy builder; its shape
// is caller-defined, so it is decoded into whatever structure the caller
// primed with defaults and passed in.

package schedsim_internal

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	SIM_CONFIG_SECTION_NAME = "sim_config"
	WORKLOAD_SECTION_NAME   = "workload"

	CPU_CONFIG_LOCAL_TIMER_SCHEDULING_DEFAULT = true
	SIM_CONFIG_DEFAULT_TIME_SLICE_DEFAULT     = "1"
)

// CPUConfig selects the CPU's timer-interrupt policy. See cpu.go.
type CPUConfig struct {
	// If true, any frame in a context chain may hold a running timer
	// (local-timer scheduling). If false, only the bottom/kernel frame
	// may hold a timer (kernel-only-timer scheduling), which forces a
	// full re-entry on every timer interrupt.
	LocalTimerScheduling bool `yaml:"local_timer_scheduling"`
}

func DefaultCPUConfig() *CPUConfig {
	return &CPUConfig{
		LocalTimerScheduling: CPU_CONFIG_LOCAL_TIMER_SCHEDULING_DEFAULT,
	}
}

type SimConfig struct {
	// Specific components configuration.
	LoggerConfig *LoggerConfig `yaml:"log_config"`
	CPUConfig    *CPUConfig    `yaml:"cpu_config"`

	// Default scheduler time slice, as an exact rational string (e.g. "1",
	// "3/2"), for a hierarchy builder to read. Every scheduler constructor
	// takes its slice explicitly; none falls back to this value.
	DefaultTimeSlice string `yaml:"default_time_slice"`

	// Virtual time cutoff at which Run() stops stepping the World, as an
	// exact rational string. Empty means run until every core goes idle
	// forever (no more ready or waiting threads anywhere).
	RunUntil string `yaml:"run_until"`
}

func DefaultSimConfig() *SimConfig {
	return &SimConfig{
		LoggerConfig:     DefaultLoggerConfig(),
		CPUConfig:        DefaultCPUConfig(),
		DefaultTimeSlice: SIM_CONFIG_DEFAULT_TIME_SLICE_DEFAULT,
	}
}

// LoadConfig loads the configuration from the specified YAML file (or buffer,
// for testing) as follows:
//   - the sim_config section is returned as a *SimConfig structure
//   - the workload section is loaded into the provided workloadConfig
//     structure, which is expected to have been primed with default values.
//
// Additionally an error is returned if the configuration could not be
// loaded or parsed.
func LoadConfig(cfgFile string, workloadConfig any, buf []byte) (*SimConfig, error) {
	if buf == nil {
		// Normal case, buf is pre-populated only for testing.
		f, err := os.Open(cfgFile)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		buf, err = io.ReadAll(f)
		if err != nil {
			return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
		}
	}

	docNode := yaml.Node{}
	err := yaml.Unmarshal(buf, &docNode)
	if err != nil {
		return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
	}

	simConfig := DefaultSimConfig()
	if docNode.Kind == yaml.DocumentNode && len(docNode.Content) > 0 {
		rootNode := docNode.Content[0]
		if rootNode.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("file: %q: invalid YAML root node %q", cfgFile, rootNode.Tag)
		}
		var toCfg any = nil
		for _, n := range rootNode.Content {
			if n.Kind == yaml.ScalarNode {
				switch n.Value {
				case SIM_CONFIG_SECTION_NAME:
					toCfg = simConfig
				case WORKLOAD_SECTION_NAME:
					toCfg = workloadConfig
				}
				continue
			}
			if n.Kind == yaml.MappingNode && toCfg != nil {
				if err = n.Decode(toCfg); err != nil {
					return nil, fmt.Errorf("file: %q: %v", cfgFile, err)
				}
			}
			toCfg = nil
		}
	}

	return simConfig, nil
}
