package schedsim_internal

import (
	"flag"
	"fmt"
	"os"
	"sync"

	"github.com/bgp59/logrusx"
)

// The runner is the main entry point for a simulation run.
//
// It is responsible for loading the configuration, setting up the logger,
// building the module/thread hierarchy and driving the World to completion.
//
// The hierarchy itself is caller-specific: the caller registers a hierarchy
// builder function via RegisterHierarchyBuilder (mirroring how the teacher
// registers metrics-generator task builders via init() functions) and passes
// its own workload configuration structure into RunMain. The builder turns
// that configuration into a ready-to-run *World.
//
// Some configuration parameters may be overridden via command line
// arguments. The latter must be parsed by the main function *before* calling
// the runner.

const (
	CONFIG_FLAG_NAME        = "config"
	DEFAULT_CONFIG_FILENAME = "schedsim-config.yaml"
)

// HierarchyBuilderFunc turns a caller-supplied workload configuration into a
// runnable World. Exactly one must be registered before Run is called.
type HierarchyBuilderFunc func(simConfig *SimConfig, workloadConfig any) (*World, error)

var (
	// Build info, normally set via init() by the user of this package.
	Version string
	GitInfo string

	hierarchyBuilder = struct {
		build HierarchyBuilderFunc
		mu    sync.Mutex
	}{}
)

// RegisterHierarchyBuilder registers the function used to turn the workload
// configuration passed to RunMain into a *World (Run passes it nil). Calling
// it more than once
// overwrites the previous registration.
func RegisterHierarchyBuilder(build HierarchyBuilderFunc) {
	hierarchyBuilder.mu.Lock()
	defer hierarchyBuilder.mu.Unlock()
	hierarchyBuilder.build = build
}

// Command line args; they should be defined at package scope since the flags
// are parsed in main.
var (
	versionArg = flag.Bool(
		"version",
		false,
		FormatFlagUsage(
			`Print the version and exit`,
		),
	)

	configFileArg = flag.String(
		CONFIG_FLAG_NAME,
		DEFAULT_CONFIG_FILENAME,
		`Config file to load`,
	)

	runUntilArg = flag.String(
		"run-until",
		"",
		FormatFlagUsage(
			`Override the "sim_config.run_until" config setting`,
		),
	)
)

func init() {
	logrusx.EnableLoggerArgs()
}

var runnerLog = NewCompLogger("runner")

// Run is the library entry point a caller embeds a simulation with: given a
// resolved SimConfig and an EventSink (nil keeps whatever sink the builder
// wired into the World), it builds the
// hierarchy through whatever HierarchyBuilderFunc was registered and drives
// it to cfg.RunUntil (or forever), returning the final statistics.
//
// The registered builder is handed a nil workloadConfig here -- this entry
// point has no workload parameter of its own (spec.md 6), so a builder that
// needs one must close over it at registration time, the same way RunMain's
// caller primes it via LoadConfig before registering.
func Run(cfg *SimConfig, sink EventSink) (*RunStatistics, error) {
	hierarchyBuilder.mu.Lock()
	build := hierarchyBuilder.build
	hierarchyBuilder.mu.Unlock()
	if build == nil {
		return nil, fmt.Errorf("no hierarchy builder registered")
	}

	world, err := build(cfg, nil)
	if err != nil {
		return nil, fmt.Errorf("error building hierarchy: %w", err)
	}
	if sink != nil {
		world.SetSink(sink)
	}

	var until *Time
	if cfg.RunUntil != "" {
		until, err = ParseTime(cfg.RunUntil)
		if err != nil {
			return nil, fmt.Errorf("invalid run_until %q: %w", cfg.RunUntil, err)
		}
	}

	return world.Run(until)
}

// RunMain is the CLI entry point for an actual simulation instance: it
// parses flags, loads the config file, sets up the logger, then builds and
// drives the hierarchy the same way Run does. It should be called with the
// default workload configuration as its argument, after a
// HierarchyBuilderFunc has been registered via RegisterHierarchyBuilder. The
// return value is the exit code of the executable.
func RunMain(workloadConfig any) int {
	var (
		err       error
		simConfig *SimConfig
	)

	if !flag.Parsed() {
		flag.Parse()
	}

	if *versionArg {
		fmt.Fprintf(os.Stderr, "Version: %s, GitInfo: %s\n", Version, GitInfo)
		return 0
	}

	configFile := *configFileArg
	simConfig, err = LoadConfig(configFile, workloadConfig, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config file: %v\n", err)
		return 1
	}

	// Override the config with command line args:
	if *runUntilArg != "" {
		simConfig.RunUntil = *runUntilArg
	}
	logrusx.ApplySetLoggerArgs(simConfig.LoggerConfig)

	// Set the logger level and file:
	err = SetLogger(simConfig.LoggerConfig)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error setting the logger: %v\n", err)
		return 1
	}

	hierarchyBuilder.mu.Lock()
	build := hierarchyBuilder.build
	hierarchyBuilder.mu.Unlock()
	if build == nil {
		runnerLog.Error("no hierarchy builder registered")
		return 1
	}

	world, err := build(simConfig, workloadConfig)
	if err != nil {
		runnerLog.Errorf("error building hierarchy: %v", err)
		return 1
	}

	var until *Time
	if simConfig.RunUntil != "" {
		until, err = ParseTime(simConfig.RunUntil)
		if err != nil {
			runnerLog.Errorf("invalid run_until %q: %v", simConfig.RunUntil, err)
			return 1
		}
	}

	stats, err := world.Run(until)
	if err != nil {
		runnerLog.Errorf("simulation error: %v", err)
		return 1
	}

	runnerLog.Infof("simulation finished at t=%s", stats.FinalTime)

	return 0
}
