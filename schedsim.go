// The public face of the simulation kernel for the users of this module.

package schedsim

import (
	"github.com/sirupsen/logrus"

	internal "github.com/schedsi/schedsim-core/internal"
)

// Exact rational virtual time, shared by every clock and duration in the
// simulator.
type Time = internal.Time

func ZeroTime() internal.Time              { return internal.ZeroTime() }
func NewTimeInt64(n int64) internal.Time   { return internal.NewTimeInt64(n) }
func NewTimeFrac(num, den int64) Time      { return internal.NewTimeFrac(num, den) }
func ParseTime(s string) (*Time, error)    { return internal.ParseTime(s) }

// Hierarchy building blocks.
type Module = internal.Module
type Thread = internal.Thread
type WorkerThread = internal.WorkerThread
type PeriodicWorkThread = internal.PeriodicWorkThread
type VCPUThread = internal.VCPUThread
type ThreadStats = internal.ThreadStats
type ThreadKey = internal.ThreadKey

var NewModule = internal.NewModule
var NewWorkerThread = internal.NewWorkerThread
var NewPeriodicWorkThread = internal.NewPeriodicWorkThread
var NewVCPUThread = internal.NewVCPUThread

// Static hierarchy assembly, mirroring NewModuleBuilder/AddModule/AddVCPUs.
type ModuleBuilder = internal.ModuleBuilder

var NewModuleBuilder = internal.NewModuleBuilder
var AddModule = internal.AddModule

// Scheduler policies.
type Scheduler = internal.Scheduler

var NewFCFS = internal.NewFCFS
var NewSJF = internal.NewSJF
var NewPSJF = internal.NewPSJF
var NewMLFQ = internal.NewMLFQ
var NewRoundRobin = internal.NewRoundRobin
var NewCFS = internal.NewCFS

// Scheduler addons.
type Addon = internal.Addon

var NewTimeSliceFixer = internal.NewTimeSliceFixer
var NewTimeSliceMaxer = internal.NewTimeSliceMaxer
var NewPenalizer = internal.NewPenalizer
var NewPenalizingMaximizer = internal.NewPenalizingMaximizer

// The CPU driving a hierarchy and its results.
type World = internal.World
type RunStatistics = internal.RunStatistics

var NewWorld = internal.NewWorld

// Observing a running simulation.
type CPUView = internal.CPUView
type CPUStats = internal.CPUStats
type EventSink = internal.EventSink
type LogSink = internal.LogSink
type MultiSink = internal.MultiSink
type NopSink = internal.NopSink

var NewLogSink = internal.NewLogSink
var NewDefaultLogSink = internal.NewDefaultLogSink
var NewMultiSink = internal.NewMultiSink

// Configuration.
type SimConfig = internal.SimConfig
type CPUConfig = internal.CPUConfig
type LoggerConfig = internal.LoggerConfig

var DefaultSimConfig = internal.DefaultSimConfig
var DefaultCPUConfig = internal.DefaultCPUConfig
var DefaultLoggerConfig = internal.DefaultLoggerConfig
var LoadConfig = internal.LoadConfig

// Update build info: version (semver) and git info. Should be called before
// the runner is invoked, typically from an init() function.
func UpdateBuildInfo(version, gitInfo string) {
	internal.Version = version
	internal.GitInfo = gitInfo
}

// The root logger. Needed only for tests where the logger is captured (see
// testutils/log_collector.go); its actual type is obscured.
func GetRootLogger() any { return internal.RootLogger }

// Create a new component logger w/ comp=compName field.
func NewCompLogger(comp string) *logrus.Entry {
	return internal.NewCompLogger(comp)
}

// Registers the caller's source path prefix with the logger so log lines
// report paths relative to the caller's module root rather than an absolute
// filesystem path. Typically called from main.init() with upNDirs=0.
func AddCallerSrcPathPrefixToLogger(upNDirs int) {
	// skip = 1 below to base the caller's path on the caller of this function.
	internal.AddCallerSrcPathPrefixToLogger(upNDirs, 1)
}

// HierarchyBuilderFunc turns a caller-supplied workload configuration into a
// runnable World.
type HierarchyBuilderFunc = internal.HierarchyBuilderFunc

// RegisterHierarchyBuilder registers the function used to turn the workload
// configuration passed to RunMain into a *World (Run passes it nil).
func RegisterHierarchyBuilder(build HierarchyBuilderFunc) {
	internal.RegisterHierarchyBuilder(build)
}

// Run is the library entry point: given a resolved SimConfig and an
// EventSink, it builds the hierarchy through whatever HierarchyBuilderFunc
// was registered and drives it until cfg.RunUntil (or, if that is empty,
// until it runs out of work), returning the final run statistics.
func Run(cfg *SimConfig, sink EventSink) (*RunStatistics, error) {
	return internal.Run(cfg, sink)
}

// RunMain is the CLI entry point for an actual simulation instance. It
// should be called with the default workload configuration as its
// argument, after a HierarchyBuilderFunc has been registered via
// RegisterHierarchyBuilder. The return value is the exit code of the
// executable.
func RunMain(workloadConfig any) int { return internal.RunMain(workloadConfig) }
