package schedsim_internal

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/huandu/go-clone"
)

type LoadConfigTestCase struct {
	Name              string
	Description       string
	WorkloadConfig    any
	Data              string
	WantSimConfig     *SimConfig
	WantWorkloadConfig any
	WantErr           error
}

type WorkerConfigTest struct {
	Tid   string `yaml:"tid"`
	Units string `yaml:"units"`
}

type ModuleConfigTest struct {
	Name    string              `yaml:"name"`
	Workers []*WorkerConfigTest `yaml:"workers"`
}

type WorkloadConfigTest struct {
	Modules []*ModuleConfigTest `yaml:"modules"`
}

func defaultWorkloadConfig() *WorkloadConfigTest {
	return &WorkloadConfigTest{}
}

func testLoadConfig(t *testing.T, tc *LoadConfigTestCase) {
	if tc.Description != "" {
		t.Log(tc.Description)
	}
	workloadConfig := clone.Clone(tc.WorkloadConfig)
	gotSimConfig, err := LoadConfig("", workloadConfig, []byte(strings.ReplaceAll(tc.Data, "\t", "  ")))
	if tc.WantErr == nil && err != nil {
		t.Fatal(err)
	}
	if tc.WantErr != nil && err == nil {
		t.Fatalf("err: want %v, got %v", tc.WantErr, err)
	}

	if diff := cmp.Diff(tc.WantSimConfig, gotSimConfig); diff != "" {
		t.Fatalf("SimConfig mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff(tc.WantWorkloadConfig, workloadConfig); diff != "" {
		t.Fatalf("WorkloadConfig mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadSimConfig(t *testing.T) {
	workloadData := `
		workload:
			modules:
				- name: "0"
				  workers:
					- tid: "0"
					  units: "10"
	`
	ignoredData := `
		ignore:
			- name: name1
	`

	name1 := "default_time_slice"
	data1 := `
		sim_config:
			default_time_slice: "2"
	`
	simCfg1 := DefaultSimConfig()
	simCfg1.DefaultTimeSlice = "2"

	name2 := "cpu_config"
	data2 := `
		sim_config:
			cpu_config:
				local_timer_scheduling: false
	`
	simCfg2 := DefaultSimConfig()
	simCfg2.CPUConfig.LocalTimerScheduling = false

	name3 := "log_config"
	data3 := `
		sim_config:
			log_config:
				level: debug
	`
	simCfg3 := DefaultSimConfig()
	simCfg3.LoggerConfig.Level = "debug"

	name4 := "run_until"
	data4 := `
		sim_config:
			run_until: "100"
	`
	simCfg4 := DefaultSimConfig()
	simCfg4.RunUntil = "100"

	for _, tc := range []*LoadConfigTestCase{
		{
			Name:          "default",
			WantSimConfig: DefaultSimConfig(),
		},
		{
			Name: "sim_config_empty",
			Data: `
				sim_config:
			`,
			WantSimConfig: DefaultSimConfig(),
		},
		{
			Name:          name1,
			Data:          data1,
			WantSimConfig: simCfg1,
		},
		{
			Name:          name2,
			Data:          data2,
			WantSimConfig: simCfg2,
		},
		{
			Name:          name3,
			Data:          data3,
			WantSimConfig: simCfg3,
		},
		{
			Name:          name4,
			Data:          data4,
			WantSimConfig: simCfg4,
		},
		{
			Name:          name1 + "_plus_workload",
			Data:          data1 + workloadData,
			WantSimConfig: simCfg1,
		},
		{
			Name:          "workload_plus_" + name1,
			Data:          workloadData + data1,
			WantSimConfig: simCfg1,
		},
		{
			Name:          name1 + "_plus_ignored",
			Data:          data1 + ignoredData,
			WantSimConfig: simCfg1,
		},
	} {
		t.Run(
			tc.Name,
			func(t *testing.T) { testLoadConfig(t, tc) },
		)
	}
}

func TestLoadWorkloadConfig(t *testing.T) {
	data := `
		workload:
			modules:
				- name: "0"
				  workers:
					- tid: "0"
					  units: "10"
				- name: "0.0"
				  workers:
					- tid: "0"
					  units: "5"
	`
	wantWorkloadConfig := &WorkloadConfigTest{
		Modules: []*ModuleConfigTest{
			{
				Name: "0",
				Workers: []*WorkerConfigTest{
					{Tid: "0", Units: "10"},
				},
			},
			{
				Name: "0.0",
				Workers: []*WorkerConfigTest{
					{Tid: "0", Units: "5"},
				},
			},
		},
	}
	tc := &LoadConfigTestCase{
		Name:               "workload_config",
		Description:        "Test loading workload configuration",
		WorkloadConfig:     defaultWorkloadConfig(),
		Data:               data,
		WantSimConfig:      DefaultSimConfig(),
		WantWorkloadConfig: wantWorkloadConfig,
		WantErr:            nil,
	}
	t.Run(
		tc.Name,
		func(t *testing.T) { testLoadConfig(t, tc) },
	)
}
