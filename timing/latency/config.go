package latency

import (
	"fmt"
	"os"

	jsoniter "github.com/json-iterator/go"
)

// TimingConfig holds cycle counts for coarse instruction classes.
// Values are based on the Cortex-M4 technical reference manual.
type TimingConfig struct {
	// ALULatency is the cost of data processing, shift, extend and
	// saturating instructions. Default: 1 cycle.
	ALULatency uint64 `json:"alu_latency"`

	// MultiplyLatency is the cost of MUL and the 64-bit multiplies.
	// Default: 1 cycle.
	MultiplyLatency uint64 `json:"multiply_latency"`

	// MultiplyAccumulateLatency is the cost of MLA and MLS.
	// Default: 2 cycles.
	MultiplyAccumulateLatency uint64 `json:"multiply_accumulate_latency"`

	// DivideLatencyMin is the early-terminating divide latency.
	// Default: 2 cycles.
	DivideLatencyMin uint64 `json:"divide_latency_min"`

	// DivideLatencyMax is the worst-case divide latency.
	// Default: 12 cycles.
	DivideLatencyMax uint64 `json:"divide_latency_max"`

	// LoadLatency is the cost of a single load. Default: 2 cycles.
	LoadLatency uint64 `json:"load_latency"`

	// StoreLatency is the cost of a single store. Default: 1 cycle.
	StoreLatency uint64 `json:"store_latency"`

	// PerRegisterLatency is added per register moved by LDM, STM, PUSH,
	// POP and their VFP forms. Default: 1 cycle.
	PerRegisterLatency uint64 `json:"per_register_latency"`

	// BranchLatency is the base cost of a branch. Default: 1 cycle.
	BranchLatency uint64 `json:"branch_latency"`

	// BranchTakenPenalty is the pipeline refill added whenever PC is
	// written. Default: 2 cycles.
	BranchTakenPenalty uint64 `json:"branch_taken_penalty"`

	// SystemLatency is the cost of hints, barriers and special register
	// moves. Default: 1 cycle.
	SystemLatency uint64 `json:"system_latency"`

	// FPLatency is the cost of VADD, VSUB, VMUL, compares, conversions and
	// moves. Default: 1 cycle.
	FPLatency uint64 `json:"fp_latency"`

	// FPMultiplyAccumulateLatency is the cost of the chained and fused
	// multiply-accumulates. Default: 3 cycles.
	FPMultiplyAccumulateLatency uint64 `json:"fp_multiply_accumulate_latency"`

	// FPDivideLatency is the cost of VDIV. Default: 14 cycles.
	FPDivideLatency uint64 `json:"fp_divide_latency"`

	// FPSqrtLatency is the cost of VSQRT. Default: 14 cycles.
	FPSqrtLatency uint64 `json:"fp_sqrt_latency"`

	// FlashWaitStates is added to every instruction fetch that misses the
	// flash cache. Default: 5 cycles.
	FlashWaitStates uint64 `json:"flash_wait_states"`
}

// DefaultTimingConfig returns a TimingConfig with Cortex-M4 default values.
func DefaultTimingConfig() *TimingConfig {
	return &TimingConfig{
		ALULatency:                  1,
		MultiplyLatency:             1,
		MultiplyAccumulateLatency:   2,
		DivideLatencyMin:            2,
		DivideLatencyMax:            12,
		LoadLatency:                 2,
		StoreLatency:                1,
		PerRegisterLatency:          1,
		BranchLatency:               1,
		BranchTakenPenalty:          2,
		SystemLatency:               1,
		FPLatency:                   1,
		FPMultiplyAccumulateLatency: 3,
		FPDivideLatency:             14,
		FPSqrtLatency:               14,
		FlashWaitStates:             5,
	}
}

// LoadConfig loads a TimingConfig from a JSON file. Missing fields keep
// their defaults.
func LoadConfig(path string) (*TimingConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read timing config file: %w", err)
	}

	config := DefaultTimingConfig()
	if err := jsoniter.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse timing config: %w", err)
	}

	return config, nil
}

// SaveConfig writes a TimingConfig to a JSON file.
func (c *TimingConfig) SaveConfig(path string) error {
	data, err := jsoniter.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize timing config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write timing config file: %w", err)
	}

	return nil
}

// Validate checks that every single-instruction latency is at least one
// cycle.
func (c *TimingConfig) Validate() error {
	nonZero := []struct {
		name  string
		value uint64
	}{
		{"alu_latency", c.ALULatency},
		{"multiply_latency", c.MultiplyLatency},
		{"multiply_accumulate_latency", c.MultiplyAccumulateLatency},
		{"divide_latency_min", c.DivideLatencyMin},
		{"load_latency", c.LoadLatency},
		{"store_latency", c.StoreLatency},
		{"branch_latency", c.BranchLatency},
		{"system_latency", c.SystemLatency},
		{"fp_latency", c.FPLatency},
		{"fp_multiply_accumulate_latency", c.FPMultiplyAccumulateLatency},
		{"fp_divide_latency", c.FPDivideLatency},
		{"fp_sqrt_latency", c.FPSqrtLatency},
	}
	for _, f := range nonZero {
		if f.value == 0 {
			return fmt.Errorf("%s must be > 0", f.name)
		}
	}
	if c.DivideLatencyMin > c.DivideLatencyMax {
		return fmt.Errorf("divide_latency_min must be <= divide_latency_max")
	}
	return nil
}

// Clone returns a copy of the TimingConfig.
func (c *TimingConfig) Clone() *TimingConfig {
	clone := *c
	return &clone
}
