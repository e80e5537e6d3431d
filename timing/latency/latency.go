// Package latency provides coarse cycle estimates for Cortex-M
// instructions.
//
// Instructions are grouped into classes whose costs come from a
// TimingConfig. A Table implements emu.CostModel.
package latency

import (
	"github.com/sarchlab/cortexsym/insts"
)

// Class is a group of instructions with the same cost.
type Class uint8

// Instruction classes.
const (
	ClassALU Class = iota
	ClassMultiply
	ClassMultiplyAccumulate
	ClassDivide
	ClassLoad
	ClassStore
	ClassLoadMultiple
	ClassStoreMultiple
	ClassBranch
	ClassSystem
	ClassFP
	ClassFPMultiplyAccumulate
	ClassFPDivide
	ClassFPSqrt
	ClassFPLoad
	ClassFPStore
)

var classNames = [...]string{
	"alu", "multiply", "multiply-accumulate", "divide", "load", "store",
	"load-multiple", "store-multiple", "branch", "system", "fp",
	"fp-multiply-accumulate", "fp-divide", "fp-sqrt", "fp-load", "fp-store",
}

func (c Class) String() string {
	if int(c) < len(classNames) {
		return classNames[c]
	}
	return "class?"
}

// Classify returns the class of op.
func Classify(op insts.Op) Class {
	switch op {
	case insts.OpMUL, insts.OpSMULL, insts.OpUMULL:
		return ClassMultiply
	case insts.OpMLA, insts.OpMLS, insts.OpSMLAL, insts.OpUMLAL, insts.OpUSADA8:
		return ClassMultiplyAccumulate
	case insts.OpSDIV, insts.OpUDIV:
		return ClassDivide

	case insts.OpLDRImm, insts.OpLDRReg, insts.OpLDRLit,
		insts.OpLDRBImm, insts.OpLDRBReg, insts.OpLDRBLit,
		insts.OpLDRHImm, insts.OpLDRHReg, insts.OpLDRHLit,
		insts.OpLDRSBImm, insts.OpLDRSBReg, insts.OpLDRSBLit,
		insts.OpLDRSHImm, insts.OpLDRSHReg, insts.OpLDRSHLit,
		insts.OpLDRD, insts.OpLDREX, insts.OpLDREXB, insts.OpLDREXH:
		return ClassLoad
	case insts.OpSTRImm, insts.OpSTRReg, insts.OpSTRBImm, insts.OpSTRBReg,
		insts.OpSTRHImm, insts.OpSTRHReg, insts.OpSTRD,
		insts.OpSTREX, insts.OpSTREXB, insts.OpSTREXH:
		return ClassStore
	case insts.OpLDM, insts.OpLDMDB, insts.OpPOP:
		return ClassLoadMultiple
	case insts.OpSTM, insts.OpSTMDB, insts.OpPUSH:
		return ClassStoreMultiple

	case insts.OpB, insts.OpBCond, insts.OpBL, insts.OpBX, insts.OpBLX,
		insts.OpCBZ, insts.OpCBNZ, insts.OpTBB, insts.OpTBH:
		return ClassBranch

	case insts.OpNOP, insts.OpYIELD, insts.OpWFE, insts.OpWFI, insts.OpSEV,
		insts.OpDMB, insts.OpDSB, insts.OpISB, insts.OpSVC, insts.OpBKPT,
		insts.OpUDF, insts.OpCPS, insts.OpMRS, insts.OpMSR, insts.OpCLREX,
		insts.OpPLD, insts.OpPLI, insts.OpIT,
		insts.OpCDP, insts.OpMCR, insts.OpMRC, insts.OpMCRR, insts.OpMRRC,
		insts.OpLDC, insts.OpSTC:
		return ClassSystem

	case insts.OpVMLA, insts.OpVMLS, insts.OpVNMLA, insts.OpVNMLS,
		insts.OpVFMA, insts.OpVFMS, insts.OpVFNMA, insts.OpVFNMS:
		return ClassFPMultiplyAccumulate
	case insts.OpVDIV:
		return ClassFPDivide
	case insts.OpVSQRT:
		return ClassFPSqrt
	case insts.OpVLDR, insts.OpVLDM, insts.OpVPOP:
		return ClassFPLoad
	case insts.OpVSTR, insts.OpVSTM, insts.OpVPUSH:
		return ClassFPStore
	}
	if op.IsFP() {
		return ClassFP
	}
	return ClassALU
}

// Table provides instruction latency lookups.
type Table struct {
	config *TimingConfig
}

// NewTable creates a new latency table with default Cortex-M4 values.
func NewTable() *Table {
	return &Table{
		config: DefaultTimingConfig(),
	}
}

// NewTableWithConfig creates a new latency table with custom timing configuration.
func NewTableWithConfig(config *TimingConfig) *Table {
	return &Table{
		config: config,
	}
}

// GetLatency returns the cost in cycles of the given instruction, before
// any taken-branch penalty. Divides report their worst case.
func (t *Table) GetLatency(inst insts.Instruction) uint64 {
	c := t.config
	switch Classify(inst.Op) {
	case ClassMultiply:
		return c.MultiplyLatency
	case ClassMultiplyAccumulate:
		return c.MultiplyAccumulateLatency
	case ClassDivide:
		return c.DivideLatencyMax
	case ClassLoad:
		if inst.Op == insts.OpLDRD {
			return c.LoadLatency + c.PerRegisterLatency
		}
		return c.LoadLatency
	case ClassStore:
		if inst.Op == insts.OpSTRD {
			return c.StoreLatency + c.PerRegisterLatency
		}
		return c.StoreLatency
	case ClassLoadMultiple:
		return c.LoadLatency + c.PerRegisterLatency*uint64(len(inst.Registers))
	case ClassStoreMultiple:
		return c.StoreLatency + c.PerRegisterLatency*uint64(len(inst.Registers))
	case ClassBranch:
		return c.BranchLatency
	case ClassSystem:
		return c.SystemLatency
	case ClassFPMultiplyAccumulate:
		return c.FPMultiplyAccumulateLatency
	case ClassFPDivide:
		return c.FPDivideLatency
	case ClassFPSqrt:
		return c.FPSqrtLatency
	case ClassFPLoad:
		return c.LoadLatency + c.PerRegisterLatency*fpWords(inst)
	case ClassFPStore:
		return c.StoreLatency + c.PerRegisterLatency*fpWords(inst)
	case ClassFP:
		return c.FPLatency
	}
	return c.ALULatency
}

// fpWords is the number of words moved beyond the first by a VFP load or
// store.
func fpWords(inst insts.Instruction) uint64 {
	n := uint64(1)
	if inst.Op != insts.OpVLDR && inst.Op != insts.OpVSTR {
		n = uint64(inst.Count)
	}
	if inst.Double {
		n *= 2
	}
	if n == 0 {
		return 0
	}
	return n - 1
}

// GetMinLatency returns the minimum latency for variable-latency
// operations.
func (t *Table) GetMinLatency(inst insts.Instruction) uint64 {
	if Classify(inst.Op) == ClassDivide {
		return t.config.DivideLatencyMin
	}
	return t.GetLatency(inst)
}

// GetMaxLatency returns the maximum latency for variable-latency
// operations.
func (t *Table) GetMaxLatency(inst insts.Instruction) uint64 {
	return t.GetLatency(inst)
}

// Cycles implements emu.CostModel. The fetch address does not affect the
// result; branched adds the pipeline refill.
func (t *Table) Cycles(_ uint32, inst insts.Instruction, branched bool) uint64 {
	cycles := t.GetLatency(inst)
	if branched {
		cycles += t.config.BranchTakenPenalty
	}
	return cycles
}

// IsMemoryOp returns true if the instruction accesses data memory.
func (t *Table) IsMemoryOp(inst insts.Instruction) bool {
	return t.IsLoadOp(inst) || t.IsStoreOp(inst)
}

// IsLoadOp returns true if the instruction is a load operation.
func (t *Table) IsLoadOp(inst insts.Instruction) bool {
	switch Classify(inst.Op) {
	case ClassLoad, ClassLoadMultiple, ClassFPLoad:
		return true
	}
	return false
}

// IsStoreOp returns true if the instruction is a store operation.
func (t *Table) IsStoreOp(inst insts.Instruction) bool {
	switch Classify(inst.Op) {
	case ClassStore, ClassStoreMultiple, ClassFPStore:
		return true
	}
	return false
}

// IsBranchOp returns true if the instruction is a branch operation.
func (t *Table) IsBranchOp(inst insts.Instruction) bool {
	return Classify(inst.Op) == ClassBranch
}

// Config returns the current timing configuration.
func (t *Table) Config() *TimingConfig {
	return t.config
}
