package insts

import "fmt"

// Op represents an ARMv7-M (Thumb) or VFP opcode. Register and immediate
// forms of the same mnemonic are distinct ops.
type Op uint16

// Integer opcodes.
const (
	OpUnknown Op = iota

	// Data processing.
	OpADCImm
	OpADCReg
	OpADDImm
	OpADDReg
	OpANDImm
	OpANDReg
	OpBICImm
	OpBICReg
	OpCMNImm
	OpCMNReg
	OpCMPImm
	OpCMPReg
	OpEORImm
	OpEORReg
	OpMOVImm
	OpMOVReg
	OpMVNImm
	OpMVNReg
	OpORNImm
	OpORNReg
	OpORRImm
	OpORRReg
	OpRSBImm
	OpRSBReg
	OpSBCImm
	OpSBCReg
	OpSUBImm
	OpSUBReg
	OpTEQImm
	OpTEQReg
	OpTSTImm
	OpTSTReg
	OpADR
	OpMOVT

	// Shifts.
	OpASRImm
	OpASRReg
	OpLSLImm
	OpLSLReg
	OpLSRImm
	OpLSRReg
	OpRORImm
	OpRORReg
	OpRRX

	// Multiply and divide.
	OpMUL
	OpMLA
	OpMLS
	OpSMULL
	OpUMULL
	OpSMLAL
	OpUMLAL
	OpSDIV
	OpUDIV

	// Bit field, extend and reverse.
	OpBFC
	OpBFI
	OpSBFX
	OpUBFX
	OpSXTB
	OpSXTH
	OpUXTB
	OpUXTH
	OpSXTAB
	OpSXTAH
	OpUXTAB
	OpUXTAH
	OpCLZ
	OpRBIT
	OpREV
	OpREV16
	OpREVSH

	// Saturation.
	OpSSAT
	OpUSAT
	OpSSAT16
	OpUSAT16
	OpQADD
	OpQSUB
	OpQDADD
	OpQDSUB

	// Parallel add and subtract.
	OpSADD8
	OpSADD16
	OpSSUB8
	OpSSUB16
	OpQADD8
	OpQADD16
	OpQSUB8
	OpQSUB16
	OpSHADD8
	OpSHADD16
	OpSHSUB8
	OpSHSUB16
	OpUADD8
	OpUADD16
	OpUSUB8
	OpUSUB16
	OpUQADD8
	OpUQADD16
	OpUQSUB8
	OpUQSUB16
	OpUHADD8
	OpUHADD16
	OpUHSUB8
	OpUHSUB16
	OpSEL
	OpUSAD8
	OpUSADA8

	// Branches.
	OpB
	OpBCond
	OpBL
	OpBX
	OpBLX
	OpCBZ
	OpCBNZ
	OpTBB
	OpTBH
	OpIT

	// Loads and stores.
	OpLDRImm
	OpLDRReg
	OpLDRLit
	OpLDRBImm
	OpLDRBReg
	OpLDRBLit
	OpLDRHImm
	OpLDRHReg
	OpLDRHLit
	OpLDRSBImm
	OpLDRSBReg
	OpLDRSBLit
	OpLDRSHImm
	OpLDRSHReg
	OpLDRSHLit
	OpSTRImm
	OpSTRReg
	OpSTRBImm
	OpSTRBReg
	OpSTRHImm
	OpSTRHReg
	OpLDRD
	OpSTRD
	OpLDM
	OpLDMDB
	OpSTM
	OpSTMDB
	OpPUSH
	OpPOP

	// Exclusive access.
	OpLDREX
	OpLDREXB
	OpLDREXH
	OpSTREX
	OpSTREXB
	OpSTREXH
	OpCLREX

	// System and hints.
	OpNOP
	OpYIELD
	OpWFE
	OpWFI
	OpSEV
	OpDMB
	OpDSB
	OpISB
	OpSVC
	OpBKPT
	OpUDF
	OpCPS
	OpMRS
	OpMSR
	OpPLD
	OpPLI

	// Coprocessor.
	OpCDP
	OpMCR
	OpMRC
	OpMCRR
	OpMRRC
	OpLDC
	OpSTC

	numIntegerOps
)

// VFP opcodes.
const (
	OpVMOVCoreToSingle Op = iota + 0x100
	OpVMOVSingleToCore
	OpVMOVCoreToDouble
	OpVMOVDoubleToCore
	OpVMOVCoreToSinglePair
	OpVMOVSinglePairToCore
	OpVMOVCoreToScalar
	OpVMOVScalarToCore
	OpVMOVImm
	OpVMOVReg
	OpVMRS
	OpVMSR
	OpVADD
	OpVSUB
	OpVMUL
	OpVNMUL
	OpVDIV
	OpVMLA
	OpVMLS
	OpVNMLA
	OpVNMLS
	OpVFMA
	OpVFMS
	OpVFNMA
	OpVFNMS
	OpVABS
	OpVNEG
	OpVSQRT
	OpVCMP
	OpVCMPE
	OpVCVTFloatToInt
	OpVCVTIntToFloat
	OpVCVTToFixed
	OpVCVTFromFixed
	OpVCVTPrecision
	OpVCVTB
	OpVCVTT
	OpVRINT
	OpVSEL
	OpVMAXNM
	OpVMINNM
	OpVLDR
	OpVSTR
	OpVLDM
	OpVSTM
	OpVPUSH
	OpVPOP

	numFPOps
)

// IsFP reports whether the op belongs to the VFP family.
func (o Op) IsFP() bool {
	return o >= OpVMOVCoreToSingle && o < numFPOps
}

// Ops returns every defined opcode.
func Ops() []Op {
	out := make([]Op, 0, int(numIntegerOps)+int(numFPOps-OpVMOVCoreToSingle))
	for o := OpUnknown + 1; o < numIntegerOps; o++ {
		out = append(out, o)
	}
	for o := OpVMOVCoreToSingle; o < numFPOps; o++ {
		out = append(out, o)
	}
	return out
}

var opNames = map[Op]string{
	OpUnknown: "UNKNOWN",

	OpADCImm: "ADC", OpADCReg: "ADC", OpADDImm: "ADD", OpADDReg: "ADD",
	OpANDImm: "AND", OpANDReg: "AND", OpBICImm: "BIC", OpBICReg: "BIC",
	OpCMNImm: "CMN", OpCMNReg: "CMN", OpCMPImm: "CMP", OpCMPReg: "CMP",
	OpEORImm: "EOR", OpEORReg: "EOR", OpMOVImm: "MOV", OpMOVReg: "MOV",
	OpMVNImm: "MVN", OpMVNReg: "MVN", OpORNImm: "ORN", OpORNReg: "ORN",
	OpORRImm: "ORR", OpORRReg: "ORR", OpRSBImm: "RSB", OpRSBReg: "RSB",
	OpSBCImm: "SBC", OpSBCReg: "SBC", OpSUBImm: "SUB", OpSUBReg: "SUB",
	OpTEQImm: "TEQ", OpTEQReg: "TEQ", OpTSTImm: "TST", OpTSTReg: "TST",
	OpADR: "ADR", OpMOVT: "MOVT",

	OpASRImm: "ASR", OpASRReg: "ASR", OpLSLImm: "LSL", OpLSLReg: "LSL",
	OpLSRImm: "LSR", OpLSRReg: "LSR", OpRORImm: "ROR", OpRORReg: "ROR",
	OpRRX: "RRX",

	OpMUL: "MUL", OpMLA: "MLA", OpMLS: "MLS", OpSMULL: "SMULL",
	OpUMULL: "UMULL", OpSMLAL: "SMLAL", OpUMLAL: "UMLAL", OpSDIV: "SDIV",
	OpUDIV: "UDIV",

	OpBFC: "BFC", OpBFI: "BFI", OpSBFX: "SBFX", OpUBFX: "UBFX",
	OpSXTB: "SXTB", OpSXTH: "SXTH", OpUXTB: "UXTB", OpUXTH: "UXTH",
	OpSXTAB: "SXTAB", OpSXTAH: "SXTAH", OpUXTAB: "UXTAB", OpUXTAH: "UXTAH",
	OpCLZ: "CLZ", OpRBIT: "RBIT", OpREV: "REV", OpREV16: "REV16",
	OpREVSH: "REVSH",

	OpSSAT: "SSAT", OpUSAT: "USAT", OpSSAT16: "SSAT16", OpUSAT16: "USAT16",
	OpQADD: "QADD", OpQSUB: "QSUB", OpQDADD: "QDADD", OpQDSUB: "QDSUB",

	OpSADD8: "SADD8", OpSADD16: "SADD16", OpSSUB8: "SSUB8", OpSSUB16: "SSUB16",
	OpQADD8: "QADD8", OpQADD16: "QADD16", OpQSUB8: "QSUB8", OpQSUB16: "QSUB16",
	OpSHADD8: "SHADD8", OpSHADD16: "SHADD16", OpSHSUB8: "SHSUB8",
	OpSHSUB16: "SHSUB16", OpUADD8: "UADD8", OpUADD16: "UADD16",
	OpUSUB8: "USUB8", OpUSUB16: "USUB16", OpUQADD8: "UQADD8",
	OpUQADD16: "UQADD16", OpUQSUB8: "UQSUB8", OpUQSUB16: "UQSUB16",
	OpUHADD8: "UHADD8", OpUHADD16: "UHADD16", OpUHSUB8: "UHSUB8",
	OpUHSUB16: "UHSUB16", OpSEL: "SEL", OpUSAD8: "USAD8", OpUSADA8: "USADA8",

	OpB: "B", OpBCond: "B", OpBL: "BL", OpBX: "BX", OpBLX: "BLX",
	OpCBZ: "CBZ", OpCBNZ: "CBNZ", OpTBB: "TBB", OpTBH: "TBH", OpIT: "IT",

	OpLDRImm: "LDR", OpLDRReg: "LDR", OpLDRLit: "LDR",
	OpLDRBImm: "LDRB", OpLDRBReg: "LDRB", OpLDRBLit: "LDRB",
	OpLDRHImm: "LDRH", OpLDRHReg: "LDRH", OpLDRHLit: "LDRH",
	OpLDRSBImm: "LDRSB", OpLDRSBReg: "LDRSB", OpLDRSBLit: "LDRSB",
	OpLDRSHImm: "LDRSH", OpLDRSHReg: "LDRSH", OpLDRSHLit: "LDRSH",
	OpSTRImm: "STR", OpSTRReg: "STR", OpSTRBImm: "STRB", OpSTRBReg: "STRB",
	OpSTRHImm: "STRH", OpSTRHReg: "STRH", OpLDRD: "LDRD", OpSTRD: "STRD",
	OpLDM: "LDM", OpLDMDB: "LDMDB", OpSTM: "STM", OpSTMDB: "STMDB",
	OpPUSH: "PUSH", OpPOP: "POP",

	OpLDREX: "LDREX", OpLDREXB: "LDREXB", OpLDREXH: "LDREXH",
	OpSTREX: "STREX", OpSTREXB: "STREXB", OpSTREXH: "STREXH", OpCLREX: "CLREX",

	OpNOP: "NOP", OpYIELD: "YIELD", OpWFE: "WFE", OpWFI: "WFI", OpSEV: "SEV",
	OpDMB: "DMB", OpDSB: "DSB", OpISB: "ISB", OpSVC: "SVC", OpBKPT: "BKPT",
	OpUDF: "UDF", OpCPS: "CPS", OpMRS: "MRS", OpMSR: "MSR", OpPLD: "PLD",
	OpPLI: "PLI",

	OpCDP: "CDP", OpMCR: "MCR", OpMRC: "MRC", OpMCRR: "MCRR", OpMRRC: "MRRC",
	OpLDC: "LDC", OpSTC: "STC",

	OpVMOVCoreToSingle: "VMOV", OpVMOVSingleToCore: "VMOV",
	OpVMOVCoreToDouble: "VMOV", OpVMOVDoubleToCore: "VMOV",
	OpVMOVCoreToSinglePair: "VMOV", OpVMOVSinglePairToCore: "VMOV",
	OpVMOVCoreToScalar: "VMOV", OpVMOVScalarToCore: "VMOV",
	OpVMOVImm: "VMOV", OpVMOVReg: "VMOV", OpVMRS: "VMRS", OpVMSR: "VMSR",
	OpVADD: "VADD", OpVSUB: "VSUB", OpVMUL: "VMUL", OpVNMUL: "VNMUL",
	OpVDIV: "VDIV", OpVMLA: "VMLA", OpVMLS: "VMLS", OpVNMLA: "VNMLA",
	OpVNMLS: "VNMLS", OpVFMA: "VFMA", OpVFMS: "VFMS", OpVFNMA: "VFNMA",
	OpVFNMS: "VFNMS", OpVABS: "VABS", OpVNEG: "VNEG", OpVSQRT: "VSQRT",
	OpVCMP: "VCMP", OpVCMPE: "VCMPE", OpVCVTFloatToInt: "VCVT",
	OpVCVTIntToFloat: "VCVT", OpVCVTToFixed: "VCVT", OpVCVTFromFixed: "VCVT",
	OpVCVTPrecision: "VCVT", OpVCVTB: "VCVTB", OpVCVTT: "VCVTT",
	OpVRINT: "VRINT", OpVSEL: "VSEL", OpVMAXNM: "VMAXNM", OpVMINNM: "VMINNM",
	OpVLDR: "VLDR", OpVSTR: "VSTR", OpVLDM: "VLDM", OpVSTM: "VSTM",
	OpVPUSH: "VPUSH", OpVPOP: "VPOP",
}

// Mnemonic returns the assembler mnemonic without suffixes.
func (o Op) Mnemonic() string {
	if n, ok := opNames[o]; ok {
		return n
	}
	return fmt.Sprintf("Op(%d)", uint16(o))
}

func (o Op) String() string {
	return o.Mnemonic()
}
