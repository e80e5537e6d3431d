package semantics

import (
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/ir"
)

const (
	imm = true
	rgs = false
)

func integerExpanders() map[insts.Op]expander {
	return map[insts.Op]expander{
		insts.OpADCImm: arithmetic(arithAdc, imm, true),
		insts.OpADCReg: arithmetic(arithAdc, rgs, true),
		insts.OpADDImm: arithmetic(arithAdd, imm, true),
		insts.OpADDReg: arithmetic(arithAdd, rgs, true),
		insts.OpSBCImm: arithmetic(arithSbc, imm, true),
		insts.OpSBCReg: arithmetic(arithSbc, rgs, true),
		insts.OpSUBImm: arithmetic(arithSub, imm, true),
		insts.OpSUBReg: arithmetic(arithSub, rgs, true),
		insts.OpRSBImm: arithmetic(arithRsb, imm, true),
		insts.OpRSBReg: arithmetic(arithRsb, rgs, true),
		insts.OpCMNImm: arithmetic(arithAdd, imm, false),
		insts.OpCMNReg: arithmetic(arithAdd, rgs, false),
		insts.OpCMPImm: arithmetic(arithSub, imm, false),
		insts.OpCMPReg: arithmetic(arithSub, rgs, false),

		insts.OpANDImm: logical(logicAnd, imm, true),
		insts.OpANDReg: logical(logicAnd, rgs, true),
		insts.OpBICImm: logical(logicBic, imm, true),
		insts.OpBICReg: logical(logicBic, rgs, true),
		insts.OpEORImm: logical(logicEor, imm, true),
		insts.OpEORReg: logical(logicEor, rgs, true),
		insts.OpORNImm: logical(logicOrn, imm, true),
		insts.OpORNReg: logical(logicOrn, rgs, true),
		insts.OpORRImm: logical(logicOrr, imm, true),
		insts.OpORRReg: logical(logicOrr, rgs, true),
		insts.OpMOVImm: logical(logicMov, imm, true),
		insts.OpMOVReg: logical(logicMov, rgs, true),
		insts.OpMVNImm: logical(logicMvn, imm, true),
		insts.OpMVNReg: logical(logicMvn, rgs, true),
		insts.OpTEQImm: logical(logicEor, imm, false),
		insts.OpTEQReg: logical(logicEor, rgs, false),
		insts.OpTSTImm: logical(logicAnd, imm, false),
		insts.OpTSTReg: logical(logicAnd, rgs, false),
		insts.OpADR:    expandADR,
		insts.OpMOVT:   expandMOVT,

		// Immediate shifts are moves of a shifted register.
		insts.OpASRImm: logical(logicMov, rgs, true),
		insts.OpLSLImm: logical(logicMov, rgs, true),
		insts.OpLSRImm: logical(logicMov, rgs, true),
		insts.OpRORImm: logical(logicMov, rgs, true),
		insts.OpRRX:    logical(logicMov, rgs, true),
		insts.OpASRReg: registerShift(ir.ASR),
		insts.OpLSLReg: registerShift(ir.LSL),
		insts.OpLSRReg: registerShift(ir.LSR),
		insts.OpRORReg: registerShift(ir.ROR),

		insts.OpMUL:   expandMUL,
		insts.OpMLA:   multiplyAccumulate(false),
		insts.OpMLS:   multiplyAccumulate(true),
		insts.OpSMULL: longMultiply(true, false),
		insts.OpUMULL: longMultiply(false, false),
		insts.OpSMLAL: longMultiply(true, true),
		insts.OpUMLAL: longMultiply(false, true),
		insts.OpSDIV:  expandSDIV,
		insts.OpUDIV:  expandUDIV,

		insts.OpBFC:   expandBFC,
		insts.OpBFI:   expandBFI,
		insts.OpSBFX:  expandSBFX,
		insts.OpUBFX:  expandUBFX,
		insts.OpSXTB:  extend(true, 8, false),
		insts.OpSXTH:  extend(true, 16, false),
		insts.OpUXTB:  extend(false, 8, false),
		insts.OpUXTH:  extend(false, 16, false),
		insts.OpSXTAB: extend(true, 8, true),
		insts.OpSXTAH: extend(true, 16, true),
		insts.OpUXTAB: extend(false, 8, true),
		insts.OpUXTAH: extend(false, 16, true),
		insts.OpCLZ:   expandCLZ,
		insts.OpRBIT:  reverse(bitReverseRounds, false),
		insts.OpREV:   reverse(byteReverseRounds, false),
		insts.OpREV16: reverse(halfwordReverseRounds, false),
		insts.OpREVSH: reverse(halfwordReverseRounds, true),

		insts.OpSSAT:   saturateWord(false),
		insts.OpUSAT:   saturateWord(true),
		insts.OpSSAT16: saturateHalves(false),
		insts.OpUSAT16: saturateHalves(true),
		insts.OpQADD:   saturatingArith(false, false),
		insts.OpQSUB:   saturatingArith(true, false),
		insts.OpQDADD:  saturatingArith(false, true),
		insts.OpQDSUB:  saturatingArith(true, true),

		insts.OpSADD8:   parallel(true, laneModular, 8, false),
		insts.OpSADD16:  parallel(true, laneModular, 16, false),
		insts.OpSSUB8:   parallel(true, laneModular, 8, true),
		insts.OpSSUB16:  parallel(true, laneModular, 16, true),
		insts.OpUADD8:   parallel(false, laneModular, 8, false),
		insts.OpUADD16:  parallel(false, laneModular, 16, false),
		insts.OpUSUB8:   parallel(false, laneModular, 8, true),
		insts.OpUSUB16:  parallel(false, laneModular, 16, true),
		insts.OpQADD8:   parallel(true, laneSaturating, 8, false),
		insts.OpQADD16:  parallel(true, laneSaturating, 16, false),
		insts.OpQSUB8:   parallel(true, laneSaturating, 8, true),
		insts.OpQSUB16:  parallel(true, laneSaturating, 16, true),
		insts.OpUQADD8:  parallel(false, laneSaturating, 8, false),
		insts.OpUQADD16: parallel(false, laneSaturating, 16, false),
		insts.OpUQSUB8:  parallel(false, laneSaturating, 8, true),
		insts.OpUQSUB16: parallel(false, laneSaturating, 16, true),
		insts.OpSHADD8:  parallel(true, laneHalving, 8, false),
		insts.OpSHADD16: parallel(true, laneHalving, 16, false),
		insts.OpSHSUB8:  parallel(true, laneHalving, 8, true),
		insts.OpSHSUB16: parallel(true, laneHalving, 16, true),
		insts.OpUHADD8:  parallel(false, laneHalving, 8, false),
		insts.OpUHADD16: parallel(false, laneHalving, 16, false),
		insts.OpUHSUB8:  parallel(false, laneHalving, 8, true),
		insts.OpUHSUB16: parallel(false, laneHalving, 16, true),
		insts.OpSEL:     expandSEL,
		insts.OpUSAD8:   sumAbsoluteDifferences(false),
		insts.OpUSADA8:  sumAbsoluteDifferences(true),

		insts.OpB:     expandB,
		insts.OpBCond: expandBCond,
		insts.OpBL:    expandBL,
		insts.OpBX:    expandBX,
		insts.OpBLX:   expandBLX,
		insts.OpCBZ:   compareBranch(false),
		insts.OpCBNZ:  compareBranch(true),
		insts.OpTBB:   tableBranch(false),
		insts.OpTBH:   tableBranch(true),
		insts.OpIT:    expandIT,

		insts.OpLDRImm:   load(addrImmediate, 32, false),
		insts.OpLDRReg:   load(addrRegister, 32, false),
		insts.OpLDRLit:   load(addrLiteral, 32, false),
		insts.OpLDRBImm:  load(addrImmediate, 8, false),
		insts.OpLDRBReg:  load(addrRegister, 8, false),
		insts.OpLDRBLit:  load(addrLiteral, 8, false),
		insts.OpLDRHImm:  load(addrImmediate, 16, false),
		insts.OpLDRHReg:  load(addrRegister, 16, false),
		insts.OpLDRHLit:  load(addrLiteral, 16, false),
		insts.OpLDRSBImm: load(addrImmediate, 8, true),
		insts.OpLDRSBReg: load(addrRegister, 8, true),
		insts.OpLDRSBLit: load(addrLiteral, 8, true),
		insts.OpLDRSHImm: load(addrImmediate, 16, true),
		insts.OpLDRSHReg: load(addrRegister, 16, true),
		insts.OpLDRSHLit: load(addrLiteral, 16, true),
		insts.OpSTRImm:   store(addrImmediate, 32),
		insts.OpSTRReg:   store(addrRegister, 32),
		insts.OpSTRBImm:  store(addrImmediate, 8),
		insts.OpSTRBReg:  store(addrRegister, 8),
		insts.OpSTRHImm:  store(addrImmediate, 16),
		insts.OpSTRHReg:  store(addrRegister, 16),
		insts.OpLDRD:     expandLDRD,
		insts.OpSTRD:     expandSTRD,
		insts.OpLDM:      loadMultiple(false),
		insts.OpLDMDB:    loadMultiple(true),
		insts.OpSTM:      storeMultiple(false),
		insts.OpSTMDB:    storeMultiple(true),
		insts.OpPUSH:     storeMultiple(true),
		insts.OpPOP:      expandPOP,

		insts.OpLDREX:  aborting(ReasonExclusive),
		insts.OpLDREXB: aborting(ReasonExclusive),
		insts.OpLDREXH: aborting(ReasonExclusive),
		insts.OpSTREX:  aborting(ReasonExclusive),
		insts.OpSTREXB: aborting(ReasonExclusive),
		insts.OpSTREXH: aborting(ReasonExclusive),
		insts.OpCLREX:  none,

		// Hints and barriers have no architectural effect without a
		// timing model.
		insts.OpNOP:   none,
		insts.OpYIELD: none,
		insts.OpWFE:   none,
		insts.OpWFI:   none,
		insts.OpSEV:   none,
		insts.OpDMB:   none,
		insts.OpDSB:   none,
		insts.OpISB:   none,
		insts.OpPLD:   none,
		insts.OpPLI:   none,
		insts.OpCPS:   none,
		insts.OpSVC:   aborting(ReasonSupervisorCall),
		insts.OpBKPT:  aborting(ReasonBreakpoint),
		insts.OpUDF:   aborting(ReasonUndefined),
		insts.OpMRS:   expandMRS,
		insts.OpMSR:   expandMSR,

		insts.OpCDP:  aborting(ReasonCoprocessor),
		insts.OpMCR:  aborting(ReasonCoprocessor),
		insts.OpMRC:  aborting(ReasonCoprocessor),
		insts.OpMCRR: aborting(ReasonCoprocessor),
		insts.OpMRRC: aborting(ReasonCoprocessor),
		insts.OpLDC:  aborting(ReasonCoprocessor),
		insts.OpSTC:  aborting(ReasonCoprocessor),
	}
}
