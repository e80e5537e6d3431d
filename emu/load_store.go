package emu

import (
	"fmt"

	"github.com/sarchlab/cortexsym/smt"
)

// pending is a symbolic value an operation needs concrete before it can
// run. The executor forks once per solution, binds the value and retries
// the operation.
type pending struct {
	what  string
	value *smt.BV
	bind  func(st *State, v uint64)
}

// addressOf returns the concrete address held in a local. A symbolic
// address is recorded as pending and zero is returned in its place.
func (x *step) addressOf(name string) (uint32, bool) {
	addr := x.local(name)
	if v, ok := addr.Value(); ok {
		return uint32(v), true
	}
	if x.pend == nil {
		x.pend = &pending{
			what:  "address in %" + name,
			value: addr.ZeroExt(32),
			bind: func(st *State, v uint64) {
				st.locals[name] = smt.BVConst(v, 32)
			},
		}
	}
	return 0, false
}

// load reads width bits at the address held in a local.
func (x *step) load(name string, width uint32) *smt.BV {
	addr, ok := x.addressOf(name)
	if !ok {
		return smt.BVConst(0, width)
	}
	return x.st.Mem.Read(addr, width)
}

// store writes the low width bits of v at the address held in a local.
func (x *step) store(name string, width uint32, v *smt.BV) {
	addr, ok := x.addressOf(name)
	if !ok || x.pend != nil {
		return
	}
	x.st.Mem.Write(addr, resize(v, width))
}

func (x *step) local(name string) *smt.BV {
	v, ok := x.st.locals[name]
	if !ok {
		panic(fmt.Sprintf("emu: read of unset local %%%s", name))
	}
	return v
}
