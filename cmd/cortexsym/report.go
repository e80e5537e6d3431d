package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/davecgh/go-spew/spew"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/sarchlab/cortexsym/emu"
	"github.com/sarchlab/cortexsym/explore"
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/loader"
	"github.com/sarchlab/cortexsym/smt"
)

// report prints exploration results for one program.
type report struct {
	prog   *loader.Program
	inputs map[string]*smt.BV
}

func (r *report) location(st *emu.State) string {
	addr := st.AbortPC
	if st.Status != emu.StatusAborted {
		pc, ok := st.PC()
		if !ok {
			return "symbolic"
		}
		addr = pc
	}
	if addr == returnAddress {
		return "return"
	}
	return r.prog.Describe(addr)
}

// model renders one satisfying assignment of the symbolic inputs.
func (r *report) model(st *emu.State) string {
	if len(r.inputs) == 0 {
		return ""
	}
	values, err := explore.Model(st, r.inputs)
	if err != nil {
		return err.Error()
	}
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, len(names))
	for i, name := range names {
		parts[i] = fmt.Sprintf("%s=%#x", name, values[name])
	}
	return strings.Join(parts, " ")
}

func (r *report) render(out io.Writer, res *explore.Result) error {
	if res == nil {
		return fmt.Errorf("no result")
	}

	t := table.NewWriter()
	t.SetTitle("Paths")
	t.Style().Format.Footer = text.FormatDefault
	t.AppendHeader(table.Row{"Path", "Status", "Location", "Steps", "Cycles", "Inputs", "Detail"})

	row := func(st *emu.State, status string) {
		t.AppendRow(table.Row{
			st.ID, status, r.location(st), st.Steps, st.Cycles, r.model(st), st.AbortReason,
		})
	}
	for _, st := range res.Finished {
		row(st, "finished")
	}
	for _, st := range res.Aborted {
		row(st, "aborted")
	}
	for _, st := range res.Exhausted {
		row(st, "exhausted")
	}
	t.AppendFooter(table.Row{"", "", "", res.Steps, "", "", fmt.Sprintf("%d paths", len(res.Paths()))})

	_, err := fmt.Fprintln(out, t.Render())
	return err
}

// query answers ADDR:REG=VALUE against the finished paths.
func (r *report) query(out io.Writer, res *explore.Result, q string) error {
	where, what, ok := strings.Cut(q, ":")
	if !ok {
		return fmt.Errorf("invalid query %q: want ADDR:REG=VALUE", q)
	}
	regName, valueText, ok := strings.Cut(what, "=")
	if !ok {
		return fmt.Errorf("invalid query %q: want ADDR:REG=VALUE", q)
	}

	addr, err := resolve(r.prog, where)
	if err != nil {
		return err
	}
	reg, err := insts.ParseRegister(regName)
	if err != nil {
		return err
	}
	value, err := strconv.ParseUint(valueText, 0, 32)
	if err != nil {
		return fmt.Errorf("invalid query value %q: %w", valueText, err)
	}

	st, err := res.Query(addr, reg, uint32(value))
	if err != nil {
		return err
	}
	if st == nil {
		_, err = fmt.Fprintf(out, "%s: %s cannot be %#x\n", r.prog.Describe(addr), reg, value)
		return err
	}

	target := st.Regs.ReadReg(reg).Eq(smt.BVConst(value, 32))
	values, err := explore.Model(st, r.inputs, target)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "%s: %s can be %#x on path %d with %v\n",
		r.prog.Describe(addr), reg, value, st.ID, values)
	return err
}

// dump prints the final core registers of every path.
func (r *report) dump(out io.Writer, res *explore.Result) {
	cfg := spew.ConfigState{Indent: "  ", SortKeys: true, DisablePointerAddresses: true}
	for _, st := range res.Paths() {
		regs := make(map[string]string, insts.NumRegisters)
		for i := insts.Register(0); i < insts.NumRegisters; i++ {
			regs[i.String()] = st.Regs.ReadReg(i).String()
		}
		fmt.Fprintf(out, "path %d (%s):\n", st.ID, st.Status)
		cfg.Fdump(out, regs)
	}
}
