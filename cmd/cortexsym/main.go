// Package main provides the entry point for cortexsym.
// cortexsym symbolically executes Cortex-M Thumb firmware and reports every
// path it finds.
package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	flags "github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"github.com/tebeka/atexit"

	"github.com/sarchlab/cortexsym/emu"
	"github.com/sarchlab/cortexsym/explore"
	"github.com/sarchlab/cortexsym/insts"
	"github.com/sarchlab/cortexsym/loader"
	"github.com/sarchlab/cortexsym/smt"
	"github.com/sarchlab/cortexsym/timing/cache"
	"github.com/sarchlab/cortexsym/timing/latency"
)

// returnAddress is loaded into LR before the run. A path that returns from
// the entry function finishes there.
const returnAddress = 0xFFFFFFFE

type options struct {
	Entry    string   `short:"e" long:"entry" description:"Entry symbol or address (default: the image entry point)"`
	Stop     []string `short:"s" long:"stop" description:"Symbol or address that finishes a path; repeatable"`
	Symbolic []string `short:"S" long:"symbolic" description:"Register that starts symbolic, e.g. r0; repeatable"`
	Query    string   `short:"q" long:"query" description:"Check whether a register can hold a value at a stop, as ADDR:REG=VALUE"`

	Base string `long:"base" description:"Load the input as a raw binary at this address instead of as an ELF file"`

	Steps    uint64 `long:"steps" default:"10000" description:"Instruction budget per path"`
	MaxPaths int    `long:"max-paths" default:"1000" description:"Maximum live paths (0 for no limit)"`
	MaxForks int    `long:"max-forks" default:"64" description:"Maximum paths one instruction may fork into"`
	Rounds   int    `long:"solver-rounds" default:"64" description:"SAT rounds a query may spend refining float operations"`

	TimingConfig string `long:"timing-config" description:"Path to timing configuration JSON file"`
	FlashCache   bool   `long:"flash-cache" description:"Charge flash wait states through a prefetch cache model"`

	Trace   bool   `long:"trace" description:"Log the operations of every executed instruction"`
	Dump    bool   `long:"dump" description:"Dump the final registers of every path"`
	Verbose []bool `short:"v" long:"verbose" description:"Verbose output; repeat for more"`

	Args struct {
		Program string `positional-arg-name:"program" required:"yes"`
	} `positional-args:"yes"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			atexit.Exit(0)
		}
		atexit.Exit(2)
	}

	logger := newLogger(opts, os.Stderr)
	if err := run(opts, logger, os.Stdout); err != nil {
		logger.Error(err)
		atexit.Exit(1)
	}
	atexit.Exit(0)
}

func newLogger(opts options, out io.Writer) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(out)
	logger.ExitFunc = atexit.Exit

	switch {
	case opts.Trace:
		logger.SetLevel(logrus.TraceLevel)
	case len(opts.Verbose) > 1:
		logger.SetLevel(logrus.DebugLevel)
	case len(opts.Verbose) == 1:
		logger.SetLevel(logrus.InfoLevel)
	default:
		logger.SetLevel(logrus.WarnLevel)
	}
	return logger
}

func run(opts options, logger *logrus.Logger, out io.Writer) error {
	prog, err := loadProgram(opts)
	if err != nil {
		return err
	}

	entry := prog.Entry
	if opts.Entry != "" {
		if entry, err = resolve(prog, opts.Entry); err != nil {
			return err
		}
	}

	stops := []uint32{returnAddress}
	for _, s := range opts.Stop {
		addr, err := resolve(prog, s)
		if err != nil {
			return err
		}
		stops = append(stops, addr)
	}

	cost, err := costModel(opts, prog)
	if err != nil {
		return err
	}

	ex := emu.NewExecutor(insts.NewThumbDecoder(prog),
		emu.WithLogger(logger),
		emu.WithCostModel(cost),
		emu.WithMaxForks(opts.MaxForks),
	)

	st := emu.NewState(prog, entry,
		emu.WithStackPointer(prog.InitialSP),
		emu.WithSolver(smt.NewSolver(smt.WithRefinementBudget(opts.Rounds))),
	)
	st.Regs.WriteReg32(insts.LR, returnAddress|1)

	inputs := make(map[string]*smt.BV)
	for _, name := range opts.Symbolic {
		r, err := insts.ParseRegister(name)
		if err != nil {
			return err
		}
		label := strings.ToLower(r.String())
		inputs[label] = st.MakeSymbolic(r, label)
	}

	logger.WithFields(logrus.Fields{
		"program":  opts.Args.Program,
		"entry":    prog.Describe(entry),
		"sp":       fmt.Sprintf("%#08x", prog.InitialSP),
		"symbolic": len(inputs),
	}).Info("exploring")

	x := explore.New(ex,
		explore.WithStepBudget(opts.Steps),
		explore.WithMaxPaths(opts.MaxPaths),
		explore.WithStopAddresses(stops...),
		explore.WithLogger(logger),
	)
	res, err := x.Run(st)
	if err != nil {
		logger.WithError(err).Warn("exploration stopped early")
	}

	r := &report{prog: prog, inputs: inputs}
	if err := r.render(out, res); err != nil {
		return err
	}

	if opts.Query != "" {
		if err := r.query(out, res, opts.Query); err != nil {
			return err
		}
	}

	if opts.Dump {
		r.dump(out, res)
	}

	return nil
}

func loadProgram(opts options) (*loader.Program, error) {
	if opts.Base == "" {
		return loader.Load(opts.Args.Program)
	}

	base, err := strconv.ParseUint(opts.Base, 0, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid base address %q: %w", opts.Base, err)
	}
	code, err := os.ReadFile(opts.Args.Program)
	if err != nil {
		return nil, fmt.Errorf("failed to read binary: %w", err)
	}
	return loader.FromBytes(uint32(base), code), nil
}

func costModel(opts options, prog *loader.Program) (emu.CostModel, error) {
	config := latency.DefaultTimingConfig()
	if opts.TimingConfig != "" {
		var err error
		config, err = latency.LoadConfig(opts.TimingConfig)
		if err != nil {
			return nil, err
		}
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid timing config: %w", err)
	}

	var cost emu.CostModel = latency.NewTableWithConfig(config)
	if !opts.FlashCache {
		return cost, nil
	}

	cc := cache.DefaultFlashConfig()
	cc.MissLatency = config.FlashWaitStates
	base, size := prog.CodeRange()
	icache := cache.New(cc, cache.NewCodeBacking(prog))
	return cache.NewFetchCost(cost, icache, base, size), nil
}

// resolve parses a symbol name or a numeric address.
func resolve(prog *loader.Program, s string) (uint32, error) {
	if addr, ok := prog.Symbol(s); ok {
		return addr, nil
	}
	v, err := strconv.ParseUint(s, 0, 32)
	if err != nil {
		return 0, fmt.Errorf("unknown symbol or address %q", s)
	}
	return uint32(v) &^ 1, nil
}
