package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"

	"github.com/lookbusy1344/rv32sim/config"
	"github.com/lookbusy1344/rv32sim/debugger"
	"github.com/lookbusy1344/rv32sim/loader"
	"github.com/lookbusy1344/rv32sim/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	var (
		showVersion = flag.Bool("version", false, "Show version information")
		showHelp    = flag.Bool("help", false, "Show help information")
		tuiMode     = flag.Bool("tui", false, "Use TUI (Text User Interface) debugger")
		configPath  = flag.String("config", "rv32sim.toml", "Path to TOML configuration file")
		twoStage    = flag.Bool("two-stage", false, "ECALL/EBREAK/CSR/illegal instructions raise architectural traps instead of printing a diagnostic")
	)

	flag.Parse()

	if *showVersion {
		fmt.Printf("rv32sim %s (%s)\n", Version, Commit)
		os.Exit(0)
	}

	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}

	proc := vm.NewProcessor()
	proc.TwoStage = *twoStage

	resetPC, err := config.ParseHexUint32(cfg.Execution.ResetPC)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}
	proc.SetPC(resetPC)

	mtvec, err := config.ParseHexUint32(cfg.Trap.DefaultMTVEC)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
		os.Exit(1)
	}
	proc.SetCSR(uint16(vm.MTVEC), mtvec, false)

	if hexFile := flag.Arg(0); hexFile != "" {
		start, err := loader.LoadHexFile(hexFile, proc.Memory)
		if err != nil {
			fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
			os.Exit(1)
		}
		proc.SetPC(start)
	}

	dbg := debugger.NewDebugger(proc, os.Stdout, cfg.Debugger.HistorySize)

	if *tuiMode {
		tui := debugger.NewTUI(dbg)
		if err := tui.Run(); err != nil {
			fmt.Fprintf(os.Stderr, "rv32sim: %v\n", err)
			os.Exit(1)
		}
		return
	}

	runREPL(dbg)
}

func runREPL(dbg *debugger.Debugger) {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(dbg.Out, "> ")
	for scanner.Scan() {
		line := scanner.Text()
		if line == "quit" || line == "exit" {
			return
		}
		if err := dbg.Execute(line); err != nil {
			fmt.Fprintf(dbg.Out, "error: %v\n", err)
		}
		fmt.Fprint(dbg.Out, "> ")
	}
}

func printHelp() {
	fmt.Printf(`rv32sim %s

Usage: rv32sim [options] [hexfile]

Options:
  -help              Show this help message
  -version           Show version information
  -tui               Start in TUI debugger mode
  -config PATH       Path to TOML configuration file (default: rv32sim.toml)
  -two-stage         Route ECALL/EBREAK/CSR/illegal instructions through the trap vector

If hexfile is given, it is loaded at startup and PC is set to its declared
start address.

Debugger commands: pc setpc reg setreg csr setcsr prv setprv break clear
step count load quit
`, Version)
}
