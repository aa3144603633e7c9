// Package debugger is a command interface for the rv32sim core: it
// implements the show_*/set_*/execute/set_breakpoint operations as a
// line-oriented command dispatcher (Debugger) and a terminal front end
// built on it (TUI).
package debugger

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lookbusy1344/rv32sim/loader"
	"github.com/lookbusy1344/rv32sim/vm"
)

// Debugger drives a *vm.Processor through line-oriented commands, printing
// results to an injected io.Writer so it can be driven without a terminal
// (by the TUI, by tests, or by a scripted batch run).
type Debugger struct {
	Proc    *vm.Processor
	Out     io.Writer
	History *History

	lastCommand string
}

// NewDebugger returns a Debugger driving proc, with output sent to out and
// command history bounded to historySize entries.
func NewDebugger(proc *vm.Processor, out io.Writer, historySize int) *Debugger {
	d := &Debugger{
		Proc:    proc,
		Out:     out,
		History: NewHistory(historySize),
	}
	proc.SetOutput(func(s string) { d.Println(s) })
	return d
}

// Println writes s followed by a newline to Out.
func (d *Debugger) Println(s string) {
	fmt.Fprintln(d.Out, s)
}

// Printf writes a formatted line to Out.
func (d *Debugger) Printf(format string, args ...any) {
	fmt.Fprintf(d.Out, format, args...)
}

// Execute parses and runs one command line. An empty line repeats the last
// non-empty command, matching the source simulator's REPL convention.
func (d *Debugger) Execute(line string) error {
	line = strings.TrimSpace(line)
	if line == "" {
		line = d.lastCommand
	}
	if line == "" {
		return nil
	}

	d.History.Add(line)
	d.lastCommand = line

	fields := strings.Fields(line)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]

	switch cmd {
	case "pc":
		return d.cmdShowPC(args)
	case "setpc":
		return d.cmdSetPC(args)
	case "reg", "r":
		return d.cmdShowReg(args)
	case "setreg":
		return d.cmdSetReg(args)
	case "csr":
		return d.cmdShowCSR(args)
	case "setcsr":
		return d.cmdSetCSR(args)
	case "prv":
		return d.cmdShowPrv(args)
	case "setprv":
		return d.cmdSetPrv(args)
	case "break", "b":
		return d.cmdBreak(args)
	case "clear":
		return d.cmdClearBreak(args)
	case "step", "s", "execute":
		return d.cmdStep(args)
	case "count":
		return d.cmdCount(args)
	case "load":
		return d.cmdLoad(args)
	case "help", "?":
		return d.cmdHelp(args)
	default:
		return fmt.Errorf("unknown command: %s", cmd)
	}
}

func (d *Debugger) cmdShowPC(_ []string) error {
	d.Println(d.Proc.ShowPC())
	return nil
}

func (d *Debugger) cmdSetPC(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: setpc <hex>")
	}
	v, err := parseHex32(args[0])
	if err != nil {
		return err
	}
	d.Proc.SetPC(v)
	return nil
}

func (d *Debugger) cmdShowReg(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: reg <0-31>")
	}
	i, err := parseRegIndex(args[0])
	if err != nil {
		return err
	}
	d.Printf("x%d = %08X\n", i, d.Proc.ShowReg(i))
	return nil
}

func (d *Debugger) cmdSetReg(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: setreg <0-31> <hex>")
	}
	i, err := parseRegIndex(args[0])
	if err != nil {
		return err
	}
	v, err := parseHex32(args[1])
	if err != nil {
		return err
	}
	d.Proc.SetReg(i, v)
	return nil
}

func (d *Debugger) cmdShowCSR(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: csr <name|hex>")
	}
	code, err := parseCSRArg(args[0])
	if err != nil {
		return err
	}
	s, ok := d.Proc.ShowCSR(code)
	d.Println(s)
	if !ok {
		return nil // "Illegal CSR number" is the diagnostic, not a Go error
	}
	return nil
}

func (d *Debugger) cmdSetCSR(args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: setcsr <name|hex> <hex>")
	}
	code, err := parseCSRArg(args[0])
	if err != nil {
		return err
	}
	v, err := parseHex32(args[1])
	if err != nil {
		return err
	}
	d.Proc.SetCSR(code, v, false)
	return nil
}

func (d *Debugger) cmdShowPrv(_ []string) error {
	d.Println(d.Proc.ShowPrv().String())
	return nil
}

func (d *Debugger) cmdSetPrv(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: setprv <0|3>")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid privilege level: %s", args[0])
	}
	level := vm.Privilege(n)
	if level != vm.User && level != vm.Machine {
		return fmt.Errorf("privilege level must be 0 (user) or 3 (machine)")
	}
	d.Proc.SetPrv(level)
	return nil
}

func (d *Debugger) cmdBreak(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: break <hex>")
	}
	addr, err := parseHex32(args[0])
	if err != nil {
		return err
	}
	d.Proc.SetBreakpoint(addr)
	d.Printf("Breakpoint set at %08X\n", addr)
	return nil
}

func (d *Debugger) cmdClearBreak(_ []string) error {
	d.Proc.ClearBreakpoint()
	return nil
}

func (d *Debugger) cmdStep(args []string) error {
	n := 1
	if len(args) == 1 {
		var err error
		n, err = strconv.Atoi(args[0])
		if err != nil || n <= 0 {
			return fmt.Errorf("invalid step count: %s", args[0])
		}
	} else if len(args) > 1 {
		return fmt.Errorf("usage: step [n]")
	}
	d.Proc.Execute(n, true)
	return nil
}

func (d *Debugger) cmdCount(_ []string) error {
	d.Printf("%d\n", d.Proc.GetInstructionCount())
	return nil
}

func (d *Debugger) cmdLoad(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: load <hexfile>")
	}
	start, err := loader.LoadHexFile(args[0], d.Proc.Memory)
	if err != nil {
		return err
	}
	d.Proc.SetPC(start)
	d.Printf("loaded %s, start address %08X\n", args[0], start)
	return nil
}

func (d *Debugger) cmdHelp(_ []string) error {
	d.Println("commands: pc setpc reg setreg csr setcsr prv setprv break clear step count load")
	return nil
}

func parseHex32(s string) (uint32, error) {
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid hex value: %s", s)
	}
	return uint32(v), nil
}

func parseRegIndex(s string) (int, error) {
	i, err := strconv.Atoi(s)
	if err != nil || i < 0 || i > 31 {
		return 0, fmt.Errorf("register index must be 0-31, got %s", s)
	}
	return i, nil
}

func parseCSRArg(s string) (uint16, error) {
	if c, ok := vm.ParseCSRName(strings.ToLower(s)); ok {
		return uint16(c), nil
	}
	v, err := parseHex32(s)
	if err != nil {
		return 0, fmt.Errorf("invalid CSR: %s", s)
	}
	return uint16(v), nil
}
