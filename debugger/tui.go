package debugger

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/lookbusy1344/rv32sim/vm"
)

// TUI is a terminal front end over a Debugger: register/CSR panels refresh
// after every command, and an output log and command input occupy the
// bottom of the screen.
type TUI struct {
	dbg *Debugger

	app       *tview.Application
	regsView  *tview.TextView
	csrView   *tview.TextView
	statView  *tview.TextView
	outputLog *tview.TextView
	input     *tview.InputField
}

// NewTUI builds a TUI over dbg. Output the Debugger prints (including
// instructions' single-stage diagnostics) is routed into the on-screen log
// instead of dbg.Out; call Run to take over the terminal.
func NewTUI(dbg *Debugger) *TUI {
	t := &TUI{dbg: dbg}

	t.regsView = tview.NewTextView().SetDynamicColors(true)
	t.regsView.SetBorder(true).SetTitle(" registers ")

	t.csrView = tview.NewTextView().SetDynamicColors(true)
	t.csrView.SetBorder(true).SetTitle(" csrs ")

	t.statView = tview.NewTextView().SetDynamicColors(true)
	t.statView.SetBorder(true).SetTitle(" status ")

	t.outputLog = tview.NewTextView().SetDynamicColors(true).SetMaxLines(2000)
	t.outputLog.SetBorder(true).SetTitle(" output ")
	t.outputLog.SetChangedFunc(func() { t.app.Draw() })

	t.input = tview.NewInputField().SetLabel("> ")
	t.input.SetBorder(true)
	t.input.SetDoneFunc(t.onInputDone)
	t.input.SetInputCapture(t.onInputKey)

	dbg.Out = t.outputLog

	top := tview.NewFlex().
		AddItem(t.regsView, 0, 2, false).
		AddItem(t.csrView, 0, 2, false).
		AddItem(t.statView, 0, 1, false)

	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(top, 0, 3, false).
		AddItem(t.outputLog, 0, 4, false).
		AddItem(t.input, 3, 0, true)

	t.app = tview.NewApplication().SetRoot(root, true).SetFocus(t.input)

	return t
}

// Run starts the event loop; it returns when the user issues "quit" or
// presses Ctrl-C.
func (t *TUI) Run() error {
	t.refresh()
	return t.app.Run()
}

func (t *TUI) onInputDone(key tcell.Key) {
	if key != tcell.KeyEnter {
		return
	}
	line := strings.TrimSpace(t.input.GetText())
	t.input.SetText("")

	if strings.EqualFold(line, "quit") || strings.EqualFold(line, "exit") {
		t.app.Stop()
		return
	}

	if err := t.dbg.Execute(line); err != nil {
		fmt.Fprintf(t.outputLog, "[red]error:[-] %v\n", err)
	}
	t.refresh()
}

func (t *TUI) onInputKey(event *tcell.EventKey) *tcell.EventKey {
	switch event.Key() {
	case tcell.KeyUp:
		if cmd := t.dbg.History.Previous(); cmd != "" {
			t.input.SetText(cmd)
		}
		return nil
	case tcell.KeyDown:
		t.input.SetText(t.dbg.History.Next())
		return nil
	case tcell.KeyCtrlC:
		t.app.Stop()
		return nil
	}
	return event
}

func (t *TUI) refresh() {
	p := t.dbg.Proc

	var regs strings.Builder
	for i := 0; i < 32; i += 2 {
		fmt.Fprintf(&regs, "x%-2d %08X   x%-2d %08X\n", i, p.ShowReg(i), i+1, p.ShowReg(i+1))
	}
	t.regsView.SetText(regs.String())

	csrs := []vm.CSR{
		vm.MSTATUS, vm.MISA, vm.MIE, vm.MTVEC, vm.MSCRATCH,
		vm.MEPC, vm.MCAUSE, vm.MTVAL, vm.MIP,
	}
	var csrText strings.Builder
	for _, c := range csrs {
		s, _ := p.ShowCSR(uint16(c))
		fmt.Fprintf(&csrText, "%-9s %s\n", c.String(), s)
	}
	t.csrView.SetText(csrText.String())

	t.statView.SetText(fmt.Sprintf(
		"pc       %s\nprivilege %s\ninstrs   %d\nbreak    %08X (%v)\n",
		p.ShowPC(), p.ShowPrv(), p.GetInstructionCount(),
		p.Breakpt.Address, p.Breakpt.Active,
	))
}
