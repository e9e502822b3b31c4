// Package cpu implements a MOS 6502 interpreter sized for the VIC-20:
// registers, the documented opcode table plus JAM/illegal-NOP stubs,
// cycle accounting, and IRQ/NMI/BRK servicing. Unlike a cycle-exact
// bus-stepped core, an instruction fully executes the moment its first
// cycle is taken; cyclesRemaining is then just spent so the rest of the
// system (VIA timers, the VIC raster) stays in lock-step with the 6502's
// documented cycle counts.
package cpu

import (
	"fmt"

	"github.com/jmchacon/vic20/irq"
)

// Bus is the minimal interface the CPU needs from its memory map.
type Bus interface {
	Read(addr uint16) uint8
	Write(addr uint16, val uint8)
}

// Type distinguishes the handful of 6502 family variants relevant to a
// VIC-20 style machine.
type Type int

const (
	NMOS      Type = iota // Base NMOS 6502 including the illegal NOP/JAM stubs.
	NMOSRicoh             // Ricoh-style variant with BCD mode disabled.
)

// Vectors and status flag masks, per the 6502 datasheet.
const (
	NMIVector   = uint16(0xFFFA)
	ResetVector = uint16(0xFFFC)
	IRQVector   = uint16(0xFFFE)

	PNegative  = uint8(0x80)
	POverflow  = uint8(0x40)
	PAlwaysOne = uint8(0x20)
	PBreak     = uint8(0x10)
	PDecimal   = uint8(0x08)
	PInterrupt = uint8(0x04)
	PZero      = uint8(0x02)
	PCarry     = uint8(0x01)
)

// InvalidOpcode is returned when the CPU fetches a byte that has no
// entry in the opcode table (i.e. not one of the 151 documented
// instructions or the handful of illegal NOP/JAM stubs it also honors).
type InvalidOpcode struct {
	PC     uint16
	Opcode uint8
}

func (e InvalidOpcode) Error() string {
	return fmt.Sprintf("invalid opcode 0x%02X at PC 0x%04X", e.Opcode, e.PC)
}

// Halted is returned once a JAM opcode has stopped the processor; it
// keeps being returned on every subsequent Cycle call since the real
// hardware requires a reset to recover.
type Halted struct {
	PC     uint16
	Opcode uint8
}

func (e Halted) Error() string {
	return fmt.Sprintf("CPU halted by opcode 0x%02X at PC 0x%04X", e.Opcode, e.PC)
}

// TrapLoop is returned when a trap PC was armed and the CPU parked in a
// tight self-loop somewhere other than the expected address.
type TrapLoop struct {
	Actual   uint16
	Expected uint16
}

func (e TrapLoop) Error() string {
	return fmt.Sprintf("trapped in self-loop at PC 0x%04X, expected success at 0x%04X", e.Actual, e.Expected)
}

// HistoryEntry records one retired instruction for the debug ring buffer.
type HistoryEntry struct {
	PC       uint16
	Raw      []uint8
	Mnemonic string
	Operand  string
	A, X, Y  uint8
	S, P     uint8
	MemAddr  uint16
	MemValid bool
}

// Chip holds the full architectural and cycle-accounting state of one
// 6502 instance.
type Chip struct {
	A, X, Y, S, P uint8
	PC            uint16

	bus Bus
	typ Type
	irq irq.Sender
	nmi irq.Sender

	cyclesRemaining int
	branchExtra     int
	pendingIRQ      bool
	pendingNMI      bool

	trapPC  *uint16
	trapped bool

	halted  bool
	haltErr error

	history     []HistoryEntry
	historyCap  int
	historyNext int
}

// Def supplies the construction-time wiring for a Chip.
type Def struct {
	Type        Type
	Bus         Bus
	IRQ         irq.Sender
	NMI         irq.Sender
	HistorySize int // Defaults to 1000 if zero.
}

// New returns a powered-on Chip that has already been Reset with no
// overrides, so PC holds the reset vector read from d.Bus. Call Reset
// again to start from an explicit PC or to arm a trap PC.
func New(d *Def) *Chip {
	cap := d.HistorySize
	if cap <= 0 {
		cap = 1000
	}
	c := &Chip{
		bus:        d.Bus,
		typ:        d.Type,
		irq:        d.IRQ,
		nmi:        d.NMI,
		historyCap: cap,
	}
	c.Reset(nil, nil)
	return c
}

// Reset zeros A/X/Y, sets S/P to their documented post-reset values, and
// loads PC either from pc (if non-nil) or from the reset vector. trapPC,
// if non-nil, arms tight self-loop detection at that address (see
// TrapLoop).
func (c *Chip) Reset(pc *uint16, trapPC *uint16) {
	c.A, c.X, c.Y = 0, 0, 0
	c.S = 0xFF
	c.P = PAlwaysOne | PInterrupt
	c.cyclesRemaining = 0
	c.branchExtra = 0
	c.pendingIRQ = false
	c.pendingNMI = false
	c.halted = false
	c.haltErr = nil
	c.trapped = false
	c.trapPC = trapPC
	c.history = nil
	c.historyNext = 0

	if pc != nil {
		c.PC = *pc
		return
	}
	c.PC = uint16(c.bus.Read(ResetVector)) | (uint16(c.bus.Read(ResetVector+1)) << 8)
}

// RequestIRQ latches a pending IRQ. It is serviced the next time Cycle
// starts a fresh instruction, provided the I flag is clear.
func (c *Chip) RequestIRQ() { c.pendingIRQ = true }

// RequestNMI latches a pending NMI. NMI is serviced unconditionally
// (the I flag does not mask it) the next time Cycle starts a fresh
// instruction.
func (c *Chip) RequestNMI() { c.pendingNMI = true }

// InstructionComplete reports whether the instruction started by the
// last fresh Cycle call has finished consuming its cycles.
func (c *Chip) InstructionComplete() bool {
	return c.cyclesRemaining == 0
}

// Trapped reports whether the CPU reached the armed trap PC as a clean
// self-loop (the test-harness "success" signal).
func (c *Chip) Trapped() bool { return c.trapped }

// Halted reports whether a JAM opcode or decode error has stopped the
// processor, and the error that caused it.
func (c *Chip) Halted() (bool, error) { return c.halted, c.haltErr }

// Cycle advances the CPU by exactly one bus cycle. When cyclesRemaining
// reaches zero it either services a latched interrupt or fetches,
// decodes, and fully executes the next instruction, charging its base
// (plus any page-cross/branch) cycle count; otherwise it just spends
// one of the cycles already charged.
func (c *Chip) Cycle() error {
	if c.halted {
		return c.haltErr
	}
	if c.cyclesRemaining > 0 {
		c.cyclesRemaining--
		return nil
	}

	if c.pendingNMI {
		c.pendingNMI = false
		c.serviceInterrupt(NMIVector, false)
		return nil
	}
	if c.pendingIRQ && c.P&PInterrupt == 0 {
		c.pendingIRQ = false
		c.serviceInterrupt(IRQVector, false)
		return nil
	}

	return c.step()
}

// step fetches and fully executes one instruction, recording cycle
// count, history, and trap-loop detection.
func (c *Chip) step() error {
	startPC := c.PC
	op := c.bus.Read(c.PC)
	c.PC++

	entry := opcodeTable[op]
	if !entry.valid {
		return c.halt(InvalidOpcode{PC: startPC, Opcode: op})
	}
	if entry.mnemonic == "JAM" {
		return c.halt(Halted{PC: startPC, Opcode: op})
	}

	opnd := c.computeOperand(entry.mode)

	raw := make([]uint8, entry.mode.length())
	raw[0] = op
	for i := uint16(1); i < entry.mode.length(); i++ {
		raw[i] = c.bus.Read(startPC + i)
	}

	cycles := entry.cycles
	if entry.pageCycle && opnd.pageCrossed {
		cycles++
	}

	entry.fn(c, opnd)
	if c.branchExtra != 0 {
		cycles += c.branchExtra
		c.branchExtra = 0
	}

	c.cyclesRemaining = cycles - 1 // This cycle already consumed one.
	c.recordHistory(startPC, raw, entry, opnd)
	c.checkTrap(startPC)
	return nil
}

func (c *Chip) halt(err error) error {
	c.halted = true
	c.haltErr = err
	c.cyclesRemaining = 0
	return err
}

// checkTrap implements self-loop detection for trapPC: an instruction
// that leaves PC unchanged from where it started is a self-loop. If
// that happens at the armed trap address it's a success; anywhere else
// it's reported as a failed trap since the harness expected convergence
// at trapPC specifically.
func (c *Chip) checkTrap(startPC uint16) {
	if c.trapPC == nil || c.halted {
		return
	}
	if c.PC != startPC {
		return
	}
	if startPC == *c.trapPC {
		c.trapped = true
		return
	}
	c.halt(TrapLoop{Actual: startPC, Expected: *c.trapPC})
}

// serviceInterrupt pushes PC/P and loads PC from the given vector. brk
// is true only when called from the BRK instruction itself (sets the B
// flag in the pushed copy of P).
func (c *Chip) serviceInterrupt(vector uint16, brk bool) {
	c.push16(c.PC)
	p := c.P | PAlwaysOne
	if brk {
		p |= PBreak
	} else {
		p &^= PBreak
	}
	c.push8(p)
	c.P |= PInterrupt
	c.PC = uint16(c.bus.Read(vector)) | (uint16(c.bus.Read(vector+1)) << 8)
	c.cyclesRemaining = 6
}

func (c *Chip) push8(v uint8) {
	c.bus.Write(0x0100+uint16(c.S), v)
	c.S--
}

func (c *Chip) pop8() uint8 {
	c.S++
	return c.bus.Read(0x0100 + uint16(c.S))
}

func (c *Chip) push16(v uint16) {
	c.push8(uint8(v >> 8))
	c.push8(uint8(v & 0xFF))
}

func (c *Chip) pop16() uint16 {
	lo := c.pop8()
	hi := c.pop8()
	return uint16(lo) | uint16(hi)<<8
}

// recordHistory appends to the bounded ring buffer, overwriting the
// oldest entry once historyCap is reached.
func (c *Chip) recordHistory(pc uint16, raw []uint8, entry opEntry, opnd operand) {
	h := HistoryEntry{
		PC:       pc,
		Raw:      raw,
		Mnemonic: entry.mnemonic,
		Operand:  formatOperand(entry.mode, opnd),
		A:        c.A,
		X:        c.X,
		Y:        c.Y,
		S:        c.S,
		P:        c.P,
	}
	if entry.mode.hasMemAddr() {
		h.MemAddr = opnd.addr
		h.MemValid = true
	}
	if len(c.history) < c.historyCap {
		c.history = append(c.history, h)
		return
	}
	c.history[c.historyNext] = h
	c.historyNext = (c.historyNext + 1) % c.historyCap
}

// History returns a copy of the retained instruction trace, oldest
// first.
func (c *Chip) History() []HistoryEntry {
	if len(c.history) < c.historyCap {
		out := make([]HistoryEntry, len(c.history))
		copy(out, c.history)
		return out
	}
	out := make([]HistoryEntry, c.historyCap)
	copy(out, c.history[c.historyNext:])
	copy(out[c.historyCap-c.historyNext:], c.history[:c.historyNext])
	return out
}
