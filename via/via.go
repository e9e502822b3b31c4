// Package via implements a MOS 6522 Versatile Interface Adapter: two
// 8-bit bidirectional ports, two timers with latches, a shift register,
// and the interrupt flag/enable register pair, bit-accurate against the
// 6522 datasheet. It follows the shadow-register discipline the teacher
// uses for its 6532 PIA (pia6532.go): register reads/writes apply
// side effects (IFR clears, timer reloads) directly rather than
// deferring them, since the VIA's side effects are themselves the
// documented behavior and there's no separate latch-commit phase to
// model here.
package via

import (
	"fmt"

	"github.com/jmchacon/vic20/io"
)

// Register indices, per the 6522 datasheet RS0-RS3 lines.
const (
	RegORB = uint16(0x0)
	RegORA = uint16(0x1)
	RegDDRB = uint16(0x2)
	RegDDRA = uint16(0x3)
	RegT1CL = uint16(0x4)
	RegT1CH = uint16(0x5)
	RegT1LL = uint16(0x6)
	RegT1LH = uint16(0x7)
	RegT2CL = uint16(0x8)
	RegT2CH = uint16(0x9)
	RegSR   = uint16(0xA)
	RegACR  = uint16(0xB)
	RegPCR  = uint16(0xC)
	RegIFR  = uint16(0xD)
	RegIER  = uint16(0xE)
	RegORANoHandshake = uint16(0xF)
)

// IFR/IER bit assignments.
const (
	ifCA2 = uint8(0x01)
	ifCA1 = uint8(0x02)
	ifSR  = uint8(0x04)
	ifCB2 = uint8(0x08)
	ifCB1 = uint8(0x10)
	ifT2  = uint8(0x20)
	ifT1  = uint8(0x40)
	ifAny = uint8(0x80)

	maskCA = ifCA1 | ifCA2
	maskCB = ifCB1 | ifCB2
)

const acrT1Continuous = uint8(0x40)
const acrPB7Enable = uint8(0x80)

// Chip is one VIA 6522 instance.
type Chip struct {
	name string

	ora, orb   uint8
	ddra, ddrb uint8

	t1c, t1l uint16
	t2c      uint16
	t2ll     uint8

	sr, acr, pcr uint8
	ifr, ier     uint8

	inhibitT1, inhibitT2 bool
	pb7                  bool

	inA, inB io.PortIn8
}

// Def supplies construction-time wiring. InPortA/InPortB are optional;
// a nil port reads back as all-ones (open bus/pulled-up input).
type Def struct {
	Name    string
	InPortA io.PortIn8
	InPortB io.PortIn8
}

// New returns a VIA with Reset already applied.
func New(d *Def) *Chip {
	c := &Chip{name: d.Name, inA: d.InPortA, inB: d.InPortB}
	c.Reset()
	return c
}

// Reset clears R0-R3 and RB-RF to zero, sets R4-RA to 0xFF, and inhibits
// both timers, per the datasheet's documented power-on/reset state.
func (c *Chip) Reset() {
	c.ora, c.orb = 0, 0
	c.ddra, c.ddrb = 0, 0
	c.t1c, c.t1l = 0xFFFF, 0xFFFF
	c.t2c = 0xFFFF
	c.t2ll = 0xFF
	c.sr = 0xFF
	c.acr, c.pcr = 0, 0
	c.ifr, c.ier = 0, 0
	c.inhibitT1, c.inhibitT2 = true, true
	c.pb7 = false
}

func (c *Chip) portAInput() uint8 {
	if c.inA != nil {
		return c.inA.Input()
	}
	return 0xFF
}

func (c *Chip) portBInput() uint8 {
	if c.inB != nil {
		return c.inB.Input()
	}
	return 0xFF
}

// PortA returns the pin state of port A: input pins (DDRA bit 0) from
// the input port, output pins (DDRA bit 1) from the ORA latch.
func (c *Chip) PortA() uint8 { return (c.portAInput() &^ c.ddra) | (c.ora & c.ddra) }

// PortB returns the pin state of port B the same way. When ACR bit 7
// (acrPB7Enable) is set, T1's pb7 latch drives bit 7 directly,
// overriding whatever DDRB/ORB would otherwise present there, matching
// the 6522's documented timed-output pin.
func (c *Chip) PortB() uint8 {
	v := (c.portBInput() &^ c.ddrb) | (c.orb & c.ddrb)
	if c.acr&acrPB7Enable != 0 {
		v &^= 0x80
		if c.pb7 {
			v |= 0x80
		}
	}
	return v
}

func (c *Chip) clearIFR(bits uint8) { c.ifr &^= bits }
func (c *Chip) setIFR(bits uint8)   { c.ifr |= bits }

// Read dispatches a CPU read of register reg (0x0-0xF).
func (c *Chip) Read(reg uint16) uint8 {
	switch reg {
	case RegORB:
		v := c.PortB()
		c.clearIFR(maskCB)
		return v
	case RegORA:
		v := c.PortA()
		c.clearIFR(maskCA)
		return v
	case RegDDRB:
		return c.ddrb
	case RegDDRA:
		return c.ddra
	case RegT1CL:
		c.clearIFR(ifT1)
		return uint8(c.t1c & 0xFF)
	case RegT1CH:
		return uint8(c.t1c >> 8)
	case RegT1LL:
		return uint8(c.t1l & 0xFF)
	case RegT1LH:
		return uint8(c.t1l >> 8)
	case RegT2CL:
		c.clearIFR(ifT2)
		c.inhibitT2 = false
		return uint8(c.t2c & 0xFF)
	case RegT2CH:
		return uint8(c.t2c >> 8)
	case RegSR:
		return c.sr
	case RegACR:
		return c.acr
	case RegPCR:
		return c.pcr
	case RegIFR:
		return c.effectiveIFR()
	case RegIER:
		return c.ier | ifAny
	case RegORANoHandshake:
		return c.PortA()
	default:
		panic(fmt.Sprintf("via: invalid register read 0x%X", reg))
	}
}

// effectiveIFR computes the reader-visible IFR byte: the stored bits
// 0-6 plus the derived "any enabled interrupt pending" bit 7.
func (c *Chip) effectiveIFR() uint8 {
	v := c.ifr & 0x7F
	if v&c.ier&0x7F != 0 {
		v |= ifAny
	}
	return v
}

// Write dispatches a CPU write of val to register reg.
func (c *Chip) Write(reg uint16, val uint8) {
	switch reg {
	case RegORB:
		c.orb = val
		c.clearIFR(maskCB)
	case RegORA, RegORANoHandshake:
		c.ora = val
		c.clearIFR(maskCA)
	case RegDDRB:
		c.ddrb = val
	case RegDDRA:
		c.ddra = val
	case RegT1CL:
		c.t1l = (c.t1l & 0xFF00) | uint16(val)
	case RegT1CH:
		c.t1l = (uint16(val) << 8) | (c.t1l & 0xFF)
		c.t1c = c.t1l
		c.clearIFR(ifT1)
		c.inhibitT1 = false
		c.pb7 = false
	case RegT1LL:
		c.t1l = (c.t1l & 0xFF00) | uint16(val)
	case RegT1LH:
		c.t1l = (uint16(val) << 8) | (c.t1l & 0xFF)
		c.clearIFR(ifT1)
	case RegT2CL:
		c.t2ll = val
	case RegT2CH:
		c.t2c = (uint16(val) << 8) | uint16(c.t2ll)
		c.clearIFR(ifT2)
		c.inhibitT2 = false
	case RegSR:
		c.sr = val
	case RegACR:
		c.acr = val
	case RegPCR:
		c.pcr = val
	case RegIFR:
		// Each bit set in val clears the corresponding IFR bit ("write 1
		// to clear").
		c.ifr &^= val & 0x7F
	case RegIER:
		if val&ifAny != 0 {
			c.ier |= val & 0x7F
		} else {
			c.ier &^= val & 0x7F
		}
	default:
		panic(fmt.Sprintf("via: invalid register write 0x%X", reg))
	}
}

// CycleUp advances both timers by one phi2 tick (the only supported
// combined-step mode; cycle_up and cycle_down are kept as separate
// calls only to match the Machine's fixed per-tick wiring order).
func (c *Chip) CycleUp() {
	c.tickT1()
	c.tickT2()
}

// CycleDown is a no-op in the combined-step model; kept for symmetry
// with the Machine's documented per-tick call sequence.
func (c *Chip) CycleDown() {}

func (c *Chip) tickT1() {
	if c.t1c == 0 {
		if !c.inhibitT1 {
			c.setIFR(ifT1)
			if c.acr&acrT1Continuous != 0 {
				c.pb7 = !c.pb7 // free-running mode toggles PB7 into a square wave
			} else {
				c.pb7 = true // one-shot mode pulses PB7 high until R5 rearms it
			}
		}
		if c.acr&acrT1Continuous != 0 {
			c.t1c = c.t1l
		} else {
			c.t1c = 0xFFFF
			c.inhibitT1 = true
		}
		return
	}
	c.t1c--
}

func (c *Chip) tickT2() {
	if c.t2c == 0 {
		if !c.inhibitT2 {
			c.setIFR(ifT2)
			c.t2c = 0xFFFF
			c.inhibitT2 = true
			return
		}
		c.t2c = 0xFFFF
		return
	}
	c.t2c--
}

// Raised implements irq.Sender: the VIA's IRQ/NMI line is asserted
// whenever an enabled, unmasked interrupt source is pending.
func (c *Chip) Raised() bool {
	return c.ifr&c.ier&0x7F != 0
}

// Name reports the label this chip was constructed with (e.g. "VIA1"),
// useful for debug output.
func (c *Chip) Name() string { return c.name }
