package cpu

import "fmt"

// Mode identifies one of the 6502's addressing modes.
type Mode int

const (
	ModeImpl Mode = iota
	ModeAcc
	ModeImm
	ModeZP
	ModeZPX
	ModeZPY
	ModeIndirectX
	ModeIndirectY
	ModeAbsolute
	ModeAbsoluteX
	ModeAbsoluteY
	ModeIndirect
	ModeRel
)

// length returns the total instruction length in bytes (opcode plus
// operand bytes), used for history raw-byte capture and debug printing.
func (m Mode) length() uint16 {
	switch m {
	case ModeImpl, ModeAcc:
		return 1
	case ModeImm, ModeZP, ModeZPX, ModeZPY, ModeIndirectX, ModeIndirectY, ModeRel:
		return 2
	default:
		return 3
	}
}

// hasMemAddr reports whether this mode resolves to a memory address
// worth recording in the debug history (as opposed to immediate,
// accumulator, implied, or relative branch operands).
func (m Mode) hasMemAddr() bool {
	switch m {
	case ModeZP, ModeZPX, ModeZPY, ModeIndirectX, ModeIndirectY, ModeAbsolute, ModeAbsoluteX, ModeAbsoluteY, ModeIndirect:
		return true
	default:
		return false
	}
}

// operand is the resolved source/destination for one instruction. Most
// opcodes only need val (the already-fetched byte); store-class and
// read-modify-write opcodes use addr to write the result back.
type operand struct {
	addr        uint16
	val         uint8
	pageCrossed bool
	isAcc       bool
}

// store writes result back to wherever the operand came from: the
// accumulator for ModeAcc, or the resolved memory address otherwise.
// Implied/immediate-mode instructions never call store.
func (o operand) store(c *Chip, result uint8) {
	if o.isAcc {
		c.A = result
		return
	}
	c.bus.Write(o.addr, result)
}

// computeOperand resolves the effective address (and, for read modes,
// the value at that address) for the instruction about to execute. PC
// has already been advanced past the opcode byte; this consumes
// whatever operand bytes the mode requires.
func (c *Chip) computeOperand(m Mode) operand {
	switch m {
	case ModeImpl:
		return operand{}

	case ModeAcc:
		return operand{val: c.A, isAcc: true}

	case ModeImm:
		v := c.bus.Read(c.PC)
		c.PC++
		return operand{val: v}

	case ModeZP:
		addr := uint16(c.bus.Read(c.PC))
		c.PC++
		return operand{addr: addr, val: c.bus.Read(addr)}

	case ModeZPX:
		addr := uint16(c.bus.Read(c.PC) + c.X)
		c.PC++
		return operand{addr: addr, val: c.bus.Read(addr)}

	case ModeZPY:
		addr := uint16(c.bus.Read(c.PC) + c.Y)
		c.PC++
		return operand{addr: addr, val: c.bus.Read(addr)}

	case ModeIndirectX:
		zp := c.bus.Read(c.PC) + c.X
		c.PC++
		lo := c.bus.Read(uint16(zp))
		hi := c.bus.Read(uint16(zp + 1))
		addr := uint16(lo) | uint16(hi)<<8
		return operand{addr: addr, val: c.bus.Read(addr)}

	case ModeIndirectY:
		zp := c.bus.Read(c.PC)
		c.PC++
		lo := c.bus.Read(uint16(zp))
		hi := c.bus.Read(uint16(zp + 1))
		base := uint16(lo) | uint16(hi)<<8
		addr := base + uint16(c.Y)
		return operand{addr: addr, val: c.bus.Read(addr), pageCrossed: (base & 0xFF00) != (addr & 0xFF00)}

	case ModeAbsolute:
		addr := c.readAddr16()
		return operand{addr: addr, val: c.bus.Read(addr)}

	case ModeAbsoluteX:
		base := c.readAddr16()
		addr := base + uint16(c.X)
		return operand{addr: addr, val: c.bus.Read(addr), pageCrossed: (base & 0xFF00) != (addr & 0xFF00)}

	case ModeAbsoluteY:
		base := c.readAddr16()
		addr := base + uint16(c.Y)
		return operand{addr: addr, val: c.bus.Read(addr), pageCrossed: (base & 0xFF00) != (addr & 0xFF00)}

	case ModeIndirect:
		ptr := c.readAddr16()
		// Reproduces the documented 6502 JMP ($xxFF) page-wrap bug: the
		// high byte is fetched from ptr with only the low byte wrapped,
		// not from ptr+1 across a page boundary.
		lo := c.bus.Read(ptr)
		hiAddr := (ptr & 0xFF00) | uint16(uint8(ptr)+1)
		hi := c.bus.Read(hiAddr)
		return operand{addr: uint16(lo) | uint16(hi)<<8}

	case ModeRel:
		off := int8(c.bus.Read(c.PC))
		c.PC++
		addr := uint16(int32(c.PC) + int32(off))
		return operand{addr: addr, pageCrossed: (c.PC & 0xFF00) != (addr & 0xFF00)}

	default:
		return operand{}
	}
}

func (c *Chip) readAddr16() uint16 {
	lo := c.bus.Read(c.PC)
	hi := c.bus.Read(c.PC + 1)
	c.PC += 2
	return uint16(lo) | uint16(hi)<<8
}

// formatOperand renders the resolved operand in the mode's assembler
// syntax, for the debug history ring buffer. Memory modes show the
// effective address (o.addr), not the instruction's raw operand bytes,
// so indexed and indirect modes print the final address.
func formatOperand(m Mode, o operand) string {
	switch m {
	case ModeImpl:
		return ""
	case ModeAcc:
		return "A"
	case ModeImm:
		return fmt.Sprintf("#$%02X", o.val)
	case ModeZP:
		return fmt.Sprintf("$%02X", o.addr)
	case ModeZPX:
		return fmt.Sprintf("$%02X,X", o.addr)
	case ModeZPY:
		return fmt.Sprintf("$%02X,Y", o.addr)
	case ModeIndirectX:
		return fmt.Sprintf("($%02X,X)", o.addr)
	case ModeIndirectY:
		return fmt.Sprintf("($%02X),Y", o.addr)
	case ModeAbsolute:
		return fmt.Sprintf("$%04X", o.addr)
	case ModeAbsoluteX:
		return fmt.Sprintf("$%04X,X", o.addr)
	case ModeAbsoluteY:
		return fmt.Sprintf("$%04X,Y", o.addr)
	case ModeIndirect:
		return fmt.Sprintf("($%04X)", o.addr)
	case ModeRel:
		return fmt.Sprintf("$%04X", o.addr)
	default:
		return ""
	}
}
