// Package bus implements the VIC-20 64KiB address space: a flat byte
// array overlaid with per-address read/write handler tables so devices
// can claim a range of memory-mapped registers without the rest of the
// address space paying for a dispatch check. This is the "Bus" component
// from the system design: it owns no chips itself, it only knows how to
// route an address to the handler installed for it.
package bus

import (
	"fmt"
	"math/rand"
	"time"
)

// ReadFunc is installed per-address to service a CPU (or VIC) read.
type ReadFunc func(addr uint16) uint8

// WriteFunc is installed per-address to service a CPU write. Writes to
// addresses backed by ROM or unpopulated RAM install writeNull.
type WriteFunc func(addr uint16, val uint8)

// Model selects which 8KiB blocks of the unexpanded memory map are
// wired up as writable RAM versus left as write-discarding holes. This
// mirrors the real VIC-20's cartridge-slot based expansion options.
type Model int

// The memory expansion configurations a VIC-20 can be strapped for.
const (
	ModelUnexpanded Model = iota
	ModelPlus3K
	ModelPlus8K
	ModelPlus16K
	ModelPlus24K
	ModelPlus32K
	ModelPlus35K
	ModelTest // Flat, fully writable 64KiB used by CPU conformance tests.

	modelCount // sentinel, not a real model
)

// Valid reports whether m is one of the documented Model constants.
func (m Model) Valid() bool { return m >= ModelUnexpanded && m < modelCount }

// block describes one 8KiB region of the address space and whether the
// given model makes it writable RAM.
type block struct {
	start uint16
	end   uint16 // inclusive
}

// blockRAM0 covers the three 1KiB expansion blocks below main RAM
// (RAM1-RAM3 on real hardware), modeled here as the single
// 0x0400-0x0FFF hole; blockBLK1-blockBLK3 are the three 8KiB blocks from
// 0x2000-0x7FFF and blockBLK5 is the 8KiB block at 0xA000-0xBFFF.
var (
	blockRAM0 = block{0x0400, 0x0FFF} // +3K expansion
	blockBLK1 = block{0x2000, 0x3FFF}
	blockBLK2 = block{0x4000, 0x5FFF}
	blockBLK3 = block{0x6000, 0x7FFF}
	blockBLK5 = block{0xA000, 0xBFFF} // cartridge or RAM
)

// writableBlocks returns the expansion-dependent blocks that should be
// backed by writable RAM for the given model, beyond the always-writable
// base RAM at 0x0000-0x1FFF.
func writableBlocks(m Model) []block {
	switch m {
	case ModelPlus3K:
		return []block{blockRAM0}
	case ModelPlus8K:
		return []block{blockRAM0, blockBLK1}
	case ModelPlus16K:
		return []block{blockRAM0, blockBLK1, blockBLK2}
	case ModelPlus24K:
		return []block{blockRAM0, blockBLK1, blockBLK2, blockBLK3}
	case ModelPlus32K:
		return []block{blockRAM0, blockBLK1, blockBLK2, blockBLK3, blockBLK5}
	case ModelPlus35K:
		return []block{blockRAM0, blockBLK1, blockBLK2, blockBLK3, blockBLK5}
	case ModelTest:
		return nil // handled specially; whole space is RAM.
	default:
		return nil
	}
}

// Bus is the 64KiB VIC-20 address space. Every cell defaults to reading
// and writing the backing RAM array; the Model then overlays write_null
// handlers on regions that must behave as ROM or unpopulated memory, and
// devices overlay their own read/write handlers on the MMIO ranges they
// claim at construction time.
type Bus struct {
	ram   [0x10000]uint8
	read  [0x10000]ReadFunc
	write [0x10000]WriteFunc
}

// New returns a Bus wired up for the given memory expansion model. All
// cells are zeroed; call PowerOn to randomize RAM the way real hardware
// comes up.
func New(m Model) *Bus {
	b := &Bus{}
	for a := 0; a < 0x10000; a++ {
		b.read[a] = b.readRAM
		b.write[a] = b.writeRAM
	}
	b.applyModel(m)
	return b
}

// applyModel installs write_null across everything that is ROM or
// unpopulated for the given model, leaving RAM writable elsewhere.
func (b *Bus) applyModel(m Model) {
	if m == ModelTest {
		// Entire 64KiB is flat, writable RAM: used by CPU conformance
		// test harnesses that don't care about the real memory map.
		return
	}

	// 0x0000-0x1FFF is always populated RAM (zero page, stack, main RAM).
	writable := map[block]bool{}
	for _, bl := range writableBlocks(m) {
		writable[bl] = true
	}

	installNull := func(start, end uint16) {
		for a := uint32(start); a <= uint32(end); a++ {
			b.write[a] = b.writeNull
		}
	}

	if !writable[blockRAM0] {
		installNull(blockRAM0.start, blockRAM0.end)
	}
	for _, bl := range []block{blockBLK1, blockBLK2, blockBLK3, blockBLK5} {
		if !writable[bl] {
			installNull(bl.start, bl.end)
		}
	}

	// Character ROM, BASIC ROM and kernal ROM are never writable.
	installNull(0x8000, 0x8FFF)
	installNull(0xC000, 0xDFFF)
	installNull(0xE000, 0xFFFF)
	// Color RAM only implements the low nibble on real hardware but is
	// otherwise ordinary writable RAM; nothing to do here.
}

func (b *Bus) readRAM(addr uint16) uint8 {
	return b.ram[addr]
}

func (b *Bus) writeRAM(addr uint16, val uint8) {
	b.ram[addr] = val
}

// writeNull discards the write, matching the documented behavior for
// writes landing on ROM or unpopulated RAM.
func (b *Bus) writeNull(_ uint16, _ uint8) {}

// PowerOn randomizes the backing RAM array the way real static RAM comes
// up in an unknown state. This covers the whole array, including bytes
// already installed by LoadBlock. Devices are expected to call their own
// PowerOn/Reset separately; this only seeds the flat backing array.
func (b *Bus) PowerOn() {
	rand.Seed(time.Now().UnixNano())
	for i := range b.ram {
		b.ram[i] = uint8(rand.Intn(256))
	}
}

// InstallHandlers claims addr for a device, overriding whatever default
// (RAM or write_null) was previously installed. Devices call this once
// per address in their claimed MMIO range at construction time, after
// the Bus itself has been created.
func (b *Bus) InstallHandlers(addr uint16, r ReadFunc, w WriteFunc) {
	if r != nil {
		b.read[addr] = r
	}
	if w != nil {
		b.write[addr] = w
	}
}

// InstallRange is a convenience wrapper over InstallHandlers for claiming
// a contiguous run of addresses, e.g. the 16 registers of a VIA.
func (b *Bus) InstallRange(start, end uint16, r ReadFunc, w WriteFunc) {
	for a := uint32(start); a <= uint32(end); a++ {
		b.InstallHandlers(uint16(a), r, w)
	}
}

// Read dispatches to the handler installed for addr.
func (b *Bus) Read(addr uint16) uint8 {
	return b.read[addr](addr)
}

// Write dispatches to the handler installed for addr.
func (b *Bus) Write(addr uint16, val uint8) {
	b.write[addr](addr, val)
}

// ReadWord returns the little-endian word at addr. The high byte address
// wraps modulo 0x10000, matching the 6502's documented behavior at the
// top of the address space. It does not wrap within zero page: at
// 0x00FF the high byte comes from 0x0100.
func (b *Bus) ReadWord(addr uint16) uint16 {
	lo := b.Read(addr)
	hi := b.Read(addr + 1)
	return uint16(lo) | uint16(hi)<<8
}

// WriteWord stores val as a little-endian word at addr, wrapping the
// high byte address the same way ReadWord does.
func (b *Bus) WriteWord(addr uint16, val uint16) {
	b.Write(addr, uint8(val&0xFF))
	b.Write(addr+1, uint8(val>>8))
}

// LoadBlock installs a contiguous run of bytes directly into the backing
// RAM array starting at offset, bypassing any write handler (so it works
// even for ROM regions). This is the install path for ROM images.
func (b *Bus) LoadBlock(offset uint16, data []uint8) error {
	if int(offset)+len(data) > 0x10000 {
		return fmt.Errorf("block of %d bytes at offset 0x%04X overruns the address space", len(data), offset)
	}
	for i, v := range data {
		b.ram[int(offset)+i] = v
	}
	return nil
}
