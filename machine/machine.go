// Package machine composes a Bus, two VIAs, a VIC, and a CPU into a
// runnable VIC-20: it owns the fixed per-tick wiring order between the
// chips, ROM loading at their documented fixed addresses, and the
// Stopped/Loaded/Running/Breakpoint state machine that front ends
// (cmd/vic20) drive. It plays the role atari2600.go's VCS plays for the
// teacher's Atari: the single place that knows how the chips are wired
// together, while the chips themselves stay ignorant of each other.
package machine

import (
	"fmt"
	"time"

	"github.com/jmchacon/vic20/bus"
	"github.com/jmchacon/vic20/cpu"
	"github.com/jmchacon/vic20/io"
	"github.com/jmchacon/vic20/rom"
	"github.com/jmchacon/vic20/via"
	"github.com/jmchacon/vic20/vic"
)

// State is where the Machine sits in its run lifecycle.
type State int

const (
	Stopped State = iota
	Loaded
	Running
	Breakpoint
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "Stopped"
	case Loaded:
		return "Loaded"
	case Running:
		return "Running"
	case Breakpoint:
		return "Breakpoint"
	default:
		return "Unknown"
	}
}

// Fixed ROM load addresses, per the VIC-20 memory map.
const (
	charROMAddr   = uint16(0x8000)
	basicROMAddr  = uint16(0xC000)
	kernalROMAddr = uint16(0xE000)
	cartROMAddr   = uint16(0xA000)
)

// Keyboard buffer injection addresses used to bootstrap a cartridge-less
// BASIC session with a typed command.
const (
	keyboardBufferAddr = uint16(0x0277)
	keyboardCountAddr  = uint16(0x00C6)
	keyboardBufferLen  = 10
)

// Machine is a fully wired VIC-20: CPU, Bus, two VIAs, and a VIC.
type Machine struct {
	Bus *bus.Bus
	CPU *cpu.Chip
	VIA1 *via.Chip // User port + NMI (RESTORE key, cassette sense).
	VIA2 *via.Chip // Keyboard matrix + serial bus + IRQ (timers).
	VIC  *vic.Chip

	standard   vic.Standard
	model      bus.Model
	debug      bool
	state      State
	lastNMI    bool
	breakpoint *uint16

	// keyMatrix[col] is the active-low row mask for that column: bit N
	// clear means the key at (row N, col) is down. VIA2's own port B
	// output strobes which columns are selected; port A reads the
	// resulting row bits back, per spec.md's "port B column scans / port
	// A row reads" keyboard wiring.
	keyMatrix [8]uint8
	// joystick holds the host-supplied bitmask from SetJoystick, active
	// high: bit0 up, bit1 down, bit2 left, bit3 fire, bit4 right. Up,
	// down, left and fire are presented on VIA1 port A; right is
	// presented on VIA2 port B, matching the real hardware's split.
	joystick uint8

	// frameDelay is the wall-clock period RunRealtime paces frames at;
	// it starts at the VIC's nominal frame period (1/TargetFPS) and, with
	// autoSpeed on, is scaled every 50 frames by measured FPS over
	// TargetFPS, moving achieved throughput toward the target.
	frameDelay time.Duration
	autoSpeed  bool
}

// keyboardPort implements io.PortIn8 for VIA2's port A: it combines the
// row masks of whichever columns VIA2's own port B currently strobes
// low.
type keyboardPort struct{ m *Machine }

func (p *keyboardPort) Input() uint8 {
	cols := p.m.VIA2.PortB()
	result := uint8(0xFF)
	for col := 0; col < 8; col++ {
		if cols&(1<<uint(col)) == 0 {
			result &= p.m.keyMatrix[col]
		}
	}
	return result
}

// joystickPort implements io.PortIn8 for VIA1's port A: up/down/left/fire,
// active low, on bits 2/3/4/6 (matching the real VIC-20's wiring).
type joystickPort struct{ m *Machine }

func (p *joystickPort) Input() uint8 {
	j := p.m.joystick
	result := uint8(0xFF)
	if j&0x01 != 0 { // up
		result &^= 1 << 2
	}
	if j&0x02 != 0 { // down
		result &^= 1 << 3
	}
	if j&0x04 != 0 { // left
		result &^= 1 << 4
	}
	if j&0x08 != 0 { // fire
		result &^= 1 << 6
	}
	return result
}

// joystickRightPort implements io.PortIn8 for VIA2's port B: the
// joystick's right line shares that port with the keyboard column
// strobe, active low on bit 7.
type joystickRightPort struct{ m *Machine }

func (p *joystickRightPort) Input() uint8 {
	if p.m.joystick&0x10 != 0 {
		return 0xFF &^ (1 << 7)
	}
	return 0xFF
}

// Def supplies construction-time wiring: which timing standard and
// memory expansion to build, and optional input port overrides for the
// VIAs' keyboard/joystick lines. VIA1InA, VIA2InA and VIA2InB default to
// the Machine's own joystick and keyboard matrix ports (see SetJoystick,
// SetKey) when left nil; set them only to substitute a different input
// source entirely (e.g. a cassette-sense line on VIA1's port B).
type Def struct {
	Standard vic.Standard
	Model    bus.Model
	VIA1InA  io.PortIn8
	VIA1InB  io.PortIn8
	VIA2InA  io.PortIn8
	VIA2InB  io.PortIn8
	Debug    bool
}

// New wires up a Bus, two VIAs, a VIC, and a CPU into a Machine. The CPU
// is constructed last since it's the only chip that needs the fully
// assembled Bus (with the VIA/VIC MMIO ranges already installed) in
// order to fetch its reset vector.
func New(d *Def) (*Machine, error) {
	if !d.Model.Valid() {
		return nil, fmt.Errorf("invalid memory expansion model %d", d.Model)
	}

	m := &Machine{standard: d.Standard, model: d.Model, debug: d.Debug, state: Stopped, autoSpeed: true}
	for i := range m.keyMatrix {
		m.keyMatrix[i] = 0xFF
	}

	m.Bus = bus.New(d.Model)

	via1A := d.VIA1InA
	if via1A == nil {
		via1A = &joystickPort{m}
	}
	m.VIA1 = via.New(&via.Def{Name: "VIA1", InPortA: via1A, InPortB: d.VIA1InB})
	m.Bus.InstallRange(0x9110, 0x911F, m.viaRead(m.VIA1), m.viaWrite(m.VIA1))

	via2A := d.VIA2InA
	if via2A == nil {
		via2A = &keyboardPort{m}
	}
	via2B := d.VIA2InB
	if via2B == nil {
		via2B = &joystickRightPort{m}
	}
	m.VIA2 = via.New(&via.Def{Name: "VIA2", InPortA: via2A, InPortB: via2B})
	m.Bus.InstallRange(0x9120, 0x912F, m.viaRead(m.VIA2), m.viaWrite(m.VIA2))

	m.VIC = vic.New(&vic.Def{Standard: d.Standard, Bus: m.Bus})
	m.Bus.InstallRange(0x9000, 0x900F, m.vicRead(), m.vicWrite())

	m.CPU = cpu.New(&cpu.Def{Type: cpu.NMOS, Bus: m.Bus})

	return m, nil
}

func (m *Machine) viaRead(c *via.Chip) bus.ReadFunc {
	return func(addr uint16) uint8 { return c.Read(addr & 0xF) }
}

func (m *Machine) viaWrite(c *via.Chip) bus.WriteFunc {
	return func(addr uint16, val uint8) { c.Write(addr&0xF, val) }
}

func (m *Machine) vicRead() bus.ReadFunc {
	return func(addr uint16) uint8 { return m.VIC.Read(addr) }
}

func (m *Machine) vicWrite() bus.WriteFunc {
	return func(addr uint16, val uint8) { m.VIC.Write(addr, val) }
}

// State reports the Machine's current lifecycle state.
func (m *Machine) State() State { return m.state }

// LoadROMs installs a ROM set's kernal, BASIC, and character images at
// their fixed addresses, optionally autobooting a cartridge instead of
// falling through to a BASIC keystroke injection.
func (m *Machine) LoadROMs(set *rom.Set, pal bool) error {
	kernal := set.KernalNTSC
	if pal {
		kernal = set.KernalPAL
	}
	if err := m.Bus.LoadBlock(kernalROMAddr, kernal.Data); err != nil {
		return fmt.Errorf("loading kernal: %v", err)
	}
	if err := m.Bus.LoadBlock(basicROMAddr, set.BasicDefault.Data); err != nil {
		return fmt.Errorf("loading BASIC: %v", err)
	}
	if err := m.Bus.LoadBlock(charROMAddr, set.CharacterDefault.Data); err != nil {
		return fmt.Errorf("loading character ROM: %v", err)
	}
	if set.Cartridge != nil {
		addr := set.Cartridge.LoadAddress
		if addr == 0 {
			addr = cartROMAddr
		}
		if err := m.Bus.LoadBlock(addr, set.Cartridge.Data); err != nil {
			return fmt.Errorf("loading cartridge: %v", err)
		}
	}
	m.state = Loaded
	return nil
}

// BootBASIC resets the CPU from the reset vector and, if keystrokes is
// non-empty, injects up to keyboardBufferLen of them into the keyboard
// buffer so the kernal's own input loop types them for us (matching how
// a human would start a program from a cold BASIC prompt). It does not
// check for a cartridge; callers pass "" when one should autoboot.
func (m *Machine) BootBASIC(keystrokes string) {
	m.CPU.Reset(nil, nil)
	if keystrokes == "" {
		return
	}
	n := len(keystrokes)
	if n > keyboardBufferLen {
		n = keyboardBufferLen
	}
	for i := 0; i < n; i++ {
		m.Bus.Write(keyboardBufferAddr+uint16(i), keystrokes[i])
	}
	m.Bus.Write(keyboardCountAddr, uint8(n))
}

// SetBreakpoint arms a PC address that stops Run/Tick loops with state
// Breakpoint the instant the CPU's PC reaches it. A nil pc disarms it.
func (m *Machine) SetBreakpoint(pc *uint16) { m.breakpoint = pc }

// SetKey updates the keyboard matrix cell at (row, col) (each 0-7),
// driving what VIA2's port A reports the next time its port B strobes
// that column. Out-of-range row/col is ignored. Translating a concrete
// host keyboard scancode into a matrix row/column is left to the
// caller (see cmd/vic20); this only drives the VIA-visible port state.
func (m *Machine) SetKey(row, col int, down bool) {
	if row < 0 || row > 7 || col < 0 || col > 7 {
		return
	}
	bit := uint8(1) << uint(row)
	if down {
		m.keyMatrix[col] &^= bit
	} else {
		m.keyMatrix[col] |= bit
	}
}

// SetJoystick updates the joystick lines read back on VIA1 port A
// (up/down/left/fire) and VIA2 port B (right). bits is a bitmask in
// host-friendly active-high form: bit0 up, bit1 down, bit2 left, bit3
// fire, bit4 right.
func (m *Machine) SetJoystick(bits uint8) {
	m.joystick = bits
}

// Tick advances the whole machine by one bus cycle, in the fixed wiring
// order: sample VIA1's NMI line before ticking it, tick both VIAs,
// request NMI on a rising edge of VIA1's IRQ line and IRQ whenever
// VIA2's line is held high, tick the CPU, then the VIC.
func (m *Machine) Tick() error {
	prevNMI := m.VIA1.Raised()

	m.VIA1.CycleUp()
	m.VIA2.CycleUp()

	if m.VIA1.Raised() && !prevNMI {
		m.CPU.RequestNMI()
	}
	if m.VIA2.Raised() {
		m.CPU.RequestIRQ()
	}

	if err := m.CPU.Cycle(); err != nil {
		m.state = Stopped
		return err
	}
	m.VIC.Cycle()

	m.VIA1.CycleDown()
	m.VIA2.CycleDown()

	if m.breakpoint != nil && m.CPU.PC == *m.breakpoint && m.CPU.InstructionComplete() {
		m.state = Breakpoint
		return nil
	}
	return nil
}

// Run ticks the machine until an instruction boundary breakpoint is hit
// or the CPU halts, whichever comes first. It returns the error (if
// any) that stopped it; a breakpoint hit returns nil with State() ==
// Breakpoint.
func (m *Machine) Run(maxCycles int) error {
	m.state = Running
	for i := 0; i < maxCycles; i++ {
		if err := m.Tick(); err != nil {
			return err
		}
		if m.state == Breakpoint {
			return nil
		}
	}
	return nil
}

// SetAutoSpeed toggles whether RunRealtime nudges its frame pacing
// toward the VIC's target FPS as measured throughput drifts. It's on
// by default; turning it off holds frameDelay fixed at the nominal
// rate regardless of how fast the host actually runs.
func (m *Machine) SetAutoSpeed(on bool) { m.autoSpeed = on }

// RunRealtime paces the Machine against a wall clock instead of running
// flat out: a timer fires every frameDelay (initially the VIC's nominal
// frame period) and drives exactly one frame's worth of Tick calls -
// VIC.CyclesPerFrame() of them - per firing. onFrame, if non-nil, runs
// after each frame's ticks complete (e.g. to blit the framebuffer).
// Every 50 frames the actually achieved FPS is measured and, with
// autoSpeed on, frameDelay is scaled multiplicatively toward the
// target so sustained drift (a slow host, background load) is
// absorbed instead of accumulating. It returns when stop is closed,
// the CPU halts, or a breakpoint is hit.
func (m *Machine) RunRealtime(stop <-chan struct{}, onFrame func()) error {
	m.state = Running
	if m.frameDelay == 0 {
		m.frameDelay = time.Duration(float64(time.Second) / m.VIC.TargetFPS())
	}
	ticker := time.NewTicker(m.frameDelay)
	defer ticker.Stop()

	cyclesPerFrame := m.VIC.CyclesPerFrame()
	windowStart := time.Now()
	frames := 0
	for {
		select {
		case <-stop:
			m.state = Stopped
			return nil
		case <-ticker.C:
			for i := 0; i < cyclesPerFrame; i++ {
				if err := m.Tick(); err != nil {
					return err
				}
				if m.state == Breakpoint {
					return nil
				}
			}
			if onFrame != nil {
				onFrame()
			}

			frames++
			if frames < 50 {
				continue
			}
			elapsed := time.Since(windowStart).Seconds()
			if m.autoSpeed && elapsed > 0 {
				actualFPS := 50 / elapsed
				if ratio := actualFPS / m.VIC.TargetFPS(); ratio > 0 {
					m.frameDelay = time.Duration(float64(m.frameDelay) * ratio)
					ticker.Reset(m.frameDelay)
				}
			}
			frames = 0
			windowStart = time.Now()
		}
	}
}
