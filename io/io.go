// Package io defines the basic interfaces for working
// with a 6502 family based I/O port (generally bi-directional).
// Implementors of I/O (such as the VIA) call the input callback (if
// provided) whenever the port's pins are read; there is no extra clock
// cycle of latch delay between input and what a read returns.
package io

// PortIn8 defines an 8 bit I/O port that can be read from the outside
// world (keyboard matrix columns, joystick directions, etc).
type PortIn8 interface {
	// Input returns the current value being presented on the port's pins.
	Input() uint8
}

// PortOut8 defines an 8 bit I/O port that a device drives towards the
// outside world (keyboard matrix row selects, cassette motor control,
// etc).
type PortOut8 interface {
	// Output returns the value the device currently has latched out.
	Output() uint8
}
