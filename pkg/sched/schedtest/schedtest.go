// Package schedtest provides a deterministic Driver for testing scheduler
// behavior: armed callbacks fire only when the test says so.
package schedtest

import (
	"github.com/vtree-ui/vtree/pkg/sched"
)

// Driver is a manual sched.Driver. Armed callbacks are held until one of
// the Fire methods is called.
type Driver struct {
	micro []func()
	frame []func()
	idle  []func()
}

var _ sched.Driver = (*Driver)(nil)

// New creates a manual Driver.
func New() *Driver { return &Driver{} }

func (d *Driver) ArmMicrotask(f func()) { d.micro = append(d.micro, f) }
func (d *Driver) ArmFrame(f func())     { d.frame = append(d.frame, f) }
func (d *Driver) ArmIdle(f func())      { d.idle = append(d.idle, f) }

// MicroArmed reports whether any microtask callback is armed.
func (d *Driver) MicroArmed() bool { return len(d.micro) > 0 }

// FrameArmed reports whether any frame callback is armed.
func (d *Driver) FrameArmed() bool { return len(d.frame) > 0 }

// IdleArmed reports whether any idle callback is armed.
func (d *Driver) IdleArmed() bool { return len(d.idle) > 0 }

// FireMicrotasks runs all armed microtask callbacks, including ones armed
// while firing.
func (d *Driver) FireMicrotasks() { fireAll(&d.micro) }

// FireFrame runs all armed frame callbacks.
func (d *Driver) FireFrame() { fireAll(&d.frame) }

// FireIdle runs all armed idle callbacks.
func (d *Driver) FireIdle() { fireAll(&d.idle) }

func fireAll(fs *[]func()) {
	for len(*fs) > 0 {
		f := (*fs)[0]
		*fs = (*fs)[1:]
		f()
	}
}
