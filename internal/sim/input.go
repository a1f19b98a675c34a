package sim

import (
	"errors"
	"fmt"
	"sync"
)

// DefaultQueueCapacity bounds the number of pending camera commands.
const DefaultQueueCapacity = 1024

// ErrQueueFull is returned when more commands are pending than the queue
// holds.
var ErrQueueFull = errors.New("input queue full")

// CommandKind identifies a camera command.
type CommandKind int

const (
	CommandOrbit CommandKind = iota
	CommandRotate
	CommandDolly
	CommandFocus
	CommandRecenter
	CommandViewport
)

func (k CommandKind) String() string {
	switch k {
	case CommandOrbit:
		return "orbit"
	case CommandRotate:
		return "rotate"
	case CommandDolly:
		return "dolly"
	case CommandFocus:
		return "focus"
	case CommandRecenter:
		return "recenter"
	case CommandViewport:
		return "viewport"
	default:
		return fmt.Sprintf("CommandKind(%d)", int(k))
	}
}

// Command is one pending camera input.
type Command struct {
	Kind CommandKind

	DX, DY float64 // orbit, rotate
	DZ     float64 // dolly
	Body   string  // focus; empty clears body tracking

	Width, Height int // viewport
}

// Orbit returns an orbit command for a pointer drag.
func Orbit(dx, dy float64) Command { return Command{Kind: CommandOrbit, DX: dx, DY: dy} }

// Rotate returns an in-place rotation command for a pointer drag.
func Rotate(dx, dy float64) Command { return Command{Kind: CommandRotate, DX: dx, DY: dy} }

// Dolly returns a dolly command.
func Dolly(dz float64) Command { return Command{Kind: CommandDolly, DZ: dz} }

// Focus returns a command that retargets the camera on a body.
func Focus(body string) Command { return Command{Kind: CommandFocus, Body: body} }

// Recenter returns a command that re-aims the camera at its target.
func Recenter() Command { return Command{Kind: CommandRecenter} }

// Viewport returns a viewport resize command.
func Viewport(width, height int) Command {
	return Command{Kind: CommandViewport, Width: width, Height: height}
}

// InputQueue collects camera commands from any goroutine until the engine
// drains them, in arrival order, at the start of a frame.
type InputQueue struct {
	mu       sync.Mutex
	pending  []Command
	capacity int
}

// NewInputQueue returns a queue holding at most capacity commands; a
// non-positive capacity selects DefaultQueueCapacity.
func NewInputQueue(capacity int) *InputQueue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &InputQueue{capacity: capacity}
}

// Push appends a command. It fails with ErrQueueFull rather than dropping
// input silently.
func (q *InputQueue) Push(cmd Command) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.pending) >= q.capacity {
		return fmt.Errorf("%w: %d pending", ErrQueueFull, len(q.pending))
	}
	q.pending = append(q.pending, cmd)
	return nil
}

// Drain removes and returns every pending command in FIFO order.
func (q *InputQueue) Drain() []Command {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmds := q.pending
	q.pending = nil
	return cmds
}

// Len returns the number of pending commands.
func (q *InputQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}
