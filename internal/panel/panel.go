// Package panel owns the single chat panel surface.
//
// The controller tracks at most one open surface: a start request reveals an
// existing panel instead of opening a second one, and a user closing the
// panel clears the handle without touching the worker. The production
// surface is a loopback HTTP server plus the system browser; tests inject
// fake surfaces.
package panel

import "sync"

// Column is the display column a surface is shown in.
type Column int

const (
	// ColumnOne is the primary display column.
	ColumnOne Column = 1
	// ColumnBeside is the default column, next to the active surface.
	ColumnBeside Column = 2
)

// Surface is one visible UI surface hosting the chat interface.
type Surface interface {
	// Reveal brings the surface to the foreground at the given column.
	Reveal(col Column)
	// Close tears the surface down.
	Close()
	// OnDispose registers fn to run when the surface goes away, however
	// that happens.
	OnDispose(fn func())
}

// SurfaceFactory creates a new surface at the given column.
type SurfaceFactory func(col Column) (Surface, error)

// Controller manages the panel lifecycle.
type Controller struct {
	factory SurfaceFactory
	// activeColumn reports the column of the active editing surface, if
	// any. Nil or not-ok falls back to ColumnBeside.
	activeColumn func() (Column, bool)

	mu      sync.Mutex
	surface Surface
	column  Column
}

// NewController creates a Controller using factory for new surfaces.
func NewController(factory SurfaceFactory, activeColumn func() (Column, bool)) *Controller {
	return &Controller{factory: factory, activeColumn: activeColumn}
}

// Open reports whether a panel surface currently exists.
func (c *Controller) Open() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.surface != nil
}

// ShowOrReveal reveals the existing panel, or creates one at the preferred
// column. The new surface's dispose callback clears the handle only — it
// never stops the worker.
func (c *Controller) ShowOrReveal() error {
	c.mu.Lock()
	if c.surface != nil {
		surface, col := c.surface, c.column
		c.mu.Unlock()
		surface.Reveal(col)
		return nil
	}
	c.mu.Unlock()

	col := c.preferredColumn()
	surface, err := c.factory(col)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.surface != nil {
		// A concurrent ShowOrReveal won; keep the first surface.
		existing, existingCol := c.surface, c.column
		c.mu.Unlock()
		surface.Close()
		existing.Reveal(existingCol)
		return nil
	}
	c.surface = surface
	c.column = col
	c.mu.Unlock()

	surface.OnDispose(func() { c.clear(surface) })
	surface.Reveal(col)
	return nil
}

// DisposeIfOpen force-closes the panel. Used by the supervisor's cascading
// teardown when the worker dies, and by overall shutdown.
func (c *Controller) DisposeIfOpen() {
	c.mu.Lock()
	surface := c.surface
	c.surface = nil
	c.mu.Unlock()

	if surface != nil {
		surface.Close()
	}
}

// clear drops the handle for a surface the user closed. The worker keeps
// running.
func (c *Controller) clear(surface Surface) {
	c.mu.Lock()
	if c.surface == surface {
		c.surface = nil
	}
	c.mu.Unlock()
}

func (c *Controller) preferredColumn() Column {
	if c.activeColumn != nil {
		if col, ok := c.activeColumn(); ok {
			return col
		}
	}
	return ColumnBeside
}
