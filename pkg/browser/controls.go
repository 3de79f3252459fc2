package browser

import (
	"fmt"
)

// Names of the functions installed on the page's window object.
const (
	StartFunction  = "adbotStart"
	StopFunction   = "adbotStop"
	StatusFunction = "adbotStatus"
)

// Controls are the operations reachable from the page's developer console.
type Controls struct {
	// Start selects a preset with optional overrides and starts its modules.
	Start func(preset string, overrides map[string]any) error

	// Stop stops every running module.
	Stop func()

	// Status describes the bot's state as a JSON-serializable value.
	Status func() any
}

// ExposeControls installs adbotStart, adbotStop and adbotStatus on the page.
// It must be called before Navigate so the bindings exist when the game loads.
// Errors are returned to the page as strings; success is returned as "ok".
func (s *Session) ExposeControls(c Controls) error {
	bindings := map[string]func(args ...interface{}) interface{}{
		StartFunction:  c.start,
		StopFunction:   c.stop,
		StatusFunction: c.status,
	}
	for name, fn := range bindings {
		if err := s.Page.ExposeFunction(name, fn); err != nil {
			return fmt.Errorf("expose %s: %w", name, err)
		}
	}
	return nil
}

func (c Controls) start(args ...interface{}) interface{} {
	preset, overrides, err := startArgs(args)
	if err != nil {
		return err.Error()
	}
	if c.Start == nil {
		return "start is not available"
	}
	if err := c.Start(preset, overrides); err != nil {
		return err.Error()
	}
	return "ok"
}

func (c Controls) stop(...interface{}) interface{} {
	if c.Stop != nil {
		c.Stop()
	}
	return "ok"
}

func (c Controls) status(...interface{}) interface{} {
	if c.Status == nil {
		return nil
	}
	return c.Status()
}

// startArgs decodes adbotStart(preset[, overrides]).
func startArgs(args []interface{}) (string, map[string]any, error) {
	if len(args) == 0 || len(args) > 2 {
		return "", nil, fmt.Errorf("usage: %s(preset[, overrides])", StartFunction)
	}

	preset, ok := args[0].(string)
	if !ok {
		return "", nil, fmt.Errorf("preset must be a string, got %T", args[0])
	}

	if len(args) == 1 || args[1] == nil {
		return preset, nil, nil
	}
	overrides, ok := args[1].(map[string]interface{})
	if !ok {
		return "", nil, fmt.Errorf("overrides must be an object, got %T", args[1])
	}
	return preset, overrides, nil
}
