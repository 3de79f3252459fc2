// Package game describes the parts of the Antimatter Dimensions page the bot
// reads and clicks: the Page surface and the element selectors.
package game

import (
	"errors"
	"fmt"
)

// ErrElementNotFound is returned when a selector matches no element.
var ErrElementNotFound = errors.New("element not found")

// NotFound wraps ErrElementNotFound with the selector that missed.
func NotFound(selector string) error {
	return fmt.Errorf("%w: %s", ErrElementNotFound, selector)
}

// Page is the DOM surface of a running game.
type Page interface {
	// Text returns the rendered text content of the element.
	Text(selector string) (string, error)

	// Click dispatches a click event to the element. Clicking a disabled
	// control is not an error; the game simply ignores it.
	Click(selector string) error

	// HasClass reports whether the element carries the CSS class.
	HasClass(selector, class string) (bool, error)

	// Visible reports whether the element is rendered (not display:none).
	Visible(selector string) (bool, error)

	// SetChecked writes the checked state of a checkbox element.
	SetChecked(selector string, checked bool) error
}
