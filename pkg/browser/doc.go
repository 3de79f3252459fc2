// Package browser drives the game tab through Playwright.
//
// A SessionManager owns the Playwright driver. StartSession launches
// Chromium with a single page and returns a Session, which implements
// game.Page on top of element handles:
//
//   - Text reads textContent
//   - Click dispatches a synthetic "click" event
//   - HasClass inspects the class attribute
//   - Visible asks Playwright whether the element is rendered
//   - SetChecked writes the checkbox property directly
//
// A selector that matches nothing yields an error wrapping
// game.ErrElementNotFound, which the AI modules treat as a skipped tick.
//
// # Page controls
//
// ExposeControls installs adbotStart, adbotStop and adbotStatus on the
// page's window object so the bot can be driven from the browser's
// developer console:
//
//	adbotStart("c-eight", {delay: 50})
//	adbotStatus()
//	adbotStop()
package browser
