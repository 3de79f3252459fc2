package browser

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/entrhq/adbot/pkg/game"
)

var _ game.Page = (*Session)(nil)

// UpdateLastUsed updates the LastUsedAt timestamp to the current time.
func (s *Session) UpdateLastUsed() {
	s.mu.Lock()
	s.LastUsedAt = time.Now()
	s.mu.Unlock()
}

// Info returns a snapshot of the session metadata.
func (s *Session) Info() SessionInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SessionInfo{
		Name:       s.Name,
		CurrentURL: s.CurrentURL,
		Headless:   s.Headless,
		CreatedAt:  s.CreatedAt,
		LastUsedAt: s.LastUsedAt,
	}
}

// Navigate loads url and, when opts.ReadySelector is set, waits for it to
// become visible.
func (s *Session) Navigate(url string, opts NavigateOptions) error {
	s.UpdateLastUsed()

	gotoOpts := playwright.PageGotoOptions{}
	if opts.WaitUntil != "" {
		waitUntil := playwright.WaitUntilState(opts.WaitUntil)
		gotoOpts.WaitUntil = &waitUntil
	}
	if opts.Timeout > 0 {
		gotoOpts.Timeout = &opts.Timeout
	}

	if _, err := s.Page.Goto(url, gotoOpts); err != nil {
		return fmt.Errorf("navigation failed: %w", err)
	}

	if opts.ReadySelector != "" {
		waitOpts := playwright.PageWaitForSelectorOptions{State: playwright.WaitForSelectorStateVisible}
		if opts.Timeout > 0 {
			waitOpts.Timeout = &opts.Timeout
		}
		if _, err := s.Page.WaitForSelector(opts.ReadySelector, waitOpts); err != nil {
			return fmt.Errorf("wait for %s failed: %w", opts.ReadySelector, err)
		}
	}

	s.mu.Lock()
	s.CurrentURL = s.Page.URL()
	s.mu.Unlock()
	return nil
}

// withElement resolves selector to a handle, runs fn and disposes the handle.
// A selector that matches nothing yields game.ErrElementNotFound.
func (s *Session) withElement(selector string, fn func(el playwright.ElementHandle) error) error {
	s.UpdateLastUsed()

	el, err := s.Page.QuerySelector(selector)
	if err != nil {
		return fmt.Errorf("query %s: %w", selector, err)
	}
	if el == nil {
		return game.NotFound(selector)
	}
	defer el.Dispose()

	return fn(el)
}

// Text implements game.Page.
func (s *Session) Text(selector string) (string, error) {
	var text string
	err := s.withElement(selector, func(el playwright.ElementHandle) error {
		var err error
		text, err = el.TextContent()
		return err
	})
	return text, err
}

// Click implements game.Page. The click is a synthesized DOM event, so it
// does not wait for the element to be enabled or scroll it into view.
func (s *Session) Click(selector string) error {
	return s.withElement(selector, func(el playwright.ElementHandle) error {
		return el.DispatchEvent("click")
	})
}

// HasClass implements game.Page.
func (s *Session) HasClass(selector, class string) (bool, error) {
	var has bool
	err := s.withElement(selector, func(el playwright.ElementHandle) error {
		attr, err := el.GetAttribute("class")
		if err != nil {
			return err
		}
		has = hasClass(attr, class)
		return nil
	})
	return has, err
}

// Visible implements game.Page.
func (s *Session) Visible(selector string) (bool, error) {
	var visible bool
	err := s.withElement(selector, func(el playwright.ElementHandle) error {
		var err error
		visible, err = el.IsVisible()
		return err
	})
	return visible, err
}

// SetChecked implements game.Page. The property is written directly; no
// change event is fired.
func (s *Session) SetChecked(selector string, checked bool) error {
	return s.withElement(selector, func(el playwright.ElementHandle) error {
		_, err := el.Evaluate("(el, v) => { el.checked = v }", checked)
		return err
	})
}

func (s *Session) close() error {
	return errors.Join(s.Page.Close(), s.Context.Close(), s.Browser.Close())
}

// hasClass reports whether the space separated class attribute contains class.
func hasClass(attr, class string) bool {
	for _, c := range strings.Fields(attr) {
		if c == class {
			return true
		}
	}
	return false
}
