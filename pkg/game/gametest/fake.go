// Package gametest provides an in-memory game.Page for tests.
package gametest

import (
	"sync"

	"github.com/entrhq/adbot/pkg/game"
)

// Element is the state of one fake DOM element.
type Element struct {
	Text    string
	Classes map[string]bool
	Hidden  bool
	Checked bool
}

// Page is a fake game.Page backed by a selector map.
type Page struct {
	mu       sync.Mutex
	elements map[string]*Element
	clicks   []string
	onClick  map[string]func(p *Page)
}

var _ game.Page = (*Page)(nil)

// NewPage creates an empty fake page.
func NewPage() *Page {
	return &Page{
		elements: make(map[string]*Element),
		onClick:  make(map[string]func(p *Page)),
	}
}

func (p *Page) element(selector string) *Element {
	el, ok := p.elements[selector]
	if !ok {
		el = &Element{Classes: make(map[string]bool)}
		p.elements[selector] = el
	}
	return el
}

// SetText creates the element if needed and sets its text.
func (p *Page) SetText(selector, text string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.element(selector).Text = text
	return p
}

// AddElement creates an element with no text.
func (p *Page) AddElement(selector string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.element(selector)
	return p
}

// SetClass adds or removes a class on an element, creating it if needed.
func (p *Page) SetClass(selector, class string, on bool) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.element(selector).Classes[class] = on
	return p
}

// SetHidden toggles display:none on an element, creating it if needed.
func (p *Page) SetHidden(selector string, hidden bool) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.element(selector).Hidden = hidden
	return p
}

// Remove deletes an element.
func (p *Page) Remove(selector string) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.elements, selector)
	return p
}

// OnClick registers a hook run (with the page unlocked) after each click on selector.
func (p *Page) OnClick(selector string, fn func(p *Page)) *Page {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.onClick[selector] = fn
	return p
}

// Clicks returns the selectors clicked so far, in order.
func (p *Page) Clicks() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.clicks...)
}

// ClickCount returns how many times selector was clicked.
func (p *Page) ClickCount(selector string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, c := range p.clicks {
		if c == selector {
			n++
		}
	}
	return n
}

// IsChecked reports the checked state of an element.
func (p *Page) IsChecked(selector string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	return ok && el.Checked
}

// Text implements game.Page.
func (p *Page) Text(selector string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok {
		return "", game.NotFound(selector)
	}
	return el.Text, nil
}

// Click implements game.Page.
func (p *Page) Click(selector string) error {
	p.mu.Lock()
	if _, ok := p.elements[selector]; !ok {
		p.mu.Unlock()
		return game.NotFound(selector)
	}
	p.clicks = append(p.clicks, selector)
	hook := p.onClick[selector]
	p.mu.Unlock()

	if hook != nil {
		hook(p)
	}
	return nil
}

// HasClass implements game.Page.
func (p *Page) HasClass(selector, class string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok {
		return false, game.NotFound(selector)
	}
	return el.Classes[class], nil
}

// Visible implements game.Page.
func (p *Page) Visible(selector string) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok {
		return false, game.NotFound(selector)
	}
	return !el.Hidden, nil
}

// SetChecked implements game.Page.
func (p *Page) SetChecked(selector string, checked bool) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.elements[selector]
	if !ok {
		return game.NotFound(selector)
	}
	el.Checked = checked
	return nil
}
