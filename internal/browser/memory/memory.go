// Package memory is a scripted, in-process stand-in for a browser. Pages
// are trees of Documents whose elements are keyed by the exact query of
// the strategy that finds them. Lookups never sleep: a missing element
// fails at once, and every attempt is recorded for inspection.
package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"webchurch/internal/browser"
)

// Action is one recorded interaction.
type Action struct {
	Op    string // find, miss, click, input, clear, submit, navigate
	Query string
	Value string
}

// Browser holds the pages and the shared action log.
type Browser struct {
	mu      sync.Mutex
	sites   map[string]func() *Document
	pages   []*Page
	nextID  int
	actions []Action
	closed  bool
}

func New() *Browser {
	return &Browser{sites: map[string]func() *Document{}}
}

// Route makes Navigate/Open to url load the document built by build.
func (b *Browser) Route(url string, build func() *Document) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sites[url] = build
}

// Launcher returns a browser.Launcher yielding b.
func (b *Browser) Launcher() browser.Launcher {
	return func(context.Context) (browser.Browser, error) { return b, nil }
}

func (b *Browser) Open(ctx context.Context, url string) (browser.Page, error) {
	p := b.newPage(NewDocument())
	if url != "" && url != "about:blank" {
		if err := p.Navigate(ctx, url); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// Popup opens a new page holding doc, as window.open would.
func (b *Browser) Popup(doc *Document) *Page {
	return b.newPage(doc)
}

func (b *Browser) newPage(doc *Document) *Page {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	p := &Page{id: fmt.Sprintf("page-%d", b.nextID), browser: b}
	p.setDocument(doc)
	b.pages = append(b.pages, p)
	return p
}

func (b *Browser) Pages(context.Context) ([]browser.Page, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, errors.New("browser closed")
	}
	out := make([]browser.Page, 0, len(b.pages))
	for _, p := range b.pages {
		out = append(out, p)
	}
	return out, nil
}

func (b *Browser) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	return nil
}

func (b *Browser) Closed() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.closed
}

// Actions returns a copy of the interaction log.
func (b *Browser) Actions() []Action {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Action(nil), b.actions...)
}

// Ops returns the logged actions of the given kind.
func (b *Browser) Ops(op string) []Action {
	var out []Action
	for _, a := range b.Actions() {
		if a.Op == op {
			out = append(out, a)
		}
	}
	return out
}

func (b *Browser) record(a Action) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.actions = append(b.actions, a)
}

// Page is a top-level window.
type Page struct {
	id      string
	browser *Browser

	mu  sync.Mutex
	doc *Document
	url string
}

func (p *Page) ID() string { return p.id }

// URL returns the last navigated url.
func (p *Page) URL() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.url
}

// Document returns the currently loaded document.
func (p *Page) Document() *Document {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.doc
}

// Load replaces the page content, as a navigation triggered by script would.
func (p *Page) Load(doc *Document) {
	p.setDocument(doc)
}

func (p *Page) setDocument(doc *Document) {
	doc.attach(p.browser)
	p.mu.Lock()
	defer p.mu.Unlock()
	p.doc = doc
}

func (p *Page) Navigate(_ context.Context, url string) error {
	p.browser.record(Action{Op: "navigate", Value: url})
	p.browser.mu.Lock()
	build, ok := p.browser.sites[url]
	p.browser.mu.Unlock()
	if !ok {
		return fmt.Errorf("navigate %s: no route", url)
	}
	p.setDocument(build())
	p.mu.Lock()
	p.url = url
	p.mu.Unlock()
	return nil
}

func (p *Page) Find(ctx context.Context, s browser.Strategy) (browser.Element, error) {
	return p.Document().Find(ctx, s)
}

func (p *Page) Frames(ctx context.Context) ([]browser.Frame, error) {
	return p.Document().Frames(ctx)
}

// Document is a fake browsing context.
type Document struct {
	mu       sync.Mutex
	browser  *Browser
	elements map[string]*Element
	frames   []frame
}

type frame struct {
	name, id string
	doc      *Document
}

func NewDocument() *Document {
	return &Document{elements: map[string]*Element{}}
}

func (d *Document) attach(b *Browser) {
	d.mu.Lock()
	d.browser = b
	frames := append([]frame(nil), d.frames...)
	elements := make([]*Element, 0, len(d.elements))
	for _, el := range d.elements {
		elements = append(elements, el)
	}
	d.mu.Unlock()
	for _, el := range elements {
		el.browser = b
	}
	for _, f := range frames {
		f.doc.attach(b)
	}
}

// Add registers el under the query of s and returns el.
func (d *Document) Add(s browser.Strategy, el *Element) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	el.query = s.Query
	el.browser = d.browser
	d.elements[s.Query] = el
	return el
}

// AddFrame adds a child frame and returns its document.
func (d *Document) AddFrame(name, id string, doc *Document) *Document {
	d.mu.Lock()
	b := d.browser
	d.frames = append(d.frames, frame{name: name, id: id, doc: doc})
	d.mu.Unlock()
	if b != nil {
		doc.attach(b)
	}
	return doc
}

// Element returns the element registered for query, or nil.
func (d *Document) Element(query string) *Element {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.elements[query]
}

func (d *Document) Find(ctx context.Context, s browser.Strategy) (browser.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	el, ok := d.elements[s.Query]
	b := d.browser
	d.mu.Unlock()
	if b != nil {
		op := "find"
		if !ok {
			op = "miss"
		}
		b.record(Action{Op: op, Query: s.Query})
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s after %s", browser.ErrNotFound, s, s.Timeout)
	}
	return el, nil
}

func (d *Document) Frames(ctx context.Context) ([]browser.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]browser.Frame, 0, len(d.frames))
	for _, f := range d.frames {
		out = append(out, browser.Frame{Name: f.name, ID: f.id, Document: f.doc})
	}
	return out, nil
}

// Element is a fake form control or clickable node.
type Element struct {
	// OnClick runs after a successful click.
	OnClick func()
	// OnSubmit runs after a successful form submit.
	OnSubmit func()
	// Err, when set, fails every interaction.
	Err error
	// NoForm makes Submit fail like a control outside any form.
	NoForm bool

	browser *Browser
	query   string

	mu        sync.Mutex
	value     string
	clicks    int
	submitted bool
}

// NewElement returns an element with an initial value.
func NewElement(value string) *Element {
	return &Element{value: value}
}

func (e *Element) record(op, value string) {
	if e.browser != nil {
		e.browser.record(Action{Op: op, Query: e.query, Value: value})
	}
}

func (e *Element) Click(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.clicks++
	onClick := e.OnClick
	e.mu.Unlock()
	e.record("click", "")
	if onClick != nil {
		onClick()
	}
	return nil
}

func (e *Element) Input(ctx context.Context, text string) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.value += text
	e.mu.Unlock()
	e.record("input", text)
	return nil
}

func (e *Element) Clear(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	e.mu.Lock()
	e.value = ""
	e.mu.Unlock()
	e.record("clear", "")
	return nil
}

func (e *Element) Submit(ctx context.Context) error {
	if err := e.check(ctx); err != nil {
		return err
	}
	if e.NoForm {
		return errors.New("element is not inside a form")
	}
	e.mu.Lock()
	e.submitted = true
	onSubmit := e.OnSubmit
	e.mu.Unlock()
	e.record("submit", "")
	if onSubmit != nil {
		onSubmit()
	}
	return nil
}

func (e *Element) Value(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value, nil
}

func (e *Element) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return e.Err
}

// Text returns the current value without a context.
func (e *Element) Text() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.value
}

func (e *Element) Clicks() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.clicks
}

func (e *Element) Submitted() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.submitted
}
