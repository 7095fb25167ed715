// Package chrome drives a local Chrome, Chromium or Edge through the
// DevTools protocol using go-rod.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"webchurch/internal/browser"
	applog "webchurch/internal/log"
)

var ErrNoBrowser = errors.New("no Chrome, Chromium or Edge installation found")

const (
	// MinActionTimeout bounds clicks and typing on elements found with a
	// shorter lookup budget.
	MinActionTimeout = time.Second
	// LoadTimeout bounds opening and navigating pages.
	LoadTimeout = 30 * time.Second

	closeTimeout = 5 * time.Second
)

type Options struct {
	// Bin is the browser executable; empty means auto-detect.
	Bin      string
	Headless bool
	// KeepOpen lets the browser outlive this process.
	KeepOpen bool
}

// Browser is a connected browser session.
type Browser struct {
	rod    *rod.Browser
	logger *applog.Logger
}

// Launcher returns a browser.Launcher starting Chrome with opts.
func Launcher(opts Options, logger *applog.Logger) browser.Launcher {
	return func(ctx context.Context) (browser.Browser, error) {
		return Launch(ctx, opts, logger)
	}
}

// Launch starts a browser process and connects to it. It never downloads a
// browser: a missing installation is reported as ErrNoBrowser.
func Launch(ctx context.Context, opts Options, logger *applog.Logger) (*Browser, error) {
	logger = logger.WithComponent(applog.ComponentBrowser)

	bin := opts.Bin
	if bin == "" {
		found, ok := launcher.LookPath()
		if !ok {
			return nil, ErrNoBrowser
		}
		bin = found
	}

	l := launcher.New().
		Bin(bin).
		Headless(opts.Headless).
		Leakless(!opts.KeepOpen)

	controlURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch %s: %w", bin, err)
	}

	b := rod.New().ControlURL(controlURL).Context(ctx)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connect to %s: %w", bin, err)
	}

	logger.Info("Browser launched", "bin", bin, "headless", opts.Headless, "keep_open", opts.KeepOpen)
	return &Browser{rod: b, logger: logger}, nil
}

func (b *Browser) Open(ctx context.Context, url string) (browser.Page, error) {
	ctx, cancel := context.WithTimeout(ctx, LoadTimeout)
	defer cancel()
	p, err := b.rod.Context(ctx).Page(proto.TargetCreateTarget{URL: url})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", url, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("load %s: %w", url, err)
	}
	return newPage(p), nil
}

func (b *Browser) Pages(ctx context.Context) ([]browser.Page, error) {
	pages, err := b.rod.Context(ctx).Pages()
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	out := make([]browser.Page, 0, len(pages))
	for _, p := range pages {
		out = append(out, newPage(p))
	}
	return out, nil
}

// Close shuts the browser down. It runs detached from the launch context so
// an interrupted run can still close its window.
func (b *Browser) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if err := b.rod.Context(ctx).Close(); err != nil {
		return fmt.Errorf("close browser: %w", err)
	}
	b.logger.Info("Browser closed")
	return nil
}

// document is either a page or a frame's content.
type document struct {
	page *rod.Page
}

func (d document) Find(ctx context.Context, s browser.Strategy) (browser.Element, error) {
	tctx, cancel := context.WithTimeout(ctx, s.Timeout)
	defer cancel()

	p := d.page.Context(tctx)
	var (
		el  *rod.Element
		err error
	)
	switch s.Kind {
	case browser.XPath:
		el, err = p.ElementX(s.Query)
	default:
		el, err = p.Element(s.Query)
	}
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s after %s: %v", browser.ErrNotFound, s, s.Timeout, err)
	}
	return element{el: el, timeout: max(s.Timeout, MinActionTimeout)}, nil
}

func (d document) Frames(ctx context.Context) ([]browser.Frame, error) {
	els, err := d.page.Context(ctx).Elements("frame, iframe")
	if err != nil {
		return nil, fmt.Errorf("list frames: %w", err)
	}
	out := make([]browser.Frame, 0, len(els))
	for _, el := range els {
		fp, err := el.Frame()
		if err != nil {
			// Frame detached between query and resolution.
			continue
		}
		out = append(out, browser.Frame{
			Name:     attr(el, "name"),
			ID:       attr(el, "id"),
			Document: document{page: fp},
		})
	}
	return out, nil
}

func attr(el *rod.Element, name string) string {
	v, err := el.Attribute(name)
	if err != nil || v == nil {
		return ""
	}
	return *v
}

type page struct {
	document
}

func newPage(p *rod.Page) *page {
	return &page{document{page: p}}
}

func (p *page) ID() string { return string(p.page.TargetID) }

func (p *page) Navigate(ctx context.Context, url string) error {
	ctx, cancel := context.WithTimeout(ctx, LoadTimeout)
	defer cancel()
	rp := p.page.Context(ctx)
	if err := rp.Navigate(url); err != nil {
		return fmt.Errorf("navigate %s: %w", url, err)
	}
	if err := rp.WaitLoad(); err != nil {
		return fmt.Errorf("load %s: %w", url, err)
	}
	return nil
}

// element runs every action under its own deadline: rod retries clicks on
// covered or disabled elements until the context ends.
type element struct {
	el      *rod.Element
	timeout time.Duration
}

func (e element) do(ctx context.Context, action string, fn func(*rod.Element) error) error {
	tctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	if err := fn(e.el.Context(tctx)); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if tctx.Err() != nil {
			return fmt.Errorf("%s: not interactable after %s: %w", action, e.timeout, err)
		}
		return fmt.Errorf("%s: %w", action, err)
	}
	return nil
}

func (e element) Click(ctx context.Context) error {
	return e.do(ctx, "click", func(el *rod.Element) error {
		return el.Click(proto.InputMouseButtonLeft, 1)
	})
}

func (e element) Input(ctx context.Context, text string) error {
	if text == "" {
		return nil
	}
	return e.do(ctx, "input", func(el *rod.Element) error {
		return el.Input(text)
	})
}

func (e element) Clear(ctx context.Context) error {
	return e.do(ctx, "clear", func(el *rod.Element) error {
		_, err := el.Eval(`() => {
			if (this.disabled || this.readOnly) throw new Error('element is not editable');
			this.value = '';
			this.dispatchEvent(new Event('input', {bubbles: true}));
		}`)
		return err
	})
}

func (e element) Submit(ctx context.Context) error {
	return e.do(ctx, "submit", func(el *rod.Element) error {
		_, err := el.Eval(`() => {
			if (!this.form) throw new Error('element is not inside a form');
			this.form.submit();
		}`)
		return err
	})
}

func (e element) Value(ctx context.Context) (string, error) {
	var v string
	err := e.do(ctx, "read value", func(el *rod.Element) error {
		obj, err := el.Property("value")
		if err != nil {
			return err
		}
		v = obj.Str()
		return nil
	})
	return v, err
}
