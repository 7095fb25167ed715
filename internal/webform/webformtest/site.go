// Package webformtest provides an in-memory copy of the web church site:
// a login page, a frameset with navigation and content frames, and the
// expense resolution form that opens in a popup window.
package webformtest

import (
	"context"
	"strings"
	"time"

	"webchurch/internal/browser"
	"webchurch/internal/browser/memory"
	"webchurch/internal/webform"
)

const LoginURL = "https://church.test/login.asp"

// Tree labels present in the fake form.
var TreeLabels = []string{"다음세대사역위원회", "다음세대지원", "유치부", "미술교육", "간식비"}

// Form field names.
var FieldNames = []string{"subject", "sday", "bank_user", "bank_name", "bank_num", "writer", "tel"}

// Options break parts of the site to exercise fallbacks.
type Options struct {
	NoLoginLink bool
	// MenuAsSpan renders the menu entry as a span instead of a div.
	MenuAsSpan  bool
	NoMenuFrame bool
	// ContentFrameID names the content frame by id only.
	ContentFrameID string
	NoPopup        bool
	MissingFields  []string
}

type Site struct {
	Browser *memory.Browser

	Login   *memory.Document
	Top     *memory.Document
	Menu    *memory.Document
	Content *memory.Document
	Form    *memory.Document

	Fields map[string]*memory.Element
	Tree   map[string]*memory.Element
}

func NewSite(opts Options) *Site {
	s := &Site{
		Browser: memory.New(),
		Fields:  map[string]*memory.Element{},
		Tree:    map[string]*memory.Element{},
	}
	s.buildForm(opts)
	s.buildFrames(opts)
	s.buildLogin(opts)
	s.Browser.Route(LoginURL, func() *memory.Document { return s.Login })
	return s
}

func (s *Site) buildLogin(opts Options) {
	s.Login = memory.NewDocument()
	s.Login.Add(browser.ByName("id", 0), memory.NewElement(""))
	pw := s.Login.Add(browser.ByName("passwd", 0), memory.NewElement(""))
	pw.OnSubmit = s.enter
	if !opts.NoLoginLink {
		link := s.Login.Add(browser.HrefContains("sendit", 0), memory.NewElement(""))
		link.OnClick = s.enter
	}
}

// enter replaces the login page with the frameset, as a successful login does.
func (s *Site) enter() {
	pages, err := s.Browser.Pages(context.Background())
	if err != nil || len(pages) == 0 {
		return
	}
	pages[0].(*memory.Page).Load(s.Top)
}

func (s *Site) buildFrames(opts Options) {
	s.Top = memory.NewDocument()
	s.Menu = memory.NewDocument()
	s.Content = memory.NewDocument()

	s.Top.AddFrame("top_frame", "", memory.NewDocument())
	if opts.NoMenuFrame {
		// Menu rendered inline in the top document.
		s.Menu = s.Top
	} else {
		s.Top.AddFrame("left_frame", "", s.Menu)
	}
	if opts.ContentFrameID != "" {
		s.Top.AddFrame("", opts.ContentFrameID, s.Content)
	} else {
		s.Top.AddFrame("main_frame", "", s.Content)
	}

	tag := "div"
	if opts.MenuAsSpan {
		tag = "span"
	}
	menu := s.Menu.Add(browser.TextContains(tag, "지출결의서", 0), memory.NewElement(""))
	menu.OnClick = func() {
		button := s.Content.Add(browser.ByName("gift_ask_input", 0), memory.NewElement(""))
		if !opts.NoPopup {
			button.OnClick = func() { s.Browser.Popup(s.Form) }
		}
	}
}

func (s *Site) buildForm(opts Options) {
	s.Form = memory.NewDocument()
	missing := map[string]bool{}
	for _, name := range opts.MissingFields {
		missing[name] = true
	}
	initial := map[string]string{"sday": "20991231", "writer": "홍길동", "tel": "010-0000-0000"}
	for _, name := range FieldNames {
		if missing[name] {
			continue
		}
		s.Fields[name] = s.Form.Add(browser.ByName(name, 0), memory.NewElement(initial[name]))
	}
	for _, label := range TreeLabels {
		s.Tree[label] = s.Form.Add(browser.TextContains("*", label, 0), memory.NewElement(""))
	}
}

// Value returns the current value of a form field, "" when absent.
func (s *Site) Value(name string) string {
	if el, ok := s.Fields[name]; ok {
		return el.Text()
	}
	return ""
}

// TreeAttempts returns the tree labels the bot tried to click, in order.
func (s *Site) TreeAttempts() []string {
	const prefix, suffix = "//*[contains(text(), '", "')]"
	var out []string
	for _, a := range s.Browser.Actions() {
		if a.Op != "find" && a.Op != "miss" {
			continue
		}
		if !strings.HasPrefix(a.Query, prefix) || !strings.HasSuffix(a.Query, suffix) {
			continue
		}
		label := strings.TrimSuffix(strings.TrimPrefix(a.Query, prefix), suffix)
		if label == "신규작성" {
			continue
		}
		out = append(out, label)
	}
	return out
}

// Timeouts are short budgets for tests; the fake never sleeps anyway.
func Timeouts() webform.Timeouts {
	return webform.Timeouts{
		Element: 50 * time.Millisecond,
		Step:    50 * time.Millisecond,
		Tree:    20 * time.Millisecond,
		Popup:   50 * time.Millisecond,
		Probe:   10 * time.Millisecond,
	}
}

// Settings returns driver settings pointing at the fake site.
func Settings() webform.Settings {
	return webform.Settings{
		LoginURL:     LoginURL,
		Username:     "treasurer",
		Password:     "secret",
		WriterName:   "박집사",
		WriterTel:    "010-1234-5678",
		CategoryPath: []string{"다음세대사역위원회", "다음세대지원", "유치부"},
		Timeouts:     Timeouts(),
	}
}
