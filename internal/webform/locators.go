package webform

import (
	"strings"
	"time"

	"webchurch/internal/browser"
)

// DefaultProbe bounds lookups in a document that has already loaded.
const DefaultProbe = 500 * time.Millisecond

// Timeouts are the wait budgets of the locator table.
type Timeouts struct {
	Element time.Duration // login field and form marker
	Step    time.Duration // menu, new-entry control, frames
	Tree    time.Duration // each category tree node
	Popup   time.Duration // new form window
	Probe   time.Duration // fields of a loaded form
}

// Locators is the table of every control the bot touches, each with its
// fallback strategies in priority order.
type Locators struct {
	LoginUser     browser.Locator
	LoginPassword browser.Locator
	LoginLink     browser.Locator
	Menu          browser.Locator
	NewEntry      browser.Locator
	FormMarker    browser.Locator
	Subject       browser.Locator
	Date          browser.Locator
	BankUser      browser.Locator
	BankName      browser.Locator
	BankNum       browser.Locator
	Writer        browser.Locator
	Tel           browser.Locator

	tree time.Duration
}

const (
	menuLabel     = "지출결의서"
	newEntryLabel = "신규작성"
)

func NewLocators(t Timeouts) Locators {
	if t.Probe <= 0 {
		t.Probe = DefaultProbe
	}
	return Locators{
		LoginUser:     named("id", t.Element),
		LoginPassword: named("passwd", t.Probe),
		LoginLink: browser.Locator{Field: "login_link", Strategies: []browser.Strategy{
			browser.HrefContains("sendit", t.Probe),
		}},
		Menu: browser.Locator{Field: "menu", Strategies: []browser.Strategy{
			browser.TextContains("div", menuLabel, t.Step),
			browser.TextContains("span", menuLabel, t.Probe),
			browser.TextContains("a", menuLabel, t.Probe),
		}},
		NewEntry: browser.Locator{Field: "new_entry", Strategies: []browser.Strategy{
			browser.ByName("gift_ask_input", t.Step),
			browser.TextContains("*", newEntryLabel, t.Probe),
		}},
		// The subject field doubles as the form's load marker.
		FormMarker: named("subject", t.Element),

		Subject:  named("subject", t.Probe),
		Date:     named("sday", t.Probe),
		BankUser: named("bank_user", t.Probe),
		BankName: named("bank_name", t.Probe),
		BankNum:  named("bank_num", t.Probe),
		Writer:   named("writer", t.Probe),
		Tel:      named("tel", t.Probe),

		tree: t.Tree,
	}
}

// TreeNode locates a node of the budget category tree by its label.
func (l Locators) TreeNode(label string) browser.Locator {
	return browser.Locator{Field: "tree:" + label, Strategies: []browser.Strategy{
		browser.TextContains("*", label, l.tree),
	}}
}

// named matches a form control by name, then by id.
func named(name string, timeout time.Duration) browser.Locator {
	return browser.Locator{Field: name, Strategies: []browser.Strategy{
		browser.ByName(name, timeout),
		browser.ByID(name, timeout),
	}}
}

// isMenuFrame matches the left navigation frame.
func isMenuFrame(f browser.Frame) bool {
	return f.Name == "left_frame" || f.ID == "menu-iframe" || f.Name == "menu-iframe"
}

// isContentFrame matches the frames that host list and detail views.
func isContentFrame(f browser.Frame) bool {
	for _, s := range []string{f.Name, f.ID} {
		s = strings.ToLower(s)
		if strings.Contains(s, "main") || strings.Contains(s, "detail") {
			return true
		}
	}
	return false
}
