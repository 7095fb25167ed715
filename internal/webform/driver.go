// Package webform fills the web church expense resolution form. Every step
// is best effort: a failure is recorded in the Report as skipped and the
// next step still runs.
package webform

import (
	"context"
	"errors"
	"fmt"

	"webchurch/internal/browser"
	"webchurch/internal/core"
	applog "webchurch/internal/log"
)

// Settings are the site and operator values the driver needs.
type Settings struct {
	LoginURL string
	Username string
	Password string

	WriterName string
	WriterTel  string

	// CategoryPath is clicked before the record's own category.
	CategoryPath []string

	Timeouts Timeouts
}

// Driver walks one browser session through login, menu navigation, the
// new entry popup and field population.
type Driver struct {
	browser  browser.Browser
	page     browser.Page
	settings Settings
	loc      Locators
	report   *Report
	logger   *applog.Logger

	// pages open before the new entry control was clicked
	known map[string]bool
}

func NewDriver(b browser.Browser, page browser.Page, settings Settings, report *Report, logger *applog.Logger) *Driver {
	if report == nil {
		report = &Report{}
	}
	return &Driver{
		browser:  b,
		page:     page,
		settings: settings,
		loc:      NewLocators(settings.Timeouts),
		report:   report,
		logger:   logger.WithComponent(applog.ComponentForm),
	}
}

// Page returns the window the driver currently works in.
func (d *Driver) Page() browser.Page { return d.page }

func (d *Driver) Report() *Report { return d.report }

func (d *Driver) record(ctx context.Context, res StepResult) StepResult {
	fields := applog.NewFields().
		WithOperation(operation(res.Step)).
		WithStep(res.Step, string(res.Status), res.Detail).
		WithError(res.Err)
	if res.OK() {
		d.logger.DebugContext(ctx, "Step done", fields.ToSlice()...)
	} else {
		d.logger.WarnContext(ctx, "Step skipped", fields.ToSlice()...)
	}
	return d.report.Add(res)
}

func operation(step string) string {
	switch step {
	case StepLogin:
		return applog.OpLogin
	case StepMenu, StepNewEntry, StepPopup, StepFormReady:
		return applog.OpNavigate
	}
	return applog.OpFill
}

// Login opens the login page and submits the configured credentials.
func (d *Driver) Login(ctx context.Context) StepResult {
	d.logger.InfoContext(ctx, "Navigating to login", applog.FieldURL, d.settings.LoginURL)
	if err := d.page.Navigate(ctx, d.settings.LoginURL); err != nil {
		return d.record(ctx, Skipped(StepLogin, "login page did not load", err))
	}

	user, err := browser.Lookup(ctx, d.page, d.loc.LoginUser)
	if err != nil {
		return d.record(ctx, Skipped(StepLogin, "username field not found", err))
	}
	if d.settings.Username == "" {
		d.logger.WarnContext(ctx, "No credentials configured, log in manually in the browser window")
	}
	if err := user.Input(ctx, d.settings.Username); err != nil {
		return d.record(ctx, Skipped(StepLogin, "username not typed", err))
	}

	pw, err := browser.Lookup(ctx, d.page, d.loc.LoginPassword)
	if err != nil {
		return d.record(ctx, Skipped(StepLogin, "password field not found", err))
	}
	if err := pw.Input(ctx, d.settings.Password); err != nil {
		return d.record(ctx, Skipped(StepLogin, "password not typed", err))
	}

	link, err := browser.Lookup(ctx, d.page, d.loc.LoginLink)
	if err == nil {
		if err = link.Click(ctx); err == nil {
			return d.record(ctx, Succeeded(StepLogin, "submitted via login link"))
		}
	}
	d.logger.DebugContext(ctx, "Login link unusable, submitting the form", applog.FieldError, err)

	if err := pw.Submit(ctx); err != nil {
		return d.record(ctx, Skipped(StepLogin, "login form not submitted", err))
	}
	return d.record(ctx, Succeeded(StepLogin, "submitted via form"))
}

// OpenMenu clicks the expense resolution entry of the navigation frame.
func (d *Driver) OpenMenu(ctx context.Context) StepResult {
	var doc browser.Document = d.page
	where := "top document"
	frame, err := browser.WaitFrame(ctx, d.page, isMenuFrame, d.settings.Timeouts.Step)
	if err != nil {
		d.logger.WarnContext(ctx, "Menu frame not found, searching the top document", applog.FieldError, err)
	} else {
		d.logger.DebugContext(ctx, "Menu frame found", applog.FieldFrame, frame.Label())
		doc = frame.Document
		where = "frame " + frame.Label()
	}

	el, err := browser.Lookup(ctx, doc, d.loc.Menu)
	if err != nil {
		return d.record(ctx, Skipped(StepMenu, "menu entry not found in "+where, err))
	}
	if err := el.Click(ctx); err != nil {
		return d.record(ctx, Skipped(StepMenu, "menu entry not clickable", err))
	}
	return d.record(ctx, Succeeded(StepMenu, "clicked in "+where))
}

// OpenNewEntry clicks the new entry control in the first content frame
// that has one. The control opens the form in a new window.
func (d *Driver) OpenNewEntry(ctx context.Context) StepResult {
	frames, err := browser.WaitFrames(ctx, d.page, isContentFrame, d.settings.Timeouts.Step)
	if err != nil {
		return d.record(ctx, Skipped(StepNewEntry, "content frame not found", err))
	}

	d.known, err = browser.KnownPages(ctx, d.browser)
	if err != nil {
		d.known = map[string]bool{d.page.ID(): true}
	}

	var errs []error
	for _, f := range frames {
		el, err := browser.Lookup(ctx, f.Document, d.loc.NewEntry)
		if err == nil {
			err = el.Click(ctx)
		}
		if err != nil {
			d.logger.DebugContext(ctx, "No new entry control in frame", applog.FieldFrame, f.Label(), applog.FieldError, err)
			errs = append(errs, err)
			continue
		}
		return d.record(ctx, Succeeded(StepNewEntry, "clicked in frame "+f.Label()))
	}
	return d.record(ctx, Skipped(StepNewEntry, "new entry control not found", errors.Join(errs...)))
}

// SwitchToPopup makes the window opened by OpenNewEntry the current page.
// Without a new window the driver stays where it is.
func (d *Driver) SwitchToPopup(ctx context.Context) StepResult {
	known := d.known
	if known == nil {
		known = map[string]bool{d.page.ID(): true}
	}
	p, err := browser.WaitNewPage(ctx, d.browser, known, d.settings.Timeouts.Popup)
	if err != nil {
		return d.record(ctx, Skipped(StepPopup, "new window not found, staying in the current window", err))
	}
	d.page = p
	return d.record(ctx, Succeeded(StepPopup, "switched to window "+p.ID()))
}

// FillFields writes rec into the form. Fields are independent: one failing
// does not stop the others. The returned summary is not added to the
// report; each field already is.
func (d *Driver) FillFields(ctx context.Context, rec core.Record) StepResult {
	if _, err := browser.Lookup(ctx, d.page, d.loc.FormMarker); err != nil {
		d.record(ctx, Skipped(StepFormReady, "form did not load", err))
	} else {
		d.record(ctx, Succeeded(StepFormReady, ""))
	}

	before := d.report.Skipped()

	d.fill(ctx, d.loc.Subject, rec.Description, false)
	d.fill(ctx, d.loc.Date, rec.FormDate(), true)

	path := rec.CategoryPath(d.settings.CategoryPath)
	for _, label := range path {
		d.clickTree(ctx, label)
	}
	if len(path) == len(d.settings.CategoryPath) {
		d.record(ctx, Skipped("tree:"+core.FieldCategory, "record has no category", nil))
	}

	d.fill(ctx, d.loc.BankUser, rec.Purchaser, false)
	d.fill(ctx, d.loc.BankName, rec.Bank, false)
	d.fill(ctx, d.loc.BankNum, rec.Account, false)

	d.fillConfigured(ctx, d.loc.Writer, d.settings.WriterName, "WEBCHURCH_WRITER_NAME")
	d.fillConfigured(ctx, d.loc.Tel, d.settings.WriterTel, "WEBCHURCH_WRITER_TEL")

	if n := d.report.Skipped() - before; n > 0 {
		d.logger.WarnContext(ctx, "Form partially filled", "skipped_fields", n)
		return Skipped(StepFields, fmt.Sprintf("%d fields skipped", n), nil)
	}
	return Succeeded(StepFields, "all fields written")
}

func (d *Driver) fill(ctx context.Context, loc browser.Locator, value string, clear bool) StepResult {
	el, err := browser.Lookup(ctx, d.page, loc)
	if err != nil {
		return d.record(ctx, Skipped(loc.Field, "field not found", err))
	}
	if clear {
		if err := el.Clear(ctx); err != nil {
			return d.record(ctx, Skipped(loc.Field, "field not cleared", err))
		}
	}
	if err := el.Input(ctx, value); err != nil {
		return d.record(ctx, Skipped(loc.Field, "value not typed", err))
	}
	detail := value
	if value == "" {
		detail = "(empty)"
	}
	return d.record(ctx, Succeeded(loc.Field, detail))
}

func (d *Driver) fillConfigured(ctx context.Context, loc browser.Locator, value, envKey string) StepResult {
	if value == "" {
		return d.record(ctx, Skipped(loc.Field, envKey+" not set", nil))
	}
	return d.fill(ctx, loc, value, true)
}

func (d *Driver) clickTree(ctx context.Context, label string) StepResult {
	loc := d.loc.TreeNode(label)
	el, err := browser.Lookup(ctx, d.page, loc)
	if err == nil {
		err = el.Click(ctx)
	}
	if err != nil {
		return d.record(ctx, Skipped(loc.Field, "tree node not clickable", err))
	}
	return d.record(ctx, Succeeded(loc.Field, ""))
}
