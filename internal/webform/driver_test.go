package webform_test

import (
	"context"
	"reflect"
	"strings"
	"testing"
	"time"

	"webchurch/internal/browser"
	"webchurch/internal/core"
	applog "webchurch/internal/log"
	"webchurch/internal/webform"
	"webchurch/internal/webform/webformtest"
)

func init() {
	browser.PollInterval = time.Millisecond
}

const artSupplies = `{"description":"Art supplies","amount":25000,"date":"2024-03-01","category":"미술교육","purchaser":"김철수","bank":"국민은행","account":"123-456"}`

func parse(t *testing.T, raw string) core.Record {
	t.Helper()
	rec, _, err := core.ParseRecord([]byte(raw))
	if err != nil {
		t.Fatalf("ParseRecord() error = %v", err)
	}
	return rec
}

// runAll drives every step against site and returns the report and the
// summary of the field step.
func runAll(t *testing.T, site *webformtest.Site, settings webform.Settings, rec core.Record) (*webform.Report, webform.StepResult) {
	t.Helper()
	ctx := context.Background()
	page, err := site.Browser.Open(ctx, "about:blank")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	d := webform.NewDriver(site.Browser, page, settings, nil, applog.Discard())
	d.Login(ctx)
	d.OpenMenu(ctx)
	d.OpenNewEntry(ctx)
	d.SwitchToPopup(ctx)
	fields := d.FillFields(ctx, rec)
	return d.Report(), fields
}

func status(t *testing.T, r *webform.Report, step string) webform.StepResult {
	t.Helper()
	res, ok := r.Get(step)
	if !ok {
		t.Fatalf("step %q not in report: %+v", step, r.Results)
	}
	return res
}

func TestDriverFillsExpenseForm(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	report, fields := runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

	if report.Degraded() {
		t.Fatalf("expected a clean run, got %v", report.Err())
	}
	if !fields.OK() {
		t.Fatalf("fields summary = %+v", fields)
	}

	want := map[string]string{
		"subject":   "Art supplies",
		"sday":      "20240301",
		"bank_user": "김철수",
		"bank_name": "국민은행",
		"bank_num":  "123-456",
		"writer":    "박집사",
		"tel":       "010-1234-5678",
	}
	for name, v := range want {
		if got := site.Value(name); got != v {
			t.Errorf("field %s = %q, want %q", name, got, v)
		}
	}

	wantTree := []string{"다음세대사역위원회", "다음세대지원", "유치부", "미술교육"}
	if got := site.TreeAttempts(); !reflect.DeepEqual(got, wantTree) {
		t.Errorf("tree attempts = %v, want %v", got, wantTree)
	}
	for _, label := range wantTree {
		if n := site.Tree[label].Clicks(); n != 1 {
			t.Errorf("tree node %s clicked %d times", label, n)
		}
	}
	if site.Tree["간식비"].Clicks() != 0 {
		t.Errorf("unrelated tree node clicked")
	}

	if got := site.Login.Element(browser.ByName("id", 0).Query).Text(); got != "treasurer" {
		t.Errorf("username = %q", got)
	}
	if got := status(t, report, webform.StepLogin).Detail; got != "submitted via login link" {
		t.Errorf("login detail = %q", got)
	}
}

func TestDriverNeverSubmitsForm(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

	for name, el := range site.Fields {
		if el.Submitted() {
			t.Errorf("form field %s was submitted", name)
		}
	}
}

func TestDriverLoginFallsBackToFormSubmit(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{NoLoginLink: true})
	report, _ := runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

	login := status(t, report, webform.StepLogin)
	if !login.OK() || login.Detail != "submitted via form" {
		t.Fatalf("login = %+v", login)
	}
	if !site.Login.Element(browser.ByName("passwd", 0).Query).Submitted() {
		t.Fatal("password form not submitted")
	}
	if site.Value("subject") != "Art supplies" {
		t.Fatalf("form not filled after fallback login")
	}
}

func TestDriverMenuFallbacks(t *testing.T) {
	cases := []struct {
		name   string
		opts   webformtest.Options
		detail string
	}{
		{"span menu entry", webformtest.Options{MenuAsSpan: true}, "clicked in frame left_frame"},
		{"menu without frame", webformtest.Options{NoMenuFrame: true}, "clicked in top document"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			site := webformtest.NewSite(tc.opts)
			report, _ := runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

			menu := status(t, report, webform.StepMenu)
			if !menu.OK() || menu.Detail != tc.detail {
				t.Fatalf("menu = %+v", menu)
			}
			if report.Degraded() {
				t.Fatalf("unexpected skips: %v", report.Err())
			}
		})
	}
}

func TestDriverContentFrameMatchedByID(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{ContentFrameID: "details-iframe"})
	report, _ := runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

	entry := status(t, report, webform.StepNewEntry)
	if !entry.OK() || entry.Detail != "clicked in frame details-iframe" {
		t.Fatalf("new entry = %+v", entry)
	}
}

func TestDriverWithoutPopupDegrades(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{NoPopup: true})
	report, fields := runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

	if res := status(t, report, webform.StepPopup); res.Status != webform.StatusSkipped {
		t.Fatalf("popup = %+v", res)
	}
	if res := status(t, report, webform.StepFormReady); res.Status != webform.StatusSkipped {
		t.Fatalf("form_ready = %+v", res)
	}
	// Every field is still attempted.
	for _, name := range webformtest.FieldNames {
		if _, ok := report.Get(name); !ok {
			t.Errorf("field %s not attempted", name)
		}
	}
	if fields.OK() {
		t.Fatalf("fields summary should be degraded")
	}
	if _, fatal := report.Fatal(); fatal {
		t.Fatalf("degraded steps must not be fatal")
	}
}

func TestDriverMissingRecordFields(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	report, _ := runAll(t, site, webformtest.Settings(), parse(t, `{"description":"Snacks"}`))

	if site.Value("subject") != "Snacks" {
		t.Errorf("subject = %q", site.Value("subject"))
	}
	// sday is cleared before typing, so an empty date leaves it empty.
	for _, name := range []string{"sday", "bank_user", "bank_name", "bank_num"} {
		if got := site.Value(name); got != "" {
			t.Errorf("field %s = %q, want empty", name, got)
		}
		if res := status(t, report, name); !res.OK() || res.Detail != "(empty)" {
			t.Errorf("field %s result = %+v", name, res)
		}
	}

	wantTree := []string{"다음세대사역위원회", "다음세대지원", "유치부"}
	if got := site.TreeAttempts(); !reflect.DeepEqual(got, wantTree) {
		t.Errorf("tree attempts = %v, want %v", got, wantTree)
	}
	if res := status(t, report, "tree:category"); res.Status != webform.StatusSkipped {
		t.Errorf("tree:category = %+v", res)
	}
	if site.Value("writer") != "박집사" || site.Value("tel") != "010-1234-5678" {
		t.Errorf("identity fields not written after empty record fields")
	}
}

func TestDriverTypesValuesVerbatim(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	// Decomposed jamo for 미술교육 would not match the page label as typed.
	decomposed := "\u1106\u1175\u1109\u116e\u11af\u1100\u116d\u110b\u1172\u11a8"
	raw := `{"description":"  Art supplies ","date":"2024-03-01","category":"` + decomposed + `","purchaser":"김철수 ","bank":"국민은행","account":" 123-456"}`
	report, _ := runAll(t, site, webformtest.Settings(), parse(t, raw))

	want := map[string]string{
		"subject":   "  Art supplies ",
		"bank_user": "김철수 ",
		"bank_num":  " 123-456",
	}
	for name, v := range want {
		if got := site.Value(name); got != v {
			t.Errorf("field %s = %q, want %q", name, got, v)
		}
	}
	if res := status(t, report, "tree:미술교육"); !res.OK() {
		t.Errorf("decomposed category did not match its tree node: %+v", res)
	}
}

func TestDriverMissingFormField(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{MissingFields: []string{"bank_name"}})
	report, fields := runAll(t, site, webformtest.Settings(), parse(t, artSupplies))

	res := status(t, report, "bank_name")
	if res.Status != webform.StatusSkipped || res.Detail != "field not found" {
		t.Fatalf("bank_name = %+v", res)
	}
	if site.Value("bank_num") != "123-456" || site.Value("tel") != "010-1234-5678" {
		t.Fatalf("fields after the missing one were not written")
	}
	if fields.Status != webform.StatusSkipped || !strings.HasPrefix(fields.Detail, "1 ") {
		t.Fatalf("fields summary = %+v", fields)
	}
}

func TestDriverUnknownCategory(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	rec := parse(t, artSupplies)
	rec.Category = "성경학교"
	report, _ := runAll(t, site, webformtest.Settings(), rec)

	if res := status(t, report, "tree:성경학교"); res.Status != webform.StatusSkipped {
		t.Fatalf("tree:성경학교 = %+v", res)
	}
	if site.Value("bank_user") != "김철수" {
		t.Fatalf("bank fields not written after unknown category")
	}
}

func TestDriverIdentityNotConfigured(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	settings := webformtest.Settings()
	settings.WriterName = ""
	settings.WriterTel = ""
	report, _ := runAll(t, site, settings, parse(t, artSupplies))

	for _, name := range []string{"writer", "tel"} {
		res := status(t, report, name)
		if res.Status != webform.StatusSkipped || !strings.HasSuffix(res.Detail, "not set") {
			t.Errorf("%s = %+v", name, res)
		}
	}
	// Left untouched, not cleared.
	if site.Value("writer") != "홍길동" {
		t.Errorf("writer = %q, want the page default", site.Value("writer"))
	}
}

func TestDriverLoginPageMissing(t *testing.T) {
	site := webformtest.NewSite(webformtest.Options{})
	settings := webformtest.Settings()
	settings.LoginURL = "https://church.test/moved.asp"
	report, _ := runAll(t, site, settings, parse(t, artSupplies))

	login := status(t, report, webform.StepLogin)
	if login.Status != webform.StatusSkipped || login.Detail != "login page did not load" {
		t.Fatalf("login = %+v", login)
	}
	// Later steps still ran.
	for _, step := range []string{webform.StepMenu, webform.StepNewEntry, webform.StepPopup, "subject"} {
		if _, ok := report.Get(step); !ok {
			t.Errorf("step %s not attempted", step)
		}
	}
}
