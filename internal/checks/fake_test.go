package checks

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jpalmerr/sitewait"
	"github.com/jpalmerr/sitewait/internal/driver"
)

const fakeBase = "http://shop.test"

type product struct {
	name  string
	price float64
}

var fakeProducts = []product{
	{"Sauce Labs Backpack", 29.99},
	{"Sauce Labs Bike Light", 9.99},
	{"Sauce Labs Bolt T-Shirt", 15.99},
	{"Sauce Labs Fleece Jacket", 49.99},
	{"Sauce Labs Onesie", 7.99},
	{"Test.allTheThings() T-Shirt (Red)", 15.99},
}

var sortLabels = []struct{ value, label string }{
	{"az", "Name (A to Z)"},
	{"za", "Name (Z to A)"},
	{"lohi", "Price (low to high)"},
	{"hilo", "Price (high to low)"},
}

// fakeSite is an in-memory model of the demo store that answers the exact
// selectors the checks use.
type fakeSite struct {
	mu sync.Mutex

	page     string
	url      string
	user     string
	pass     string
	loggedIn bool
	redirect bool
	banner   string
	sort     string
	cart     []string
	windows  int
	closed   bool

	// urlLag delays the post-login redirect by this many page reads.
	urlLag int
	// ignoreSort leaves the product list in its default order.
	ignoreSort bool
	// staleReads makes the next n list reads fail as stale.
	staleReads int
	// silentDialogs stops the alerts page from raising dialogs.
	silentDialogs bool
	title         string
	// stiffSelect makes double-click leave the field text unselected.
	stiffSelect bool
	// singleListbox turns the list box into a single-choice select.
	singleListbox bool
	styles        map[string]string

	selected  bool
	clipboard string
	viewport  [2]int
	listbox   []int

	armed   []driver.DialogResponse
	handled []driver.DialogEvent
}

var _ driver.Driver = (*fakeSite)(nil)

var listboxOptions = []string{"USA", "Russia", "Japan", "Mexico", "India", "Malaysia", "Greece", "Germany"}

func newFakeSite() *fakeSite {
	return &fakeSite{
		title:   "Swag Labs",
		sort:    "az",
		windows: 1,
		styles: map[string]string{
			"background-color": "rgba(61, 220, 145, 1)",
			"font-family":      `"DM Sans", Arial, sans-serif`,
		},
	}
}

// aliases maps the XPath function and axis lookups the checks use onto the
// plain selectors the fake understands.
var aliases = map[string]string{
	"//input[contains(@name, 'user')]":            selUsername,
	"//input[@name='user-name' and @type='text']": selUsername,
	"//input[contains(@name, 'pass')]":            selPassword,
	"//input[@name='pass' or @type='password']":   selPassword,
	"//input[starts-with(@class, 'submit')]":      selLoginButton,
	"(//form//following::input)[2]":               selLoginButton,
	"(//form//following-sibling::div)[2]//button": selErrorButton,
	"//input[@type='submit']//preceding::div[1]":  "//div[contains(@class,'error-message-container')]",
	"(//form//following-sibling::div)[2]":         "//div[contains(@class,'error-message-container')]",
}

func canon(sel string) string {
	if c, ok := aliases[sel]; ok {
		return c
	}
	return sel
}

func (f *fakeSite) Open(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	path := strings.TrimPrefix(url, fakeBase)
	switch path {
	case "/", "":
		f.page = "login"
		f.banner = ""
	case "/inventory.html":
		f.page = "inventory"
	case "/cart.html":
		f.page = "cart"
	default:
		switch {
		case strings.HasSuffix(url, "alerts.html"):
			f.page = "alerts"
		case url == DefaultListboxURL || strings.HasSuffix(url, "multiselect.html"):
			f.page = "listbox"
			f.listbox = nil
		default:
			return fmt.Errorf("fake site: no page %s", url)
		}
	}
	if (f.page == "inventory" || f.page == "cart") && !f.loggedIn {
		f.page = "login"
		path = "/"
	}
	f.url = fakeBase + path
	return nil
}

func (f *fakeSite) Title(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page == "alerts" {
		return "Testing Alerts", nil
	}
	return f.title, nil
}

func (f *fakeSite) CurrentURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advance()
	return f.url
}

// advance completes a pending post-login redirect once urlLag reads have
// passed.
func (f *fakeSite) advance() {
	if !f.redirect {
		return
	}
	if f.urlLag > 0 {
		f.urlLag--
		return
	}
	f.redirect = false
	f.page = "inventory"
	f.url = fakeBase + "/inventory.html"
}

func (f *fakeSite) PageSource(ctx context.Context) (string, error) {
	return "<html></html>", nil
}

func (f *fakeSite) Locate(sel string) sitewait.Locator {
	return sitewait.LocatorFunc(func(ctx context.Context) (sitewait.Element, error) {
		f.mu.Lock()
		defer f.mu.Unlock()
		els := f.query(sel)
		if len(els) == 0 {
			return nil, sitewait.Fail(sitewait.FailureNotFound, errors.New(sel))
		}
		return els[0], nil
	})
}

func (f *fakeSite) LocateAll(ctx context.Context, sel string) ([]sitewait.Element, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	els := f.query(sel)
	out := make([]sitewait.Element, len(els))
	for i, el := range els {
		if f.staleReads > 0 {
			el.stale = true
		}
		out[i] = el
	}
	if f.staleReads > 0 {
		f.staleReads--
	}
	return out, nil
}

func (f *fakeSite) Fill(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sel = canon(sel)
	f.selected = false
	switch {
	case f.page == "login" && sel == selUsername:
		f.user = value
	case f.page == "login" && sel == selPassword:
		f.pass = value
	default:
		return sitewait.Failf(sitewait.FailureNotInteractable, "fill %s", sel)
	}
	return nil
}

func (f *fakeSite) Click(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.click(sel)
}

func (f *fakeSite) click(sel string) error {
	sel = canon(sel)
	switch f.page {
	case "login":
		if sel == selUsername || sel == selPassword {
			f.selected = false
			return nil
		}
		if sel == selErrorButton {
			if f.banner == "" {
				break
			}
			f.banner = ""
			return nil
		}
		if sel != selLoginButton {
			break
		}
		switch {
		case f.user == "":
			f.banner = "Epic sadface: Username is required"
		case f.pass == "":
			f.banner = "Epic sadface: Password is required"
		case f.user != DefaultUsername || f.pass != DefaultPassword:
			f.banner = "Epic sadface: Username and password do not match any user in this service"
		default:
			f.loggedIn = true
			f.redirect = true
		}
		return nil
	case "inventory":
		var n int
		if _, err := fmt.Sscanf(sel, "(//button[text()='Add to cart'])[%d]", &n); err == nil {
			names := f.sortedNames()
			if n < 1 || n > len(names) {
				return sitewait.Fail(sitewait.FailureNotFound, errors.New(sel))
			}
			f.cart = append(f.cart, names[n-1])
			return nil
		}
	case "alerts":
		if f.silentDialogs {
			return nil
		}
		typ := strings.TrimSuffix(strings.TrimPrefix(sel, "//a[@id='"), "']")
		resp := driver.DialogResponse{Action: driver.DialogDismiss}
		if len(f.armed) > 0 {
			resp = f.armed[0]
			f.armed = f.armed[1:]
		}
		f.handled = append(f.handled, driver.DialogEvent{Type: typ, Message: typ + "?", Action: resp.Action})
		return nil
	}
	return sitewait.Failf(sitewait.FailureNotFound, "click %s on %s page", sel, f.page)
}

func (f *fakeSite) SelectOption(ctx context.Context, sel, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "inventory" || sel != selSort {
		return sitewait.Failf(sitewait.FailureNotFound, "select %s", sel)
	}
	for _, s := range sortLabels {
		if s.value == value {
			f.sort = value
			return nil
		}
	}
	return fmt.Errorf("no option with value %q", value)
}

func (f *fakeSite) SelectIndex(ctx context.Context, sel string, index int) error {
	if index < 0 || index >= len(sortLabels) {
		return fmt.Errorf("no option at index %d", index)
	}
	return f.SelectOption(ctx, sel, sortLabels[index].value)
}

func (f *fakeSite) IsMultiple(ctx context.Context, sel string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.page == "listbox" && sel == selListbox && !f.singleListbox, nil
}

func (f *fakeSite) SelectIndexes(ctx context.Context, sel string, indexes []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "listbox" || sel != selListbox {
		return sitewait.Failf(sitewait.FailureNotFound, "select %s", sel)
	}
	for _, i := range indexes {
		if i < 0 || i >= len(listboxOptions) {
			return fmt.Errorf("no option at index %d", i)
		}
	}
	if f.singleListbox {
		f.listbox = indexes[len(indexes)-1:]
		return nil
	}
	f.listbox = slices.Clone(indexes)
	return nil
}

func (f *fakeSite) SelectedValues(ctx context.Context, sel string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "listbox" || sel != selListbox {
		return nil, sitewait.Failf(sitewait.FailureNotFound, "select %s", sel)
	}
	var values []string
	for i, opt := range listboxOptions {
		if slices.Contains(f.listbox, i) {
			values = append(values, opt)
		}
	}
	return values, nil
}

func (f *fakeSite) DoubleClick(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "login" || canon(sel) != selUsername {
		return sitewait.Failf(sitewait.FailureNotFound, "double-click %s", sel)
	}
	f.selected = !f.stiffSelect && f.user != ""
	return nil
}

// Press understands copy from the username field and paste into the
// password field.
func (f *fakeSite) Press(ctx context.Context, sel, keys string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "login" {
		return sitewait.Failf(sitewait.FailureNotFound, "press %s", sel)
	}
	switch {
	case keys == "ControlOrMeta+c" && canon(sel) == selUsername:
		if f.selected {
			f.clipboard = f.user
		}
	case keys == "ControlOrMeta+v" && canon(sel) == selPassword:
		f.pass += f.clipboard
	default:
		return fmt.Errorf("fake site: unsupported keys %q on %s", keys, sel)
	}
	return nil
}

func (f *fakeSite) Submit(ctx context.Context, sel string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "login" {
		return sitewait.Failf(sitewait.FailureNotFound, "submit %s", sel)
	}
	switch canon(sel) {
	case selUsername, selPassword, selLoginButton:
		return f.click(selLoginButton)
	}
	return fmt.Errorf("fake site: %s is not inside a form", sel)
}

func (f *fakeSite) CSSValue(ctx context.Context, sel, property string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.page != "login" || canon(sel) != selLoginButton {
		return "", sitewait.Failf(sitewait.FailureNotFound, "css %s", sel)
	}
	return f.styles[property], nil
}

func (f *fakeSite) SetViewport(ctx context.Context, width, height int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewport = [2]int{width, height}
	return nil
}

func (f *fakeSite) InputValue(ctx context.Context, sel string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch canon(sel) {
	case selUsername:
		return f.user, nil
	case selPassword:
		return f.pass, nil
	}
	return "", sitewait.Failf(sitewait.FailureNotFound, "value %s", sel)
}

func (f *fakeSite) ArmDialog(resp driver.DialogResponse) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.armed = append(f.armed, resp)
}

func (f *fakeSite) NextDialog(ctx context.Context) (driver.DialogEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.handled) == 0 {
		return driver.DialogEvent{}, sitewait.Fail(sitewait.FailureNoDialog, nil)
	}
	ev := f.handled[0]
	f.handled = f.handled[1:]
	return ev, nil
}

func (f *fakeSite) OpenWindows(ctx context.Context, n int, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows += n
	return nil
}

func (f *fakeSite) WindowCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.windows
}

func (f *fakeSite) CloseOtherWindows(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	titles := make([]string, f.windows-1)
	for i := range titles {
		titles[i] = f.title
	}
	f.windows = 1
	return titles, nil
}

func (f *fakeSite) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeSite) sorted() []product {
	list := slices.Clone(fakeProducts)
	order := f.sort
	if f.ignoreSort {
		order = "az"
	}
	slices.SortStableFunc(list, func(a, b product) int {
		switch order {
		case "za":
			return strings.Compare(b.name, a.name)
		case "lohi":
			return cmp.Compare(a.price, b.price)
		case "hilo":
			return cmp.Compare(b.price, a.price)
		}
		return strings.Compare(a.name, b.name)
	})
	return list
}

func (f *fakeSite) sortedNames() []string {
	var names []string
	for _, p := range f.sorted() {
		names = append(names, p.name)
	}
	return names
}

func (f *fakeSite) sortLabel() string {
	for _, s := range sortLabels {
		if s.value == f.sort {
			return s.label
		}
	}
	return ""
}

// query evaluates the selectors the checks use against the current page.
func (f *fakeSite) query(sel string) []*fakeEl {
	f.advance()
	one := func(text string, attrs map[string]string) []*fakeEl {
		return []*fakeEl{{site: f, sel: sel, text: text, attrs: attrs, visible: true, enabled: true}}
	}
	sel = canon(sel)

	switch f.page {
	case "login":
		switch sel {
		case selUsername:
			return one("", map[string]string{"id": "user-name", "placeholder": "Username", "type": "text"})
		case selPassword:
			return one("", map[string]string{"id": "password", "placeholder": "Password", "type": "password"})
		case selLoginButton:
			return one("", map[string]string{"id": "login-button", "value": "Login", "type": "submit"})
		case selErrorButton:
			if f.banner == "" {
				return nil
			}
			return one("", map[string]string{"class": "error-button"})
		case "//div[contains(@class,'error-message-container')]":
			if f.banner == "" {
				return one("", map[string]string{"class": "error-message-container"})
			}
			return one(f.banner, map[string]string{"class": "error-message-container error"})
		case selErrorBanner:
			if f.banner == "" {
				return nil
			}
			return one(f.banner, nil)
		case "//h4[text()='Accepted usernames are:']/parent::div":
			return one("Accepted usernames are:\nstandard_user\nlocked_out_user", map[string]string{"class": "login_credentials"})
		case "//div[@class='form_group']/ancestor::div[1]":
			return one("", map[string]string{"class": "login-box"})
		case "//div[@class='login-box']//descendant::div[1]":
			return one("", map[string]string{"class": "form_group"})
		case "//div[@class='login-box']/descendant::div[@class='form_group']":
			return append(one("", nil), one("", nil)...)
		}
	case "inventory":
		switch sel {
		case selTitle:
			return one("Products", nil)
		case selSort:
			return one("", map[string]string{"class": "product_sort_container"})
		case selActiveSort:
			return one(f.sortLabel(), nil)
		case selCartBadge:
			if len(f.cart) == 0 {
				return nil
			}
			return one(fmt.Sprint(len(f.cart)), nil)
		case selItemName, selItemPrice:
			var els []*fakeEl
			for _, p := range f.sorted() {
				text := p.name
				if sel == selItemPrice {
					text = fmt.Sprintf("$%.2f", p.price)
				}
				els = append(els, one(text, nil)...)
			}
			return els
		}
		var n int
		if _, err := fmt.Sscanf(sel, "(//button[text()='Add to cart'])[%d]", &n); err == nil && n >= 1 && n <= len(fakeProducts) {
			return one("Add to cart", nil)
		}
		for _, p := range fakeProducts {
			if sel == fmt.Sprintf("//div[text()='%.2f']", p.price) {
				return one(fmt.Sprintf("$%.2f", p.price), nil)
			}
		}
	case "listbox":
		switch sel {
		case selListbox:
			return one("", map[string]string{"name": "FromLB"})
		case selListbox + "/option":
			var els []*fakeEl
			for _, opt := range listboxOptions {
				els = append(els, one(opt, map[string]string{"value": opt})...)
			}
			return els
		}
	case "cart":
		if sel == "//div[@class='cart_item']/div/a/div[@class='inventory_item_name']" {
			var els []*fakeEl
			for _, name := range f.cart {
				els = append(els, one(name, nil)...)
			}
			return els
		}
	}
	return nil
}

type fakeEl struct {
	site    *fakeSite
	sel     string
	text    string
	attrs   map[string]string
	visible bool
	enabled bool
	stale   bool
}

func (e *fakeEl) check() error {
	if e.stale {
		return sitewait.Fail(sitewait.FailureStaleReference, errors.New(e.sel))
	}
	return nil
}

func (e *fakeEl) Text(ctx context.Context) (string, error) {
	return e.text, e.check()
}

func (e *fakeEl) Attribute(ctx context.Context, name string) (string, error) {
	return e.attrs[name], e.check()
}

func (e *fakeEl) Visible(ctx context.Context) (bool, error) {
	return e.visible, e.check()
}

func (e *fakeEl) Enabled(ctx context.Context) (bool, error) {
	return e.enabled, e.check()
}

func (e *fakeEl) Click(ctx context.Context) error {
	if err := e.check(); err != nil {
		return err
	}
	e.site.mu.Lock()
	defer e.site.mu.Unlock()
	return e.site.click(e.sel)
}
