package frontapi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/gofiber/fiber/v2"
	"github.com/zachmann/go-utils/duration"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/data-lunch/dlunch/auth"
	"github.com/data-lunch/dlunch/auth/provider"
	"github.com/data-lunch/dlunch/storage"
)

var testDBCounter atomic.Int64

type testEnv struct {
	app *fiber.App
	ac  *auth.AuthContext
}

func basicConf() auth.Config {
	ba := auth.DefaultBasicAuthConf()
	return auth.Config{
		Auth: auth.Conf{
			OAuthExpiry:  duration.DurationOption(time.Hour),
			CookieSecret: "front-secret",
		},
		BasicAuth: &ba,
	}
}

func newTestEnv(t *testing.T, conf auth.Config) testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:frontapi_%d?mode=memory&cache=shared", testDBCounter.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := storage.NewStorageFromDB(db)
	if err != nil {
		t.Fatalf("NewStorageFromDB: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	ac, err := auth.NewAuthContext(conf, s.Backends())
	if err != nil {
		t.Fatalf("NewAuthContext: %v", err)
	}
	if err = ac.InitializeFlags(); err != nil {
		t.Fatalf("InitializeFlags: %v", err)
	}
	p, err := provider.New(ac)
	if err != nil {
		t.Fatalf("provider.New: %v", err)
	}
	app := fiber.New()
	app.Use(p.Session())
	p.Register(app)
	Register(app.Group("/api/v1"), p)
	return testEnv{
		app: app,
		ac:  ac,
	}
}

func (env testEnv) addUser(t *testing.T, user, password string, privileged, admin bool) {
	t.Helper()
	u := auth.NewAuthUser(env.ac, user)
	if privileged {
		if err := u.AddPrivilegedUser(admin); err != nil {
			t.Fatalf("AddPrivilegedUser: %v", err)
		}
	}
	if err := u.AddUserHashedPassword(password); err != nil {
		t.Fatalf("AddUserHashedPassword: %v", err)
	}
}

func (env testEnv) login(t *testing.T, user, password string) []*http.Cookie {
	t.Helper()
	form := url.Values{
		"username": {user},
		"password": {password},
	}
	req := httptest.NewRequest(http.MethodPost, provider.LoginPath, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp := env.do(t, req, nil)
	var cookies []*http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == provider.UserCookie || c.Name == provider.IDTokenCookie {
			cookies = append(cookies, c)
		}
	}
	if len(cookies) != 2 {
		t.Fatalf("login as %s failed: %v", user, resp.Cookies())
	}
	return cookies
}

func (env testEnv) do(t *testing.T, req *http.Request, cookies []*http.Cookie) *http.Response {
	t.Helper()
	for _, c := range cookies {
		req.AddCookie(c)
	}
	resp, err := env.app.Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func jsonRequest(method, path, body string) *http.Request {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		t.Fatalf("decode body: %v", err)
	}
}

func TestAnonymousRejected(t *testing.T) {
	env := newTestEnv(t, basicConf())
	for _, path := range []string{"/api/v1/me", "/api/v1/orders/gate", "/api/v1/guest_password"} {
		resp := env.do(t, jsonRequest(http.MethodGet, path, ""), nil)
		if resp.StatusCode != http.StatusUnauthorized {
			t.Fatalf("%s: expected 401, got %d", path, resp.StatusCode)
		}
	}
}

func TestMe(t *testing.T) {
	env := newTestEnv(t, basicConf())
	env.addUser(t, "alice", "abc123", true, true)
	env.addUser(t, "dave", "guestpw", false, false)

	var me meRes
	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/me", ""), env.login(t, "alice", "abc123")), &me)
	if me.User != "alice" || !me.IsAdmin || me.IsGuest || me.GuestOverride || !me.CanPlaceOrder {
		t.Fatalf("unexpected /me for alice: %+v", me)
	}
	if me.AuthType != auth.AuthTypeBasic {
		t.Fatalf("expected auth type %q, got %q", auth.AuthTypeBasic, me.AuthType)
	}
	override, err := auth.NewAuthUser(env.ac, "alice").GuestOverride()
	if err != nil || override {
		t.Fatalf("expected guest override flag to be false: %v %v", override, err)
	}

	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/me", ""), env.login(t, "dave", "guestpw")), &me)
	if me.User != "dave" || me.IsAdmin || !me.IsGuest {
		t.Fatalf("unexpected /me for dave: %+v", me)
	}
}

func TestGuestOverride(t *testing.T) {
	env := newTestEnv(t, basicConf())
	env.addUser(t, "bob", "abc123", true, false)
	env.addUser(t, "dave", "guestpw", false, false)
	bob := env.login(t, "bob", "abc123")

	resp := env.do(t, jsonRequest(http.MethodPut, "/api/v1/me/guest_override", `{"value":true}`), bob)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var me meRes
	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/me", ""), bob), &me)
	if !me.IsGuest || !me.GuestOverride {
		t.Fatalf("expected bob to act as guest: %+v", me)
	}

	resp = env.do(
		t, jsonRequest(http.MethodPut, "/api/v1/me/guest_override", `{"value":true}`), env.login(t, "dave", "guestpw"),
	)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for guest, got %d", resp.StatusCode)
	}
}

func TestChangePassword(t *testing.T) {
	env := newTestEnv(t, basicConf())
	env.addUser(t, "alice", "abc123", true, false)
	cookies := env.login(t, "alice", "abc123")

	var res passwordRes
	resp := env.do(
		t, jsonRequest(
			http.MethodPost, "/api/v1/me/password",
			`{"old_password":"wrong","new_password":"N3w!passw","repeat_new_password":"N3w!passw"}`,
		), cookies,
	)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
	decode(t, resp, &res)
	if res.Reason != auth.ReasonIncorrectOldPassword {
		t.Fatalf("expected reason %q, got %q", auth.ReasonIncorrectOldPassword, res.Reason)
	}

	resp = env.do(
		t, jsonRequest(
			http.MethodPost, "/api/v1/me/password",
			`{"old_password":"abc123","new_password":"weak","repeat_new_password":"weak"}`,
		), cookies,
	)
	decode(t, resp, &res)
	if resp.StatusCode != http.StatusBadRequest || res.Reason != auth.ReasonWeakPassword {
		t.Fatalf("expected weak password rejection, got %d %q", resp.StatusCode, res.Reason)
	}

	resp = env.do(
		t, jsonRequest(
			http.MethodPost, "/api/v1/me/password",
			`{"old_password":"abc123","new_password":"N3w!passw","repeat_new_password":"N3w!passw"}`,
		), cookies,
	)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	cleared := false
	for _, c := range resp.Cookies() {
		if c.Name == provider.UserCookie && c.Value == "" {
			cleared = true
		}
	}
	if !cleared {
		t.Fatal("expected session cookie to be cleared")
	}
	res = passwordRes{}
	decode(t, resp, &res)
	if res.LogoutAfter != auth.LogoutDelay.Seconds() {
		t.Fatalf("expected logout after %v, got %v", auth.LogoutDelay.Seconds(), res.LogoutAfter)
	}
	last := res.Notifications[len(res.Notifications)-1]
	if last.Message != "Password updated, logging out" {
		t.Fatalf("unexpected notification: %+v", last)
	}
	env.login(t, "alice", "N3w!passw")
}

func TestGuestPassword(t *testing.T) {
	env := newTestEnv(t, basicConf())
	env.addUser(t, "alice", "abc123", true, false)
	env.addUser(t, "dave", "guestpw", false, false)

	resp := env.do(t, jsonRequest(http.MethodGet, "/api/v1/guest_password", ""), env.login(t, "dave", "guestpw"))
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for guests, got %d", resp.StatusCode)
	}

	alice := env.login(t, "alice", "abc123")
	var first, second struct {
		Password string `json:"password"`
	}
	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/guest_password", ""), alice), &first)
	if first.Password == "" {
		t.Fatal("expected a generated guest password")
	}
	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/guest_password", ""), alice), &second)
	if second.Password != first.Password {
		t.Fatalf("expected stable guest password, got %q and %q", first.Password, second.Password)
	}
	env.login(t, auth.GuestUsername, first.Password)
}

func TestOrderGate(t *testing.T) {
	env := newTestEnv(t, basicConf())
	env.addUser(t, "alice", "abc123", true, true)
	env.addUser(t, "bob", "abc123", true, false)
	alice := env.login(t, "alice", "abc123")
	bob := env.login(t, "bob", "abc123")

	var gate gateRes
	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/orders/gate", ""), bob), &gate)
	if gate.NoMoreOrders || !gate.CanPlaceOrder {
		t.Fatalf("expected open gate: %+v", gate)
	}

	resp := env.do(t, jsonRequest(http.MethodPut, "/api/v1/orders/gate", `{"no_more_orders":true}`), bob)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for non admin, got %d", resp.StatusCode)
	}

	resp = env.do(t, jsonRequest(http.MethodPut, "/api/v1/orders/gate", `{"no_more_orders":true}`), alice)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, env.do(t, jsonRequest(http.MethodGet, "/api/v1/orders/gate", ""), bob), &gate)
	if !gate.NoMoreOrders || gate.CanPlaceOrder {
		t.Fatalf("expected closed gate: %+v", gate)
	}
}

func TestNoAuth(t *testing.T) {
	env := newTestEnv(t, auth.Config{})
	var me meRes
	resp := env.do(t, jsonRequest(http.MethodGet, "/api/v1/me", ""), nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	decode(t, resp, &me)
	if me.User != "" || me.IsGuest || me.IsAdmin || !me.CanPlaceOrder {
		t.Fatalf("unexpected /me without auth: %+v", me)
	}
	resp = env.do(t, jsonRequest(http.MethodPost, "/api/v1/me/password", `{}`), nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 without basic auth, got %d", resp.StatusCode)
	}
}
