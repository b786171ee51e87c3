package handlers

import (
	"context"
	"encoding/csv"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/bigkaa/asset-console/internal/assetapi"
	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/auth"
	"github.com/bigkaa/asset-console/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/asset-console/internal/ui/middleware"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func TestMain(m *testing.M) {
	if err := i18n.LoadFromEmbedFS(i18n.Init(testLogger()), testLogger()); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

// fakeAPI отдаёт заготовленные данные; errs ломает отдельные методы по имени.
type fakeAPI struct {
	mu sync.Mutex

	assets   []model.AssetRecord
	users    []model.UserRecord
	requests []model.RequestRecord
	errs     map[string]error

	created      []model.AssetRecord
	updated      map[string]model.AssetRecord
	deleted      []string
	newUsers     []model.NewUser
	roles        map[string]string
	newRequests  []model.NewRequest
	statusUpdate map[string]model.RequestStatus
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		errs:         map[string]error{},
		updated:      map[string]model.AssetRecord{},
		roles:        map[string]string{},
		statusUpdate: map[string]model.RequestStatus{},
	}
}

func (f *fakeAPI) fail(method string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errs[method]
}

func (f *fakeAPI) Login(context.Context, model.Credentials) (string, error) {
	return "tok", f.fail("Login")
}

func (f *fakeAPI) ListAssets(context.Context, string) ([]model.AssetRecord, error) {
	return f.assets, f.fail("ListAssets")
}

func (f *fakeAPI) CreateAsset(_ context.Context, _ string, a model.AssetRecord) error {
	if err := f.fail("CreateAsset"); err != nil {
		return err
	}
	f.created = append(f.created, a)
	return nil
}

func (f *fakeAPI) UpdateAsset(_ context.Context, _, id string, a model.AssetRecord) error {
	f.updated[id] = a
	return f.fail("UpdateAsset")
}

func (f *fakeAPI) DeleteAsset(_ context.Context, _, id string) error {
	f.deleted = append(f.deleted, id)
	return f.fail("DeleteAsset")
}

func (f *fakeAPI) ListUsers(context.Context, string) ([]model.UserRecord, error) {
	return f.users, f.fail("ListUsers")
}

func (f *fakeAPI) CreateUser(_ context.Context, _ string, u model.NewUser) error {
	f.newUsers = append(f.newUsers, u)
	return f.fail("CreateUser")
}

func (f *fakeAPI) UpdateRole(_ context.Context, _, userID, role string) error {
	f.roles[userID] = role
	return f.fail("UpdateRole")
}

func (f *fakeAPI) ListRequests(context.Context, string) ([]model.RequestRecord, error) {
	return f.requests, f.fail("ListRequests")
}

func (f *fakeAPI) ListMyRequests(context.Context, string) ([]model.RequestRecord, error) {
	return f.requests, f.fail("ListMyRequests")
}

func (f *fakeAPI) CreateRequest(_ context.Context, _ string, r model.NewRequest) error {
	f.newRequests = append(f.newRequests, r)
	return f.fail("CreateRequest")
}

func (f *fakeAPI) UpdateRequestStatus(_ context.Context, _, id string, s model.RequestStatus) error {
	f.statusUpdate[id] = s
	return f.fail("UpdateRequestStatus")
}

type fakeDecoder struct {
	role string
}

func (d fakeDecoder) Decode(context.Context, string) (service.NewSession, error) {
	return service.NewSession{Principal: rbac.Principal{UserID: "me", Role: d.role, Email: "me@example.com"}}, nil
}

var fixedNow = time.Date(2025, 12, 27, 0, 0, 0, 0, time.UTC)

type env struct {
	api      *fakeAPI
	sessions *service.SessionService
	store    *service.MemorySessionStore
	cookies  *auth.CookieManager
	router   http.Handler
}

func newEnv(t *testing.T, loginRole string) *env {
	t.Helper()
	logger := testLogger()
	api := newFakeAPI()
	store := service.NewMemorySessionStore(100, time.Hour)
	sessions := service.NewSessionService(store, 4*time.Minute, logger)
	cookies, err := auth.NewCookieManager("handler-test", false)
	if err != nil {
		t.Fatal(err)
	}

	rs := NewResponder(cookies, sessions, logger)
	authSvc := service.NewAuthService(api, fakeDecoder{role: loginRole}, sessions, logger)
	assetSvc := service.NewAssetService(api, logger).WithClock(func() time.Time { return fixedNow })
	userSvc := service.NewUserService(api, logger)
	requestSvc := service.NewRequestService(api, logger).WithClock(func() time.Time { return fixedNow })

	authH := NewAuthHandler(authSvc, cookies, rs, logger)
	dashH := NewDashboardHandler(service.NewDashboardService(api, "TZS", logger), userSvc, rs, logger)
	assetH := NewAssetsHandler(assetSvc, userSvc, rs, logger)
	reportH := NewReportsHandler(assetSvc, rs, logger)
	usersH := NewUsersHandler(userSvc, rs, logger)
	reqH := NewRequestsHandler(requestSvc, rs, logger)
	sa := uimiddleware.NewSessionAuth(cookies, sessions, logger)
	admins := []string{rbac.RoleAdmin, rbac.RoleSuperadmin}

	r := chi.NewRouter()
	r.Use(i18n.Middleware(), sa.Load())
	r.Get("/login", authH.HandleLoginPage)
	r.Post("/login", authH.HandleLogin)
	r.Post("/logout", authH.HandleLogout)
	r.Post("/set-language", HandleSetLanguage)
	r.With(sa.Require()).Get("/dashboard", authH.HandleDashboard)
	r.With(sa.RequireAPI()).Post("/session/ping", authH.HandlePing)
	r.Group(func(r chi.Router) {
		r.Use(sa.Require(admins...))
		r.Get("/admin", dashH.HandleAdmin)
		r.Get("/admin/assetForm", assetH.HandleForm)
		r.Post("/admin/assetForm", assetH.HandleCreate)
		r.Get("/admin/viewAsset", assetH.HandleList)
		r.Get("/admin/assets/{id}/edit", assetH.HandleEditForm)
		r.Post("/admin/assets/{id}/edit", assetH.HandleUpdate)
		r.Post("/admin/assets/{id}/delete", assetH.HandleDelete)
		r.Get("/admin/reportPage", reportH.HandlePage)
		r.Get("/admin/reportPage/export.csv", reportH.HandleCSV)
		r.Get("/admin/reportPage/export.pdf", reportH.HandlePDF)
		r.Get("/admin/viewUsers", usersH.HandleList)
		r.Post("/admin/users", usersH.HandleCreate)
		r.Get("/admin/roles", usersH.HandleRoles)
		r.Post("/admin/roles/{id}", usersH.HandleUpdateRole)
		r.Post("/admin/roles/{id}/unassign", usersH.HandleUnassign)
		r.Get("/admin/requests", reqH.HandleAdminList)
		r.Post("/admin/requests/{id}/status", reqH.HandleDecide)
	})
	r.With(sa.Require(rbac.RoleSuperadmin)).Get("/superadmin", dashH.HandleSuperadmin)
	r.Group(func(r chi.Router) {
		r.Use(sa.Require(rbac.RoleUser))
		r.Get("/user", reqH.HandleUserHome)
		r.Post("/user/requests", reqH.HandleCreate)
	})

	return &env{api: api, sessions: sessions, store: store, cookies: cookies, router: r}
}

// signIn открывает сессию и возвращает её cookie.
func (e *env) signIn(t *testing.T, userID, role string) *http.Cookie {
	t.Helper()
	sess, err := e.sessions.Create(context.Background(), service.NewSession{
		Token:     "tok",
		Principal: rbac.Principal{UserID: userID, Role: role, Email: userID + "@example.com"},
	})
	if err != nil {
		t.Fatal(err)
	}
	rec := httptest.NewRecorder()
	if err := e.cookies.SetSession(rec, sess.ID); err != nil {
		t.Fatal(err)
	}
	return rec.Result().Cookies()[0]
}

func (e *env) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// flashOf декодирует cookie уведомления из ответа.
func (e *env) flashOf(t *testing.T, rec *httptest.ResponseRecorder) auth.Flash {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == auth.FlashCookieName && c.Value != "" {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.AddCookie(c)
			f, ok := e.cookies.PopFlash(httptest.NewRecorder(), req)
			if !ok {
				t.Fatal("flash cookie unreadable")
			}
			return f
		}
	}
	return auth.Flash{}
}

func assertRedirect(t *testing.T, rec *httptest.ResponseRecorder, to string) {
	t.Helper()
	if rec.Code != http.StatusFound && rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want redirect; body: %s", rec.Code, rec.Body.String())
	}
	if loc := rec.Header().Get("Location"); loc != to {
		t.Fatalf("Location = %q, want %q", loc, to)
	}
}

func validAssetForm() url.Values {
	return url.Values{
		"tagNumber":       {"TAG-1"},
		"dateOfRegister":  {"2025-01-01"},
		"itemDescription": {"Laptop"},
		"department":      {"Finance"},
		"quantity":        {"2"},
		"category":        {depreciation.ComputersAndAccessories},
		"costPerItem":     {"1,200"},
		"invoiceNumber":   {"INV-9"},
	}
}

func TestLogin_RedirectsByRole(t *testing.T) {
	tests := []struct {
		role string
		want string
	}{
		{rbac.RoleAdmin, "/admin"},
		{rbac.RoleSuperadmin, "/superadmin"},
		{rbac.RoleUser, "/user"},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			e := newEnv(t, tt.role)
			rec := e.do(http.MethodPost, "/login", url.Values{"email": {"a@b.co"}, "password": {"pw"}})
			assertRedirect(t, rec, tt.want)

			var sessionCookie *http.Cookie
			for _, c := range rec.Result().Cookies() {
				if c.Name == auth.SessionCookieName {
					sessionCookie = c
				}
			}
			if sessionCookie == nil {
				t.Fatal("no session cookie")
			}
			assertRedirect(t, e.do(http.MethodGet, "/dashboard", nil, sessionCookie), tt.want)
		})
	}
}

func TestLogin_Failures(t *testing.T) {
	tests := []struct {
		name     string
		loginErr error
		wantCode int
		wantText string
	}{
		{"bad credentials", &assetapi.StatusError{Operation: "login", StatusCode: http.StatusUnauthorized}, http.StatusUnauthorized, "Invalid email or password."},
		{"api down", &assetapi.StatusError{Operation: "login", StatusCode: http.StatusServiceUnavailable}, http.StatusBadGateway, "could not complete the request"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, rbac.RoleAdmin)
			e.api.errs["Login"] = tt.loginErr
			rec := e.do(http.MethodPost, "/login", url.Values{"email": {"a@b.co"}, "password": {"pw"}})
			if rec.Code != tt.wantCode {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if !strings.Contains(rec.Body.String(), tt.wantText) {
				t.Errorf("body lacks %q", tt.wantText)
			}
			if e.store.Len() != 0 {
				t.Error("session created on failed login")
			}
		})
	}
}

func TestLoginPage_SignedInRedirects(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	c := e.signIn(t, "u1", rbac.RoleAdmin)
	assertRedirect(t, e.do(http.MethodGet, "/login", nil, c), "/admin")
}

func TestLogout(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	c := e.signIn(t, "u1", rbac.RoleAdmin)

	rec := e.do(http.MethodPost, "/logout", nil, c)
	assertRedirect(t, rec, "/login")
	if e.store.Len() != 0 {
		t.Error("session survived logout")
	}
	if f := e.flashOf(t, rec); f.Key != "auth.logged_out" {
		t.Errorf("flash = %+v", f)
	}
	assertRedirect(t, e.do(http.MethodGet, "/admin", nil, c), "/login")
}

func TestPing(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	if rec := e.do(http.MethodPost, "/session/ping", nil); rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous ping = %d", rec.Code)
	}
	c := e.signIn(t, "u1", rbac.RoleUser)
	if rec := e.do(http.MethodPost, "/session/ping", nil, c); rec.Code != http.StatusNoContent {
		t.Errorf("ping = %d", rec.Code)
	}
}

func TestRoleGates(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	user := e.signIn(t, "u1", rbac.RoleUser)
	admin := e.signIn(t, "a1", rbac.RoleAdmin)

	assertRedirect(t, e.do(http.MethodGet, "/admin", nil, user), "/unauthorized")
	assertRedirect(t, e.do(http.MethodGet, "/user", nil, admin), "/unauthorized")
	assertRedirect(t, e.do(http.MethodGet, "/superadmin", nil, admin), "/unauthorized")
	assertRedirect(t, e.do(http.MethodGet, "/admin/viewAsset", nil), "/login")
}

func TestAdminDashboard(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.assets = []model.AssetRecord{{ID: "a1", Category: depreciation.MotorVehicles, TotalAmount: decimal.NewFromInt(1234567)}}
	e.api.users = []model.UserRecord{{ID: "u1"}, {ID: "u2"}}

	rec := e.do(http.MethodGet, "/admin", nil, e.signIn(t, "a1", rbac.RoleAdmin))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "TZS 1,234,567") {
		t.Error("total amount missing")
	}
}

func TestAdminDashboard_TransportFailureStillRenders(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.errs["ListAssets"] = &assetapi.StatusError{Operation: "list assets", StatusCode: http.StatusInternalServerError}

	rec := e.do(http.MethodGet, "/admin", nil, e.signIn(t, "a1", rbac.RoleAdmin))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "notice-error") {
		t.Errorf("status = %d, notice shown = %v", rec.Code, strings.Contains(rec.Body.String(), "notice-error"))
	}
}

func TestRejectedTokenEndsSession(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.errs["ListAssets"] = &assetapi.StatusError{Operation: "list assets", StatusCode: http.StatusUnauthorized}
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	rec := e.do(http.MethodGet, "/admin/viewAsset", nil, c)
	assertRedirect(t, rec, "/login")
	if e.store.Len() != 0 {
		t.Error("session not destroyed")
	}
	if f := e.flashOf(t, rec); f.Key != "auth.session_ended" {
		t.Errorf("flash = %+v", f)
	}
}

func TestForbiddenByAPI(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.errs["DeleteAsset"] = &assetapi.StatusError{Operation: "delete asset", StatusCode: http.StatusForbidden}
	rec := e.do(http.MethodPost, "/admin/assets/a1/delete", url.Values{}, e.signIn(t, "a1", rbac.RoleAdmin))
	assertRedirect(t, rec, "/unauthorized")
}

func TestAssetCreate(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	rec := e.do(http.MethodPost, "/admin/assetForm", validAssetForm(), c)
	assertRedirect(t, rec, "/admin/assetForm")
	if f := e.flashOf(t, rec); f.Kind != "success" || f.Key != "flash.asset_created" {
		t.Errorf("flash = %+v", f)
	}
	if len(e.api.created) != 1 {
		t.Fatalf("created %d assets", len(e.api.created))
	}
	got := e.api.created[0]
	if !got.TotalAmount.Equal(decimal.NewFromInt(2400)) || got.UsefulLifeMonths != 36 || got.NumberOfMonthsInUse != 12 {
		t.Errorf("derived values = total %s life %d used %d", got.TotalAmount, got.UsefulLifeMonths, got.NumberOfMonthsInUse)
	}
}

func TestAssetCreate_ValidationRerenders(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	form := validAssetForm()
	form.Set("tagNumber", "")
	form.Set("quantity", "0")

	rec := e.do(http.MethodPost, "/admin/assetForm", form, e.signIn(t, "a1", rbac.RoleAdmin))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(e.api.created) != 0 {
		t.Error("invalid asset reached the API")
	}
	if body := rec.Body.String(); !strings.Contains(body, `value="Laptop"`) || !strings.Contains(body, "field-error") {
		t.Error("form not re-rendered with input and errors")
	}
}

func TestAssetCreate_TransportFailure(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.errs["CreateAsset"] = &assetapi.StatusError{Operation: "create asset", StatusCode: http.StatusBadGateway, Message: "db down"}

	rec := e.do(http.MethodPost, "/admin/assetForm", validAssetForm(), e.signIn(t, "a1", rbac.RoleAdmin))
	assertRedirect(t, rec, "/admin/assetForm")
	if f := e.flashOf(t, rec); f.Key != "error.transport" || f.Detail != "db down" {
		t.Errorf("flash = %+v", f)
	}
}

func TestAssetForm_DefaultsToToday(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	rec := e.do(http.MethodGet, "/admin/assetForm", nil, e.signIn(t, "a1", rbac.RoleAdmin))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `value="2025-12-27"`) {
		t.Errorf("status = %d, date default missing", rec.Code)
	}
}

func TestAssetEditAndDelete(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.assets = []model.AssetRecord{{ID: "a9", TagNumber: "OLD-TAG", Quantity: 1, CostPerItem: decimal.NewFromInt(10)}}
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	rec := e.do(http.MethodGet, "/admin/assets/a9/edit", nil, c)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "OLD-TAG") {
		t.Fatalf("edit form status = %d", rec.Code)
	}

	assertRedirect(t, e.do(http.MethodGet, "/admin/assets/missing/edit", nil, c), "/admin/viewAsset")

	rec = e.do(http.MethodPost, "/admin/assets/a9/edit", validAssetForm(), c)
	assertRedirect(t, rec, "/admin/viewAsset")
	if _, ok := e.api.updated["a9"]; !ok {
		t.Error("update not sent")
	}

	rec = e.do(http.MethodPost, "/admin/assets/a9/delete", url.Values{}, c)
	assertRedirect(t, rec, "/admin/viewAsset")
	if len(e.api.deleted) != 1 || e.api.deleted[0] != "a9" {
		t.Errorf("deleted = %v", e.api.deleted)
	}
}

func TestAssetList_SearchAndPaging(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	for i := 0; i < 12; i++ {
		e.api.assets = append(e.api.assets, model.AssetRecord{ID: "id", TagNumber: "DESK-" + string(rune('A'+i)), Department: "Finance"})
	}
	e.api.assets = append(e.api.assets, model.AssetRecord{ID: "x", TagNumber: "CHAIR-1", Department: "Stores"})
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	body := e.do(http.MethodGet, "/admin/viewAsset?q=desk&page=2", nil, c).Body.String()
	if strings.Count(body, "DESK-") != 2 || strings.Contains(body, "CHAIR-1") {
		t.Errorf("page 2 of the desk search shows %d desks", strings.Count(body, "DESK-"))
	}
	if !strings.Contains(body, "Page 2 of 2") {
		t.Error("pager missing")
	}
}

func TestReportExports(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.assets = []model.AssetRecord{
		{ID: "1", TagNumber: "T1", Category: depreciation.MotorVehicles, Department: "Transport", DateOfRegister: fixedNow},
		{ID: "2", TagNumber: "T2", Category: depreciation.ComputersAndAccessories, Department: "IT", DateOfRegister: fixedNow},
	}
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	page := e.do(http.MethodGet, "/admin/reportPage?department=IT", nil, c).Body.String()
	if !strings.Contains(page, "export.csv?department=IT") {
		t.Error("export links do not carry the filters")
	}

	rec := e.do(http.MethodGet, "/admin/reportPage/export.csv?department=IT", nil, c)
	if rec.Code != http.StatusOK {
		t.Fatalf("csv status = %d", rec.Code)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "Full_Asset_Report.csv") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "T2" {
		t.Errorf("csv rows = %v", rows)
	}

	rec = e.do(http.MethodGet, "/admin/reportPage/export.pdf", nil, c)
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/pdf" ||
		!strings.HasPrefix(rec.Body.String(), "%PDF-") {
		t.Errorf("pdf export: status %d type %q", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestUsers_CreateAndSearch(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.users = []model.UserRecord{
		{ID: "u1", FirstName: "Asha", Email: "asha@example.com", Role: "admin"},
		{ID: "u2", FirstName: "Baraka", Email: "baraka@example.com", Role: "user"},
	}
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	body := e.do(http.MethodGet, "/admin/viewUsers?q=baraka", nil, c).Body.String()
	if !strings.Contains(body, "baraka@example.com") || strings.Contains(body, "asha@example.com") {
		t.Error("search not applied")
	}

	rec := e.do(http.MethodPost, "/admin/users", url.Values{
		"firstname": {"Neema"}, "lastname": {"Mushi"}, "email": {"neema@example.com"},
		"password": {"pw"}, "role": {"admin"},
	}, c)
	assertRedirect(t, rec, "/admin/viewUsers")
	if len(e.api.newUsers) != 1 {
		t.Fatal("user not created")
	}

	rec = e.do(http.MethodPost, "/admin/users", url.Values{"firstname": {"Neema"}}, c)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid user status = %d", rec.Code)
	}
}

func TestRoles(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	for i := 0; i < 7; i++ {
		e.api.users = append(e.api.users, model.UserRecord{ID: "u" + string(rune('0'+i)), Role: "user"})
	}
	e.api.users = append(e.api.users, model.UserRecord{ID: "me", Role: "auditor"})
	c := e.signIn(t, "me", rbac.RoleAdmin)

	body := e.do(http.MethodGet, "/admin/roles?size=5", nil, c).Body.String()
	if strings.Count(body, `class="inline role-form"`) != 5 {
		t.Errorf("page size 5 shows %d rows", strings.Count(body, `class="inline role-form"`))
	}
	if !strings.Contains(body, `<option value="auditor"`) {
		t.Error("role seen in data not offered")
	}

	rec := e.do(http.MethodPost, "/admin/roles/u1", url.Values{"role": {"Admin"}}, c)
	assertRedirect(t, rec, "/admin/roles")
	if e.api.roles["u1"] != "admin" {
		t.Errorf("roles = %v", e.api.roles)
	}

	rec = e.do(http.MethodPost, "/admin/roles/me/unassign", url.Values{"return": {"/superadmin"}}, c)
	assertRedirect(t, rec, "/superadmin")
	if f := e.flashOf(t, rec); f.Key != "error.validation" || !strings.Contains(f.Detail, "own account") {
		t.Errorf("flash = %+v", f)
	}
	if _, ok := e.api.roles["me"]; ok {
		t.Error("self downgrade reached the API")
	}

	rec = e.do(http.MethodPost, "/admin/roles/u2/unassign", url.Values{"return": {"https://evil.example"}}, c)
	assertRedirect(t, rec, "/admin/roles")
}

func TestSuperadminLanding(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.users = []model.UserRecord{{ID: "u1", FirstName: "Asha", Role: "admin"}}
	rec := e.do(http.MethodGet, "/superadmin", nil, e.signIn(t, "root", rbac.RoleSuperadmin))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "/admin/roles/u1") {
		t.Errorf("status = %d, role manager missing", rec.Code)
	}
}

func TestRequests_AdminListAndDecide(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	e.api.requests = []model.RequestRecord{
		{ID: "r1", FirstName: "Asha", AssetType: "Laptop", Status: model.StatusPending},
		{ID: "r2", FirstName: "Baraka", AssetType: "Printer", Status: model.StatusApproved},
	}
	c := e.signIn(t, "a1", rbac.RoleAdmin)

	body := e.do(http.MethodGet, "/admin/requests", nil, c).Body.String()
	if !strings.Contains(body, "Asha") || strings.Contains(body, "Baraka") {
		t.Error("default filter is not Pending")
	}
	body = e.do(http.MethodGet, "/admin/requests?status=All&q=printer", nil, c).Body.String()
	if !strings.Contains(body, "Baraka") || strings.Contains(body, "Asha") {
		t.Error("status All with search failed")
	}

	rec := e.do(http.MethodPost, "/admin/requests/r1/status", url.Values{"status": {"Approved"}}, c)
	assertRedirect(t, rec, "/admin/requests")
	if e.api.statusUpdate["r1"] != model.StatusApproved {
		t.Errorf("status updates = %v", e.api.statusUpdate)
	}

	rec = e.do(http.MethodPost, "/admin/requests/r2/status", url.Values{"status": {"Rejected"}}, c)
	assertRedirect(t, rec, "/admin/requests")
	if f := e.flashOf(t, rec); f.Kind != "error" {
		t.Errorf("deciding an approved request: flash = %+v", f)
	}
	if _, ok := e.api.statusUpdate["r2"]; ok {
		t.Error("approved request changed")
	}
}

func TestUserHome(t *testing.T) {
	e := newEnv(t, rbac.RoleUser)
	e.api.requests = []model.RequestRecord{{ID: "r1", AssetType: "Cartridge", Status: model.StatusRejected}}
	c := e.signIn(t, "u1", rbac.RoleUser)

	body := e.do(http.MethodGet, "/user", nil, c).Body.String()
	if !strings.Contains(body, "Cartridge") || !strings.Contains(body, `value="2025-12-27"`) {
		t.Error("user page incomplete")
	}

	form := url.Values{
		"firstName": {"Asha"}, "lastName": {"Juma"}, "date": {"2025-12-27"}, "department": {"IT"},
		"departmentManager": {"Baraka"}, "assetType": {"Laptop"}, "quantity": {"1"},
	}
	assertRedirect(t, e.do(http.MethodPost, "/user/requests", form, c), "/user")
	if len(e.api.newRequests) != 1 {
		t.Fatal("request not created")
	}

	form.Set("assetType", "Boat")
	if rec := e.do(http.MethodPost, "/user/requests", form, c); rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("invalid request status = %d", rec.Code)
	}
}

func TestSetLanguage(t *testing.T) {
	e := newEnv(t, rbac.RoleAdmin)
	req := httptest.NewRequest(http.MethodPost, "/set-language", strings.NewReader("lang=sw"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Referer", "http://console.local/admin/viewAsset?q=desk")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)

	assertRedirect(t, rec, "/admin/viewAsset?q=desk")
	c := rec.Result().Cookies()
	if len(c) != 1 || c[0].Name != i18n.LangCookieName || c[0].Value != "sw" {
		t.Errorf("cookies = %v", c)
	}

	body := e.do(http.MethodGet, "/login", nil, c[0]).Body.String()
	if !strings.Contains(body, "Ingia") {
		t.Error("login page not in Kiswahili")
	}
}

func TestBackTo(t *testing.T) {
	tests := []struct{ referer, want string }{
		{"", "/dashboard"},
		{"http://host/admin?x=1", "/admin?x=1"},
		{"http://host//evil.example/x", "/dashboard"},
		{"javascript:alert(1)", "/dashboard"},
	}
	for _, tt := range tests {
		if got := backTo(tt.referer); got != tt.want {
			t.Errorf("backTo(%q) = %q, want %q", tt.referer, got, tt.want)
		}
	}
}
