package pages

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/i18n"
)

func TestMain(m *testing.M) {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	if err := i18n.LoadFromEmbedFS(i18n.Init(logger), logger); err != nil {
		panic(err)
	}
	os.Exit(m.Run())
}

func html(t *testing.T, lang string, render func(ctx context.Context, buf *bytes.Buffer) error) string {
	t.Helper()
	var buf bytes.Buffer
	ctx := i18n.WithLang(context.Background(), lang)
	if err := render(ctx, &buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func adminLayout(title string) Layout {
	return Layout{Title: title, Role: "admin", Email: "asha@example.com", IdleSeconds: 240}
}

func TestAllPagesParse(t *testing.T) {
	for _, name := range []string{
		"login", "unauthorized", "dashboard", "asset_form", "asset_list",
		"report", "users", "roles", "requests", "user_home",
	} {
		if _, ok := sets[name]; !ok {
			t.Errorf("page %q not parsed", name)
		}
	}
}

func TestLogin_TranslatesAndShowsNotice(t *testing.T) {
	data := LoginData{Layout: Layout{Title: "title.login", Notice: &Notice{Kind: "error", Text: "Session over"}}}

	en := html(t, "en", func(ctx context.Context, buf *bytes.Buffer) error { return Login(data).Render(ctx, buf) })
	if !strings.Contains(en, "Sign in") || !strings.Contains(en, "notice-error") || !strings.Contains(en, "Session over") {
		t.Errorf("unexpected login page:\n%s", en)
	}
	if strings.Contains(en, "/logout") {
		t.Error("public page shows logout")
	}

	sw := html(t, "sw", func(ctx context.Context, buf *bytes.Buffer) error { return Login(data).Render(ctx, buf) })
	if !strings.Contains(sw, "Ingia") || !strings.Contains(sw, `lang="sw"`) {
		t.Error("login page not translated")
	}
}

func TestDashboard_SuperadminShowsRoles(t *testing.T) {
	stats := report.Summarize(nil, 4, "TZS")
	data := DashboardData{
		Layout: adminLayout("title.superadmin_dashboard"),
		Stats:  stats,
		Roles: &RolesData{
			Rows:    []RoleRow{{User: model.UserRecord{ID: "u9", FirstName: "Juma", Role: "admin"}}},
			Options: []string{"user", "admin", "superadmin"},
			Pager:   NewPager(1, 10, 1),
			Return:  "/superadmin",
		},
	}
	out := html(t, "en", func(ctx context.Context, buf *bytes.Buffer) error { return Dashboard(data).Render(ctx, buf) })
	for _, want := range []string{"TZS 0", depreciation.IntangibleAssets, "/admin/roles/u9", "/admin/roles/u9/unassign", `data-idle-seconds="240"`} {
		if !strings.Contains(out, want) {
			t.Errorf("dashboard missing %q", want)
		}
	}
}

func TestAssetForm_ShowsDerivedAndErrors(t *testing.T) {
	now := time.Date(2025, 12, 27, 0, 0, 0, 0, time.UTC)
	in := service.AssetInput{CostPerItem: "1200", Quantity: "2", Category: depreciation.ComputersAndAccessories, DateOfRegister: "2025-01-01"}
	data := AssetFormData{
		Layout:     adminLayout("title.asset_form"),
		Action:     "/admin/assetForm",
		Input:      in,
		Derived:    in.Form(now),
		Errors:     map[string]string{"tagNumber": "required"},
		Categories: depreciation.Categories(),
	}
	out := html(t, "en", func(ctx context.Context, buf *bytes.Buffer) error { return AssetForm(data).Render(ctx, buf) })
	for _, want := range []string{"2400.00", "66.67", "required", "Computers &amp; Accessories\" selected"} {
		if !strings.Contains(out, want) {
			t.Errorf("asset form missing %q", want)
		}
	}
}

func TestAssetList_Truncates(t *testing.T) {
	data := AssetListData{
		Layout: adminLayout("title.assets"),
		Assets: []model.AssetRecord{{
			ID:              "a1",
			TagNumber:       "TAG-0000000001",
			ItemDescription: "A very long description of a desk",
			CostPerItem:     decimal.NewFromInt(1500000),
		}},
		Pager: NewPager(1, 10, 1),
	}
	out := html(t, "en", func(ctx context.Context, buf *bytes.Buffer) error { return AssetList(data).Render(ctx, buf) })
	for _, want := range []string{"TAG-000000...", "A very long descript...", "1,500,000", "N/A", "/admin/assets/a1/edit"} {
		if !strings.Contains(out, want) {
			t.Errorf("asset list missing %q", want)
		}
	}
}

func TestRequests_DecisionButtonsOnlyOnPending(t *testing.T) {
	data := RequestsData{
		Layout:   adminLayout("title.requests"),
		Status:   "All",
		Statuses: []string{"Pending", "Approved", "Rejected", "All"},
		Requests: []model.RequestRecord{
			{ID: "r1", Status: model.StatusPending},
			{ID: "r2", Status: model.StatusApproved},
		},
		Pager: NewPager(1, 5, 2),
	}
	out := html(t, "en", func(ctx context.Context, buf *bytes.Buffer) error { return Requests(data).Render(ctx, buf) })
	if !strings.Contains(out, "/admin/requests/r1/status") {
		t.Error("pending request has no decision form")
	}
	if strings.Contains(out, "/admin/requests/r2/status") {
		t.Error("approved request can be decided again")
	}
}

func TestPager(t *testing.T) {
	tests := []struct {
		page, size, total   int
		wantPage, wantPages int
		wantStart, wantEnd  int
	}{
		{1, 10, 0, 1, 1, 0, 0},
		{2, 10, 25, 2, 3, 10, 20},
		{9, 10, 25, 3, 3, 20, 25},
		{0, 5, 7, 1, 2, 0, 5},
	}
	for _, tt := range tests {
		p := NewPager(tt.page, tt.size, tt.total)
		start, end := p.Bounds()
		if p.Page != tt.wantPage || p.TotalPages != tt.wantPages || start != tt.wantStart || end != tt.wantEnd {
			t.Errorf("NewPager(%d,%d,%d) = %+v [%d:%d]", tt.page, tt.size, tt.total, p, start, end)
		}
	}

	items := []int{1, 2, 3, 4, 5, 6, 7}
	if got := Paginate(items, NewPager(2, 5, len(items))); len(got) != 2 || got[0] != 6 {
		t.Errorf("Paginate = %v", got)
	}

	p := NewPager(1, 10, 30)
	p.Sizes = []int{5, 10}
	p.Query = map[string][]string{"q": {"desk"}}
	if got := p.Link(2); got != "?page=2&q=desk&size=10" {
		t.Errorf("Link = %q", got)
	}
}
