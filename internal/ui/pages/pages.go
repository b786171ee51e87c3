// Пакет pages: экраны консоли как компоненты templ.
// Разметка лежит во встроенных файлах html/template; каждая страница
// разбирается вместе с общим layout и partials и переводится при отрисовке
// на язык запроса.
package pages

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/a-h/templ"
	"github.com/shopspring/decimal"

	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/ui/i18n"
)

//go:embed templates/*.html
var templateFS embed.FS

// общие шаблоны, входящие в набор каждой страницы
var sharedFiles = []string{"templates/layout.html", "templates/partials.html"}

var sets = mustParse()

// baseFuncs: функции без контекста. "t", "tf" и "lang"
// заглушки, заменяемые при каждой отрисовке.
var baseFuncs = template.FuncMap{
	"t":         func(key string) string { return key },
	"tf":        func(key string, args ...any) string { return key },
	"lang":      func() string { return i18n.LangEnglish },
	"money":     report.Money,
	"nullMoney": report.NullMoney,
	"truncate":  report.Truncate,
	"decimal":   func(d decimal.Decimal) string { return d.String() },
	"percent": func(n, max int) int {
		if max <= 0 {
			return 0
		}
		return n * 100 / max
	},
	"add": func(a, b int) int { return a + b },
	"sub": func(a, b int) int { return a - b },
	"limits": func() map[string]int {
		return map[string]int{
			"tag":         report.TagLimit,
			"invoice":     report.InvoiceLimit,
			"description": report.DescriptionLimit,
			"department":  report.DepartmentLimit,
			"location":    report.LocationLimit,
			"category":    report.CategoryLimit,
		}
	},
	"lower": strings.ToLower,
}

func mustParse() map[string]*template.Template {
	out, err := parseSets(templateFS)
	if err != nil {
		panic(err)
	}
	return out
}

func parseSets(fsys fs.FS) (map[string]*template.Template, error) {
	files, err := fs.Glob(fsys, "templates/*.html")
	if err != nil {
		return nil, err
	}
	out := make(map[string]*template.Template)
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".html")
		if name == "layout" || name == "partials" {
			continue
		}
		patterns := append([]string{file}, sharedFiles...)
		t, err := template.New(name).Funcs(baseFuncs).ParseFS(fsys, patterns...)
		if err != nil {
			return nil, fmt.Errorf("pages: parse %s: %w", name, err)
		}
		out[name] = t
	}
	return out, nil
}

// render возвращает компонент, выполняющий страницу внутри layout.
func render(name string, data any) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		set, ok := sets[name]
		if !ok {
			return fmt.Errorf("pages: unknown page %q", name)
		}
		t, err := set.Clone()
		if err != nil {
			return err
		}
		t.Funcs(template.FuncMap{
			"t":    func(key string) string { return i18n.T(ctx, key) },
			"tf":   func(key string, args ...any) string { return i18n.Tf(ctx, key, args...) },
			"lang": func() string { return i18n.LangFromContext(ctx) },
		})
		return t.ExecuteTemplate(w, "layout", data)
	})
}

// Login: форма входа.
func Login(data LoginData) templ.Component { return render("login", data) }

// Unauthorized: страница отказа в доступе.
func Unauthorized(data UnauthorizedData) templ.Component { return render("unauthorized", data) }

// Dashboard: стартовые страницы admin и superadmin.
func Dashboard(data DashboardData) templ.Component { return render("dashboard", data) }

// AssetForm: форма создания и редактирования актива.
func AssetForm(data AssetFormData) templ.Component { return render("asset_form", data) }

// AssetList: таблица активов.
func AssetList(data AssetListData) templ.Component { return render("asset_list", data) }

// Report: отчёт по активам с фильтрами.
func Report(data ReportData) templ.Component { return render("report", data) }

// Users: список пользователей и форма создания.
func Users(data UsersData) templ.Component { return render("users", data) }

// Roles: менеджер ролей.
func Roles(data RolesData) templ.Component { return render("roles", data) }

// Requests: список согласования заявок.
func Requests(data RequestsData) templ.Component { return render("requests", data) }

// UserHome: форма заявки и заявки пользователя.
func UserHome(data UserHomeData) templ.Component { return render("user_home", data) }
