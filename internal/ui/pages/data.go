package pages

import (
	"net/url"
	"strconv"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
)

// Notice: переведённое уведомление, показываемое один раз.
type Notice struct {
	Kind string // success, error, info
	Text string
}

// Layout: общие данные всех страниц.
type Layout struct {
	// Title: ключ перевода.
	Title  string
	Nav    string
	Role   string
	Email  string
	Notice *Notice
	// IdleSeconds задаёт клиентский таймер неактивности; 0 на публичных страницах.
	IdleSeconds int
}

// Authenticated сообщает, показывать ли навигацию.
func (l Layout) Authenticated() bool { return l.Role != "" }

// IsAdmin сообщает, видит ли пользователь навигацию администратора.
func (l Layout) IsAdmin() bool { return l.Role == "admin" || l.Role == "superadmin" }

// Pager описывает одну страницу списка.
type Pager struct {
	Page       int
	PageSize   int
	Total      int
	TotalPages int
	// Размеры в выборе размера страницы, пусто для фиксированного.
	Sizes []int
	// Query переносит прочие параметры списка в ссылки страниц.
	Query url.Values
}

// NewPager ограничивает page диапазоном для total элементов.
func NewPager(page, size, total int) Pager {
	if size < 1 {
		size = 1
	}
	pages := (total + size - 1) / size
	if pages < 1 {
		pages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pages {
		page = pages
	}
	return Pager{Page: page, PageSize: size, Total: total, TotalPages: pages}
}

// Bounds возвращает границы среза текущей страницы.
func (p Pager) Bounds() (int, int) {
	start := (p.Page - 1) * p.PageSize
	end := start + p.PageSize
	if start > p.Total {
		start = p.Total
	}
	if end > p.Total {
		end = p.Total
	}
	return start, end
}

func (p Pager) HasPrev() bool { return p.Page > 1 }
func (p Pager) HasNext() bool { return p.Page < p.TotalPages }

// Link возвращает query-строку для страницы n.
func (p Pager) Link(n int) string {
	q := url.Values{}
	for k, v := range p.Query {
		q[k] = v
	}
	q.Set("page", strconv.Itoa(n))
	if len(p.Sizes) > 0 {
		q.Set("size", strconv.Itoa(p.PageSize))
	}
	return "?" + q.Encode()
}

// Paginate оставляет элементы текущей страницы.
func Paginate[T any](items []T, p Pager) []T {
	start, end := p.Bounds()
	return items[start:end]
}

type LoginData struct {
	Layout
	Email string
}

type UnauthorizedData struct {
	Layout
}

// DashboardData: данные /admin и /superadmin. Roles задаётся
// только для superadmin.
type DashboardData struct {
	Layout
	Stats report.Stats
	Roles *RolesData
}

// AssetFormData: данные форм создания и редактирования.
type AssetFormData struct {
	Layout
	Action     string
	Editing    bool
	Input      service.AssetInput
	Derived    *depreciation.Form
	Errors     map[string]string
	Users      []model.UserRecord
	Categories []depreciation.Category
}

type AssetListData struct {
	Layout
	Query  string
	Assets []model.AssetRecord
	Pager  Pager
}

type ReportData struct {
	Layout
	Filter      report.Filter
	Categories  []string
	Departments []string
	Assets      []model.AssetRecord
	ExportQuery string
}

type UsersData struct {
	Layout
	Query  string
	Users  []model.UserRecord
	New    model.NewUser
	Errors map[string]string
	Roles  []string
}

// RoleRow: пользователь в менеджере ролей.
type RoleRow struct {
	User model.UserRecord
	// Self отмечает строку самого пользователя.
	Self bool
}

type RolesData struct {
	Layout
	Rows    []RoleRow
	Options []string
	Pager   Pager
	// Action: страница, на которую возвращаются формы ролей.
	Return string
}

type RequestsData struct {
	Layout
	Status   string
	Statuses []string
	Query    string
	Requests []model.RequestRecord
	Pager    Pager
}

type UserHomeData struct {
	Layout
	Input      service.RequestInput
	Errors     map[string]string
	AssetTypes []string
	Mine       []model.RequestRecord
}
