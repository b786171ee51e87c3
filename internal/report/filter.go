// Пакет report: фильтрация активов, статистика панели, таблицы
// и выгрузки CSV/PDF.
package report

import (
	"net/url"
	"slices"
	"strings"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// All: значение, отключающее фильтр-список.
const All = "All"

// Filter: фильтры страницы отчёта. Даты в формате YYYY-MM-DD, включительно.
type Filter struct {
	Category   string
	Department string
	StartDate  string
	EndDate    string
	Query      string
}

// FilterFromQuery читает фильтры из query-параметров URL.
func FilterFromQuery(q url.Values) Filter {
	f := Filter{
		Category:   strings.TrimSpace(q.Get("category")),
		Department: strings.TrimSpace(q.Get("department")),
		StartDate:  strings.TrimSpace(q.Get("start")),
		EndDate:    strings.TrimSpace(q.Get("end")),
		Query:      strings.TrimSpace(q.Get("q")),
	}
	if f.Category == "" {
		f.Category = All
	}
	if f.Department == "" {
		f.Department = All
	}
	return f
}

// Values кодирует фильтр обратно в query-параметры без значений по умолчанию.
func (f Filter) Values() url.Values {
	v := url.Values{}
	if f.Category != "" && f.Category != All {
		v.Set("category", f.Category)
	}
	if f.Department != "" && f.Department != All {
		v.Set("department", f.Department)
	}
	if f.StartDate != "" {
		v.Set("start", f.StartDate)
	}
	if f.EndDate != "" {
		v.Set("end", f.EndDate)
	}
	if f.Query != "" {
		v.Set("q", f.Query)
	}
	return v
}

// Match сообщает, проходит ли актив все фильтры.
func (f Filter) Match(a model.AssetRecord) bool {
	if f.Category != "" && f.Category != All && a.Category != f.Category {
		return false
	}
	if f.Department != "" && f.Department != All && a.Department != f.Department {
		return false
	}
	// для YYYY-MM-DD лексический порядок совпадает с порядком дат
	day := a.RegisteredOn()
	if f.StartDate != "" && day < f.StartDate {
		return false
	}
	if f.EndDate != "" && day > f.EndDate {
		return false
	}
	return Search(a.SearchText(), f.Query)
}

// Apply возвращает подходящие активы в исходном порядке.
func (f Filter) Apply(assets []model.AssetRecord) []model.AssetRecord {
	out := make([]model.AssetRecord, 0, len(assets))
	for _, a := range assets {
		if f.Match(a) {
			out = append(out, a)
		}
	}
	return out
}

// Search сообщает, содержит ли haystack запрос без учёта регистра.
// Пустой запрос подходит ко всему.
func Search(haystack, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), query)
}

// Options возвращает имеющиеся категории и отделы без повторов, отсортированными.
func Options(assets []model.AssetRecord) (categories, departments []string) {
	seenCat := make(map[string]struct{})
	seenDept := make(map[string]struct{})
	for _, a := range assets {
		if a.Category != "" {
			if _, ok := seenCat[a.Category]; !ok {
				seenCat[a.Category] = struct{}{}
				categories = append(categories, a.Category)
			}
		}
		if a.Department != "" {
			if _, ok := seenDept[a.Department]; !ok {
				seenDept[a.Department] = struct{}{}
				departments = append(departments, a.Department)
			}
		}
	}
	slices.Sort(categories)
	slices.Sort(departments)
	return categories, departments
}
