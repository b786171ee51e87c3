package report

import (
	"slices"

	"github.com/shopspring/decimal"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/domain/model"
)

// Count: подсчёт с меткой для диаграмм.
type Count struct {
	Label string
	N     int
}

// Stats: показатели панели.
type Stats struct {
	TotalAssets int
	TotalUsers  int
	TotalAmount decimal.Decimal
	Currency    string
	// ByCategory: все известные категории, затем прочие найденные.
	ByCategory []Count
	// ByDate: число активов по дням регистрации, по возрастанию.
	ByDate []Count
}

// AmountDisplay форматирует общую сумму, например "TZS 1,234,567".
func (s Stats) AmountDisplay() string {
	return MoneyWithCurrency(s.Currency, s.TotalAmount)
}

// MaxCategory возвращает наибольшее значение по категориям для масштаба диаграммы.
func (s Stats) MaxCategory() int {
	return maxCount(s.ByCategory)
}

// MaxDate возвращает наибольшее значение за день.
func (s Stats) MaxDate() int {
	return maxCount(s.ByDate)
}

// Summarize вычисляет статистику панели.
func Summarize(assets []model.AssetRecord, totalUsers int, currency string) Stats {
	s := Stats{
		TotalAssets: len(assets),
		TotalUsers:  totalUsers,
		TotalAmount: decimal.Zero,
		Currency:    currency,
	}

	byCat := make(map[string]int)
	byDate := make(map[string]int)
	for _, a := range assets {
		s.TotalAmount = s.TotalAmount.Add(a.TotalAmount)
		byCat[a.Category]++
		if day := a.RegisteredOn(); day != "" {
			byDate[day]++
		}
	}

	known := depreciation.CategoryNames()
	for _, name := range known {
		s.ByCategory = append(s.ByCategory, Count{Label: name, N: byCat[name]})
	}
	var extra []string
	for name := range byCat {
		if name != "" && !slices.Contains(known, name) {
			extra = append(extra, name)
		}
	}
	slices.Sort(extra)
	for _, name := range extra {
		s.ByCategory = append(s.ByCategory, Count{Label: name, N: byCat[name]})
	}

	days := make([]string, 0, len(byDate))
	for day := range byDate {
		days = append(days, day)
	}
	slices.Sort(days)
	for _, day := range days {
		s.ByDate = append(s.ByDate, Count{Label: day, N: byDate[day]})
	}
	return s
}

func maxCount(counts []Count) int {
	m := 0
	for _, c := range counts {
		m = max(m, c.N)
	}
	return m
}
