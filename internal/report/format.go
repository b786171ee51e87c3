package report

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// Пределы усечения для таблицы активов.
const (
	TagLimit         = 10
	InvoiceLimit     = 15
	DepartmentLimit  = 15
	LocationLimit    = 15
	CategoryLimit    = 15
	DescriptionLimit = 20
)

// Truncate укорачивает s до limit рун и добавляет "...".
func Truncate(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit]) + "..."
}

// Money форматирует сумму с разделителями тысяч. Целые суммы без дробной
// части, остальные ровно с двумя знаками: 1234567 -> "1,234,567",
// 1234.5 -> "1,234.50".
func Money(d decimal.Decimal) string {
	d = d.Round(2)
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	whole := humanize.BigComma(d.BigInt())
	if d.IsInteger() {
		return sign + whole
	}
	_, frac, _ := strings.Cut(d.StringFixed(2), ".")
	return sign + whole + "." + frac
}

// MoneyWithCurrency добавляет к Money код валюты.
func MoneyWithCurrency(currency string, d decimal.Decimal) string {
	if currency == "" {
		return Money(d)
	}
	return currency + " " + Money(d)
}

// NullMoney форматирует необязательную сумму с двумя знаками или "".
func NullMoney(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

func itoa(n int64) string {
	return strconv.FormatInt(n, 10)
}
