package depreciation

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Имена полей формы, влияющих на вычисляемые значения.
const (
	FieldCostPerItem    = "costPerItem"
	FieldQuantity       = "quantity"
	FieldCategory       = "category"
	FieldDateOfRegister = "dateOfRegister"
)

// DateLayout: формат календарной даты в формах и записях.
const DateLayout = "2006-01-02"

// monthLength: фиксированный месяц для периодов использования.
const monthLength = 30 * 24 * time.Hour

var hundred = decimal.NewFromInt(100)

// Form содержит исходные поля формы актива вместе с вычисленными из них
// значениями. Поля хранятся как введены; нечитаемые числа считаются
// нулём.
type Form struct {
	CostPerItem    string
	Quantity       string
	Category       string
	DateOfRegister string

	TotalAmount      decimal.Decimal
	DepreciationRate int
	UsefulLifeMonths int
	// Заданы, только если стоимость, количество, ставка и срок службы положительны.
	MonthlyDepreciation     decimal.NullDecimal
	NumberOfMonthsInUse     *int
	AccumulatedDepreciation decimal.NullDecimal
	// Может быть отрицательным после окончания срока службы.
	NumberOfRemainingMonths int
}

// NewForm строит форму по полям, применяет категорию и вычисляет
// производные значения на момент now.
func NewForm(cost, quantity, category, dateOfRegister string, now time.Time) *Form {
	f := &Form{
		CostPerItem:    cost,
		Quantity:       quantity,
		DateOfRegister: dateOfRegister,
	}
	f.SelectCategory(category)
	f.Recompute(now)
	return f
}

// SelectCategory задаёт категорию и разом сбрасывает ставку, срок службы
// и оставшиеся месяцы по таблице категорий. Неизвестная категория
// даёт нули.
func (f *Form) SelectCategory(name string) {
	f.Category = name
	c, _ := Lookup(name)
	f.DepreciationRate = c.Rate
	f.UsefulLifeMonths = c.UsefulLifeMonths
	f.NumberOfRemainingMonths = c.UsefulLifeMonths
}

// Apply применяет правку одного поля и пересчитывает производные значения.
// Прочие поля только запускают пересчёт.
func (f *Form) Apply(field, value string, now time.Time) {
	switch field {
	case FieldCostPerItem:
		f.CostPerItem = value
	case FieldQuantity:
		f.Quantity = value
	case FieldDateOfRegister:
		f.DateOfRegister = value
	case FieldCategory:
		f.SelectCategory(value)
	}
	f.Recompute(now)
}

// Recompute пересчитывает производные значения по текущим полям.
// Идемпотентен при фиксированном now.
func (f *Form) Recompute(now time.Time) {
	cost := ParseAmount(f.CostPerItem)
	qty := ParseQuantity(f.Quantity)

	f.TotalAmount = cost.Mul(decimal.NewFromInt(qty))

	if !cost.IsPositive() || qty <= 0 || f.UsefulLifeMonths <= 0 || f.DepreciationRate <= 0 {
		f.MonthlyDepreciation = decimal.NullDecimal{}
		f.NumberOfMonthsInUse = nil
		f.AccumulatedDepreciation = decimal.NullDecimal{}
		f.NumberOfRemainingMonths = f.UsefulLifeMonths
		return
	}

	monthly := f.TotalAmount.Div(decimal.NewFromInt(int64(f.UsefulLifeMonths)))
	months := MonthsInUse(f.DateOfRegister, now)
	rate := decimal.NewFromInt(int64(f.DepreciationRate)).Div(hundred)

	f.MonthlyDepreciation = decimal.NewNullDecimal(monthly)
	f.NumberOfMonthsInUse = &months
	f.AccumulatedDepreciation = decimal.NewNullDecimal(
		monthly.Mul(decimal.NewFromInt(int64(months))).Mul(rate).Round(2),
	)
	f.NumberOfRemainingMonths = f.UsefulLifeMonths - months
}

// MonthlyDisplay возвращает месячную амортизацию с двумя знаками
// или пустую строку, если она не задана.
func (f *Form) MonthlyDisplay() string {
	return FormatNull(f.MonthlyDepreciation)
}

// AccumulatedDisplay возвращает накопленную амортизацию с двумя знаками
// или пустую строку, если она не задана.
func (f *Form) AccumulatedDisplay() string {
	return FormatNull(f.AccumulatedDepreciation)
}

// FormatNull форматирует необязательную сумму с двумя знаками.
func FormatNull(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.StringFixed(2)
}

// MonthsInUse возвращает число полных 30-дневных периодов между датой
// регистрации и now. Даты в будущем дают отрицательные значения;
// нечитаемая дата считается текущей.
func MonthsInUse(dateOfRegister string, now time.Time) int {
	registered, ok := ParseDate(dateOfRegister)
	if !ok {
		return 0
	}
	elapsed := now.Sub(registered)
	return int(math.Floor(float64(elapsed) / float64(monthLength)))
}

// ParseDate принимает календарную дату или метку RFC 3339. Календарные
// даты считаются полуночью UTC.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// maxAmountDigits: предел числа цифр в ParseAmount; более длинные числа
// считаются нулём.
const maxAmountDigits = 24

var (
	amountPrefix   = regexp.MustCompile(`^[+-]?(\d+(\.\d+)?|\.\d+)`)
	integerPrefix  = regexp.MustCompile(`^[+-]?\d+`)
	thousandsComma = strings.NewReplacer(",", "")
)

// ParseAmount читает начальное десятичное число из s. Экспоненциальная
// запись не читается ("1e9" это 1). Строка, не начинающаяся с числа,
// или число длиннее maxAmountDigits цифр дают ноль.
func ParseAmount(s string) decimal.Decimal {
	m := amountPrefix.FindString(thousandsComma.Replace(strings.TrimSpace(s)))
	if m == "" || len(strings.TrimLeft(m, "+-.")) > maxAmountDigits+1 {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(strings.TrimPrefix(m, "+"))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// ParseQuantity читает начальное целое из s; дробная часть отбрасывается.
func ParseQuantity(s string) int64 {
	m := integerPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0
	}
	n, err := strconv.ParseInt(m, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
