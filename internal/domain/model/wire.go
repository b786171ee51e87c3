// Пакет model: записи обмена с внешним API активов
// и сессия консоли.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
)

// flexDecimal декодирует JSON-число, числовую строку, "" или null.
// Значения читаются как ввод формы ("1,200" это 1200); нечитаемое
// считается нулём и не ломает всю запись.
type flexDecimal struct {
	decimal.NullDecimal
}

func (f *flexDecimal) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		return nil
	}
	s = strings.TrimSpace(strings.Trim(s, `"`))
	if s == "" {
		return nil
	}
	f.NullDecimal = decimal.NewNullDecimal(depreciation.ParseAmount(s))
	return nil
}

func (f flexDecimal) value() decimal.Decimal {
	if !f.Valid {
		return decimal.Zero
	}
	return f.Decimal
}

func (f flexDecimal) int() int64 {
	return f.value().IntPart()
}

// flexTime декодирует метку RFC 3339 или календарную дату.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		// null и не строки оставляют нулевое время
		return nil
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			f.Time = t
			return nil
		}
	}
	return fmt.Errorf("decode time %q: unsupported format", s)
}

// PersonRef: ссылка на пользователя, которую API возвращает либо как id,
// либо как заполненный объект.
type PersonRef struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
}

func (p *PersonRef) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*p = PersonRef{}
		return nil
	}
	if b[0] == '"' {
		var id string
		if err := json.Unmarshal(b, &id); err != nil {
			return err
		}
		*p = PersonRef{ID: id}
		return nil
	}

	var w struct {
		ID         string `json:"_id"`
		AltID      string `json:"id"`
		FirstName  string `json:"firstname"`
		FirstName2 string `json:"firstName"`
		LastName   string `json:"lastname"`
		LastName2  string `json:"lastName"`
		Email      string `json:"email"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode person reference: %w", err)
	}
	*p = PersonRef{
		ID:        firstNonEmpty(w.ID, w.AltID),
		FirstName: firstNonEmpty(w.FirstName, w.FirstName2),
		LastName:  firstNonEmpty(w.LastName, w.LastName2),
		Email:     w.Email,
	}
	return nil
}

// MarshalJSON записывает только id.
func (p PersonRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ID)
}

// IsZero сообщает, пуста ли ссылка.
func (p PersonRef) IsZero() bool {
	return p.ID == "" && p.FirstName == "" && p.LastName == ""
}

// DisplayName возвращает "Имя Фамилия", id для незаполненной ссылки
// или "N/A".
func (p PersonRef) DisplayName() string {
	name := strings.TrimSpace(p.FirstName + " " + p.LastName)
	switch {
	case name != "":
		return name
	case p.ID != "":
		return p.ID
	default:
		return "N/A"
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// formatDate форматирует дату или "" для нулевого времени.
func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// jsonNumber представляет decimal как JSON-число без кавычек.
func jsonNumber(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}
