package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// UserRecord: учётная запись во внешнем API.
type UserRecord struct {
	ID        string
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Role      string
}

func (u *UserRecord) UnmarshalJSON(b []byte) error {
	var w struct {
		ID         string `json:"_id"`
		AltID      string `json:"id"`
		FirstName  string `json:"firstname"`
		FirstName2 string `json:"firstName"`
		LastName   string `json:"lastname"`
		LastName2  string `json:"lastName"`
		Email      string `json:"email"`
		Phone      string `json:"phone"`
		Role       string `json:"role"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return fmt.Errorf("decode user: %w", err)
	}
	*u = UserRecord{
		ID:        firstNonEmpty(w.ID, w.AltID),
		FirstName: firstNonEmpty(w.FirstName, w.FirstName2),
		LastName:  firstNonEmpty(w.LastName, w.LastName2),
		Email:     w.Email,
		Phone:     w.Phone,
		Role:      strings.ToLower(w.Role),
	}
	return nil
}

// FullName возвращает "Имя Фамилия".
func (u UserRecord) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// SearchText объединяет отображаемые поля для полнотекстового поиска.
func (u UserRecord) SearchText() string {
	return strings.ToLower(strings.Join([]string{
		u.ID, u.FirstName, u.LastName, u.Email, u.Phone, u.Role,
	}, " "))
}

// NewUser: тело запроса создания пользователя. Все поля обязательны.
type NewUser struct {
	FirstName string `json:"firstname"`
	LastName  string `json:"lastname"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
}

// Credentials: тело запроса входа.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}
