// Пакет rbac решает, какие аутентифицированные пользователи могут открыть
// маршрут или выполнить действие. Решение вычисляется при каждом вызове
// и не изменяет сессию.
package rbac

import (
	"sort"
	"strings"
)

// Роли в порядке возрастания привилегий.
const (
	RoleUser       = "user"
	RoleAdmin      = "admin"
	RoleSuperadmin = "superadmin"
)

// roleWeight упорядочивает роли по привилегиям. Неизвестные роли имеют вес 0.
var roleWeight = map[string]int{
	RoleUser:       1,
	RoleAdmin:      2,
	RoleSuperadmin: 3,
}

// Principal: аутентифицированный пользователь сессии.
type Principal struct {
	UserID string
	Role   string
	Email  string
}

// Decision: результат проверки доступа.
type Decision int

const (
	Unauthenticated Decision = iota
	Unauthorized
	Authorized
)

// String возвращает метку решения для метрик.
func (d Decision) String() string {
	switch d {
	case Unauthenticated:
		return "unauthenticated"
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	default:
		return "unknown"
	}
}

// Redirect возвращает маршрут перенаправления для решения или "",
// если доступ разрешён.
func (d Decision) Redirect() string {
	switch d {
	case Unauthenticated:
		return "/login"
	case Unauthorized:
		return "/unauthorized"
	default:
		return ""
	}
}

// Evaluate проверяет пользователя по допустимым ролям. nil означает
// отсутствие аутентификации; пустой набор ролей пропускает любого
// аутентифицированного пользователя.
func Evaluate(p *Principal, acceptable ...string) Decision {
	if p == nil {
		return Unauthenticated
	}
	if len(acceptable) == 0 {
		return Authorized
	}
	if CanAccess(p.Role, acceptable...) {
		return Authorized
	}
	return Unauthorized
}

// CanAccess сообщает, входит ли role в roles. Управляет видимостью
// пунктов меню и кнопок.
func CanAccess(role string, roles ...string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// DashboardPath возвращает стартовый маршрут роли.
func DashboardPath(role string) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleSuperadmin:
		return "/superadmin"
	case RoleUser:
		return "/user"
	default:
		return "/unauthorized"
	}
}

// NormalizeRole приводит роль к нижнему регистру; пустая роль означает user.
func NormalizeRole(role string) string {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return RoleUser
	}
	return role
}

// IsValidRole сообщает, входит ли роль в закрытый набор ролей.
func IsValidRole(role string) bool {
	_, ok := roleWeight[role]
	return ok
}

// IsDowngrade сообщает, понижает ли смена роли
// привилегии.
func IsDowngrade(from, to string) bool {
	return roleWeight[to] < roleWeight[from]
}

// RoleOptions возвращает известные роли и затем прочие роли из данных,
// без повторов и в стабильном порядке.
func RoleOptions(seen ...string) []string {
	opts := []string{RoleUser, RoleAdmin, RoleSuperadmin}
	known := toSet(opts)

	var extra []string
	for _, r := range seen {
		r = NormalizeRole(r)
		if !known[r] {
			known[r] = true
			extra = append(extra, r)
		}
	}
	sort.Strings(extra)
	return append(opts, extra...)
}

func toSet(items []string) map[string]bool {
	s := make(map[string]bool, len(items))
	for _, item := range items {
		s[item] = true
	}
	return s
}
