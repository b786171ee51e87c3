package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"slices"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/domain/rbac"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

// Размеры страниц менеджера ролей.
const rolesPageSize = 10

var rolesPageSizes = []int{5, 10, 20, 50, 100}

// UsersHandler: список пользователей, создание пользователя и менеджер ролей.
type UsersHandler struct {
	users  *service.UserService
	rs     *Responder
	logger *slog.Logger
}

func NewUsersHandler(users *service.UserService, rs *Responder, logger *slog.Logger) *UsersHandler {
	return &UsersHandler{
		users:  users,
		rs:     rs,
		logger: logger.With(slog.String("component", "ui_users")),
	}
}

// HandleList: GET /admin/viewUsers.
func (h *UsersHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, http.StatusOK, model.NewUser{Role: rbac.RoleUser}, nil)
}

// HandleCreate: POST /admin/users.
func (h *UsersHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	u := model.NewUser{
		FirstName: r.FormValue("firstname"),
		LastName:  r.FormValue("lastname"),
		Email:     r.FormValue("email"),
		Password:  r.FormValue("password"),
		Role:      r.FormValue("role"),
	}
	if err := h.users.Create(r.Context(), session(r), u); err != nil {
		if errors.Is(err, service.ErrValidation) {
			u.Password = ""
			h.renderList(w, r, http.StatusUnprocessableEntity, u, err)
			return
		}
		h.rs.fail(w, r, err, "/admin/viewUsers")
		return
	}
	h.rs.redirectWith(w, r, "/admin/viewUsers", kindSuccess, "flash.user_created", "")
}

func (h *UsersHandler) renderList(w http.ResponseWriter, r *http.Request, status int, form model.NewUser, formErr error) {
	users, err := h.users.List(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return
	}

	q := r.URL.Query().Get("q")
	data := pages.UsersData{
		Layout: h.rs.layout(w, r, "title.users", "users"),
		Query:  q,
		New:    form,
		Errors: fieldErrors(formErr),
		Roles:  rbac.RoleOptions(),
	}
	for _, u := range users {
		if report.Search(u.SearchText(), q) {
			data.Users = append(data.Users, u)
		}
	}
	switch {
	case formErr != nil:
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(formErr), "")
	case err != nil:
		h.logger.Error("user list unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	h.rs.page(w, r, status, pages.Users(data))
}

// HandleRoles: GET /admin/roles.
func (h *UsersHandler) HandleRoles(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return
	}
	data := buildRoles(r, users, "/admin/roles")
	data.Layout = h.rs.layout(w, r, "title.roles", "roles")
	if err != nil {
		h.logger.Error("user list unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	h.rs.page(w, r, http.StatusOK, pages.Roles(data))
}

// HandleUpdateRole: POST /admin/roles/{id}.
func (h *UsersHandler) HandleUpdateRole(w http.ResponseWriter, r *http.Request) {
	back := returnPath(r)
	if err := h.users.UpdateRole(r.Context(), session(r), chi.URLParam(r, "id"), r.FormValue("role")); err != nil {
		h.rs.fail(w, r, err, back)
		return
	}
	h.rs.redirectWith(w, r, back, kindSuccess, "flash.role_updated", "")
}

// HandleUnassign: POST /admin/roles/{id}/unassign.
func (h *UsersHandler) HandleUnassign(w http.ResponseWriter, r *http.Request) {
	back := returnPath(r)
	if err := h.users.Unassign(r.Context(), session(r), chi.URLParam(r, "id")); err != nil {
		h.rs.fail(w, r, err, back)
		return
	}
	h.rs.redirectWith(w, r, back, kindSuccess, "flash.role_unassigned", "")
}

// buildRoles разбивает таблицу ролей на страницы. Размер страницы берётся
// из параметра "size" и должен быть одним из rolesPageSizes.
func buildRoles(r *http.Request, users []model.UserRecord, ret string) pages.RolesData {
	size := rolesPageSize
	if n, err := strconv.Atoi(r.URL.Query().Get("size")); err == nil && slices.Contains(rolesPageSizes, n) {
		size = n
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))

	seen := make([]string, 0, len(users))
	for _, u := range users {
		seen = append(seen, u.Role)
	}

	pager := pages.NewPager(page, size, len(users))
	pager.Sizes = rolesPageSizes

	self := ""
	if sess := session(r); sess != nil {
		self = sess.Principal.UserID
	}
	var rows []pages.RoleRow
	for _, u := range pages.Paginate(users, pager) {
		rows = append(rows, pages.RoleRow{User: u, Self: u.ID == self})
	}
	return pages.RolesData{
		Rows:    rows,
		Options: rbac.RoleOptions(seen...),
		Pager:   pager,
		Return:  ret,
	}
}

// returnPath допускает только две страницы, содержащие менеджер ролей.
func returnPath(r *http.Request) string {
	switch ret := r.FormValue("return"); ret {
	case "/superadmin", "/admin/roles":
		return ret
	default:
		return "/admin/roles"
	}
}
