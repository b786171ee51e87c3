package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/asset-console/internal/domain/depreciation"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

const assetPageSize = 10

// AssetsHandler: форма актива и таблица активов.
type AssetsHandler struct {
	assets *service.AssetService
	users  *service.UserService
	rs     *Responder
	logger *slog.Logger
}

func NewAssetsHandler(assets *service.AssetService, users *service.UserService, rs *Responder, logger *slog.Logger) *AssetsHandler {
	return &AssetsHandler{
		assets: assets,
		users:  users,
		rs:     rs,
		logger: logger.With(slog.String("component", "ui_assets")),
	}
}

// HandleForm: GET /admin/assetForm.
func (h *AssetsHandler) HandleForm(w http.ResponseWriter, r *http.Request) {
	in := service.AssetInput{DateOfRegister: today(h.assets.Now())}
	h.renderForm(w, r, http.StatusOK, "/admin/assetForm", false, in, nil)
}

// HandleCreate: POST /admin/assetForm. После сохранения форма очищается.
func (h *AssetsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in := assetInputFromForm(r)
	if _, err := h.assets.Create(r.Context(), session(r), in); err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, "/admin/assetForm", false, in, err)
			return
		}
		h.rs.fail(w, r, err, "/admin/assetForm")
		return
	}
	h.rs.redirectWith(w, r, "/admin/assetForm", kindSuccess, "flash.asset_created", "")
}

// HandleEditForm: GET /admin/assets/{id}/edit.
func (h *AssetsHandler) HandleEditForm(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a, err := h.assets.Get(r.Context(), session(r), id)
	if err != nil {
		h.rs.fail(w, r, err, "/admin/viewAsset")
		return
	}
	h.renderForm(w, r, http.StatusOK, editPath(id), true, service.InputFromRecord(a), nil)
}

// HandleUpdate: POST /admin/assets/{id}/edit.
func (h *AssetsHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	in := assetInputFromForm(r)
	if _, err := h.assets.Update(r.Context(), session(r), id, in); err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.renderForm(w, r, http.StatusUnprocessableEntity, editPath(id), true, in, err)
			return
		}
		h.rs.fail(w, r, err, "/admin/viewAsset")
		return
	}
	h.rs.redirectWith(w, r, "/admin/viewAsset", kindSuccess, "flash.asset_updated", "")
}

// HandleDelete: POST /admin/assets/{id}/delete.
func (h *AssetsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.assets.Delete(r.Context(), session(r), chi.URLParam(r, "id")); err != nil {
		h.rs.fail(w, r, err, "/admin/viewAsset")
		return
	}
	h.rs.redirectWith(w, r, "/admin/viewAsset", kindSuccess, "flash.asset_deleted", "")
}

// HandleList: GET /admin/viewAsset?q=&page=.
func (h *AssetsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.List(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return
	}

	q := r.URL.Query().Get("q")
	matched := assets[:0:0]
	for _, a := range assets {
		if report.Search(a.SearchText(), q) {
			matched = append(matched, a)
		}
	}
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pager := pages.NewPager(page, assetPageSize, len(matched))
	if q != "" {
		pager.Query = url.Values{"q": {q}}
	}

	data := pages.AssetListData{
		Layout: h.rs.layout(w, r, "title.assets", "assets"),
		Query:  q,
		Assets: pages.Paginate(matched, pager),
		Pager:  pager,
	}
	if err != nil {
		h.logger.Error("asset list unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	h.rs.page(w, r, http.StatusOK, pages.AssetList(data))
}

// renderForm выводит форму актива с производными значениями in. Список
// пользователей заполняет выбор руководителя и пользователя; если он
// не загрузился, форма всё равно выводится.
func (h *AssetsHandler) renderForm(w http.ResponseWriter, r *http.Request, status int, action string, editing bool, in service.AssetInput, formErr error) {
	data := pages.AssetFormData{
		Layout:     h.rs.layout(w, r, "title.asset_form", "asset_form"),
		Action:     action,
		Editing:    editing,
		Input:      in,
		Derived:    in.Form(h.assets.Now()),
		Errors:     fieldErrors(formErr),
		Categories: depreciation.Categories(),
	}
	if editing {
		data.Title = "title.asset_edit"
		data.Nav = "assets"
	}

	users, err := h.users.List(r.Context(), session(r))
	switch {
	case err == nil:
		data.Users = users
	case errors.Is(err, service.ErrAuthenticationMissing):
		h.rs.fail(w, r, err, action)
		return
	default:
		h.logger.Warn("user list unavailable for asset form", slog.String("error", err.Error()))
	}

	if formErr != nil {
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(formErr), "")
	}
	h.rs.page(w, r, status, pages.AssetForm(data))
}

func assetInputFromForm(r *http.Request) service.AssetInput {
	return service.AssetInput{
		TagNumber:         r.FormValue("tagNumber"),
		DateOfRegister:    r.FormValue("dateOfRegister"),
		ItemDescription:   r.FormValue("itemDescription"),
		Department:        r.FormValue("department"),
		DepartmentManager: r.FormValue("departmentManager"),
		User:              r.FormValue("user"),
		PhysicalLocation:  r.FormValue("physicalLocation"),
		AssetCondition:    r.FormValue("assetCondition"),
		Quantity:          r.FormValue("quantity"),
		Category:          r.FormValue("category"),
		CostPerItem:       r.FormValue("costPerItem"),
		InvoiceNumber:     r.FormValue("invoiceNumber"),
	}
}

func editPath(id string) string {
	return "/admin/assets/" + url.PathEscape(id) + "/edit"
}
