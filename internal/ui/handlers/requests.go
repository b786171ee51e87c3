package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

const (
	requestPageSize = 5
	statusAll       = "All"
)

// RequestsHandler: согласование заявок и страница заявок пользователя.
type RequestsHandler struct {
	requests *service.RequestService
	rs       *Responder
	logger   *slog.Logger
}

func NewRequestsHandler(requests *service.RequestService, rs *Responder, logger *slog.Logger) *RequestsHandler {
	return &RequestsHandler{
		requests: requests,
		rs:       rs,
		logger:   logger.With(slog.String("component", "ui_requests")),
	}
}

// HandleAdminList: GET /admin/requests?status=&q=&page=. По умолчанию
// показываются заявки в ожидании.
func (h *RequestsHandler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	reqs, err := h.requests.List(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return
	}

	status := string(model.StatusPending)
	if s := r.URL.Query().Get("status"); s == statusAll {
		status = statusAll
	} else if st, ok := model.ParseRequestStatus(s); ok {
		status = string(st)
	}
	q := r.URL.Query().Get("q")

	var matched []model.RequestRecord
	for _, req := range reqs {
		if status != statusAll && string(req.Status) != status {
			continue
		}
		if report.Search(req.SearchText(), q) {
			matched = append(matched, req)
		}
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	pager := pages.NewPager(page, requestPageSize, len(matched))
	pager.Query = url.Values{"status": {status}}
	if q != "" {
		pager.Query.Set("q", q)
	}

	statuses := make([]string, 0, len(model.RequestStatuses)+1)
	for _, st := range model.RequestStatuses {
		statuses = append(statuses, string(st))
	}
	statuses = append(statuses, statusAll)

	data := pages.RequestsData{
		Layout:   h.rs.layout(w, r, "title.requests", "requests"),
		Status:   status,
		Statuses: statuses,
		Query:    q,
		Requests: pages.Paginate(matched, pager),
		Pager:    pager,
	}
	if err != nil {
		h.logger.Error("request list unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	h.rs.page(w, r, http.StatusOK, pages.Requests(data))
}

// HandleDecide: POST /admin/requests/{id}/status. Затем список
// загружается заново.
func (h *RequestsHandler) HandleDecide(w http.ResponseWriter, r *http.Request) {
	back := "/admin/requests"
	if err := h.requests.Decide(r.Context(), session(r), chi.URLParam(r, "id"), r.FormValue("status")); err != nil {
		h.rs.fail(w, r, err, back)
		return
	}
	h.rs.redirectWith(w, r, back, kindSuccess, "flash.request_decided", "")
}

// HandleUserHome: GET /user.
func (h *RequestsHandler) HandleUserHome(w http.ResponseWriter, r *http.Request) {
	in := service.RequestInput{Date: today(h.requests.Now())}
	h.renderHome(w, r, http.StatusOK, in, nil)
}

// HandleCreate: POST /user/requests.
func (h *RequestsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	in := service.RequestInput{
		FirstName:         r.FormValue("firstName"),
		LastName:          r.FormValue("lastName"),
		Date:              r.FormValue("date"),
		Department:        r.FormValue("department"),
		DepartmentManager: r.FormValue("departmentManager"),
		AssetType:         r.FormValue("assetType"),
		Quantity:          r.FormValue("quantity"),
		Description:       r.FormValue("description"),
	}
	if err := h.requests.Create(r.Context(), session(r), in); err != nil {
		if errors.Is(err, service.ErrValidation) {
			h.renderHome(w, r, http.StatusUnprocessableEntity, in, err)
			return
		}
		h.rs.fail(w, r, err, "/user")
		return
	}
	h.rs.redirectWith(w, r, "/user", kindSuccess, "flash.request_created", "")
}

func (h *RequestsHandler) renderHome(w http.ResponseWriter, r *http.Request, status int, in service.RequestInput, formErr error) {
	mine, err := h.requests.Mine(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/unauthorized")
		return
	}

	data := pages.UserHomeData{
		Layout:     h.rs.layout(w, r, "title.user_home", "user"),
		Input:      in,
		Errors:     fieldErrors(formErr),
		AssetTypes: model.AssetTypes,
		Mine:       mine,
	}
	switch {
	case formErr != nil:
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(formErr), "")
	case err != nil:
		h.logger.Error("own requests unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	h.rs.page(w, r, status, pages.UserHome(data))
}
