package handlers

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/bigkaa/asset-console/internal/domain/model"
	"github.com/bigkaa/asset-console/internal/report"
	"github.com/bigkaa/asset-console/internal/service"
	"github.com/bigkaa/asset-console/internal/ui/pages"
)

// ReportsHandler: отчёт по активам и его выгрузки.
type ReportsHandler struct {
	assets *service.AssetService
	rs     *Responder
	logger *slog.Logger
}

func NewReportsHandler(assets *service.AssetService, rs *Responder, logger *slog.Logger) *ReportsHandler {
	return &ReportsHandler{
		assets: assets,
		rs:     rs,
		logger: logger.With(slog.String("component", "ui_reports")),
	}
}

// HandlePage: GET /admin/reportPage?category=&department=&start=&end=&q=.
func (h *ReportsHandler) HandlePage(w http.ResponseWriter, r *http.Request) {
	assets, err := h.assets.List(r.Context(), session(r))
	if err != nil && !errors.Is(err, service.ErrTransport) {
		h.rs.fail(w, r, err, "/dashboard")
		return
	}

	filter := report.FilterFromQuery(r.URL.Query())
	categories, departments := report.Options(assets)
	data := pages.ReportData{
		Layout:      h.rs.layout(w, r, "title.report", "report"),
		Filter:      filter,
		Categories:  categories,
		Departments: departments,
		Assets:      filter.Apply(assets),
	}
	if v := filter.Values(); len(v) > 0 {
		data.ExportQuery = "?" + v.Encode()
	}
	if err != nil {
		h.logger.Error("report data unavailable", slog.String("error", err.Error()))
		data.Notice = h.rs.notice(r.Context(), kindError, service.MessageKey(err), service.Detail(err))
	}
	h.rs.page(w, r, http.StatusOK, pages.Report(data))
}

// HandleCSV: GET /admin/reportPage/export.csv, отфильтрованные строки.
func (h *ReportsHandler) HandleCSV(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "text/csv; charset=utf-8", report.CSVFilename, report.WriteCSV)
}

// HandlePDF: GET /admin/reportPage/export.pdf, отфильтрованные строки.
func (h *ReportsHandler) HandlePDF(w http.ResponseWriter, r *http.Request) {
	h.export(w, r, "application/pdf", report.PDFFilename, report.WritePDF)
}

func (h *ReportsHandler) export(w http.ResponseWriter, r *http.Request, contentType, filename string,
	write func(io.Writer, []model.AssetRecord) error,
) {
	assets, err := h.assets.List(r.Context(), session(r))
	if err != nil {
		h.rs.fail(w, r, err, "/admin/reportPage")
		return
	}
	rows := report.FilterFromQuery(r.URL.Query()).Apply(assets)

	// формируем заранее, чтобы ошибка могла стать страницей ошибки
	var buf bytes.Buffer
	if err := write(&buf, rows); err != nil {
		h.logger.Error("report export failed",
			slog.String("file", filename),
			slog.String("error", err.Error()),
		)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.logger.Info("report exported",
		slog.String("file", filename),
		slog.Int("rows", len(rows)),
		slog.String("user_id", session(r).Principal.UserID),
	)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	_, _ = buf.WriteTo(w)
}
