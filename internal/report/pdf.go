package report

import (
	"fmt"
	"io"

	"github.com/go-pdf/fpdf"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// PDFFilename: имя файла выгрузки PDF.
const PDFFilename = "Full_Asset_Report.pdf"

const pdfTitle = "Full Asset Report"

type pdfColumn struct {
	title string
	width float64
	align string
	value func(model.AssetRecord) string
}

// Ширины в мм рассчитаны на альбомный A4 с полями 10 мм.
var pdfColumns = []pdfColumn{
	{"Tag", 14, "L", func(a model.AssetRecord) string { return a.TagNumber }},
	{"Invoice", 14, "L", func(a model.AssetRecord) string { return a.InvoiceOrNA() }},
	{"Desc", 24, "L", func(a model.AssetRecord) string { return a.ItemDescription }},
	{"Dept", 16, "L", func(a model.AssetRecord) string { return a.Department }},
	{"Cat", 16, "L", func(a model.AssetRecord) string { return a.Category }},
	{"Qty", 8, "R", func(a model.AssetRecord) string { return itoa(a.Quantity) }},
	{"Cost", 15, "R", func(a model.AssetRecord) string { return Money(a.CostPerItem) }},
	{"Total", 16, "R", func(a model.AssetRecord) string { return Money(a.TotalAmount) }},
	{"Dep %", 9, "R", func(a model.AssetRecord) string { return a.DepreciationRate.String() }},
	{"Life (mo)", 10, "R", func(a model.AssetRecord) string { return itoa(a.UsefulLifeMonths) }},
	{"Used (mo)", 10, "R", func(a model.AssetRecord) string { return itoa(a.NumberOfMonthsInUse) }},
	{"Remain (mo)", 11, "R", func(a model.AssetRecord) string { return itoa(a.NumberOfRemainingMonths) }},
	{"Monthly Dep.", 15, "R", func(a model.AssetRecord) string { return NullMoney(a.MonthlyDepreciation) }},
	{"Accum. Dep.", 15, "R", func(a model.AssetRecord) string { return NullMoney(a.AccumulatedDepreciation) }},
	{"Condition", 14, "L", func(a model.AssetRecord) string { return a.AssetCondition }},
	{"Location", 16, "L", func(a model.AssetRecord) string { return a.PhysicalLocation }},
	{"Manager", 18, "L", func(a model.AssetRecord) string { return personName(a.DepartmentManager) }},
	{"User", 18, "L", func(a model.AssetRecord) string { return personName(a.User) }},
	{"Date", 16, "L", func(a model.AssetRecord) string { return a.RegisteredOn() }},
}

// WritePDF выводит активы альбомной таблицей. Заголовок столбцов
// повторяется на каждой странице.
func WritePDF(w io.Writer, assets []model.AssetRecord) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(10, 10, 10)
	pdf.SetAutoPageBreak(true, 10)
	pdf.SetTitle(pdfTitle, true)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.SetHeaderFunc(func() {
		if pdf.PageNo() == 1 {
			pdf.SetFont("Helvetica", "B", 12)
			pdf.CellFormat(0, 8, pdfTitle, "", 1, "L", false, 0, "")
		}
		pdf.SetFont("Helvetica", "B", 6)
		pdf.SetFillColor(41, 128, 185)
		pdf.SetTextColor(255, 255, 255)
		for _, c := range pdfColumns {
			pdf.CellFormat(c.width, 6, c.title, "1", 0, "C", true, 0, "")
		}
		pdf.Ln(-1)
		pdf.SetFont("Helvetica", "", 6)
		pdf.SetTextColor(0, 0, 0)
		pdf.SetFillColor(245, 245, 245)
	})
	pdf.AddPage()
	_, pageHeight := pdf.GetPageSize()

	for i, a := range assets {
		// разрыв перед строкой, чтобы она не делилась между страницами
		if pdf.GetY()+5 > pageHeight-10 {
			pdf.AddPage()
		}
		fill := i%2 == 1
		for _, c := range pdfColumns {
			text := fitText(pdf, tr(c.value(a)), c.width-1)
			pdf.CellFormat(c.width, 5, text, "1", 0, c.align, fill, 0, "")
		}
		pdf.Ln(-1)
	}

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

// fitText укорачивает s, пока строка не влезет в width текущим шрифтом.
func fitText(pdf *fpdf.Fpdf, s string, width float64) string {
	if pdf.GetStringWidth(s) <= width {
		return s
	}
	r := []rune(s)
	for len(r) > 0 && pdf.GetStringWidth(string(r)+"...") > width {
		r = r[:len(r)-1]
	}
	return string(r) + "..."
}
