package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/bigkaa/asset-console/internal/domain/model"
)

// CSVFilename: имя файла выгрузки CSV.
const CSVFilename = "Full_Asset_Report.csv"

var csvHeader = []string{
	"Tag Number", "Description", "Department", "Category", "Quantity",
	"Cost Per Item", "Total Amount", "Depreciation Rate", "Useful Life (Months)",
	"Months in Use", "Remaining Months", "Monthly Depreciation",
	"Accumulated Depreciation", "Condition", "Location", "Department Manager",
	"Assigned User", "Date Registered",
}

// WriteCSV записывает активы в CSV со строкой заголовка.
func WriteCSV(w io.Writer, assets []model.AssetRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, a := range assets {
		if err := cw.Write(csvRow(a)); err != nil {
			return fmt.Errorf("write csv row %s: %w", a.TagNumber, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

func csvRow(a model.AssetRecord) []string {
	return []string{
		a.TagNumber,
		a.ItemDescription,
		a.Department,
		a.Category,
		itoa(a.Quantity),
		a.CostPerItem.String(),
		a.TotalAmount.String(),
		a.DepreciationRate.String(),
		itoa(a.UsefulLifeMonths),
		itoa(a.NumberOfMonthsInUse),
		itoa(a.NumberOfRemainingMonths),
		NullMoney(a.MonthlyDepreciation),
		NullMoney(a.AccumulatedDepreciation),
		a.AssetCondition,
		a.PhysicalLocation,
		personName(a.DepartmentManager),
		personName(a.User),
		a.RegisteredOn(),
	}
}

// personName выводит заполненную ссылку как "Имя Фамилия", иначе N/A.
func personName(p model.PersonRef) string {
	if p.FirstName == "" && p.LastName == "" {
		return "N/A"
	}
	return p.DisplayName()
}
