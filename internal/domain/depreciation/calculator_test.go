package depreciation

import (
	"strings"
	"testing"
	"time"
)

var fixedNow = time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)

// daysAgo возвращает дату за n дней до fixedNow.
func daysAgo(n int) string {
	return fixedNow.AddDate(0, 0, -n).Format(DateLayout)
}

func TestCategories(t *testing.T) {
	want := map[string][2]int{
		ComputersAndAccessories: {33, 36},
		FurnitureAndEquipments:  {20, 60},
		IntangibleAssets:        {10, 120},
		LandAndBuildings:        {5, 240},
		LeaseholdImprovement:    {20, 60},
		MotorVehicles:           {20, 60},
		PlanAndMachinery:        {25, 48},
	}

	cats := Categories()
	if len(cats) != len(want) {
		t.Fatalf("Categories() has %d entries, want %d", len(cats), len(want))
	}
	for _, c := range cats {
		w, ok := want[c.Name]
		if !ok {
			t.Errorf("unexpected category %q", c.Name)
			continue
		}
		if c.Rate != w[0] || c.UsefulLifeMonths != w[1] {
			t.Errorf("%s = (%d, %d), want (%d, %d)", c.Name, c.Rate, c.UsefulLifeMonths, w[0], w[1])
		}
	}

	if _, ok := Lookup("computers & accessories"); ok {
		t.Error("Lookup matched a category with different case")
	}
}

func TestRecompute_WorkedExample(t *testing.T) {
	f := NewForm("1200", "2", ComputersAndAccessories, daysAgo(360), fixedNow)

	if got := f.TotalAmount.StringFixed(2); got != "2400.00" {
		t.Errorf("TotalAmount = %s, want 2400.00", got)
	}
	if got := f.MonthlyDisplay(); got != "66.67" {
		t.Errorf("MonthlyDepreciation = %s, want 66.67", got)
	}
	if f.NumberOfMonthsInUse == nil || *f.NumberOfMonthsInUse != 12 {
		t.Fatalf("NumberOfMonthsInUse = %v, want 12", f.NumberOfMonthsInUse)
	}
	if got := f.AccumulatedDisplay(); got != "264.00" {
		t.Errorf("AccumulatedDepreciation = %s, want 264.00", got)
	}
	if f.NumberOfRemainingMonths != 24 {
		t.Errorf("NumberOfRemainingMonths = %d, want 24", f.NumberOfRemainingMonths)
	}
}

func TestRecompute_Gate(t *testing.T) {
	tests := []struct {
		name     string
		cost     string
		quantity string
		category string
		total    string
	}{
		{"missing cost", "", "2", MotorVehicles, "0.00"},
		{"unparseable cost", "abc", "2", MotorVehicles, "0.00"},
		{"zero quantity", "1000", "0", MotorVehicles, "0.00"},
		{"negative cost", "-10", "2", MotorVehicles, "-20.00"},
		{"unknown category", "1000", "2", "Spaceships", "2000.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewForm(tt.cost, tt.quantity, tt.category, daysAgo(90), fixedNow)
			if got := f.TotalAmount.StringFixed(2); got != tt.total {
				t.Errorf("TotalAmount = %s, want %s", got, tt.total)
			}
			if f.MonthlyDepreciation.Valid {
				t.Error("MonthlyDepreciation set although the gate is closed")
			}
			if f.NumberOfMonthsInUse != nil {
				t.Error("NumberOfMonthsInUse set although the gate is closed")
			}
			if f.AccumulatedDepreciation.Valid {
				t.Error("AccumulatedDepreciation set although the gate is closed")
			}
		})
	}
}

func TestSelectCategory(t *testing.T) {
	for _, c := range Categories() {
		t.Run(c.Name, func(t *testing.T) {
			f := NewForm("1200", "2", MotorVehicles, daysAgo(400), fixedNow)
			f.SelectCategory(c.Name)

			if f.DepreciationRate != c.Rate || f.UsefulLifeMonths != c.UsefulLifeMonths {
				t.Errorf("rate/life = %d/%d, want %d/%d",
					f.DepreciationRate, f.UsefulLifeMonths, c.Rate, c.UsefulLifeMonths)
			}
			if f.NumberOfRemainingMonths != c.UsefulLifeMonths {
				t.Errorf("NumberOfRemainingMonths = %d, want %d right after selection",
					f.NumberOfRemainingMonths, c.UsefulLifeMonths)
			}
		})
	}

	f := &Form{}
	f.Apply(FieldCategory, "Unknown", fixedNow)
	if f.DepreciationRate != 0 || f.UsefulLifeMonths != 0 || f.NumberOfRemainingMonths != 0 {
		t.Errorf("unknown category left %d/%d/%d, want zeros",
			f.DepreciationRate, f.UsefulLifeMonths, f.NumberOfRemainingMonths)
	}
}

func TestApply_FieldByField(t *testing.T) {
	f := &Form{DateOfRegister: daysAgo(65)}

	f.Apply(FieldCostPerItem, "500", fixedNow)
	if f.MonthlyDepreciation.Valid {
		t.Fatal("monthly set before quantity and category")
	}
	f.Apply(FieldQuantity, "3", fixedNow)
	if got := f.TotalAmount.StringFixed(2); got != "1500.00" {
		t.Errorf("TotalAmount = %s, want 1500.00", got)
	}
	f.Apply(FieldCategory, PlanAndMachinery, fixedNow)

	if got := f.MonthlyDisplay(); got != "31.25" {
		t.Errorf("MonthlyDepreciation = %s, want 31.25", got)
	}
	if *f.NumberOfMonthsInUse != 2 {
		t.Errorf("NumberOfMonthsInUse = %d, want 2", *f.NumberOfMonthsInUse)
	}
	// 31.25 * 2 * 0.25
	if got := f.AccumulatedDisplay(); got != "15.63" {
		t.Errorf("AccumulatedDepreciation = %s, want 15.63", got)
	}
	if f.NumberOfRemainingMonths != 46 {
		t.Errorf("NumberOfRemainingMonths = %d, want 46", f.NumberOfRemainingMonths)
	}
}

func TestRecompute_Idempotent(t *testing.T) {
	f := NewForm("999.99", "7", FurnitureAndEquipments, daysAgo(400), fixedNow)
	first := *f
	firstMonths := *f.NumberOfMonthsInUse

	f.Recompute(fixedNow)
	f.Recompute(fixedNow)

	if !f.TotalAmount.Equal(first.TotalAmount) ||
		!f.MonthlyDepreciation.Decimal.Equal(first.MonthlyDepreciation.Decimal) ||
		!f.AccumulatedDepreciation.Decimal.Equal(first.AccumulatedDepreciation.Decimal) ||
		*f.NumberOfMonthsInUse != firstMonths ||
		f.NumberOfRemainingMonths != first.NumberOfRemainingMonths {
		t.Error("Recompute changed derived values for identical inputs")
	}
}

func TestRecompute_ClosedGateIgnoresHistory(t *testing.T) {
	edited := NewForm("1200", "2", ComputersAndAccessories, daysAgo(360), fixedNow)
	edited.Apply(FieldCostPerItem, "", fixedNow)
	fresh := NewForm("", "2", ComputersAndAccessories, daysAgo(360), fixedNow)

	if edited.NumberOfRemainingMonths != fresh.NumberOfRemainingMonths {
		t.Errorf("NumberOfRemainingMonths = %d after edit, %d when built fresh",
			edited.NumberOfRemainingMonths, fresh.NumberOfRemainingMonths)
	}
	if fresh.NumberOfRemainingMonths != 36 {
		t.Errorf("NumberOfRemainingMonths = %d, want 36", fresh.NumberOfRemainingMonths)
	}
	if edited.MonthlyDepreciation.Valid || edited.NumberOfMonthsInUse != nil {
		t.Error("derived values kept after the cost was cleared")
	}
}

func TestRecompute_RemainingMayGoNegative(t *testing.T) {
	f := NewForm("100", "1", ComputersAndAccessories, daysAgo(40*30), fixedNow)
	if f.NumberOfRemainingMonths != -4 {
		t.Errorf("NumberOfRemainingMonths = %d, want -4", f.NumberOfRemainingMonths)
	}
}

func TestMonthsInUse(t *testing.T) {
	tests := []struct {
		name string
		date string
		want int
	}{
		{"today", fixedNow.Format(DateLayout), 0},
		{"29 days", daysAgo(29), 0},
		{"30 days", daysAgo(30), 1},
		{"timestamp", fixedNow.AddDate(0, 0, -61).Format(time.RFC3339), 2},
		{"future", fixedNow.AddDate(0, 0, 5).Format(DateLayout), -1},
		{"garbage", "soon", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MonthsInUse(tt.date, fixedNow); got != tt.want {
				t.Errorf("MonthsInUse(%q) = %d, want %d", tt.date, got, tt.want)
			}
		})
	}
}

func TestParseInputs(t *testing.T) {
	amounts := map[string]string{
		"1200":        "1200",
		" 12.5 ":      "12.5",
		"1,250,000":   "1250000",
		"3 pcs":       "3",
		".5":          "0.5",
		"abc":         "0",
		"":            "0",
		"1e99999999":  "1",
		"1e-99999999": "1",
		"2.5E+7":      "2.5",
	}
	for in, want := range amounts {
		if got := ParseAmount(in).String(); got != want {
			t.Errorf("ParseAmount(%q) = %s, want %s", in, got, want)
		}
	}
	if got := ParseAmount(strings.Repeat("9", 40)); !got.IsZero() {
		t.Errorf("ParseAmount of 40 digits = %s, want 0", got)
	}

	quantities := map[string]int64{
		"2":    2,
		"2.9":  2,
		"4abc": 4,
		"x":    0,
		"":     0,
	}
	for in, want := range quantities {
		if got := ParseQuantity(in); got != want {
			t.Errorf("ParseQuantity(%q) = %d, want %d", in, got, want)
		}
	}
}

func TestNewForm_ExponentInputFinishes(t *testing.T) {
	for _, cost := range []string{"1e99999999", "1e-99999999"} {
		t.Run(cost, func(t *testing.T) {
			done := make(chan *Form, 1)
			go func() {
				done <- NewForm(cost, "2", ComputersAndAccessories, daysAgo(360), fixedNow)
			}()

			select {
			case f := <-done:
				if got := f.TotalAmount.StringFixed(2); got != "2.00" {
					t.Errorf("TotalAmount = %s, want 2.00", got)
				}
				if got := f.AccumulatedDisplay(); got != "0.22" {
					t.Errorf("AccumulatedDepreciation = %s, want 0.22", got)
				}
			case <-time.After(5 * time.Second):
				t.Fatal("NewForm did not finish")
			}
		})
	}
}
