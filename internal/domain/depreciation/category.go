// Пакет depreciation: линейная амортизация актива по стоимости,
// количеству, категории и дате регистрации.
package depreciation

// Category: запись таблицы категорий основных средств.
type Category struct {
	Name string `json:"name"`
	// Годовая ставка амортизации в процентах
	Rate int `json:"rate"`
	// Срок полезного использования в месяцах
	UsefulLifeMonths int `json:"usefulLifeMonths"`
}

// Названия категорий.
const (
	ComputersAndAccessories = "Computers & Accessories"
	FurnitureAndEquipments  = "Furniture & Equipments"
	IntangibleAssets        = "Intangible Assets"
	LandAndBuildings        = "Land & Buildings"
	LeaseholdImprovement    = "Leasehold Improvement"
	MotorVehicles           = "Motor Vehicles"
	PlanAndMachinery        = "Plan & Machinery"
)

var categories = []Category{
	{Name: ComputersAndAccessories, Rate: 33, UsefulLifeMonths: 36},
	{Name: FurnitureAndEquipments, Rate: 20, UsefulLifeMonths: 60},
	{Name: IntangibleAssets, Rate: 10, UsefulLifeMonths: 120},
	{Name: LandAndBuildings, Rate: 5, UsefulLifeMonths: 240},
	{Name: LeaseholdImprovement, Rate: 20, UsefulLifeMonths: 60},
	{Name: MotorVehicles, Rate: 20, UsefulLifeMonths: 60},
	{Name: PlanAndMachinery, Rate: 25, UsefulLifeMonths: 48},
}

var categoryIndex = func() map[string]Category {
	m := make(map[string]Category, len(categories))
	for _, c := range categories {
		m[c.Name] = c
	}
	return m
}()

// Categories возвращает копию таблицы категорий в порядке отображения.
func Categories() []Category {
	out := make([]Category, len(categories))
	copy(out, categories)
	return out
}

// CategoryNames возвращает названия категорий в порядке отображения.
func CategoryNames() []string {
	names := make([]string, len(categories))
	for i, c := range categories {
		names[i] = c.Name
	}
	return names
}

// Lookup возвращает ставку и срок службы категории.
// Сравнение точное; для неизвестных имён ok=false.
func Lookup(name string) (Category, bool) {
	c, ok := categoryIndex[name]
	return c, ok
}
