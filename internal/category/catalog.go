package category

// catalog is the list offered by the submission form, in display order.
var catalog = []*Category{
	NewCategory("Food", "Meals, groceries and snacks"),
	NewCategory("Transport", "Fuel, fares, parking and tolls"),
	NewCategory("Utilities", "Electricity, water, internet and phone"),
	NewCategory("Entertainment", "Events, subscriptions and client entertainment"),
	NewCategory("Healthcare", "Medical, dental and pharmacy"),
	NewCategory("Education", "Courses, books and certifications"),
	NewCategory("Shopping", "Supplies and equipment"),
	NewCategory("Travel", "Flights, lodging and per diem"),
	NewCategory("Rent", "Office and coworking rent"),
	NewCategory("Insurance", "Insurance premiums"),
	NewCategory("Savings", "Savings contributions"),
	NewCategory("Investment", "Investment contributions"),
	NewCategory("Gifts & Donations", "Gifts and charitable donations"),
	NewCategory("Personal Care", "Personal care and wellness"),
	NewCategory("Taxes", "Taxes and duties"),
	NewCategory("Others", "Anything else"),
}

// StaticRepository serves the built-in catalog.
type StaticRepository struct {
	categories []*Category
}

func NewStaticRepository() *StaticRepository {
	return &StaticRepository{categories: catalog}
}

func (r *StaticRepository) GetAll() ([]*Category, error) {
	out := make([]*Category, len(r.categories))
	for i, c := range r.categories {
		cp := *c
		out[i] = &cp
	}
	return out, nil
}
