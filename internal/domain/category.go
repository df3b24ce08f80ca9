package domain

// Category is the closed set a product must be classified into.
type Category string

const (
	CategoryChocolate  Category = "Chocolate"
	CategoryGummy      Category = "Gummy"
	CategoryCookie     Category = "Cookie"
	CategorySnack      Category = "Snack"
	CategoryDonut      Category = "Donut"
	CategoryJelly      Category = "Jelly"
	CategoryNoodle     Category = "Noodle"
	CategorySupplement Category = "Supplement"
	CategoryBeverage   Category = "Beverage"
	CategoryProtein    Category = "Protein"
	CategoryOther      Category = "Other"
)

// Categories lists every valid category in display order.
var Categories = []Category{
	CategoryChocolate,
	CategoryGummy,
	CategoryCookie,
	CategorySnack,
	CategoryDonut,
	CategoryJelly,
	CategoryNoodle,
	CategorySupplement,
	CategoryBeverage,
	CategoryProtein,
	CategoryOther,
}

// Valid reports whether c is one of the canonical category values.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// ParseCategory returns the canonical category for s, or CategoryOther
// with ok=false when s is not a canonical value.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	if c.Valid() {
		return c, true
	}
	return CategoryOther, false
}
