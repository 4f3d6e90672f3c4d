package enums

import "fmt"

// ProductCategory groups the catalog's top-level audience segments.
type ProductCategory string

const (
	ProductCategoryMen   ProductCategory = "Men"
	ProductCategoryWomen ProductCategory = "Women"
	ProductCategoryKids  ProductCategory = "Kids"
)

var validProductCategories = []ProductCategory{
	ProductCategoryMen,
	ProductCategoryWomen,
	ProductCategoryKids,
}

// String implements fmt.Stringer.
func (p ProductCategory) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProductCategory.
func (p ProductCategory) IsValid() bool {
	for _, candidate := range validProductCategories {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseProductCategory converts raw input into a ProductCategory.
func ParseProductCategory(value string) (ProductCategory, error) {
	for _, candidate := range validProductCategories {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid product category %q", value)
}
