package bulkorders

import "strings"

// BusinessTypes are the customer segments offered on the intake form.
var BusinessTypes = []string{
	"Restaurant/Food Service",
	"Retail Store",
	"School/Educational Institution",
	"Corporate/Office",
	"Event Planning",
	"Non-Profit Organization",
	"Manufacturing",
	"Healthcare",
	"Other",
}

// OrderTypes are the product families that can be quoted in bulk.
var OrderTypes = []string{
	"Custom T-Shirts",
	"Food Packaging Boxes",
	"Business Cards",
	"Banners & Signage",
	"Stickers & Labels",
	"Bags & Totes",
	"Hoodies & Sweatshirts",
	"Custom Apparel",
	"Marketing Materials",
	"Other",
}

// canonical returns the list entry matching value case-insensitively.
func canonical(list []string, value string) (string, bool) {
	value = strings.TrimSpace(value)
	for _, v := range list {
		if strings.EqualFold(v, value) {
			return v, true
		}
	}
	return "", false
}
