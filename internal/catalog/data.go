package catalog

import "github.com/shopspring/decimal"

const placeholderImage = "/placeholder.svg?height=300&width=300"

func price(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func originalPrice(v int64) *decimal.Decimal {
	d := decimal.NewFromInt(v)
	return &d
}

func defaultProducts() []Product {
	return []Product{
		{
			ID:            "1",
			Name:          "Premium Cotton T-Shirt",
			Description:   "High-quality 100% cotton t-shirt perfect for custom printing. Made in Ghana with premium materials.",
			Category:      "T-Shirts",
			Price:         price(25),
			OriginalPrice: originalPrice(35),
			ImageRef:      placeholderImage,
			Rating:        decimal.RequireFromString("4.8"),
			Reviews:       124,
			Badge:         "Best Seller",
			Colors:        []string{"#000000", "#FFFFFF", "#FF6B35", "#1E40AF"},
			Sizes:         []string{"S", "M", "L", "XL", "XXL"},
			InStock:       true,
		},
		{
			ID:            "2",
			Name:          "Custom Food Packaging Box",
			Description:   "Eco-friendly packaging solution for food products. Perfect for local Ghanaian businesses.",
			Category:      "Packaging",
			Price:         price(5),
			OriginalPrice: originalPrice(8),
			ImageRef:      placeholderImage,
			Rating:        decimal.RequireFromString("4.9"),
			Reviews:       89,
			Badge:         "Eco-Friendly",
			Colors:        []string{"#8B4513", "#228B22", "#FF6B35"},
			Sizes:         []string{"Small", "Medium", "Large"},
			InStock:       true,
		},
		{
			ID:            "3",
			Name:          "Professional Hoodie",
			Description:   "Premium hoodie with custom printing options. Perfect for Ghana's harmattan season.",
			Category:      "Hoodies",
			Price:         price(55),
			OriginalPrice: originalPrice(70),
			ImageRef:      placeholderImage,
			Rating:        decimal.RequireFromString("4.7"),
			Reviews:       67,
			Badge:         "New",
			Colors:        []string{"#000000", "#808080", "#1E40AF", "#DC2626"},
			Sizes:         []string{"S", "M", "L", "XL"},
			InStock:       true,
		},
		{
			ID:            "4",
			Name:          "Bulk Plain T-Shirts (10 Pack)",
			Description:   "Wholesale pack of plain t-shirts for bulk orders. Great for schools and organizations.",
			Category:      "Bulk",
			Price:         price(200),
			OriginalPrice: originalPrice(250),
			ImageRef:      placeholderImage,
			Rating:        decimal.RequireFromString("4.6"),
			Reviews:       156,
			Badge:         "Bulk Deal",
			Colors:        []string{"#000000", "#FFFFFF", "#808080"},
			Sizes:         []string{"Mixed Sizes"},
			InStock:       true,
		},
		{
			ID:            "5",
			Name:          "Custom Tote Bag",
			Description:   "Durable canvas tote bag perfect for branding. Support local Ghanaian businesses.",
			Category:      "Bags",
			Price:         price(18),
			OriginalPrice: originalPrice(25),
			ImageRef:      placeholderImage,
			Rating:        decimal.RequireFromString("4.5"),
			Reviews:       43,
			Badge:         "Popular",
			Colors:        []string{"#F5F5DC", "#000000", "#1E40AF"},
			Sizes:         []string{"One Size"},
			InStock:       true,
		},
		{
			ID:            "6",
			Name:          "Business Card Printing",
			Description:   "Professional business cards with premium finish. Make a great first impression in Ghana.",
			Category:      "Print",
			Price:         price(50),
			OriginalPrice: originalPrice(65),
			ImageRef:      placeholderImage,
			Rating:        decimal.RequireFromString("4.9"),
			Reviews:       201,
			Badge:         "Professional",
			Colors:        []string{"#FFFFFF", "#F8F8FF", "#FFFACD"},
			Sizes:         []string{"Standard", "Premium"},
			InStock:       true,
		},
	}
}
