package schema

// Default returns the site's built-in categories.
func Default() *Registry {
	return MustRegistry(defaultCategories()...)
}

func defaultCategories() []Category {
	return []Category{
		{
			ID:          "works",
			Name:        "Works",
			Icon:        "🎨",
			Description: "Portfolio pieces",
			Fields: []Field{
				{Name: "title", Label: "Title", Type: TypeText, Required: true},
				{Name: "description", Label: "Description", Type: TypeTextarea},
				{Name: "image", Label: "Image", Type: TypeImage},
				{Name: "link", Label: "External link", Type: TypeURL},
				{Name: "content", Label: "Details (Markdown)", Type: TypeMarkdown},
			},
		},
		{
			ID:          "news",
			Name:        "News",
			Icon:        "📰",
			Description: "Announcements and blog posts",
			Fields: []Field{
				{Name: "title", Label: "Title", Type: TypeText, Required: true},
				{Name: "summary", Label: "Summary", Type: TypeTextarea},
				{Name: "content", Label: "Body (Markdown)", Type: TypeMarkdown, Required: true},
				{Name: "thumbnail", Label: "Thumbnail", Type: TypeImage},
			},
		},
		{
			ID:          "pricing",
			Name:        "Pricing",
			Icon:        "💰",
			Description: "Commission rates",
			Singleton:   true,
			Fields: []Field{
				{
					Name:        "baseDescription",
					Label:       "Base plan description",
					Type:        TypeTextarea,
					Placeholder: "e.g. A site built around the world your project lives in...",
				},
				{
					Name:     "baseRates",
					Label:    "Included in the base plan",
					Type:     TypeArray,
					Required: true,
					ItemFields: []Field{
						{Name: "name", Label: "Item", Type: TypeText, Required: true},
						{Name: "description", Label: "Description", Type: TypeTextarea},
					},
				},
				{
					Name:        "basePrice",
					Label:       "Base price (JPY)",
					Type:        TypeNumber,
					Required:    true,
					Placeholder: "e.g. 40000",
				},
				{
					Name:  "options",
					Label: "Add-on options",
					Type:  TypeArray,
					ItemFields: []Field{
						{Name: "name", Label: "Option", Type: TypeText, Required: true},
						{Name: "price", Label: "Price", Type: TypeNumber, Required: true},
						{Name: "unit", Label: "Unit", Type: TypeText},
						{Name: "description", Label: "Description", Type: TypeTextarea},
					},
				},
				{
					Name:  "siteTypeExamples",
					Label: "Typical prices by site type",
					Type:  TypeArray,
					ItemFields: []Field{
						{Name: "type", Label: "Site type", Type: TypeText, Required: true},
						{Name: "priceRange", Label: "Price range", Type: TypeText, Required: true, Placeholder: "e.g. ¥50,000~"},
						{Name: "description", Label: "Description", Type: TypeTextarea, Placeholder: "e.g. game intro, characters, story"},
					},
				},
			},
		},
	}
}
