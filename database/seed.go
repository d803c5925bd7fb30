package database

import (
	"context"
	"fmt"

	"github.com/rpupo63/fadarc-site-backend/models"
)

func strPtr(s string) *string { return &s }

func sampleProducts() []models.Product {
	return []models.Product{
		{
			Name:        "Toyota Aqua Hybrid Battery",
			Description: "Genuine OEM hybrid battery for Toyota Aqua 2011-2020. Low mileage, tested and certified with 1 year warranty.",
			Category:    "hybrid-batteries",
			ImageURL:    strPtr("/attached_assets/image6.jpg"),
		},
		{
			Name:        "Honda Vezel Gearbox",
			Description: "Complete gearbox assembly for Honda Vezel hybrid models. Professional installation and fitting service available.",
			Category:    "transmissions",
			ImageURL:    strPtr("/attached_assets/image7.png"),
		},
		{
			Name:        "Toyota Prius Inverter Water Pump",
			Description: "High-efficiency inverter water pump for Toyota Prius hybrid cooling system. Essential for optimal performance.",
			Category:    "cooling-systems",
			ImageURL:    strPtr("/attached_assets/image3.jpg"),
		},
	}
}

func samplePosts() []models.BlogPost {
	return []models.BlogPost{
		{
			Title:     "Understanding Hybrid Battery Technology",
			Content:   "Hybrid batteries are the heart of any hybrid vehicle...",
			Excerpt:   "Learn about the technology behind hybrid batteries and how proper maintenance can extend their lifespan.",
			Category:  "Hybrid Technology",
			ImageURL:  strPtr("/attached_assets/battery2.png"),
			Published: true,
		},
	}
}

// seed inserts the sample catalogue and welcome post when no products exist yet.
func seed(ctx context.Context, s Storage) error {
	existing, err := s.Products().FindAll(ctx)
	if err != nil {
		return fmt.Errorf("error checking seed state: %w", err)
	}
	if len(existing) > 0 {
		return nil
	}

	for _, product := range sampleProducts() {
		if err := s.Products().Create(ctx, &product); err != nil {
			return fmt.Errorf("error seeding product %q: %w", product.Name, err)
		}
	}
	for _, post := range samplePosts() {
		if err := s.BlogPosts().Create(ctx, &post); err != nil {
			return fmt.Errorf("error seeding blog post %q: %w", post.Title, err)
		}
	}
	return nil
}
