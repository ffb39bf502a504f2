package models

import "time"

// Product is a marketplace listing. The chat service only reads it: it
// validates existence on send and pulls summary fields for conversation
// listings.
type Product struct {
	ID        int       `db:"id" json:"id"`
	SellerID  int       `db:"seller_id" json:"seller_id"`
	Title     string    `db:"title" json:"title"`
	Price     float64   `db:"price" json:"price"`
	ImageURL  string    `db:"image_url" json:"image_url"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ProductSummary is the slice of product fields shown next to a
// conversation.
type ProductSummary struct {
	ID       int     `json:"id"`
	Title    string  `json:"title"`
	Price    float64 `json:"price"`
	ImageURL string  `json:"image_url"`
}

// Summary projects the listing fields used by conversation views.
func (p Product) Summary() ProductSummary {
	return ProductSummary{ID: p.ID, Title: p.Title, Price: p.Price, ImageURL: p.ImageURL}
}
