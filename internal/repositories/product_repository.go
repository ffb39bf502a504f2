package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"campus-chat-service/internal/models"
)

var ErrProductNotFound = errors.New("product not found")

// ProductRepository is the read-only view of the product catalog: existence
// checks on send and summary fields for conversation listings.
type ProductRepository interface {
	GetProduct(ctx context.Context, productID int) (models.Product, error)
	GetProducts(ctx context.Context, ids []int) ([]models.Product, error)
}

// ProductRepo is a sqlx implementation of ProductRepository.
type ProductRepo struct {
	db *sqlx.DB
}

// NewProductRepo constructs a ProductRepo.
func NewProductRepo(db *sqlx.DB) *ProductRepo {
	return &ProductRepo{db: db}
}

// GetProduct fetches one product by id.
func (r *ProductRepo) GetProduct(ctx context.Context, productID int) (models.Product, error) {
	var product models.Product
	err := r.db.GetContext(ctx, &product, `SELECT id, seller_id, title, price, image_url, created_at FROM products WHERE id=$1`, productID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Product{}, ErrProductNotFound
	}
	return product, err
}

// GetProducts fetches multiple products in one query. Unknown ids are
// skipped.
func (r *ProductRepo) GetProducts(ctx context.Context, ids []int) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}

	query, args, err := sqlx.In(`SELECT id, seller_id, title, price, image_url, created_at FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	err = r.db.SelectContext(ctx, &products, r.db.Rebind(query), args...)
	return products, err
}
