package repository

import (
	"context"
	"storefront/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const placeholderImageURL = "https://via.placeholder.com/400x400"

type ProductRepository interface {
	Seed(ctx context.Context) error
	// FindActiveByIDs returns the active products among ids, in no particular order.
	FindActiveByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error)
	FindByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error)
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

func (r *productRepoImpl) Seed(ctx context.Context) error {
	desc := func(s string) *string { return &s }
	products := []model.Product{
		{ID: "5f0c6a2e-3b1d-4c7a-9e8f-1a2b3c4d5e01", Slug: "sample-product-1", Name: "Sample Product 1", Description: desc("A sample product for testing"), ImageURL: placeholderImageURL, Currency: "usd", UnitAmount: 2999, Active: true},
		{ID: "5f0c6a2e-3b1d-4c7a-9e8f-1a2b3c4d5e02", Slug: "sample-product-2", Name: "Sample Product 2", Description: desc("Another sample product"), ImageURL: placeholderImageURL, Currency: "usd", UnitAmount: 4999, Active: true},
		{ID: "5f0c6a2e-3b1d-4c7a-9e8f-1a2b3c4d5e03", Slug: "sample-product-3", Name: "Sample Product 3", Description: desc("Yet another sample product"), ImageURL: placeholderImageURL, Currency: "usd", UnitAmount: 1999, Active: true},
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error
}

func (r *productRepoImpl) FindActiveByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	if len(productIDs) == 0 {
		return products, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Where("active = ?", true).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}

func (r *productRepoImpl) FindByIDs(ctx context.Context, productIDs []string) ([]*model.Product, error) {
	var products []*model.Product
	if len(productIDs) == 0 {
		return products, nil
	}

	err := r.db.WithContext(ctx).
		Where("id IN ?", productIDs).
		Find(&products).
		Error

	if err != nil {
		return nil, err
	}

	return products, nil
}
