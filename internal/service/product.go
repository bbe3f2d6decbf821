package service

import (
	"context"
	"fmt"
	"storefront/internal/model"
	"storefront/internal/repository"
	"strings"
)

const maxProductLookup = 100

type ProductService interface {
	// FindByIDs parses a comma separated id list; inactive products are included
	// so the cart can flag them.
	FindByIDs(ctx context.Context, rawIDs string) ([]*model.Product, error)
}

type productServiceImpl struct {
	productRepo repository.ProductRepository
}

func NewProductService(productRepo repository.ProductRepository) ProductService {
	return &productServiceImpl{
		productRepo: productRepo,
	}
}

func (s *productServiceImpl) FindByIDs(ctx context.Context, rawIDs string) ([]*model.Product, error) {
	var ids []string
	for _, id := range strings.Split(rawIDs, ",") {
		if id = strings.TrimSpace(id); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return []*model.Product{}, nil
	}
	if len(ids) > maxProductLookup {
		return nil, NewError(KindInvalidPayload, fmt.Sprintf("At most %d ids per request", maxProductLookup), nil)
	}

	products, err := s.productRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, NewError(KindPersistenceFailure, "Failed to load products", fmt.Errorf("find products: %w", err))
	}
	return products, nil
}
