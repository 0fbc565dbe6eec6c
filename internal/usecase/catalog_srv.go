package usecase

import (
	"context"
	"fmt"
	"time"

	"medhistory/internal/data/entity"
	"medhistory/internal/data/repository"
	"medhistory/internal/dto/request"
	"medhistory/internal/dto/response"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type CatalogService interface {
	ListCategories(ctx context.Context) ([]response.CategoryResponse, error)
	ListSubCategories(ctx context.Context, category string) ([]response.SubCategoryResponse, error)
	ListProducts(ctx context.Context, subCategory string) ([]response.ProductResponse, error)
	CreateCategory(ctx context.Context, req *request.CreateCategoryRequest) (*response.CategoryResponse, error)
	CreateSubCategory(ctx context.Context, req *request.CreateSubCategoryRequest) (*response.SubCategoryResponse, error)
	CreateProduct(ctx context.Context, req *request.CreateProductRequest) (*response.ProductResponse, error)
}

type catalogService struct {
	catalogRepo repository.CatalogRepository
	log         *zap.Logger
}

func NewCatalogService(catalogRepo repository.CatalogRepository, log *zap.Logger) CatalogService {
	return &catalogService{
		catalogRepo: catalogRepo,
		log:         log.With(zap.String("service", "catalog")),
	}
}

func (cs *catalogService) ListCategories(ctx context.Context) ([]response.CategoryResponse, error) {
	categories, err := cs.catalogRepo.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get categories")
	}

	out := make([]response.CategoryResponse, len(categories))
	for i, c := range categories {
		out[i] = response.CategoryToResponse(c)
	}
	return out, nil
}

// ListSubCategories returns an empty list for an unknown category.
func (cs *catalogService) ListSubCategories(ctx context.Context, category string) ([]response.SubCategoryResponse, error) {
	subs, err := cs.catalogRepo.ListSubCategories(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to get sub-categories")
	}

	out := make([]response.SubCategoryResponse, len(subs))
	for i, s := range subs {
		out[i] = response.SubCategoryToResponse(s)
	}
	return out, nil
}

func (cs *catalogService) ListProducts(ctx context.Context, subCategory string) ([]response.ProductResponse, error) {
	products, err := cs.catalogRepo.ListProducts(ctx, subCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to get products")
	}

	out := make([]response.ProductResponse, len(products))
	for i, p := range products {
		out[i] = response.ProductToResponse(p)
	}
	return out, nil
}

func (cs *catalogService) CreateCategory(ctx context.Context, req *request.CreateCategoryRequest) (*response.CategoryResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	category := &entity.Category{Name: req.Name, Image: req.Image, CreatedAt: time.Now()}
	if err := cs.catalogRepo.CreateCategory(ctx, category); err != nil {
		if verr, ok := asValidation(err); ok {
			return nil, verr
		}
		return nil, fmt.Errorf("failed to create category")
	}

	cs.log.Info("Category created", zap.String("name", category.Name))
	resp := response.CategoryToResponse(category)
	return &resp, nil
}

// CreateSubCategory stores the sub-category under a name that carries its
// category, e.g. "phones" under "electronics" becomes "phones_electronics".
func (cs *catalogService) CreateSubCategory(ctx context.Context, req *request.CreateSubCategoryRequest) (*response.SubCategoryResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	parent, err := cs.catalogRepo.FindCategory(ctx, req.Category)
	if err != nil {
		return nil, fmt.Errorf("failed to find category")
	}
	if parent == nil {
		return nil, newValidationError("category", "Unknown category")
	}

	sub := &entity.SubCategory{
		Name:         entity.QualifiedName(req.Name, parent.Name),
		Photo:        req.Photo,
		CategoryName: parent.Name,
		CreatedAt:    time.Now(),
	}
	if err := cs.catalogRepo.CreateSubCategory(ctx, sub); err != nil {
		if verr, ok := asValidation(err); ok {
			return nil, verr
		}
		return nil, fmt.Errorf("failed to create sub-category")
	}

	cs.log.Info("Sub-category created", zap.String("name", sub.Name))
	resp := response.SubCategoryToResponse(sub)
	return &resp, nil
}

func (cs *catalogService) CreateProduct(ctx context.Context, req *request.CreateProductRequest) (*response.ProductResponse, error) {
	if err := validate(req); err != nil {
		return nil, err
	}

	parent, err := cs.catalogRepo.FindSubCategory(ctx, req.SubCategory)
	if err != nil {
		return nil, fmt.Errorf("failed to find sub-category")
	}
	if parent == nil {
		return nil, newValidationError("sub_category", "Unknown sub-category")
	}

	modelNo := req.ModelNo
	if modelNo == "" {
		modelNo = entity.DefaultModelNo
	}

	product := &entity.Product{
		ID:              uuid.New(),
		Name:            entity.QualifiedName(req.Name, parent.Name),
		SubCategoryName: parent.Name,
		Specification:   orEmpty(req.Specification),
		Photo:           req.Photo,
		Variants:        orEmpty(req.Variants),
		Prices:          orEmpty(req.Prices),
		ItemsLeft:       orEmpty(req.ItemsLeft),
		ModelNo:         modelNo,
		CreatedAt:       time.Now(),
	}
	if err := cs.catalogRepo.CreateProduct(ctx, product); err != nil {
		return nil, fmt.Errorf("failed to create product")
	}

	cs.log.Info("Product created", zap.String("name", product.Name))
	resp := response.ProductToResponse(product)
	return &resp, nil
}

func orEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
