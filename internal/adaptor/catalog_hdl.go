package adaptor

import (
	"net/http"

	"medhistory/internal/dto/request"
	"medhistory/internal/usecase"
	"medhistory/pkg/utils"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type CatalogHandler struct {
	service usecase.CatalogService
	log     *zap.Logger
}

func NewCatalogHandler(service usecase.CatalogService, log *zap.Logger) *CatalogHandler {
	return &CatalogHandler{
		service: service,
		log:     log.With(zap.String("handler", "catalog")),
	}
}

// ListCategories handles GET /api/cart/homepage
func (h *CatalogHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		writeServiceError(w, h.log, err, "list categories")
		return
	}

	utils.ResponseSuccess(w, "Categories retrieved successfully", categories)
}

// ListSubCategories handles GET /api/cart/homepage/{category}
func (h *CatalogHandler) ListSubCategories(w http.ResponseWriter, r *http.Request) {
	subs, err := h.service.ListSubCategories(r.Context(), chi.URLParam(r, "category"))
	if err != nil {
		writeServiceError(w, h.log, err, "list sub-categories")
		return
	}

	utils.ResponseSuccess(w, "Sub-categories retrieved successfully", subs)
}

// ListProducts handles GET /api/cart/homepage/{category}/{subcategory}
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.service.ListProducts(r.Context(), chi.URLParam(r, "subcategory"))
	if err != nil {
		writeServiceError(w, h.log, err, "list products")
		return
	}

	utils.ResponseSuccess(w, "Products retrieved successfully", products)
}

// CreateCategory handles POST /api/admin/catalog/categories
func (h *CatalogHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req request.CreateCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	category, err := h.service.CreateCategory(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create category")
		return
	}

	utils.ResponseCreated(w, "Category created successfully", category)
}

// CreateSubCategory handles POST /api/admin/catalog/subcategories
func (h *CatalogHandler) CreateSubCategory(w http.ResponseWriter, r *http.Request) {
	var req request.CreateSubCategoryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	sub, err := h.service.CreateSubCategory(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create sub-category")
		return
	}

	utils.ResponseCreated(w, "Sub-category created successfully", sub)
}

// CreateProduct handles POST /api/admin/catalog/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req request.CreateProductRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	product, err := h.service.CreateProduct(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.log, err, "create product")
		return
	}

	utils.ResponseCreated(w, "Product created successfully", product)
}
