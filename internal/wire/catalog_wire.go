package wire

import (
	"medhistory/internal/adaptor"

	"github.com/go-chi/chi/v5"
)

func wireCatalog(r chi.Router, catalog *adaptor.CatalogHandler, g guards) {
	r.Route("/api/cart/homepage", func(r chi.Router) {
		r.Get("/", catalog.ListCategories)
		r.Get("/{category}", catalog.ListSubCategories)
		r.Get("/{category}/{subcategory}", catalog.ListProducts)
	})

	r.With(g.jwt, g.staff).Route("/api/admin/catalog", func(r chi.Router) {
		r.Post("/categories", catalog.CreateCategory)
		r.Post("/subcategories", catalog.CreateSubCategory)
		r.Post("/products", catalog.CreateProduct)
	})
}
