package response

import "medhistory/internal/data/entity"

type CategoryResponse struct {
	Name  string  `json:"name"`
	Image *string `json:"image"`
}

type SubCategoryResponse struct {
	Name     string  `json:"name"`
	Photo    *string `json:"photo"`
	Category string  `json:"category"`
}

type ProductResponse struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	SubCategory   string   `json:"sub_category"`
	Specification []string `json:"specification"`
	Photo         string   `json:"photo"`
	Variants      []string `json:"variants"`
	Prices        []string `json:"prices"`
	ItemsLeft     []string `json:"items_left"`
	ModelNo       string   `json:"model_no"`
}

func CategoryToResponse(c *entity.Category) CategoryResponse {
	return CategoryResponse{Name: c.Name, Image: c.Image}
}

func SubCategoryToResponse(s *entity.SubCategory) SubCategoryResponse {
	return SubCategoryResponse{Name: s.Name, Photo: s.Photo, Category: s.CategoryName}
}

func ProductToResponse(p *entity.Product) ProductResponse {
	return ProductResponse{
		ID:            p.ID.String(),
		Name:          p.Name,
		SubCategory:   p.SubCategoryName,
		Specification: p.Specification,
		Photo:         p.Photo,
		Variants:      p.Variants,
		Prices:        p.Prices,
		ItemsLeft:     p.ItemsLeft,
		ModelNo:       p.ModelNo,
	}
}
