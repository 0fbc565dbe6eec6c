package request

type CreateCategoryRequest struct {
	Name  string  `json:"name" validate:"required,max=25"`
	Image *string `json:"image,omitempty" validate:"omitempty,max=255"`
}

type CreateSubCategoryRequest struct {
	Name     string  `json:"name" validate:"required,max=35"`
	Photo    *string `json:"photo,omitempty" validate:"omitempty,max=255"`
	Category string  `json:"category" validate:"required"`
}

type CreateProductRequest struct {
	Name          string   `json:"name" validate:"required,max=100"`
	SubCategory   string   `json:"sub_category" validate:"required"`
	Specification []string `json:"specification" validate:"dive,max=20"`
	Photo         string   `json:"photo" validate:"required,max=255"`
	Variants      []string `json:"variants" validate:"dive,max=20"`
	Prices        []string `json:"prices" validate:"dive,max=20"`
	ItemsLeft     []string `json:"items_left" validate:"dive,max=20"`
	ModelNo       string   `json:"model_no" validate:"max=20"`
}
