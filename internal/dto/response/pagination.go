package response

import "medhistory/pkg/utils"

type Page[T any] struct {
	Data       []T      `json:"data"`
	Pagination PageMeta `json:"pagination"`
}

type PageMeta struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	TotalPages int   `json:"total_pages"`
}

func NewPage[T any](data []T, page, perPage int, total int64) *Page[T] {
	if data == nil {
		data = []T{}
	}
	return &Page[T]{
		Data: data,
		Pagination: PageMeta{
			Total:      total,
			Page:       page,
			PerPage:    perPage,
			TotalPages: utils.CalculateTotalPages(total, perPage),
		},
	}
}
