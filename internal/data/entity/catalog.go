package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultModelNo = "no model found"

type Category struct {
	Name      string    `db:"name"`
	Image     *string   `db:"image"`
	CreatedAt time.Time `db:"created_at"`
}

type SubCategory struct {
	Name         string    `db:"name"`
	Photo        *string   `db:"photo"`
	CategoryName string    `db:"category_name"`
	CreatedAt    time.Time `db:"created_at"`
}

type Product struct {
	ID              uuid.UUID `db:"id"`
	Name            string    `db:"name"`
	SubCategoryName string    `db:"sub_category_name"`
	Specification   []string  `db:"specification"`
	Photo           string    `db:"photo"`
	Variants        []string  `db:"variants"`
	Prices          []string  `db:"prices"`
	ItemsLeft       []string  `db:"items_left"`
	ModelNo         string    `db:"model_no"`
	CreatedAt       time.Time `db:"created_at"`
}

// QualifiedName appends "_<parent>" unless name already mentions its parent,
// keeping child names unique across the hierarchy.
func QualifiedName(name, parent string) string {
	if strings.Contains(name, parent) {
		return name
	}
	return name + "_" + parent
}
