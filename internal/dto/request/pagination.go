package request

import (
	"net/url"

	"medhistory/pkg/utils"
)

const (
	defaultPerPage = 10
	maxPerPage     = 100
)

// PageRequest selects one page of a listing.
type PageRequest struct {
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

// PageFromQuery reads ?page= and ?per_page=. Missing or malformed values fall
// back to the first page of defaultPerPage.
func PageFromQuery(q url.Values) *PageRequest {
	p := &PageRequest{
		Page:    utils.ParseInt(q.Get("page"), 1),
		PerPage: utils.ParseInt(q.Get("per_page"), defaultPerPage),
	}
	p.Normalize()
	return p
}

// Normalize clamps the page to >= 1 and the page size to [1, maxPerPage].
func (p *PageRequest) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	switch {
	case p.PerPage < 1:
		p.PerPage = defaultPerPage
	case p.PerPage > maxPerPage:
		p.PerPage = maxPerPage
	}
}

func (p PageRequest) Offset() int {
	return utils.CalculateOffset(p.Page, p.PerPage)
}
