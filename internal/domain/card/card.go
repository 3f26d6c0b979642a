// Package card defines the card domain model of the marketplace.
package card

import "time"

// DefaultPageSize is the page size used when a request does not set one.
const DefaultPageSize = 10

// Card is a collectible card listed on the marketplace.
type Card struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	ImageURL    string    `json:"imageUrl"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Pagination describes the position within a paged listing.
type Pagination struct {
	Page int  `json:"page"`
	RPP  int  `json:"rpp"`
	More bool `json:"more"`
}

// InitialPagination is the pagination state before anything is loaded.
func InitialPagination() Pagination {
	return Pagination{Page: 1, RPP: DefaultPageSize}
}

// Page is one page of cards returned by the API.
type Page struct {
	List []Card `json:"list"`
	Page int    `json:"page"`
	RPP  int    `json:"rpp"`
	More bool   `json:"more"`
}

// Pagination returns the page position without the items.
func (p Page) Pagination() Pagination {
	return Pagination{Page: p.Page, RPP: p.RPP, More: p.More}
}

// Filters narrow a card listing. Zero values mean "not set".
type Filters struct {
	Search string
	Page   int
	RPP    int
}

// Unconditioned reports whether the filters request the default full listing.
func (f Filters) Unconditioned() bool {
	return f.Page == 0 && f.Search == ""
}

// FirstPage reports whether the filters address the first page.
func (f Filters) FirstPage() bool {
	return f.Page <= 1
}

// AddRequest is the payload for adding cards to the signed-in user's collection.
type AddRequest struct {
	CardIDs []string `json:"cardIds"`
}
