package listview

import (
	"strings"

	"product_catalog/domain"
)

// Filter returns the products whose id, name or description contains the
// trimmed term, ignoring case. An empty term returns products unchanged.
func Filter(products []domain.Product, term string) []domain.Product {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return products
	}
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if strings.Contains(strings.ToLower(p.ID), term) ||
			strings.Contains(strings.ToLower(p.Name), term) ||
			strings.Contains(strings.ToLower(p.Description), term) {
			out = append(out, p)
		}
	}
	return out
}

// TotalPages is ceil(total / pageSize); 0 when there is nothing to show.
func TotalPages(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 0
	}
	return (total + pageSize - 1) / pageSize
}

// Paginate returns the page-th slice (1-based) of at most pageSize items.
func Paginate(products []domain.Product, page, pageSize int) []domain.Product {
	if page < 1 || pageSize <= 0 {
		return nil
	}
	start := (page - 1) * pageSize
	if start >= len(products) {
		return nil
	}
	end := min(start+pageSize, len(products))
	return products[start:end]
}

// PageNumbers returns 1..totalPages.
func PageNumbers(totalPages int) []int {
	out := make([]int, 0, max(totalPages, 0))
	for i := 1; i <= totalPages; i++ {
		out = append(out, i)
	}
	return out
}
