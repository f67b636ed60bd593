// Package domain defines core business types and interfaces.
package domain

import "context"

// Product is a financial product of the catalog (card, account, loan,
// insurance...).
type Product struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Logo         string `json:"logo"`
	DateRelease  Date   `json:"date_release"`
	DateRevision Date   `json:"date_revision"`
}

// ProductPatch carries the fields of a partial update. A nil field is
// absent and leaves the stored value untouched. The identifier is not part
// of a patch: it is immutable once created.
type ProductPatch struct {
	Name         *string `json:"name,omitempty"`
	Description  *string `json:"description,omitempty"`
	Logo         *string `json:"logo,omitempty"`
	DateRelease  *Date   `json:"date_release,omitempty"`
	DateRevision *Date   `json:"date_revision,omitempty"`
}

// PatchOf returns a patch that overwrites every mutable field with p's.
func PatchOf(p Product) ProductPatch {
	return ProductPatch{
		Name:         &p.Name,
		Description:  &p.Description,
		Logo:         &p.Logo,
		DateRelease:  &p.DateRelease,
		DateRevision: &p.DateRevision,
	}
}

// Apply shallow-merges the patch into dst: each present field replaces the
// corresponding field wholesale.
func (p ProductPatch) Apply(dst Product) Product {
	if p.Name != nil {
		dst.Name = *p.Name
	}
	if p.Description != nil {
		dst.Description = *p.Description
	}
	if p.Logo != nil {
		dst.Logo = *p.Logo
	}
	if p.DateRelease != nil {
		dst.DateRelease = *p.DateRelease
	}
	if p.DateRevision != nil {
		dst.DateRevision = *p.DateRevision
	}
	return dst
}

// IsEmpty reports whether the patch carries no field at all.
func (p ProductPatch) IsEmpty() bool {
	return p.Name == nil && p.Description == nil && p.Logo == nil &&
		p.DateRelease == nil && p.DateRevision == nil
}

// ProductStore is the product repository. It is implemented in process by
// store.InMemoryStore and remotely by client.Client.
type ProductStore interface {
	// List returns every product in insertion order.
	List(ctx context.Context) ([]Product, error)
	// Exists reports whether a product with the identifier is stored.
	Exists(ctx context.Context, id string) (bool, error)
	Get(ctx context.Context, id string) (Product, error)
	Create(ctx context.Context, product Product) (Product, error)
	// Update merges patch into the stored record and returns the result.
	Update(ctx context.Context, id string, patch ProductPatch) (Product, error)
	Delete(ctx context.Context, id string) error
}
