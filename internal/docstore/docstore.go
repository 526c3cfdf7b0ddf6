package docstore

import (
	"context"
	"encoding/json"
	"errors"
)

// Collection names used by the storefront slices.
const (
	CollectionCarts          = "carts"
	CollectionGuestCarts     = "guest_carts"
	CollectionOrders         = "orders"
	CollectionProducts       = "products"
	CollectionUsers          = "users"
	CollectionPasswordResets = "password_resets"
)

var ErrNotFound = errors.New("document not found")

// Store is the per-collection document client every slice talks to.
// Set is a full overwrite, Update merges the given top-level fields into
// the existing document and fails with ErrNotFound when it is absent.
// Delete is idempotent. Documents are JSON records.
type Store interface {
	Get(c context.Context, collection string, id string) (json.RawMessage, error)
	Set(c context.Context, collection string, id string, doc any) error
	Update(c context.Context, collection string, id string, fields map[string]any) error
	Delete(c context.Context, collection string, id string) error
	All(c context.Context, collection string) ([]json.RawMessage, error)
}

// GetAs reads a document and unmarshals it into out.
func GetAs(c context.Context, s Store, collection string, id string, out any) error {
	raw, err := s.Get(c, collection, id)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, out)
}
