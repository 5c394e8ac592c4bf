// Package catalog manages customers and products outside the sale
// transaction: plain CRUD plus the delete policies for records that still
// have sales.
package catalog

import (
	"errors"
	"fmt"
)

// ErrHasSales is returned by a restrict delete of a customer or product
// that is still referenced by sales.
var ErrHasSales = errors.New("still referenced by sales")

type DeletePolicy string

const (
	// Cascade deletes the owner's sales in the same transaction. Stock
	// sold through those sales is not returned.
	Cascade DeletePolicy = "cascade"
	// Restrict refuses the delete while sales exist.
	Restrict DeletePolicy = "restrict"
)

func ParseDeletePolicy(s string) (DeletePolicy, error) {
	switch p := DeletePolicy(s); p {
	case Cascade, Restrict:
		return p, nil
	}
	return "", fmt.Errorf("unknown delete policy %q", s)
}
