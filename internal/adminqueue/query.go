// Package adminqueue serves the admin review queues: balance top-up
// requests and product approvals, with gateway-side filter and sort.
package adminqueue

import (
	"strings"

	"github.com/greenbasket/storefront/pkg/enums"
	pkgerrors "github.com/greenbasket/storefront/pkg/errors"
)

// SortColumn names a sortable queue column.
type SortColumn string

const (
	SortByID     SortColumn = "id"
	SortByUser   SortColumn = "user"
	SortByAmount SortColumn = "amount"
	SortByStatus SortColumn = "status"
	SortByDate   SortColumn = "date"
)

// Query is the filter/sort request applied to a fetched queue.
type Query struct {
	Status enums.ReviewStatus
	Search string
	SortBy SortColumn
	Desc   bool
}

func (q Query) validate() error {
	if q.Status != "" && !q.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown status filter")
	}
	switch q.SortBy {
	case "", SortByID, SortByUser, SortByAmount, SortByStatus, SortByDate:
		return nil
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "unknown sort column")
}

func matchesSearch(term string, fields ...string) bool {
	if term == "" {
		return true
	}
	needle := strings.ToLower(term)
	for _, field := range fields {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
