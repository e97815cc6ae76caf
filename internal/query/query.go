// Package query filters and orders bug collections for display.
package query

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
	"github.com/zulandar/bugboard/internal/models"
)

// ErrUnknownParam is returned for status, priority or sort values outside
// their enumerations.
var ErrUnknownParam = errors.New("query: unknown parameter")

// All is the wildcard value accepted for the status and priority filters.
const All = "all"

// SortKey selects the ordering of query results.
type SortKey string

const (
	SortUpdatedAt SortKey = "updatedAt"
	SortCreatedAt SortKey = "createdAt"
	SortPriority  SortKey = "priority"
)

// DefaultSort applies when no sort key is given.
const DefaultSort = SortUpdatedAt

// SortKeys lists the accepted sort keys.
var SortKeys = []SortKey{SortUpdatedAt, SortCreatedAt, SortPriority}

// Valid reports whether k is a known sort key.
func (k SortKey) Valid() bool {
	return slices.Contains(SortKeys, k)
}

// Params selects and orders bugs. Empty Status and Priority match every bug;
// an empty Sort uses DefaultSort.
type Params struct {
	Search   string
	Status   models.Status
	Priority models.Priority
	Sort     SortKey
}

// ParseParams builds Params from raw strings such as CLI flags or URL query
// values. "all" and the empty string are wildcards for status and priority.
func ParseParams(search, status, priority, sort string) (Params, error) {
	p := Params{Search: search}

	if status != "" && status != All {
		s, err := models.ParseStatus(status)
		if err != nil {
			return Params{}, fmt.Errorf("%w: status: %v", ErrUnknownParam, err)
		}
		p.Status = s
	}

	if priority != "" && priority != All {
		pr, err := models.ParsePriority(priority)
		if err != nil {
			return Params{}, fmt.Errorf("%w: priority: %v", ErrUnknownParam, err)
		}
		p.Priority = pr
	}

	if sort != "" {
		k := SortKey(sort)
		if !k.Valid() {
			return Params{}, fmt.Errorf("%w: sort: unknown sort key %q", ErrUnknownParam, sort)
		}
		p.Sort = k
	}
	return p, nil
}

func (p Params) validate() error {
	if p.Status != "" && !p.Status.Valid() {
		return fmt.Errorf("%w: status %q", ErrUnknownParam, p.Status)
	}
	if p.Priority != "" && !p.Priority.Valid() {
		return fmt.Errorf("%w: priority %q", ErrUnknownParam, p.Priority)
	}
	if p.Sort != "" && !p.Sort.Valid() {
		return fmt.Errorf("%w: sort %q", ErrUnknownParam, p.Sort)
	}
	return nil
}

// Match reports whether b satisfies every active filter in p.
func (p Params) Match(b models.Bug) bool {
	if p.Status != "" && b.Status != p.Status {
		return false
	}
	if p.Priority != "" && b.Priority != p.Priority {
		return false
	}
	if p.Search == "" {
		return true
	}
	term := strings.ToLower(p.Search)
	return strings.Contains(strings.ToLower(b.Title), term) ||
		strings.Contains(strings.ToLower(b.Description), term)
}

// Run returns the bugs matching p in the requested order. Bugs that compare
// equal keep their input order. The input slice is not modified; the result
// shares element values with it, so callers that mutate results should
// clone them first.
func Run(bugs []models.Bug, p Params) ([]models.Bug, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	out := lo.Filter(bugs, func(b models.Bug, _ int) bool {
		return p.Match(b)
	})
	slices.SortStableFunc(out, compare(p.Sort))
	return out, nil
}

// compare returns a comparator placing the "largest" bug first.
func compare(k SortKey) func(a, b models.Bug) int {
	switch k {
	case SortCreatedAt:
		return func(a, b models.Bug) int { return b.CreatedAt.Compare(a.CreatedAt) }
	case SortPriority:
		return func(a, b models.Bug) int { return b.Priority.Rank() - a.Priority.Rank() }
	default:
		return func(a, b models.Bug) int { return b.UpdatedAt.Compare(a.UpdatedAt) }
	}
}
