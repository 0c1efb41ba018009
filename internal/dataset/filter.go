package dataset

import (
	"salesdash/pkg/contracts/domain"
)

// Filter returns the subset of records matching every predicate of the
// spec: date within [from, to] inclusive, segment in the selected set (if
// any), customer in the selected set (if any). Unset date bounds default
// to the unfiltered dataset's own bounds, never to a previous filtered
// result, so repeated calls cannot compound range shrinkage.
//
// Filter is a pure function. An empty result is a valid outcome, not an
// error.
func Filter(ds *domain.Dataset, spec domain.FilterSpec) []domain.Record {
	if ds == nil || len(ds.Records) == 0 {
		return nil
	}

	from := spec.From
	if from.IsZero() {
		from = ds.MinDate
	}
	to := spec.To
	if to.IsZero() {
		to = ds.MaxDate
	}

	segments := toSet(spec.Segments)
	customers := toSet(spec.Customers)

	out := make([]domain.Record, 0, len(ds.Records))
	for _, r := range ds.Records {
		if r.Date.Before(from) || r.Date.After(to) {
			continue
		}
		if len(segments) > 0 && !segments[r.Segment] {
			continue
		}
		if len(customers) > 0 && !customers[r.Customer] {
			continue
		}
		out = append(out, r)
	}
	return out
}

func toSet(values []string) map[string]bool {
	if len(values) == 0 {
		return nil
	}
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
