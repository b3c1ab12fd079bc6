package search

import "recipe-box/internal/domain/entity"

// EmptyMessage is shown by every renderer when a search yields nothing.
const EmptyMessage = "No recipes found. Try adding your own!"

// FilterLocal returns the local recipes matching query, in store order.
func FilterLocal(local []entity.Recipe, query string) []entity.Recipe {
	out := make([]entity.Recipe, 0, len(local))
	for _, r := range local {
		if r.Matches(query) {
			out = append(out, r)
		}
	}
	return out
}

// Merge puts the local recipes matching query first, then every remote
// recipe whose name is not exactly equal to one of those matches.
func Merge(local, remote []entity.Recipe, query string) []entity.Recipe {
	matched := FilterLocal(local, query)

	names := make(map[string]struct{}, len(matched))
	for _, r := range matched {
		names[r.Name] = struct{}{}
	}

	out := make([]entity.Recipe, 0, len(matched)+len(remote))
	out = append(out, matched...)
	for _, r := range remote {
		if _, dup := names[r.Name]; dup {
			continue
		}
		out = append(out, r)
	}
	return out
}
