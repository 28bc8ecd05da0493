package feed

import (
	"strings"

	"github.com/lysyi3m/rssync/app/database"
	"github.com/samber/lo"
	"golang.org/x/text/cases"
)

// Filterer decides whether an item passes the author and category filters
// of a list binding.
type Filterer struct{}

func NewFilterer() *Filterer {
	return &Filterer{}
}

// Matches applies the author whitelist, author blacklist, category whitelist
// and category blacklist stages in that order. Every stage must pass.
func (f *Filterer) Matches(binding database.ListSource, item database.Item) bool {
	author := f.fold(item.Author)

	if terms := f.terms(binding.AuthorWhitelist); len(terms) > 0 {
		if !f.containsAny(author, terms) {
			return false
		}
	}

	if terms := f.terms(binding.AuthorBlacklist); len(terms) > 0 {
		if f.containsAny(author, terms) {
			return false
		}
	}

	categoryWhitelist := f.terms(binding.CategoryWhitelist)
	categoryBlacklist := f.terms(binding.CategoryBlacklist)
	if len(categoryWhitelist) == 0 && len(categoryBlacklist) == 0 {
		return true
	}

	categories := lo.Map(database.SplitList(item.Categories), func(label string, _ int) string {
		return f.fold(label)
	})

	if len(categoryWhitelist) > 0 {
		if !lo.SomeBy(categories, func(label string) bool { return f.containsAny(label, categoryWhitelist) }) {
			return false
		}
	}

	if len(categoryBlacklist) > 0 {
		if lo.SomeBy(categories, func(label string) bool { return f.containsAny(label, categoryBlacklist) }) {
			return false
		}
	}

	return true
}

// Run keeps the items that pass the binding, stopping once limit items have
// been collected. A non-positive limit keeps every passing item.
func (f *Filterer) Run(binding database.ListSource, items []database.Item, limit int) []database.Item {
	passed := make([]database.Item, 0, len(items))
	for _, item := range items {
		if limit > 0 && len(passed) >= limit {
			break
		}
		if f.Matches(binding, item) {
			passed = append(passed, item)
		}
	}
	return passed
}

func (f *Filterer) terms(value string) []string {
	return lo.Map(database.SplitList(value), func(term string, _ int) string {
		return f.fold(term)
	})
}

func (f *Filterer) containsAny(value string, terms []string) bool {
	return lo.SomeBy(terms, func(term string) bool {
		return strings.Contains(value, term)
	})
}

// fold builds a Caser per call since Casers must not be shared between
// goroutines.
func (f *Filterer) fold(s string) string {
	return cases.Fold().String(s)
}
