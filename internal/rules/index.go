package rules

import (
	"errors"
	"io"
	"sort"
)

// Index maps a domain to its rules in load order. An Index is fully built
// before it is returned and is never modified afterwards, so any number of
// goroutines may read it without locking.
type Index struct {
	byDomain map[string][]*Rule
	// domains in first-seen order
	domains []string
	size    int
}

func newIndex() *Index {
	return &Index{byDomain: make(map[string][]*Rule)}
}

// add is only called while the index is being built.
func (i *Index) add(r *Rule) {
	if _, ok := i.byDomain[r.Domain()]; !ok {
		i.domains = append(i.domains, r.Domain())
	}
	i.byDomain[r.Domain()] = append(i.byDomain[r.Domain()], r)
	i.size++
}

// NewIndex builds an index from rules, preserving their order per domain.
func NewIndex(rules ...*Rule) *Index {
	idx := newIndex()
	for _, r := range rules {
		idx.add(r)
	}
	return idx
}

// Rules returns the rules for domain in load order, or nil when the domain
// has none. The returned slice must not be modified.
func (i *Index) Rules(domain string) []*Rule {
	if i == nil {
		return nil
	}
	rules := i.byDomain[domain]
	return rules[:len(rules):len(rules)]
}

// Domains returns the indexed domains sorted by name.
func (i *Index) Domains() []string {
	if i == nil {
		return nil
	}
	out := make([]string, len(i.domains))
	copy(out, i.domains)
	sort.Strings(out)
	return out
}

// Len returns the total number of rules.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return i.size
}

// Each calls fn for every rule, domains in first-seen order and rules in load order.
func (i *Index) Each(fn func(position int, r *Rule)) {
	if i == nil {
		return
	}
	for _, domain := range i.domains {
		for pos, r := range i.byDomain[domain] {
			fn(pos, r)
		}
	}
}

// Close releases compiled handles that hold resources. The index must not
// be used afterwards.
func (i *Index) Close() error {
	if i == nil {
		return nil
	}

	var errs []error
	i.Each(func(_ int, r *Rule) {
		if c, ok := r.query.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
		if c, ok := r.probe.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	})
	return errors.Join(errs...)
}
