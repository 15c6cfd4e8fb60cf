package ngram

import (
	"cmp"
	"fmt"
	"iter"
	"slices"

	model "skipgram-go/internal/model/ngram"

	"go.uber.org/zap"
)

// StratumKey identifies one independent trie: all entries of one length
// stored with one skip value. Plain n-grams live at Skip 0.
type StratumKey struct {
	Order int `json:"order"`
	Skip  int `json:"skip"`
}

func compareKeys(a, b StratumKey) int {
	if c := cmp.Compare(a.Order, b.Order); c != 0 {
		return c
	}
	return cmp.Compare(a.Skip, b.Skip)
}

// store is the stratum table shared by Ngrams and Skipgrams
type store[T comparable] struct {
	maxOrder int
	maxSkip  int
	tries    map[StratumKey]*TrieNode[T]
	filter   *MembershipFilter[T]
	logger   *zap.Logger
}

func newStore[T comparable](maxOrder, maxSkip int, opts []Option) (*store[T], error) {
	if maxOrder < 1 {
		return nil, fmt.Errorf("%w: order must be an integer >= 1: %d", ErrInvalidArgument, maxOrder)
	}
	if maxSkip < 0 {
		return nil, fmt.Errorf("%w: skip must be an integer >= 0: %d", ErrInvalidArgument, maxSkip)
	}

	o := buildOptions(opts)
	s := &store[T]{
		tries:  make(map[StratumKey]*TrieNode[T], maxOrder*(maxSkip+1)),
		logger: o.logger,
	}
	if o.useFilter {
		s.filter = NewMembershipFilter[T](o.filterItems, o.falsePositiveRate)
	}
	s.grow(maxOrder, maxSkip)
	return s, nil
}

// grow raises the bounds and allocates empty roots for every new stratum.
// Bounds never shrink.
func (s *store[T]) grow(maxOrder, maxSkip int) {
	s.maxOrder = max(s.maxOrder, maxOrder)
	s.maxSkip = max(s.maxSkip, maxSkip)
	for order := 1; order <= s.maxOrder; order++ {
		for skip := 0; skip <= s.maxSkip; skip++ {
			key := StratumKey{Order: order, Skip: skip}
			if _, exists := s.tries[key]; !exists {
				s.tries[key] = NewTrieNode[T]()
			}
		}
	}
}

func (s *store[T]) validate(entry []T, skip int, count int64) error {
	if len(entry) < 1 || len(entry) > s.maxOrder {
		return fmt.Errorf("%w: length of %v is outside of [1, %d]", ErrInvalidArgument, entry, s.maxOrder)
	}
	if err := validateSkip(skip, s.maxSkip); err != nil {
		return err
	}
	if count < 0 {
		return fmt.Errorf("%w: count must be >= 0: %d", ErrInvalidArgument, count)
	}
	return nil
}

func (s *store[T]) add(entry []T, skip int, count int64) error {
	if err := s.validate(entry, skip, count); err != nil {
		return err
	}
	return s.insert(entry, skip, count)
}

// insert skips argument validation; callers guarantee the bounds
func (s *store[T]) insert(entry []T, skip int, count int64) error {
	root := s.tries[StratumKey{Order: len(entry), Skip: skip}]
	if err := root.insert(entry, count); err != nil {
		return err
	}
	if s.filter != nil {
		s.filter.Add(entry, skip)
	}
	return nil
}

func (s *store[T]) addFromSeq(seq []T, count int64, withSkips bool) error {
	if count < 0 {
		return fmt.Errorf("%w: count must be >= 0: %d", ErrInvalidArgument, count)
	}

	for n := 1; n <= min(s.maxOrder, len(seq)); n++ {
		if !withSkips {
			grams, err := NgramsFromSeq(seq, n)
			if err != nil {
				return err
			}
			for ng := range grams {
				if err := s.insert(ng, 0, count); err != nil {
					return err
				}
			}
			continue
		}

		for skip := 0; skip <= max(min(s.maxSkip, len(seq)-n), 0); skip++ {
			grams, err := SkipgramsFromSeq(seq, n, skip)
			if err != nil {
				return err
			}
			for ng := range grams {
				if err := s.insert(ng, skip, count); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// count returns the exact count of entry in the given skip stratum. Prefixes
// of longer entries are not counted.
func (s *store[T]) count(entry []T, skip int) int64 {
	if len(entry) == 0 || len(entry) > s.maxOrder {
		return 0
	}
	if s.filter != nil && !s.filter.MayContain(entry, skip) {
		return 0
	}
	res := s.tries[StratumKey{Order: len(entry), Skip: skip}].lookup(entry)
	if res.kind != lookupExact {
		return 0
	}
	return res.count
}

func (s *store[T]) contains(entry []T) bool {
	for skip := 0; skip <= s.maxSkip; skip++ {
		if s.count(entry, skip) > 0 {
			return true
		}
	}
	return false
}

// keys resolves order and skip selections into sorted stratum keys
func (s *store[T]) keys(orders, skips Selection) ([]StratumKey, error) {
	orderVals, err := orders.resolve("order", 1, s.maxOrder)
	if err != nil {
		return nil, err
	}
	skipVals, err := skips.resolve("skip", 0, s.maxSkip)
	if err != nil {
		return nil, err
	}

	keys := make([]StratumKey, 0, len(orderVals)*len(skipVals))
	for _, order := range orderVals {
		for _, skip := range skipVals {
			keys = append(keys, StratumKey{Order: order, Skip: skip})
		}
	}
	return keys, nil
}

func (s *store[T]) totalCount(keys []StratumKey, unique bool) int64 {
	var total int64
	for _, key := range keys {
		for _, c := range flatten(s.tries[key].lookup(nil), nil) {
			if unique {
				total++
			} else {
				total += c
			}
		}
	}
	return total
}

// withCounts chains the flattened strata for keys, each filtered by prefix
func (s *store[T]) withCounts(keys []StratumKey, prefix []T) iter.Seq2[model.NGram[T], int64] {
	prefix = slices.Clone(prefix)
	return func(yield func(model.NGram[T], int64) bool) {
		for _, key := range keys {
			for ng, c := range flatten(s.tries[key].lookup(prefix), prefix) {
				if !yield(ng, c) {
					return
				}
			}
		}
	}
}

// entries materializes every entry of one stratum
func (s *store[T]) entries(key StratumKey) []model.Entry[T] {
	root, ok := s.tries[key]
	if !ok {
		return nil
	}
	var out []model.Entry[T]
	for ng, c := range flatten(root.lookup(nil), nil) {
		out = append(out, model.Entry[T]{Tokens: ng, Skip: key.Skip, Count: c})
	}
	return out
}

// absorb re-inserts every entry of other's strata that fall within the
// receiver's bounds, summing counts
func (s *store[T]) absorb(other *store[T]) error {
	var pending []model.Entry[T]
	for _, key := range other.strata() {
		if key.Order > s.maxOrder || key.Skip > s.maxSkip {
			continue
		}
		pending = append(pending, other.entries(key)...)
	}

	for _, e := range pending {
		if err := s.add(e.Tokens, e.Skip, e.Count); err != nil {
			return err
		}
	}

	s.logger.Debug("Combined collection",
		zap.Int("entries", len(pending)),
		zap.Int("max_order", s.maxOrder),
		zap.Int("max_skip", s.maxSkip),
	)
	return nil
}

// strata returns all stratum keys in (order, skip) order
func (s *store[T]) strata() []StratumKey {
	keys := make([]StratumKey, 0, len(s.tries))
	for key := range s.tries {
		keys = append(keys, key)
	}
	slices.SortFunc(keys, compareKeys)
	return keys
}

func (s *store[T]) stats() Stats {
	st := Stats{
		MaxOrder: s.maxOrder,
		MaxSkip:  s.maxSkip,
	}
	for _, key := range s.strata() {
		root := s.tries[key]
		ss := StratumStats{Key: key, Nodes: root.countNodes()}
		for _, c := range flatten(root.lookup(nil), nil) {
			ss.Unique++
			ss.Total += c
		}
		st.Unique += ss.Unique
		st.Total += ss.Total
		st.Nodes += ss.Nodes
		st.Strata = append(st.Strata, ss)
	}
	return st
}

// StratumStats summarizes one stratum trie
type StratumStats struct {
	Key    StratumKey `json:"key"`
	Unique int64      `json:"unique"`
	Total  int64      `json:"total"`
	Nodes  int64      `json:"nodes"`
}

// Stats summarizes a collection
type Stats struct {
	MaxOrder int            `json:"max_order"`
	MaxSkip  int            `json:"max_skip"`
	Unique   int64          `json:"unique"`
	Total    int64          `json:"total"`
	Nodes    int64          `json:"nodes"`
	Strata   []StratumStats `json:"strata"`
}
