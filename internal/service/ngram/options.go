package ngram

import "go.uber.org/zap"

type options struct {
	logger            *zap.Logger
	useFilter         bool
	filterItems       uint
	falsePositiveRate float64
}

// Option configures a collection at construction time
type Option func(*options)

// WithLogger sets the logger used for debug output. Defaults to a no-op logger.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMembershipFilter enables a bloom filter that short-circuits lookups of
// entries that were never inserted. Counts stay exact.
func WithMembershipFilter(expectedItems uint, falsePositiveRate float64) Option {
	return func(o *options) {
		o.useFilter = true
		o.filterItems = expectedItems
		o.falsePositiveRate = falsePositiveRate
	}
}

func buildOptions(opts []Option) options {
	o := options{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
