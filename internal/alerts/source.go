package alerts

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"
)

// Source produces at most one candidate alert per poll. ok is false when
// there is nothing new. A non-nil error means the poll itself failed; callers
// treat it like an empty poll.
type Source interface {
	Poll(ctx context.Context) (candidate Alert, ok bool, err error)
}

// SourceFunc adapts a function to the Source interface.
type SourceFunc func(ctx context.Context) (Alert, bool, error)

func (f SourceFunc) Poll(ctx context.Context) (Alert, bool, error) {
	return f(ctx)
}

// IDGenerator hands out millisecond-derived ids that strictly increase even
// when two alerts are stamped within the same millisecond.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Next returns an id derived from now, bumped past the previous id if needed.
func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// RandomSource is a stand-in for an upstream status feed: each poll yields a
// catalog entry with the configured probability.
type RandomSource struct {
	mu          sync.Mutex
	catalog     []Template
	probability float64
	rnd         *rand.Rand
	now         func() time.Time
	ids         *IDGenerator
}

type RandomSourceOption func(*RandomSource)

// WithProbability sets the chance, in [0,1], that a poll yields a candidate.
func WithProbability(p float64) RandomSourceOption {
	return func(s *RandomSource) { s.probability = p }
}

// WithCatalog replaces the default catalog.
func WithCatalog(catalog []Template) RandomSourceOption {
	return func(s *RandomSource) { s.catalog = catalog }
}

// WithRand sets the random generator, mainly so tests can seed it.
func WithRand(r *rand.Rand) RandomSourceOption {
	return func(s *RandomSource) { s.rnd = r }
}

// WithNow sets the clock used to stamp candidates.
func WithNow(now func() time.Time) RandomSourceOption {
	return func(s *RandomSource) { s.now = now }
}

// NewRandomSource creates a RandomSource with the default catalog and p=0.10.
func NewRandomSource(opts ...RandomSourceOption) *RandomSource {
	seed := uint64(time.Now().UnixNano())
	s := &RandomSource{
		catalog:     DefaultCatalog(),
		probability: 0.10,
		rnd:         rand.New(rand.NewPCG(seed, seed>>1|1)),
		now:         time.Now,
		ids:         &IDGenerator{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Poll returns a freshly stamped candidate with the configured probability.
func (s *RandomSource) Poll(ctx context.Context) (Alert, bool, error) {
	if err := ctx.Err(); err != nil {
		return Alert{}, false, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.catalog) == 0 || s.rnd.Float64() >= s.probability {
		return Alert{}, false, nil
	}

	t := s.catalog[s.rnd.IntN(len(s.catalog))]
	now := s.now()
	return Alert{
		ID:        s.ids.Next(now),
		Title:     t.Title,
		Message:   t.Message,
		Type:      t.Type,
		Timestamp: now,
		Read:      false,
	}, true, nil
}
