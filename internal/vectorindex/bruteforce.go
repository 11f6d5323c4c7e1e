package vectorindex

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/scylladb/vector-store/internal/dbclient"
)

// bruteForce is the default Index: an exact linear scan. It is the
// implementation-supplied fallback when no external ANN service is
// configured — correct and simple, trading query time (O(n)) for zero
// external dependencies. Good enough for the modest per-index vector
// counts exercised by tests and small deployments; internal/indexactor is
// free to swap in an HTTP-backed Index (qdrant.go) for larger ones.
type bruteForce struct {
	mu     sync.RWMutex
	params Params
	// insertion order as a tiebreak for equal-distance matches, per the
	// "insertion-time id ascending" rule.
	order   map[uint64]int
	nextOrd int
	vectors map[uint64][]float32
}

// NewBruteForce returns a Factory for the default in-process backend.
func NewBruteForce() Factory {
	return func(params Params) (Index, error) {
		return &bruteForce{
			params:  params.Normalize(),
			order:   make(map[uint64]int),
			vectors: make(map[uint64][]float32),
		}, nil
	}
}

func (b *bruteForce) Add(ctx context.Context, id uint64, vector []float32) error {
	if len(vector) != b.params.Dimensions {
		return &ErrDimension{Expected: b.params.Dimensions, Actual: len(vector)}
	}
	cp := make([]float32, len(vector))
	copy(cp, vector)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, exists := b.vectors[id]; !exists {
		b.order[id] = b.nextOrd
		b.nextOrd++
	}
	b.vectors[id] = cp
	return nil
}

func (b *bruteForce) Remove(ctx context.Context, id uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.vectors, id)
	delete(b.order, id)
	return nil
}

func (b *bruteForce) Search(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if len(vector) != b.params.Dimensions {
		return nil, &ErrDimension{Expected: b.params.Dimensions, Actual: len(vector)}
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	matches := make([]Match, 0, len(b.vectors))
	for id, v := range b.vectors {
		matches = append(matches, Match{Id: id, Distance: distance(b.params.Space, vector, v)})
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Distance != matches[j].Distance {
			return matches[i].Distance < matches[j].Distance
		}
		return b.order[matches[i].Id] < b.order[matches[j].Id]
	})

	if limit < len(matches) {
		matches = matches[:limit]
	}
	return matches, nil
}

func (b *bruteForce) Count(ctx context.Context) (int, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.vectors), nil
}

func (b *bruteForce) Close() error { return nil }

// distance computes the "lower is closer" distance for space between a
// query vector and a stored one. Lengths are assumed equal; callers check
// dimensions before reaching here.
func distance(space dbclient.SpaceType, a, v []float32) float32 {
	switch space {
	case dbclient.SpaceCosine:
		return cosineDistance(a, v)
	case dbclient.SpaceDotProduct:
		return -dot(a, v)
	default: // SpaceEuclidean
		return squaredEuclidean(a, v)
	}
}

func squaredEuclidean(a, v []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - v[i]
		sum += d * d
	}
	return sum
}

func dot(a, v []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * v[i]
	}
	return sum
}

func cosineDistance(a, v []float32) float32 {
	num := dot(a, v)
	na := norm(a)
	nv := norm(v)
	if na == 0 || nv == 0 {
		return 1
	}
	cos := float64(num) / (na * nv)
	return float32(1 - cos)
}

func norm(a []float32) float64 {
	var sum float64
	for _, x := range a {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}
