package indexactor

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/pk"
	"github.com/scylladb/vector-store/internal/vectorindex"
)

func newTestActor(t *testing.T, dims int) (Handle, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	idx, err := vectorindex.NewBruteForce()(vectorindex.Params{Dimensions: dims, Space: dbclient.SpaceEuclidean})
	require.NoError(t, err)
	return New(ctx, idx, dims, 4), cancel
}

// failingIndex wraps a real backend but rejects every Add/Remove call, to
// exercise the mailbox goroutine's handling of a backend error.
type failingIndex struct {
	vectorindex.Index
}

func (f failingIndex) Add(ctx context.Context, id uint64, vector []float32) error {
	return assert.AnError
}

func (f failingIndex) Remove(ctx context.Context, id uint64) error {
	return assert.AnError
}

func TestActorSurvivesBackendAddFailure(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	idx, err := vectorindex.NewBruteForce()(vectorindex.Params{Dimensions: 2, Space: dbclient.SpaceEuclidean})
	require.NoError(t, err)
	h := New(ctx, failingIndex{Index: idx}, 2, 4)

	k1 := pk.MustEncode([]pk.Value{pk.Int(1)})
	require.NoError(t, h.AddOrReplace(ctx, k1, []float32{0, 0}))

	// AddOrReplace itself is fire-and-forget (errors surface only via
	// logging), so the actor must stay responsive for later calls rather
	// than wedging its mailbox goroutine on the backend failure.
	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestValidateEmbeddingEmpty(t *testing.T) {
	err := validateDimensions(0, 3)
	var dimErr *ErrWrongDimension
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 3, dimErr.Expected)
	assert.Equal(t, 0, dimErr.Actual)
}

func TestValidateEmbeddingTooShort(t *testing.T) {
	err := validateDimensions(2, 3)
	var dimErr *ErrWrongDimension
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 2, dimErr.Actual)
}

func TestValidateEmbeddingTooLong(t *testing.T) {
	err := validateDimensions(4, 3)
	var dimErr *ErrWrongDimension
	require.ErrorAs(t, err, &dimErr)
	assert.Equal(t, 4, dimErr.Actual)
}

func TestValidateEmbeddingOk(t *testing.T) {
	assert.NoError(t, validateDimensions(3, 3))
}

func TestActorAddOrReplaceRejectsWrongDimension(t *testing.T) {
	h, cancel := newTestActor(t, 3)
	defer cancel()

	err := h.AddOrReplace(context.Background(), pk.MustEncode([]pk.Value{pk.Int(1)}), []float32{1, 2})
	var dimErr *ErrWrongDimension
	require.ErrorAs(t, err, &dimErr)
}

func TestActorAddThenAnnResolvesPrimaryKeys(t *testing.T) {
	h, cancel := newTestActor(t, 2)
	defer cancel()

	ctx := context.Background()
	k1 := pk.MustEncode([]pk.Value{pk.Int(1)})
	k2 := pk.MustEncode([]pk.Value{pk.Int(2)})

	require.NoError(t, h.AddOrReplace(ctx, k1, []float32{0, 0}))
	require.NoError(t, h.AddOrReplace(ctx, k2, []float32{10, 10}))

	matches, err := h.Ann(ctx, []float32{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.True(t, matches[0].Key.Equal(k1))
	assert.True(t, matches[1].Key.Equal(k2))

	n, err := h.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestActorRemoveDropsFromResults(t *testing.T) {
	h, cancel := newTestActor(t, 2)
	defer cancel()

	ctx := context.Background()
	k1 := pk.MustEncode([]pk.Value{pk.Int(1)})

	require.NoError(t, h.AddOrReplace(ctx, k1, []float32{0, 0}))
	h.Remove(ctx, k1)

	// Remove is fire-and-forget; give the mailbox goroutine a moment to
	// apply it before asserting the count.
	deadline := time.Now().Add(time.Second)
	for {
		n, err := h.Count(ctx)
		require.NoError(t, err)
		if n == 0 || time.Now().After(deadline) {
			assert.Equal(t, 0, n)
			return
		}
	}
}

func TestActorAnnRejectsWrongDimension(t *testing.T) {
	h, cancel := newTestActor(t, 3)
	defer cancel()

	_, err := h.Ann(context.Background(), []float32{1, 2}, 5)
	var dimErr *ErrWrongDimension
	require.ErrorAs(t, err, &dimErr)
}
