package vectorindex

import (
	"context"
	"math"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/stretchr/testify/require"
)

func TestQdrantDistanceNameMapping(t *testing.T) {
	cases := map[dbclient.SpaceType]string{
		dbclient.SpaceCosine:     "Cosine",
		dbclient.SpaceDotProduct: "Dot",
		dbclient.SpaceEuclidean:  "Euclid",
	}
	for space, want := range cases {
		if got := qdrantDistanceName(space); got != want {
			t.Errorf("qdrantDistanceName(%v) = %q, want %q", space, got, want)
		}
	}
}

func TestQdrantScoreToDistance(t *testing.T) {
	// float32(1 - 0.8) is one ulp away from float32(0.2), so compare with a tolerance.
	if d := qdrantScoreToDistance(dbclient.SpaceCosine, 0.8); math.Abs(float64(d)-0.2) > 1e-6 {
		t.Errorf("cosine: got %v, want 0.2", d)
	}
	if d := qdrantScoreToDistance(dbclient.SpaceDotProduct, 3); d != -3 {
		t.Errorf("dot: got %v, want -3", d)
	}
	if d := qdrantScoreToDistance(dbclient.SpaceEuclidean, 5); d != 5 {
		t.Errorf("euclid: got %v, want 5", d)
	}
}

// TestQdrantIndexAgainstFakeServer exercises Add/Search/Count/Remove against
// an httptest server standing in for Qdrant, so the wire shape is verified
// without a live instance.
func TestQdrantIndexAgainstFakeServer(t *testing.T) {
	mux := http.NewServeMux()
	exists := false
	points := map[uint64][]float32{}

	mux.HandleFunc("/collections/test", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			if exists {
				w.Write([]byte(`{"result":{"points_count":` + strconv.Itoa(len(points)) + `}}`))
				return
			}
			w.WriteHeader(http.StatusNotFound)
		case http.MethodPut:
			exists = true
			w.Write([]byte(`{"result":true}`))
		}
	})
	mux.HandleFunc("/collections/test/points", func(w http.ResponseWriter, r *http.Request) {
		points[1] = []float32{1, 2, 3}
		w.Write([]byte(`{"result":{}}`))
	})
	mux.HandleFunc("/collections/test/points/delete", func(w http.ResponseWriter, r *http.Request) {
		delete(points, 1)
		w.Write([]byte(`{"result":{}}`))
	})
	mux.HandleFunc("/collections/test/points/search", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"result":[{"id":1,"score":0.1}]}`))
	})

	srv := httptest.NewServer(mux)
	defer srv.Close()

	idx, err := NewQdrant(QdrantConfig{URL: srv.URL}, "test")(Params{Dimensions: 3, Space: dbclient.SpaceEuclidean})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, idx.Add(ctx, 1, []float32{1, 2, 3}))

	n, err := idx.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	matches, err := idx.Search(ctx, []float32{1, 2, 3}, 10)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, uint64(1), matches[0].Id)

	require.NoError(t, idx.Remove(ctx, 1))
	require.NoError(t, idx.Close())
}

func TestQdrantIndexRejectsWrongDimension(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/test2", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			w.Write([]byte(`{"result":true}`))
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	idx, err := NewQdrant(QdrantConfig{URL: srv.URL}, "test2")(Params{Dimensions: 3, Space: dbclient.SpaceEuclidean})
	require.NoError(t, err)

	err = idx.Add(context.Background(), 1, []float32{1, 2})
	var dimErr *ErrDimension
	require.ErrorAs(t, err, &dimErr)
}
