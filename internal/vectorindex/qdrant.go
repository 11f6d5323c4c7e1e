// Adapted from the teacher's internal/vector/qdrant.go: same HTTP client
// shape (collection-per-index instead of one shared collection, numeric
// point ids instead of payload-bearing memory records), wired behind the
// Index interface so an indexactor.Actor can't tell it apart from
// bruteForce.
package vectorindex

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/scylladb/vector-store/internal/dbclient"
)

// QdrantConfig configures the alternate HTTP-backed ANN engine.
type QdrantConfig struct {
	URL     string
	Timeout time.Duration
}

// qdrantIndex is an Index backed by a Qdrant-compatible HTTP server. Each
// declared vector index gets its own collection.
type qdrantIndex struct {
	baseURL        string
	collectionName string
	httpClient     *http.Client
	params         Params
}

// NewQdrant returns a Factory that creates one Qdrant collection per index.
// collectionName should be unique per IndexId (callers typically derive it
// from keyspace+index name).
func NewQdrant(cfg QdrantConfig, collectionName string) Factory {
	return func(params Params) (Index, error) {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = 30 * time.Second
		}
		q := &qdrantIndex{
			baseURL:        cfg.URL,
			collectionName: collectionName,
			params:         params.Normalize(),
			httpClient:     &http.Client{Timeout: timeout},
		}
		if q.baseURL == "" {
			q.baseURL = "http://localhost:6333"
		}
		if err := q.initCollection(context.Background()); err != nil {
			return nil, err
		}
		return q, nil
	}
}

// initCollection creates the collection if it doesn't exist, with the HNSW
// parameters resolved from the index's metadata.
func (q *qdrantIndex) initCollection(ctx context.Context) error {
	exists, err := q.collectionExists(ctx)
	if err != nil {
		return fmt.Errorf("vectorindex: check qdrant collection: %w", err)
	}
	if exists {
		return nil
	}

	createReq := map[string]any{
		"vectors": map[string]any{
			"size":     q.params.Dimensions,
			"distance": qdrantDistanceName(q.params.Space),
		},
		"hnsw_config": map[string]any{
			"m":            q.params.Connectivity,
			"ef_construct": q.params.ExpansionAdd,
		},
	}
	return q.doJSON(ctx, http.MethodPut, "/collections/"+q.collectionName, createReq, nil)
}

func qdrantDistanceName(space dbclient.SpaceType) string {
	switch space {
	case dbclient.SpaceCosine:
		return "Cosine"
	case dbclient.SpaceDotProduct:
		return "Dot"
	default:
		return "Euclid"
	}
}

func (q *qdrantIndex) collectionExists(ctx context.Context) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+"/collections/"+q.collectionName, nil)
	if err != nil {
		return false, err
	}
	resp, err := q.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK, nil
}

func (q *qdrantIndex) Add(ctx context.Context, id uint64, vector []float32) error {
	if len(vector) != q.params.Dimensions {
		return &ErrDimension{Expected: q.params.Dimensions, Actual: len(vector)}
	}
	body := map[string]any{
		"points": []map[string]any{
			{"id": id, "vector": vector},
		},
	}
	return q.doJSON(ctx, http.MethodPut, "/collections/"+q.collectionName+"/points", body, nil)
}

func (q *qdrantIndex) Remove(ctx context.Context, id uint64) error {
	body := map[string]any{"points": []uint64{id}}
	return q.doJSON(ctx, http.MethodPost, "/collections/"+q.collectionName+"/points/delete", body, nil)
}

func (q *qdrantIndex) Search(ctx context.Context, vector []float32, limit int) ([]Match, error) {
	if len(vector) != q.params.Dimensions {
		return nil, &ErrDimension{Expected: q.params.Dimensions, Actual: len(vector)}
	}

	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": false,
		"params": map[string]any{
			"hnsw_ef": q.params.ExpansionSearch,
		},
	}

	var resp struct {
		Result []struct {
			Id    uint64  `json:"id"`
			Score float32 `json:"score"`
		} `json:"result"`
	}
	if err := q.doJSON(ctx, http.MethodPost, "/collections/"+q.collectionName+"/points/search", body, &resp); err != nil {
		return nil, err
	}

	matches := make([]Match, len(resp.Result))
	for i, r := range resp.Result {
		matches[i] = Match{Id: r.Id, Distance: qdrantScoreToDistance(q.params.Space, r.Score)}
	}
	return matches, nil
}

// qdrantScoreToDistance converts Qdrant's "higher is more similar" score
// into this service's "lower is closer" convention.
func qdrantScoreToDistance(space dbclient.SpaceType, score float32) float32 {
	switch space {
	case dbclient.SpaceCosine:
		return 1 - score
	case dbclient.SpaceDotProduct:
		return -score
	default: // Euclid: Qdrant already returns squared distance, ascending
		return score
	}
}

func (q *qdrantIndex) Count(ctx context.Context) (int, error) {
	var resp struct {
		Result struct {
			PointsCount int64 `json:"points_count"`
		} `json:"result"`
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.baseURL+"/collections/"+q.collectionName, nil)
	if err != nil {
		return 0, err
	}
	r, err := q.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("vectorindex: qdrant collection info: %w", err)
	}
	defer r.Body.Close()
	if r.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(r.Body)
		return 0, fmt.Errorf("vectorindex: qdrant collection info failed with status %d: %s", r.StatusCode, body)
	}
	if err := json.NewDecoder(r.Body).Decode(&resp); err != nil {
		return 0, fmt.Errorf("vectorindex: decode qdrant collection info: %w", err)
	}
	return int(resp.Result.PointsCount), nil
}

// Close does not drop the collection. A Qdrant-backed index has no
// client-side resources beyond the shared *http.Client, so Close here is
// a documented no-op left for symmetry with other backends that do
// hold something (file handles, connection pools).
func (q *qdrantIndex) Close() error {
	return nil
}

func (q *qdrantIndex) doJSON(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("vectorindex: marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, q.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("vectorindex: build qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := q.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("vectorindex: qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vectorindex: qdrant %s %s failed with status %d: %s", method, path, resp.StatusCode, respBody)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("vectorindex: decode qdrant response: %w", err)
		}
	}
	return nil
}

var _ Index = (*qdrantIndex)(nil)
