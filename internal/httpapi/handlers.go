package httpapi

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/scylladb/vector-store/internal/dbclient"
	"github.com/scylladb/vector-store/internal/indexactor"
	"github.com/scylladb/vector-store/internal/info"
)

const (
	minAnnLimit     = 1
	maxAnnLimit     = 1000
	defaultAnnLimit = 1
)

// indexIDFromPath builds the IndexId named by the :keyspace/:index route
// params, the same pair the original Rust handlers build via IndexId::new.
func indexIDFromPath(c *gin.Context) dbclient.IndexId {
	return dbclient.IndexId{
		Keyspace: dbclient.KeyspaceName(c.Param("keyspace")),
		Index:    c.Param("index"),
	}
}

func (s *Server) getIndexes(c *gin.Context) {
	ids := s.engine.GetIndexIds(c.Request.Context())
	if ids == nil {
		ids = []dbclient.IndexId{}
	}
	c.JSON(http.StatusOK, ids)
}

func (s *Server) getIndexCount(c *gin.Context) {
	id := indexIDFromPath(c)
	actor, _, ok := s.engine.GetIndex(c.Request.Context(), id)
	if !ok {
		s.log.Debug("get_index_count: missing index", "index", id)
		notFoundError(c)
		return
	}

	count, err := actor.Count(c.Request.Context())
	if err != nil {
		internalError(c, "index.count request error: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, count)
}

// Limit is a pointer so an omitted field (nil) can be told apart from an
// explicit 0 — the latter is rejected, mirroring the original's Limit
// newtype over NonZeroUsize, which fails to deserialize a literal 0.
type postIndexAnnRequest struct {
	Embedding []float32 `json:"embedding"`
	Limit     *int      `json:"limit"`
}

type postIndexAnnResponse struct {
	PrimaryKeys map[dbclient.ColumnName][]any `json:"primary_keys"`
	Distances   []float32                     `json:"distances"`
}

func (s *Server) postIndexAnn(c *gin.Context) {
	id := indexIDFromPath(c)

	var req postIndexAnnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequestError(c, "invalid request body: "+err.Error())
		return
	}
	limit := defaultAnnLimit
	if req.Limit != nil {
		limit = *req.Limit
	}
	if limit < minAnnLimit || limit > maxAnnLimit {
		badRequestError(c, "limit must be between 1 and 1000")
		return
	}
	if len(req.Embedding) == 0 {
		badRequestError(c, "embedding must not be empty")
		return
	}

	timer := time.Now()
	keyspace, index := string(id.Keyspace), id.Index
	defer func() {
		s.metrics.AnnLatency.WithLabelValues(keyspace, index).Observe(time.Since(timer).Seconds())
	}()

	actor, dbIndex, ok := s.engine.GetIndex(c.Request.Context(), id)
	if !ok {
		s.log.Debug("post_index_ann: missing index", "index", id)
		notFoundError(c)
		return
	}

	matches, err := actor.Ann(c.Request.Context(), req.Embedding, limit)
	if err != nil {
		var dimErr *indexactor.ErrWrongDimension
		if errors.As(err, &dimErr) {
			badRequestError(c, err.Error())
			return
		}
		internalError(c, "index.ann request error: "+err.Error())
		return
	}

	columns, err := dbIndex.GetPrimaryKeyColumns(c.Request.Context())
	if err != nil {
		internalError(c, "get_primary_key_columns request error: "+err.Error())
		return
	}

	primaryKeys := make(map[dbclient.ColumnName][]any, len(columns))
	for _, column := range columns {
		primaryKeys[column] = make([]any, 0, len(matches))
	}

	distances := make([]float32, 0, len(matches))
	for _, m := range matches {
		if m.Key.Len() != len(columns) {
			internalError(c, "wrong size of a primary key")
			return
		}
		for i, column := range columns {
			value, ok := m.Key.Get(i)
			if !ok {
				internalError(c, "wrong size of a primary key")
				return
			}
			jsonValue, err := toJSON(value)
			if err != nil {
				internalError(c, err.Error())
				return
			}
			primaryKeys[column] = append(primaryKeys[column], jsonValue)
		}
		distances = append(distances, m.Distance)
	}

	c.JSON(http.StatusOK, postIndexAnnResponse{
		PrimaryKeys: primaryKeys,
		Distances:   distances,
	})
}

type infoResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

func (s *Server) getInfo(c *gin.Context) {
	c.JSON(http.StatusOK, infoResponse{
		Version: info.Version(),
		Service: info.Name(),
	})
}

func (s *Server) getStatus(c *gin.Context) {
	c.JSON(http.StatusOK, s.node.GetStatus(c.Request.Context()))
}

func (s *Server) getMetrics(c *gin.Context) {
	servePrometheusMetrics(c, s.metrics)
}
