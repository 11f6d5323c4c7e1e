// Package httpapi is this node's REST surface, built on gin the way the
// teacher's internal/api is: a plain *gin.Engine, a CORS/rate-limit
// middleware chain, and one route group under /api/v1. It has no
// persistence or business logic of its own — every handler is a thin
// adapter onto internal/engine, internal/dbindexactor and internal/metrics.
package httpapi
