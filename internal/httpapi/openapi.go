package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// openAPIDocument is a hand-written OpenAPI description of the routes in
// server.go, serving the role utoipa's generated document does in the
// original — kept as a static JSON literal rather than reached for a
// codegen dependency, since no OpenAPI generator appears anywhere in the
// example pack.
const openAPIDocument = `{
  "openapi": "3.0.3",
  "info": {
    "title": "ScyllaDB Vector Store API",
    "description": "REST API for ScyllaDB Vector Store - provides vector search and index management",
    "license": {"name": "LicenseRef-ScyllaDB-Source-Available-1.0"},
    "version": "1"
  },
  "tags": [{"name": "scylla-vector-store", "description": "Scylla Vector Store (API will change after design)"}],
  "paths": {
    "/api/v1/indexes": {
      "get": {
        "tags": ["scylla-vector-store"],
        "description": "Get list of current indexes",
        "responses": {"200": {"description": "List of indexes"}}
      }
    },
    "/api/v1/indexes/{keyspace}/{index}/count": {
      "get": {
        "tags": ["scylla-vector-store"],
        "description": "Get a number of elements for a specific index",
        "parameters": [
          {"name": "keyspace", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "index", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "responses": {"200": {"description": "Index count"}}
      }
    },
    "/api/v1/indexes/{keyspace}/{index}/ann": {
      "post": {
        "tags": ["scylla-vector-store"],
        "description": "Ann search in the index",
        "parameters": [
          {"name": "keyspace", "in": "path", "required": true, "schema": {"type": "string"}},
          {"name": "index", "in": "path", "required": true, "schema": {"type": "string"}}
        ],
        "requestBody": {
          "content": {
            "application/json": {
              "schema": {
                "type": "object",
                "properties": {
                  "embedding": {"type": "array", "items": {"type": "number"}},
                  "limit": {"type": "integer"}
                },
                "required": ["embedding"]
              }
            }
          }
        },
        "responses": {
          "200": {"description": "Ann search result"},
          "404": {"description": "Index not found"}
        }
      }
    },
    "/api/v1/info": {
      "get": {
        "tags": ["scylla-vector-store"],
        "description": "Get application info",
        "responses": {"200": {"description": "Application info"}}
      }
    },
    "/api/v1/status": {
      "get": {
        "tags": ["scylla-vector-store"],
        "description": "Get this node's current state-machine status",
        "responses": {"200": {"description": "Node status"}}
      }
    },
    "/api/v1/metrics": {
      "get": {
        "tags": ["scylla-vector-store"],
        "description": "Prometheus metrics, text or protobuf exposition depending on Accept",
        "responses": {"200": {"description": "Metrics"}}
      }
    }
  }
}`

func (s *Server) getOpenAPI(c *gin.Context) {
	c.Data(http.StatusOK, "application/json", []byte(openAPIDocument))
}

// OpenAPIDocument returns the service's OpenAPI document, for
// cmd/vector-store-openapi.
func OpenAPIDocument() string {
	return openAPIDocument
}

// redirectSwaggerUI points at a CDN-hosted Swagger UI pinned to this
// service's OpenAPI document, standing in for utoipa_swagger_ui's embedded
// bundle without vendoring a UI asset tree into this repo.
func (s *Server) redirectSwaggerUI(c *gin.Context) {
	c.Redirect(http.StatusFound, "https://petstore.swagger.io/?url=/api-docs/openapi.json")
}
