// Command vector-store-openapi prints this service's OpenAPI document to
// stdout, the Go equivalent of the original's generate-openapi binary.
package main

import (
	"fmt"

	"github.com/scylladb/vector-store/internal/httpapi"
)

func main() {
	fmt.Println(httpapi.OpenAPIDocument())
}
