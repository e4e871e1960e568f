package apidoc

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathParams(t *testing.T) {
	assert.Equal(t, []string{"vendor", "app", "version"}, pathParams("/v1/vendors/{vendor}/apps/{app}/versions/{version}/rollback"))
	assert.Empty(t, pathParams("/v1/public/apps"))
}

func TestRoutes_Unique(t *testing.T) {
	seenRoute := map[string]bool{}
	seenOp := map[string]bool{}

	for _, r := range Routes() {
		key := r.Method + " " + r.Path
		assert.False(t, seenRoute[key], "duplicate route %s", key)
		assert.False(t, seenOp[r.OperationID], "duplicate operation id %s", r.OperationID)
		seenRoute[key] = true
		seenOp[r.OperationID] = true

		assert.NotEmpty(t, r.Tag)
		assert.NotNil(t, r.Response)
		assert.NotZero(t, http.StatusText(r.Status))
	}
}

func TestRoutes_Security(t *testing.T) {
	for _, r := range Routes() {
		switch {
		case r.Tag == "Public":
			assert.Empty(t, r.Security, r.OperationID)
		case r.Path == "/v1/hooks/storage":
			assert.Equal(t, securityHook, r.Security)
		default:
			assert.Equal(t, securityBearer, r.Security, r.OperationID)
		}
	}
}
