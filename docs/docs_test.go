package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

func TestSwaggerDocRegistered(t *testing.T) {
	raw, err := swag.ReadDoc()
	require.NoError(t, err)

	var doc struct {
		Info struct {
			Title   string `json:"title"`
			Version string `json:"version"`
		} `json:"info"`
		BasePath            string                            `json:"basePath"`
		Paths               map[string]map[string]interface{} `json:"paths"`
		SecurityDefinitions map[string]interface{}            `json:"securityDefinitions"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &doc))
	assert.Equal(t, "JarvisFi API", doc.Info.Title)
	assert.Equal(t, "2.0", doc.Info.Version)
	assert.Equal(t, "/", doc.BasePath)
	assert.Contains(t, doc.Paths["/api/v1/chat"], "post")
	assert.Contains(t, doc.Paths["/api/v1/financial/budget/report"], "post")
	assert.Contains(t, doc.Paths["/api/v1/users/me"], "delete")
	assert.Contains(t, doc.SecurityDefinitions, "BearerAuth")
	assert.Contains(t, doc.SecurityDefinitions, "ApiKeyAuth")
}
