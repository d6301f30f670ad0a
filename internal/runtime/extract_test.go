package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractResponse(t *testing.T) {
	body := []byte(`{"data":{"status":"shipped","items":[1,2,3]},"ok":true}`)

	assert.Equal(t, "shipped", extractResponse(body, "data.status"))
	assert.Equal(t, true, extractResponse(body, "ok"))
	assert.Nil(t, extractResponse(body, "data.missing"))

	// No path: the whole body, decoded.
	whole := extractResponse(body, "")
	m, ok := whole.(map[string]any)
	assert.True(t, ok)
	assert.Equal(t, true, m["ok"])

	// Non-JSON bodies come back verbatim.
	assert.Equal(t, "plain text", extractResponse([]byte("plain text"), ""))
}
