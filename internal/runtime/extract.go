package runtime

import (
	"encoding/json"

	"github.com/tidwall/gjson"
)

// extractResponse turns an API response body into a value usable by later
// nodes. With a path, the matching fragment is extracted; without one the
// whole body is decoded. Non-JSON bodies come back as strings.
func extractResponse(body []byte, path string) any {
	if path != "" {
		result := gjson.GetBytes(body, path)
		if !result.Exists() {
			return nil
		}
		return result.Value()
	}

	var value any
	if err := json.Unmarshal(body, &value); err != nil {
		return string(body)
	}
	return value
}
