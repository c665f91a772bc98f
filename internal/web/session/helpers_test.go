package session

import (
	"encoding/json"
	"net/http"
)

func decodeJSON(resp *http.Response, out any) error {
	defer resp.Body.Close()

	return json.NewDecoder(resp.Body).Decode(out)
}
