package http

import (
	"fmt"
	"net/http"
)

// ContentTypeJSON is the media type of every API request and response body.
const ContentTypeJSON = "application/json"

// WriteJSON writes a pre-encoded JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body []byte) error {
	w.Header().Set("Content-Type", ContentTypeJSON)
	w.WriteHeader(status)

	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("write body: %w", err)
	}

	return nil
}
