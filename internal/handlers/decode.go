package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/GregMSThompson/ca-portal/internal/errs"
)

const maxJSONBody = 1 << 20

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	if err := dec.Decode(v); err != nil {
		return errs.NewValidationError("invalid request body")
	}
	return nil
}

// queryBool reads a boolean query parameter, treating anything unparsable as false.
func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}
