// Package handlers implements the HTTP handlers of the local board API.
// They decode requests, dispatch through the command and query buses,
// and hand failures to the shared error handler.
package handlers

import (
	"net/http"

	"widgetboard/pkg/common"
	pkgerrors "widgetboard/pkg/errors"
)

// maxBodyBytes bounds the accepted request body size.
const maxBodyBytes = 1 << 20

// decodeBody parses a JSON request body into v.
func decodeBody(r *http.Request, v interface{}) error {
	if err := common.ParseJSONBody(r, v, maxBodyBytes); err != nil {
		return pkgerrors.NewValidationError("invalid request body: " + err.Error())
	}
	return nil
}
