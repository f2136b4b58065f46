package rest

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/zlnvch/homegate/errs"
)

type errorResponse struct {
	Message string `json:"message"`
}

// writeError maps the service error taxonomy onto status codes. Anything
// outside the taxonomy is logged and redacted to a generic 500.
func writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errs.Is(err, errs.KindMalformed):
		status = http.StatusBadRequest
	case errs.Is(err, errs.KindAuth):
		status = http.StatusUnauthorized
	case errs.Is(err, errs.KindNotAllowed):
		status = http.StatusForbidden
	case errs.Is(err, errs.KindNotFound):
		status = http.StatusNotFound
	case errs.Is(err, errs.KindConflict):
		status = http.StatusConflict
	default:
		log.Println("Error:", err)
		status = http.StatusInternalServerError
		err = nil
	}

	message := "Internal server error"
	if err != nil {
		message = err.Error()
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Message: message})
}
