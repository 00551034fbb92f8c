package httpx

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/ariefcatur/go-order-fulfillment/internal/catalog"
	"github.com/ariefcatur/go-order-fulfillment/internal/fulfillment"
	"github.com/ariefcatur/go-order-fulfillment/internal/query"
)

// badRequest is a client error detected by the handler itself.
type badRequest string

func (e badRequest) Error() string { return string(e) }

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	code, msg := classify(err)
	if code >= http.StatusInternalServerError {
		log.Printf("http: %v", err)
	}
	writeJSON(w, code, map[string]string{"error": msg})
}

// classify maps a service error to a status and the message shown to the
// client. Fulfillment errors are checked first because they may wrap query
// errors.
func classify(err error) (int, string) {
	var br badRequest
	var qe *query.Error
	switch {
	case errors.As(err, &br):
		return http.StatusBadRequest, br.Error()
	case errors.Is(err, fulfillment.ErrInsufficientStock):
		return http.StatusBadRequest, "Insufficient stock"
	case errors.Is(err, fulfillment.ErrTransactionFailed):
		return http.StatusInternalServerError, "Transaction failed"
	case errors.Is(err, fulfillment.ErrInvalidQuantity),
		errors.Is(err, catalog.ErrNegativePrice),
		errors.Is(err, catalog.ErrNegativeQuantity):
		return http.StatusBadRequest, err.Error()
	case errors.As(err, &qe):
		if errors.Is(qe.Kind, query.ErrNotFound) {
			return http.StatusNotFound, qe.Public()
		}
		return http.StatusForbidden, qe.Public()
	case errors.Is(err, query.ErrNotFound):
		return http.StatusNotFound, "not found"
	}
	return http.StatusInternalServerError, "internal error"
}

// decodeFields reads a JSON object body. Numbers are kept as json.Number so
// prices keep their exact decimal text.
func decodeFields(r *http.Request) (map[string]any, error) {
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil || fields == nil {
		return nil, badRequest("invalid json")
	}
	return fields, nil
}

// jsonInt reads an integer decoded by decodeFields.
func jsonInt(v any) (int, error) {
	switch t := v.(type) {
	case json.Number:
		n, err := t.Int64()
		return int(n), err
	case string:
		return strconv.Atoi(t)
	}
	return 0, badRequest("not an integer")
}
