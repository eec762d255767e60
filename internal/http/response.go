package http

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/c879873067877881111/Bark-Bijou-backend/internal/service"
	"github.com/go-chi/chi/v5"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

var statusByCode = map[string]int{
	service.CodeCartEmpty:         http.StatusBadRequest,
	service.CodeInvalidQuantity:   http.StatusBadRequest,
	service.CodeInvalidPagination: http.StatusBadRequest,
	service.CodeInsufficientStock: http.StatusBadRequest,
	service.CodeProductInactive:   http.StatusBadRequest,
	service.CodeInvalidProduct:    http.StatusBadRequest,
	service.CodeOrderStatusError:  http.StatusBadRequest,
	service.CodeInvalidTransition: http.StatusBadRequest,
	service.CodeForbidden:         http.StatusForbidden,
	service.CodeProductNotFound:   http.StatusNotFound,
	service.CodeNotFound:          http.StatusNotFound,
	service.CodeOrderNotFound:     http.StatusNotFound,
	service.CodeConflict:          http.StatusConflict,
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// handleServiceError converts a service error to its HTTP status. Internal
// errors never leak their message.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	code := service.CodeOf(err)
	status, ok := statusByCode[code]
	if !ok {
		log.Printf("request %s failed: %v", getRequestID(r.Context()), err)
		respondError(w, http.StatusInternalServerError, service.CodeInternalError, "internal server error")
		return
	}
	respondError(w, status, code, err.Error())
}

func pathID(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
