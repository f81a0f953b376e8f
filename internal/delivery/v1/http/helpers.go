package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/mercalog/go-backend/pkg/e"
)

// Response — единый конверт ответа API.
type Response struct {
	Success    bool        `json:"success"`
	Data       any         `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Error      string      `json:"error,omitempty"`
	Count      *int        `json:"count,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// ToHTTPResponse переводит ошибку в статус и пользовательское сообщение.
func ToHTTPResponse(err error) (int, string) {
	switch {
	case errors.Is(err, e.ErrMissingFields):
		return http.StatusBadRequest, e.ErrMissingFields.Error()
	case errors.Is(err, e.ErrEANConflict):
		return http.StatusBadRequest, e.ErrEANConflict.Error()
	case errors.Is(err, e.ErrInvalidID):
		return http.StatusBadRequest, e.ErrInvalidID.Error()
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, e.ErrUnauthorized.Error()
	case errors.Is(err, e.ErrInvalidAccessCode):
		return http.StatusUnauthorized, e.ErrInvalidAccessCode.Error()
	case errors.Is(err, e.ErrNotFound):
		return http.StatusNotFound, e.ErrNotFound.Error()
	default:
		return http.StatusInternalServerError, e.ErrInternalServerError.Error()
	}
}

// WriteError пишет конверт ошибки; для 500 причина раскрывается только вне production.
func WriteError(w http.ResponseWriter, err error, exposeDetail bool) {
	code, msg := ToHTTPResponse(err)

	resp := Response{Success: false, Message: msg}
	if exposeDetail && code == http.StatusInternalServerError {
		resp.Error = err.Error()
	}

	writeJSON(w, code, resp)
}

func WriteSuccess(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, Response{Success: true, Message: message})
}

// WriteList пишет коллекцию с количеством и, при пагинации, блоком pagination.
func WriteList(w http.ResponseWriter, data any, count int, pagination *Pagination) {
	writeJSON(w, http.StatusOK, Response{
		Success:    true,
		Data:       data,
		Count:      &count,
		Pagination: pagination,
	})
}

func writeJSON(w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// parseID извлекает идентификатор из пути.
func parseID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.ErrInvalidID
	}

	return id, nil
}

// parsePositiveInt разбирает положительный числовой query-параметр; мусор и ноль игнорируются.
func parsePositiveInt(value string) int {
	n, err := strconv.Atoi(value)
	if err != nil || n <= 0 {
		return 0
	}

	return n
}
