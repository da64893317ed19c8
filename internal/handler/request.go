package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/WuorBhang/alx-backend-travel-app/internal/domain"
	"github.com/WuorBhang/alx-backend-travel-app/internal/middleware"
)

// errBodyTooLarge is returned by decodeBody when MaxBytesReader cut the body.
var errBodyTooLarge = errors.New("request body too large")

// decodeBody decodes a JSON request body into v, rejecting unknown fields.
func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return errors.New("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return errBodyTooLarge
		case errors.Is(err, io.EOF):
			return errors.New("request body is required")
		default:
			return fmt.Errorf("invalid request body: %s", err.Error())
		}
	}
	return nil
}

// readBody decodes v and writes the error response itself when it fails.
func readBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := decodeBody(r, v)
	if err == nil {
		return true
	}
	if errors.Is(err, errBodyTooLarge) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", err.Error())
		return false
	}
	badRequest(w, err.Error())
	return false
}

// pathID binds the {id} path parameter.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	var id openapi_types.UUID
	err := runtime.BindStyledParameterWithOptions("simple", "id", chi.URLParam(r, "id"), &id,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		badRequest(w, "invalid id: must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

// pageParams binds the optional ?page= and ?limit= query parameters.
// Defaults: page=1, limit=20, max=100.
func pageParams(w http.ResponseWriter, r *http.Request) (domain.PaginationParams, bool) {
	var page, limit *int
	q := r.URL.Query()
	if err := runtime.BindQueryParameter("form", true, false, "page", q, &page); err != nil {
		badRequest(w, "invalid page: must be an integer")
		return domain.PaginationParams{}, false
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", q, &limit); err != nil {
		badRequest(w, "invalid limit: must be an integer")
		return domain.PaginationParams{}, false
	}
	return domain.NewPaginationParams(page, limit), true
}

// callerOf returns the authenticated caller, writing 401 when there is none.
func callerOf(w http.ResponseWriter, r *http.Request) (domain.Caller, bool) {
	c, ok := middleware.CallerFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
	}
	return c, ok
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

// ListResponse wraps a page of items.
type ListResponse[T any] struct {
	Data       []T        `json:"data"`
	Pagination Pagination `json:"pagination"`
}

func newList[S any, T any](items []S, conv func(S) T, p domain.PaginationParams, total int64) ListResponse[T] {
	data := make([]T, len(items))
	for i, it := range items {
		data[i] = conv(it)
	}
	return ListResponse[T]{
		Data:       data,
		Pagination: Pagination{Page: p.Page, Limit: p.Limit, Total: int(total)},
	}
}
