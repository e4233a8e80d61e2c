/*
 * Copyright 2025 tomoncle.
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/tomoncle/jungle/database"
	"github.com/tomoncle/jungle/types"
)

var errBadRequest = errors.New("bad request")

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an error to its HTTP status: 400 for invalid input, 404
// when no row matched, 500 otherwise.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest
	case database.IsNoRows(err):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func badRequest(msg string) error {
	return &requestError{msg: msg}
}

type requestError struct{ msg string }

func (e *requestError) Error() string { return e.msg }
func (e *requestError) Is(target error) bool {
	return target == errBadRequest
}

// positiveInt parses an optional positive query parameter; def is returned
// when it is absent.
func positiveInt(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, badRequest(name + " must be a positive integer")
	}
	return n, nil
}

// pageRequest reads page and page_size. page_size above the maximum is
// clamped rather than rejected; page above types.MaxPage is rejected.
func pageRequest(r *http.Request, filter *types.QueryFilter) (*types.PageRequest, error) {
	page, err := positiveInt(r, "page", 1)
	if err != nil {
		return nil, err
	}
	if page > types.MaxPage {
		return nil, badRequest(fmt.Sprintf("page must not exceed %d", types.MaxPage))
	}
	size, err := positiveInt(r, "page_size", types.DefaultPageSize)
	if err != nil {
		return nil, err
	}
	return types.NewPageRequestWithFilter(page, size, filter), nil
}
