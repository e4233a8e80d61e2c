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
	"context"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/jungle/models"
	"github.com/tomoncle/jungle/types"
)

// JungleReader is the read side of jungle.Catalog.
type JungleReader interface {
	Jungles(ctx context.Context, req *types.PageRequest) (*types.Pagination[models.Jungle], error)
	Jungle(ctx context.Context, id int64) (*models.Jungle, error)
	Animals(ctx context.Context, req *types.PageRequest) (*types.Pagination[models.Animal], error)
}

// JungleHandler serves the read-only jungle and animal endpoints.
type JungleHandler struct {
	reader JungleReader
	logger *logrus.Logger
}

func NewJungleHandler(reader JungleReader) *JungleHandler {
	return &JungleHandler{reader: reader}
}

// jungleDetail always renders the animals array, empty or not.
type jungleDetail struct {
	*models.Jungle
	Animals []*models.Animal `json:"animals"`
}

func (h *JungleHandler) RegisterRoutes(router *mux.Router, logger *logrus.Logger) {
	h.logger = logger
	router.HandleFunc("/jungles", h.listJungles).Methods(http.MethodGet)
	router.HandleFunc("/jungles/{id}", h.getJungle).Methods(http.MethodGet)
	router.HandleFunc("/animals", h.listAnimals).Methods(http.MethodGet)
}

func (h *JungleHandler) listJungles(w http.ResponseWriter, r *http.Request) {
	req, err := pageRequest(r, nil)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.reader.Jungles(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *JungleHandler) getJungle(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil || id < 1 {
		h.fail(w, r, badRequest("id must be a positive integer"))
		return
	}
	j, err := h.reader.Jungle(r.Context(), id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	animals := j.Animals
	if animals == nil {
		animals = make([]*models.Animal, 0)
	}
	writeJSON(w, http.StatusOK, jungleDetail{Jungle: j, Animals: animals})
}

func (h *JungleHandler) listAnimals(w http.ResponseWriter, r *http.Request) {
	var filter *types.QueryFilter
	if r.URL.Query().Has("jungle_id") {
		jungleID, err := positiveInt(r, "jungle_id", 0)
		if err != nil {
			h.fail(w, r, err)
			return
		}
		filter = types.NewQueryFilter("jungle_id = ?", jungleID)
	}
	req, err := pageRequest(r, filter)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	page, err := h.reader.Animals(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *JungleHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch status {
	case http.StatusNotFound:
		msg = "not found"
	case http.StatusInternalServerError:
		if h.logger != nil {
			h.logger.WithError(err).WithField("request_id", RequestID(r.Context())).Error("query failed")
		}
		msg = "internal server error"
	}
	writeError(w, status, msg)
}
