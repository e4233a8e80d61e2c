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

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/jungle/database"
)

// HealthFunc reports database health.
type HealthFunc func(ctx context.Context) *database.HealthStatus

// StatsFunc reports connection pool statistics.
type StatsFunc func() *database.DBStats

type HealthHandler struct {
	check HealthFunc
	stats StatsFunc
}

// healthBody is the health status with the pool statistics under "pool".
type healthBody struct {
	*database.HealthStatus
	Pool *database.DBStats `json:"pool"`
}

// NewHealthHandler returns a handler for GET /healthz. Nil functions use the
// global database connection.
func NewHealthHandler(check HealthFunc, stats StatsFunc) *HealthHandler {
	if check == nil {
		check = database.GetHealthStatus
	}
	if stats == nil {
		stats = database.GetDatabaseStats
	}
	return &HealthHandler{check: check, stats: stats}
}

func (h *HealthHandler) RegisterRoutes(router *mux.Router, logger *logrus.Logger) {
	router.HandleFunc("/healthz", h.health).Methods(http.MethodGet)
}

func (h *HealthHandler) health(w http.ResponseWriter, r *http.Request) {
	status := h.check(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, healthBody{HealthStatus: status, Pool: h.stats()})
}
