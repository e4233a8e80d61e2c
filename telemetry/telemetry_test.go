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

package telemetry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordRequestIsExported(t *testing.T) {
	tel, err := NewTelemetry(logrus.New())
	require.NoError(t, err)
	defer func() { _ = tel.Shutdown(context.Background()) }()

	tel.RecordRequest(context.Background(), "/jungles", http.MethodGet, http.StatusOK, 0.01)

	w := httptest.NewRecorder()
	tel.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	assert.Contains(t, body, "http_requests_total")
	assert.Contains(t, body, `route="/jungles"`)
	assert.Contains(t, body, "http_request_duration_seconds")
}

func TestInstancesDoNotCollide(t *testing.T) {
	_, err := NewTelemetry(logrus.New())
	require.NoError(t, err)
	_, err = NewTelemetry(logrus.New())
	require.NoError(t, err)
}
