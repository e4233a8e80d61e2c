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
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tomoncle/jungle/database"
	"github.com/tomoncle/jungle/models"
	"github.com/tomoncle/jungle/telemetry"
	"github.com/tomoncle/jungle/types"
	"golang.org/x/time/rate"
)

type fakeReader struct {
	jungles   []*models.Jungle
	animals   []*models.Animal
	err       error
	lastAnims *types.PageRequest
}

func (f *fakeReader) Jungles(_ context.Context, req *types.PageRequest) (*types.Pagination[models.Jungle], error) {
	if f.err != nil {
		return nil, f.err
	}
	p := types.NewDefaultPagination[models.Jungle](req.GetPage(), req.GetPageSize())
	p.Items = f.jungles
	p.SetTotal(len(f.jungles))
	return p, nil
}

func (f *fakeReader) Jungle(_ context.Context, id int64) (*models.Jungle, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, j := range f.jungles {
		if j.ID == id {
			return j, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeReader) Animals(_ context.Context, req *types.PageRequest) (*types.Pagination[models.Animal], error) {
	f.lastAnims = req
	p := types.NewDefaultPagination[models.Animal](req.GetPage(), req.GetPageSize())
	p.Items = f.animals
	p.SetTotal(len(f.animals))
	return p, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestHandler(t *testing.T, reader JungleReader, limiter *rate.Limiter) http.Handler {
	t.Helper()
	tel, err := telemetry.NewTelemetry(quietLogger())
	require.NoError(t, err)
	health := func(context.Context) *database.HealthStatus {
		return &database.HealthStatus{Healthy: true, Connected: true}
	}
	return NewRouter(limiter, tel, quietLogger(), []Handler{
		NewHelloHandler(),
		NewHealthHandler(health, func() *database.DBStats {
			return &database.DBStats{MaxOpenConns: 1, OpenConns: 1, Idle: 1}
		}),
		NewJungleHandler(reader),
	}).Handler()
}

func do(h http.Handler, method, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, nil))
	return w
}

func TestHelloWorld(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)

	w := do(h, http.MethodGet, "/")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "hello world!", w.Body.String())
	assert.Equal(t, "text/plain; charset=utf-8", w.Header().Get("Content-Type"))
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))

	// repeated calls are identical
	assert.Equal(t, "hello world!", do(h, http.MethodGet, "/").Body.String())
}

func TestHelloIgnoresQueryAndHeaders(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)
	req := httptest.NewRequest(http.MethodGet, "/?x=1", nil)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(RequestIDHeader, "fixed-id")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	assert.Equal(t, "hello world!", w.Body.String())
	assert.Equal(t, "fixed-id", w.Header().Get(RequestIDHeader))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)
	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/nope").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, do(h, http.MethodPost, "/").Code)
}

func TestHealthz(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)
	w := do(h, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, w.Code)

	var status database.HealthStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Healthy)

	var body struct {
		Pool database.DBStats `json:"pool"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Pool.MaxOpenConns)
	assert.Equal(t, 1, body.Pool.Idle)

	down := NewRouter(nil, nil, quietLogger(), []Handler{
		NewHealthHandler(func(context.Context) *database.HealthStatus {
			return &database.HealthStatus{LastError: "database not initialized"}
		}, nil),
	}).Handler()
	assert.Equal(t, http.StatusServiceUnavailable, do(down, http.MethodGet, "/healthz").Code)
}

func TestListJungles(t *testing.T) {
	reader := &fakeReader{jungles: []*models.Jungle{{ID: 1, Name: "Amazon", Rainfall: 2300}}}
	h := newTestHandler(t, reader, nil)

	w := do(h, http.MethodGet, "/jungles?page=1&page_size=5")
	require.Equal(t, http.StatusOK, w.Code)

	var page types.Pagination[models.Jungle]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 1, page.Total)
	assert.Equal(t, 5, page.PageSize)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Amazon", page.Items[0].Name)
}

func TestPagingValidation(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)
	for _, target := range []string{
		"/jungles?page=0",
		"/jungles?page_size=abc",
		"/animals?jungle_id=-1",
		"/jungles?page=9223372036854775807",
		"/animals?page=1000001",
	} {
		w := do(h, http.MethodGet, target)
		assert.Equal(t, http.StatusBadRequest, w.Code, target)
		assert.Contains(t, w.Body.String(), `"error"`, target)
	}
}

func TestGetJungle(t *testing.T) {
	reader := &fakeReader{jungles: []*models.Jungle{
		{ID: 1, Name: "Amazon", Animals: []*models.Animal{{ID: 3, Name: "Jaguar", JungleID: 1}}},
		{ID: 2, Name: "Congo"},
	}}
	h := newTestHandler(t, reader, nil)

	w := do(h, http.MethodGet, "/jungles/1")
	require.Equal(t, http.StatusOK, w.Code)
	var got map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "Amazon", got["name"])
	assert.Len(t, got["animals"], 1)

	w = do(h, http.MethodGet, "/jungles/2")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"animals":[]`)

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/jungles/9").Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodGet, "/jungles/abc").Code)
}

func TestQueryFailureIs500(t *testing.T) {
	h := newTestHandler(t, &fakeReader{err: errors.New("disk I/O error")}, nil)
	w := do(h, http.MethodGet, "/jungles")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "disk")
}

func TestListAnimalsFilter(t *testing.T) {
	reader := &fakeReader{animals: []*models.Animal{{ID: 1, Name: "Bee", JungleID: 2}}}
	h := newTestHandler(t, reader, nil)

	w := do(h, http.MethodGet, "/animals?jungle_id=2")
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, reader.lastAnims.GetFilter())
	assert.Equal(t, []interface{}{2}, reader.lastAnims.GetFilter().Args)

	do(h, http.MethodGet, "/animals")
	assert.Nil(t, reader.lastAnims.GetFilter())
}

func TestRateLimit(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, rate.NewLimiter(rate.Limit(0.001), 1))

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz").Code)
	w := do(h, http.MethodGet, "/jungles")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"rate limit exceeded"}`, w.Body.String())
}

func TestHelloIsNeverRateLimited(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, NewLimiter(1, 1))

	for i := 0; i < 10; i++ {
		w := do(h, http.MethodGet, "/")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
		assert.Equal(t, "hello world!", w.Body.String())
	}
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodGet, "/healthz").Code)
	assert.Equal(t, "hello world!", do(h, http.MethodGet, "/").Body.String())
}

func TestUnmatchedRequestsAreObserved(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)

	notFound := do(h, http.MethodGet, "/nope/42")
	assert.Equal(t, http.StatusNotFound, notFound.Code)
	assert.NotEmpty(t, notFound.Header().Get(RequestIDHeader))

	notAllowed := do(h, http.MethodPost, "/")
	assert.Equal(t, http.StatusMethodNotAllowed, notAllowed.Code)
	assert.NotEmpty(t, notAllowed.Header().Get(RequestIDHeader))

	body := do(h, http.MethodGet, "/metrics").Body.String()
	assert.Contains(t, body, `route="unmatched"`)
	assert.NotContains(t, body, "/nope/42")
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestHandler(t, &fakeReader{}, nil)
	do(h, http.MethodGet, "/")

	w := do(h, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestNewLimiter(t *testing.T) {
	assert.Nil(t, NewLimiter(0, 10))
	assert.NotNil(t, NewLimiter(5, 10))
}
