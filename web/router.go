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

// Package web exposes the HTTP interface: a greeting at "/", health, read
// endpoints for jungles and animals, and Prometheus metrics.
package web

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/tomoncle/jungle/config"
	"github.com/tomoncle/jungle/telemetry"
	"golang.org/x/time/rate"
)

// Handler registers its routes on the router.
type Handler interface {
	RegisterRoutes(router *mux.Router, logger *logrus.Logger)
}

// Router assembles handlers and middleware into one http.Handler.
type Router struct {
	limiter   *rate.Limiter
	telemetry *telemetry.Telemetry
	logger    *logrus.Logger
	handlers  []Handler
}

// NewRouter creates a router. A nil limiter disables rate limiting and a nil
// telemetry disables request metrics and /metrics.
func NewRouter(limiter *rate.Limiter, tel *telemetry.Telemetry, logger *logrus.Logger, handlers []Handler) *Router {
	return &Router{
		limiter:   limiter,
		telemetry: tel,
		logger:    logger,
		handlers:  handlers,
	}
}

// Handler builds the mux. Middleware order, outermost first: request id,
// access log, metrics, rate limit. The greeting route is never rate limited.
// 404 and 405 responses pass through the same chain minus the limiter.
func (r *Router) Handler() http.Handler {
	router := mux.NewRouter()

	observe := []mux.MiddlewareFunc{requestIDMiddleware, loggingMiddleware(r.logger)}
	if r.telemetry != nil {
		observe = append(observe, metricsMiddleware(r.telemetry))
	}
	router.NotFoundHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	}), observe)
	router.MethodNotAllowedHandler = chain(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}), observe)

	router.Use(observe...)
	if r.telemetry != nil {
		router.Handle("/metrics", r.telemetry.Handler()).Methods(http.MethodGet)
	}
	if r.limiter != nil {
		router.Use(rateLimitMiddleware(r.limiter, helloRouteName))
	}

	for _, h := range r.handlers {
		h.RegisterRoutes(router, r.logger)
	}
	return router
}

// chain wraps h so that middlewares[0] runs first.
func chain(h http.Handler, middlewares []mux.MiddlewareFunc) http.Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// CreateServer returns an http.Server for the router using cfg's address
// and timeouts.
func (r *Router) CreateServer(cfg config.Server) *http.Server {
	return &http.Server{
		Addr:         cfg.Addr(),
		Handler:      r.Handler(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// NewLimiter returns a token bucket limiter, or nil when rps is zero.
func NewLimiter(rps float64, burst int) *rate.Limiter {
	if rps <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}
