// sentinel
// (C) 2024, Deutsche Telekom IT GmbH
//
// Deutsche Telekom IT GmbH and all other contributors /
// copyright owners license this file to you under the Apache
// License, Version 2.0 (the "License"); you may not use this
// file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied.  See the License for the
// specific language governing permissions and limitations
// under the License.

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/caas-team/sentinel/internal/logger"
	"github.com/caas-team/sentinel/pkg/config"
)

// MethodAny registers a route for every http method
const MethodAny = "Handle"

// API is the http server of the control api
type API interface {
	// Run serves the registered routes until ctx is done or Shutdown is called
	Run(ctx context.Context) error
	Shutdown(ctx context.Context) error
	RegisterRoutes(ctx context.Context, routes ...Route) error
	// Handler returns the router serving the registered routes
	Handler() http.Handler
}

type server struct {
	http   *http.Server
	router chi.Router
}

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 30 * time.Second
)

// New creates the control api server listening on the configured address
func New(cfg config.ApiConfig) API {
	r := chi.NewRouter()
	return &server{
		http:   &http.Server{Addr: cfg.Address, Handler: r, ReadHeaderTimeout: readHeaderTimeout},
		router: r,
	}
}

// Run returns nil once the server was shut down
func (s *server) Run(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return &ErrServe{err: err}
	}
	if len(s.router.Routes()) == 0 {
		return &ErrServe{err: ErrNoRoutes}
	}
	log := logger.FromContext(ctx)

	done := make(chan error, 1)
	go func() {
		log.InfoContext(ctx, "Control api listening", "address", s.http.Addr)
		done <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return &ErrServe{err: ctx.Err()}
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			log.InfoContext(ctx, "Control api closed")
			return nil
		}
		log.ErrorContext(ctx, "Control api stopped serving", "error", err)
		return &ErrServe{err: err}
	}
}

// Shutdown stops accepting requests and waits for in-flight requests,
// at most shutdownTimeout
func (s *server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(ctx); err != nil {
		logger.FromContext(ctx).ErrorContext(ctx, "Control api did not shut down in time", "error", err)
		return fmt.Errorf("failed to shut down control api: %w", err)
	}
	return nil
}

// Route is a single endpoint of the api
type Route struct {
	Path    string
	Method  string
	Handler http.HandlerFunc
	// Doc describes the route in the openapi document; routes without Doc are not listed
	Doc *Doc
}

// RegisterRoutes mounts the routes behind the logger middleware and
// adds the liveness route "/". It must be called once, before Run.
func (s *server) RegisterRoutes(ctx context.Context, routes ...Route) error {
	register := map[string]func(string, http.HandlerFunc){
		http.MethodGet:    s.router.Get,
		http.MethodPost:   s.router.Post,
		http.MethodPut:    s.router.Put,
		http.MethodDelete: s.router.Delete,
		http.MethodPatch:  s.router.Patch,
		MethodAny:         s.router.HandleFunc,
	}
	for _, route := range routes {
		if _, ok := register[route.Method]; !ok {
			return &ErrUnsupportedMethod{Path: route.Path, Method: route.Method}
		}
	}

	s.router.Use(logger.Middleware(ctx))
	for _, route := range routes {
		register[route.Method](route.Path, route.Handler)
	}
	s.router.Get("/", liveness)
	return nil
}

func (s *server) Handler() http.Handler {
	return s.router
}

func liveness(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("ok")); err != nil {
		logger.FromContext(r.Context()).ErrorContext(r.Context(), "Could not write liveness response", "error", err)
	}
}
