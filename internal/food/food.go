// Package food is the entry point to the food module: nutritional records
// with name uniqueness, exposed over HTTP.
package food

import (
	"log/slog"

	"nutri/internal/food/handler"
	"nutri/internal/food/service"
)

// Service exposes the food use cases.
type Service = service.Service

// Repository is the storage port the service depends on.
type Repository = service.Repository

// Handler wires HTTP endpoints to the food service.
type Handler = handler.Handler

// NewService constructs the food service over repo.
func NewService(repo Repository, opts ...service.Option) *Service {
	return service.New(repo, opts...)
}

// NewHandler constructs the HTTP handler for /foods routes.
func NewHandler(s *Service, logger *slog.Logger) *Handler {
	return handler.New(s, logger)
}
