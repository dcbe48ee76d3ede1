package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"cargo/internal/domain"
	"cargo/internal/repository"
)

// RouteService manages the lanes orders can reference.
type RouteService struct {
	routes repository.RouteRepository
}

// NewRouteService creates a new RouteService.
func NewRouteService(routes repository.RouteRepository) *RouteService {
	return &RouteService{routes: routes}
}

// RouteRequest contains the parameters for creating or updating a route.
type RouteRequest struct {
	Origin      string
	Destination string
	DistanceKm  float64
	BasePrice   decimal.Decimal
}

func (r RouteRequest) validate() error {
	if strings.TrimSpace(r.Origin) == "" || strings.TrimSpace(r.Destination) == "" {
		return fmt.Errorf("%w: origin and destination are required", ErrInvalidInput)
	}
	if r.DistanceKm <= 0 {
		return fmt.Errorf("%w: distance must be positive", ErrInvalidInput)
	}
	if r.BasePrice.IsNegative() {
		return fmt.Errorf("%w: base price cannot be negative", ErrInvalidInput)
	}
	return nil
}

// CreateRoute adds an active route.
func (s *RouteService) CreateRoute(ctx context.Context, req RouteRequest) (*domain.Route, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	route := &domain.Route{
		ID:          uuid.New().String(),
		Origin:      strings.TrimSpace(req.Origin),
		Destination: strings.TrimSpace(req.Destination),
		DistanceKm:  req.DistanceKm,
		BasePrice:   req.BasePrice.Round(2),
		Active:      true,
		CreatedAt:   time.Now(),
	}
	if err := s.routes.Create(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// UpdateRoute replaces the details of a route.
func (s *RouteService) UpdateRoute(ctx context.Context, id string, req RouteRequest) (*domain.Route, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	route.Origin = strings.TrimSpace(req.Origin)
	route.Destination = strings.TrimSpace(req.Destination)
	route.DistanceKm = req.DistanceKm
	route.BasePrice = req.BasePrice.Round(2)

	if err := s.routes.Update(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// DeactivateRoute hides a route from new orders.
func (s *RouteService) DeactivateRoute(ctx context.Context, id string) (*domain.Route, error) {
	route, err := s.routes.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	route.Active = false
	if err := s.routes.Update(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// ListRoutes lists active routes, or every route for admins.
func (s *RouteService) ListRoutes(ctx context.Context, actor Actor) ([]*domain.Route, error) {
	return s.routes.GetAll(ctx, !actor.IsAdmin())
}
