package service

import (
	"context"
	"errors"

	"recantoverde/internal/apierror"
	"recantoverde/internal/dto"
	"recantoverde/internal/model"
	"recantoverde/internal/money"
	"recantoverde/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type MenuService interface {
	Create(ctx context.Context, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error)
	Get(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error)
	List(ctx context.Context, includeInactive bool) ([]dto.MenuItemResponse, error)
	Update(ctx context.Context, id uuid.UUID, req dto.UpdateMenuItemRequest) (*dto.MenuItemResponse, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	Reactivate(ctx context.Context, id uuid.UUID) error
}

type menuService struct {
	repo repository.MenuRepository
}

func NewMenuService(repo repository.MenuRepository) MenuService {
	return &menuService{repo: repo}
}

func (s *menuService) Create(ctx context.Context, req dto.CreateMenuItemRequest) (*dto.MenuItemResponse, error) {
	if req.Price.IsNegative() {
		return nil, apierror.Validation("price cannot be negative")
	}
	item := &model.MenuItem{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Price:       money.Round2(req.Price),
		Active:      true,
	}
	if err := s.repo.Create(ctx, item); err != nil {
		return nil, err
	}
	return menuItemToResponse(item), nil
}

func (s *menuService) Get(ctx context.Context, id uuid.UUID) (*dto.MenuItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "menu item", ID: id}
		}
		return nil, err
	}
	return menuItemToResponse(item), nil
}

func (s *menuService) List(ctx context.Context, includeInactive bool) ([]dto.MenuItemResponse, error) {
	items, err := s.repo.List(ctx, includeInactive)
	if err != nil {
		return nil, err
	}
	resp := make([]dto.MenuItemResponse, len(items))
	for i := range items {
		resp[i] = *menuItemToResponse(&items[i])
	}
	return resp, nil
}

func (s *menuService) Update(ctx context.Context, id uuid.UUID, req dto.UpdateMenuItemRequest) (*dto.MenuItemResponse, error) {
	item, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &apierror.NotFoundError{Entity: "menu item", ID: id}
		}
		return nil, err
	}
	if req.Name != "" {
		item.Name = req.Name
	}
	if req.Description != nil {
		item.Description = req.Description
	}
	if req.Category != "" {
		item.Category = req.Category
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, apierror.Validation("price cannot be negative")
		}
		item.Price = money.Round2(*req.Price)
	}
	// Already-created orders keep their frozen copy of name and price; a
	// catalog update never rewrites order lines.
	if err := s.repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return menuItemToResponse(item), nil
}

func (s *menuService) Deactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, false)
}

func (s *menuService) Reactivate(ctx context.Context, id uuid.UUID) error {
	return s.repo.SetActive(ctx, id, true)
}

func menuItemToResponse(m *model.MenuItem) *dto.MenuItemResponse {
	return &dto.MenuItemResponse{
		ID:          m.ID.String(),
		Name:        m.Name,
		Description: m.Description,
		Category:    m.Category,
		Price:       m.Price,
		Active:      m.Active,
	}
}
