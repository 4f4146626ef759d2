package service

import (
	"context"
	"errors"
	"strings"
	"wechat_survey_backend/internal/model"
	"wechat_survey_backend/internal/repository"
	"wechat_survey_backend/internal/util"

	"gorm.io/gorm"
)

type categoryStore interface {
	Create(ctx context.Context, c *model.Category) error
	FindByID(ctx context.Context, id uint) (*model.Category, error)
	List(ctx context.Context, activeOnly bool) ([]repository.CategoryWithCount, error)
	Update(ctx context.Context, c *model.Category) error
	Delete(ctx context.Context, id uint) error
	SetActive(ctx context.Context, ids []uint, active bool) (int64, error)
}

type CategoryService struct {
	Categories categoryStore
}

func NewCategoryService(categories categoryStore) *CategoryService {
	return &CategoryService{Categories: categories}
}

// CategoryRequest slug 为空时与名称相同
// swagger:model CategoryRequest
type CategoryRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Slug        string `json:"slug" binding:"max=100"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

func (s *CategoryService) apply(c *model.Category, req CategoryRequest) {
	c.Name = strings.TrimSpace(req.Name)
	c.Slug = strings.TrimSpace(req.Slug)
	if c.Slug == "" {
		c.Slug = c.Name
	}
	c.Description = req.Description
	if req.IsActive != nil {
		c.IsActive = *req.IsActive
	}
}

func (s *CategoryService) Create(ctx context.Context, req CategoryRequest) (*model.Category, error) {
	c := &model.Category{IsActive: true}
	s.apply(c, req)
	if err := s.Categories.Create(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrCategoryExists
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	c, err := s.Categories.FindByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, util.ErrCategoryNotFound
	}
	return c, err
}

func (s *CategoryService) List(ctx context.Context, activeOnly bool) ([]repository.CategoryWithCount, error) {
	return s.Categories.List(ctx, activeOnly)
}

func (s *CategoryService) Update(ctx context.Context, id uint, req CategoryRequest) (*model.Category, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.apply(c, req)
	if err := s.Categories.Update(ctx, c); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, util.ErrCategoryExists
		}
		return nil, err
	}
	return c, nil
}

func (s *CategoryService) Delete(ctx context.Context, id uint) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	return s.Categories.Delete(ctx, id)
}

func (s *CategoryService) SetActive(ctx context.Context, ids []uint, active bool) (int64, error) {
	return s.Categories.SetActive(ctx, ids, active)
}
