package service

import (
	"context"
	"errors"
	"strings"

	"github.com/peermarket/backend/internal/model"
	"github.com/peermarket/backend/internal/repository"
	"gorm.io/gorm"
)

type PostService interface {
	Create(ctx context.Context, ownerUID, title, description string) (*model.Post, error)
	Get(ctx context.Context, id uint64) (*model.Post, error)
	List(ctx context.Context, limit, offset int) ([]model.Post, int64, error)
}

type postService struct {
	repo repository.PostRepository
}

func NewPostService(repo repository.PostRepository) PostService {
	return &postService{repo: repo}
}

func (s *postService) Create(ctx context.Context, ownerUID, title, description string) (*model.Post, error) {
	title = strings.TrimSpace(title)
	if title == "" || len(title) > 120 {
		return nil, errors.New("invalid title")
	}
	p := &model.Post{
		OwnerUID:      ownerUID,
		Title:         title,
		Description:   strings.TrimSpace(description),
		RequestStatus: model.RequestStatusOpen,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *postService) Get(ctx context.Context, id uint64) (*model.Post, error) {
	p, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *postService) List(ctx context.Context, limit, offset int) ([]model.Post, int64, error) {
	return s.repo.List(ctx, limit, offset)
}
