package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"occ-api/internal/model"
	"occ-api/internal/repository"
	"occ-api/pkg/markdown"
	"occ-api/pkg/pagination"
	"occ-api/pkg/slug"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const summaryLength = 200

type CreatePostRequest struct {
	Title      string `json:"title" binding:"required,min=3,max=255"`
	Slug       string `json:"slug" binding:"omitempty,min=3,max=255"`
	Summary    string `json:"summary"`
	Content    string `json:"content" binding:"required,min=10"`
	CoverURL   string `json:"cover_url" binding:"omitempty,url"`
	CategoryID string `json:"category_id" binding:"omitempty,uuid"`
	Published  bool   `json:"published"`
}

type UpdatePostRequest struct {
	Title      *string `json:"title" binding:"omitempty,min=3,max=255"`
	Slug       *string `json:"slug" binding:"omitempty,min=3,max=255"`
	Summary    *string `json:"summary"`
	Content    *string `json:"content" binding:"omitempty,min=10"`
	CoverURL   *string `json:"cover_url" binding:"omitempty,url"`
	CategoryID *string `json:"category_id" binding:"omitempty,uuid"`
	Published  *bool   `json:"published"`
}

type CategoryRequest struct {
	Name        string `json:"name" binding:"required,min=2,max=120"`
	Slug        string `json:"slug" binding:"omitempty,min=2,max=120"`
	Description string `json:"description"`
}

type PostListFilter struct {
	CategoryID    string
	Search        string
	PublishedOnly bool
}

type PostService interface {
	CreatePost(ctx context.Context, actor Actor, req CreatePostRequest) (*model.Post, error)
	GetPost(ctx context.Context, id string, publishedOnly bool) (*model.Post, error)
	GetPostBySlug(ctx context.Context, slug string, publishedOnly bool) (*model.Post, error)
	ListPosts(ctx context.Context, filter PostListFilter, p pagination.Params) ([]model.Post, int64, error)
	UpdatePost(ctx context.Context, actor Actor, id string, req UpdatePostRequest) (*model.Post, error)
	DeletePost(ctx context.Context, actor Actor, id string) error

	CreateCategory(ctx context.Context, actor Actor, req CategoryRequest) (*model.Category, error)
	ListCategories(ctx context.Context) ([]model.Category, error)
	GetCategory(ctx context.Context, id string) (*model.Category, error)
	UpdateCategory(ctx context.Context, actor Actor, id string, req CategoryRequest) (*model.Category, error)
	DeleteCategory(ctx context.Context, actor Actor, id string) error
}

type postService struct {
	posts      repository.PostRepository
	categories repository.CategoryRepository
	audit      AuditService
	now        func() time.Time
}

func NewPostService(posts repository.PostRepository, categories repository.CategoryRepository, audit AuditService) PostService {
	return &postService{posts: posts, categories: categories, audit: audit, now: time.Now}
}

// uniqueSlug derives a slug from base and appends -2, -3, ... until it is free.
func uniqueSlug(ctx context.Context, base string, except *uuid.UUID, exists func(context.Context, string, *uuid.UUID) (bool, error)) (string, error) {
	root := slug.Make(base)
	if root == "" {
		return "", invalidInput("slug", "must contain at least one letter or digit")
	}
	candidate := root
	for i := 2; ; i++ {
		taken, err := exists(ctx, candidate, except)
		if err != nil {
			return "", fmt.Errorf("failed to check slug: %w", err)
		}
		if !taken {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", root, i)
	}
}

func (s *postService) resolveCategory(ctx context.Context, raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, invalidInput("category_id", "invalid category id")
	}
	if _, err := s.categories.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, invalidInput("category_id", "category does not exist")
		}
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}
	return &id, nil
}

// render fills ContentHTML and, when the author left it blank, Summary.
func render(post *model.Post) error {
	html, err := markdown.ToHTML(post.Content)
	if err != nil {
		return fmt.Errorf("failed to render content: %w", err)
	}
	post.ContentHTML = html
	if strings.TrimSpace(post.Summary) == "" {
		post.Summary = markdown.Excerpt(post.Content, summaryLength)
	}
	return nil
}

func (s *postService) CreatePost(ctx context.Context, actor Actor, req CreatePostRequest) (*model.Post, error) {
	categoryID, err := s.resolveCategory(ctx, req.CategoryID)
	if err != nil {
		return nil, err
	}

	base := req.Slug
	if base == "" {
		base = req.Title
	}
	postSlug, err := uniqueSlug(ctx, base, nil, s.posts.SlugExists)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		Title:      strings.TrimSpace(req.Title),
		Slug:       postSlug,
		Summary:    strings.TrimSpace(req.Summary),
		Content:    req.Content,
		CoverURL:   req.CoverURL,
		CategoryID: categoryID,
		Published:  req.Published,
		AuthorID:   actor.ID,
	}
	if post.Published {
		now := s.now()
		post.PublishedAt = &now
	}
	if err := render(post); err != nil {
		return nil, err
	}

	if err := s.posts.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreatePost, "post", post.ID.String(), map[string]interface{}{"slug": post.Slug})
	return post, nil
}

func (s *postService) visible(post *model.Post, err error, publishedOnly bool) (*model.Post, error) {
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	if publishedOnly && !post.Published {
		return nil, ErrPostNotFound
	}
	return post, nil
}

func (s *postService) GetPost(ctx context.Context, id string, publishedOnly bool) (*model.Post, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid post id")
	}
	post, err := s.posts.GetByID(ctx, pid)
	return s.visible(post, err, publishedOnly)
}

func (s *postService) GetPostBySlug(ctx context.Context, postSlug string, publishedOnly bool) (*model.Post, error) {
	post, err := s.posts.GetBySlug(ctx, strings.ToLower(strings.TrimSpace(postSlug)))
	return s.visible(post, err, publishedOnly)
}

func (s *postService) ListPosts(ctx context.Context, filter PostListFilter, p pagination.Params) ([]model.Post, int64, error) {
	repoFilter := repository.PostFilter{
		PublishedOnly: filter.PublishedOnly,
		Search:        strings.TrimSpace(filter.Search),
	}
	if filter.CategoryID != "" {
		id, err := uuid.Parse(filter.CategoryID)
		if err != nil {
			return nil, 0, invalidInput("category_id", "invalid category id")
		}
		repoFilter.CategoryID = &id
	}

	posts, total, err := s.posts.List(ctx, repoFilter, repository.Page{Offset: p.Offset, Limit: p.Limit})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, total, nil
}

func (s *postService) UpdatePost(ctx context.Context, actor Actor, id string, req UpdatePostRequest) (*model.Post, error) {
	post, err := s.GetPost(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		post.Title = strings.TrimSpace(*req.Title)
	}
	if req.Slug != nil {
		postSlug, err := uniqueSlug(ctx, *req.Slug, &post.ID, s.posts.SlugExists)
		if err != nil {
			return nil, err
		}
		post.Slug = postSlug
	}
	if req.Summary != nil {
		post.Summary = strings.TrimSpace(*req.Summary)
	}
	if req.Content != nil {
		post.Content = *req.Content
	}
	if req.CoverURL != nil {
		post.CoverURL = *req.CoverURL
	}
	if req.CategoryID != nil {
		categoryID, err := s.resolveCategory(ctx, *req.CategoryID)
		if err != nil {
			return nil, err
		}
		post.CategoryID = categoryID
		post.Category = nil
	}
	if req.Published != nil && *req.Published != post.Published {
		post.Published = *req.Published
		if post.Published && post.PublishedAt == nil {
			now := s.now()
			post.PublishedAt = &now
		}
	}
	if err := render(post); err != nil {
		return nil, err
	}

	if err := s.posts.Update(ctx, post); err != nil {
		return nil, fmt.Errorf("failed to update post: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionUpdatePost, "post", post.ID.String(), map[string]interface{}{"slug": post.Slug})
	return post, nil
}

func (s *postService) DeletePost(ctx context.Context, actor Actor, id string) error {
	post, err := s.GetPost(ctx, id, false)
	if err != nil {
		return err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return fmt.Errorf("failed to delete post: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDeletePost, "post", post.ID.String(), map[string]interface{}{"slug": post.Slug})
	return nil
}

func (s *postService) CreateCategory(ctx context.Context, actor Actor, req CategoryRequest) (*model.Category, error) {
	base := req.Slug
	if base == "" {
		base = req.Name
	}
	catSlug, err := uniqueSlug(ctx, base, nil, s.categories.SlugExists)
	if err != nil {
		return nil, err
	}

	category := &model.Category{
		Name:        strings.TrimSpace(req.Name),
		Slug:        catSlug,
		Description: strings.TrimSpace(req.Description),
	}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to create category: %w", err)
	}

	s.audit.Record(ctx, actor, model.ActionCreateCategory, "category", category.ID.String(), map[string]interface{}{"slug": category.Slug})
	return category, nil
}

func (s *postService) ListCategories(ctx context.Context) ([]model.Category, error) {
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	return categories, nil
}

func (s *postService) GetCategory(ctx context.Context, id string) (*model.Category, error) {
	cid, err := uuid.Parse(id)
	if err != nil {
		return nil, invalidInput("id", "invalid category id")
	}
	category, err := s.categories.GetByID(ctx, cid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("failed to fetch category: %w", err)
	}
	return category, nil
}

func (s *postService) UpdateCategory(ctx context.Context, actor Actor, id string, req CategoryRequest) (*model.Category, error) {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return nil, err
	}

	category.Name = strings.TrimSpace(req.Name)
	category.Description = strings.TrimSpace(req.Description)
	if req.Slug != "" {
		catSlug, err := uniqueSlug(ctx, req.Slug, &category.ID, s.categories.SlugExists)
		if err != nil {
			return nil, err
		}
		category.Slug = catSlug
	}

	if err := s.categories.Update(ctx, category); err != nil {
		return nil, fmt.Errorf("failed to update category: %w", err)
	}
	return category, nil
}

// DeleteCategory keeps the posts; they become uncategorized.
func (s *postService) DeleteCategory(ctx context.Context, actor Actor, id string) error {
	category, err := s.GetCategory(ctx, id)
	if err != nil {
		return err
	}
	if err := s.categories.Delete(ctx, category.ID); err != nil {
		return fmt.Errorf("failed to delete category: %w", err)
	}
	s.audit.Record(ctx, actor, model.ActionDeleteCategory, "category", category.ID.String(), map[string]interface{}{"slug": category.Slug})
	return nil
}
