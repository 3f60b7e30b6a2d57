package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/Ali-Uen/todo-service/internal/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	// ErrTodoNotFound covers both a missing todo and one owned by another
	// user; the two are not distinguished to the caller.
	ErrTodoNotFound = errors.New("todo not found")
	// ErrInvalidTodo signals a request that fails content validation.
	ErrInvalidTodo = errors.New("invalid todo")
)

const (
	maxTitleLength       = 255
	maxDescriptionLength = 1000
	statsCacheTTL        = time.Minute
)

// TodoRequest carries the writable fields of a todo item.
type TodoRequest struct {
	Title       string           `json:"title" binding:"required,max=255"`
	Description string           `json:"description" binding:"max=1000"`
	Done        *bool            `json:"done"`
	Priority    *models.Priority `json:"priority"`
}

// TodoFilter narrows a todo listing.
type TodoFilter struct {
	Done     *bool
	Priority *models.Priority
}

// TodoStatistics summarizes a user's todo counts.
type TodoStatistics struct {
	Total     int64 `json:"total"`
	Completed int64 `json:"completed"`
	Pending   int64 `json:"pending"`
}

// TodoService contains the business logic for todo operations. Every
// operation is scoped to the owning user.
type TodoService interface {
	Create(ctx context.Context, userID int64, req TodoRequest) (*models.Todo, error)
	Update(ctx context.Context, userID, id int64, req TodoRequest) (*models.Todo, error)
	Delete(ctx context.Context, userID, id int64) error
	FindByID(ctx context.Context, userID, id int64) (*models.Todo, error)
	FindAll(ctx context.Context, userID int64, filter TodoFilter) ([]models.Todo, error)
	SearchByTitle(ctx context.Context, userID int64, title string) ([]models.Todo, error)
	Statistics(ctx context.Context, userID int64) (*TodoStatistics, error)
}

type todoService struct {
	todoRepo repository.TodoRepository
	redis    *redis.Client
}

// NewTodoService creates a new TodoService instance.
func NewTodoService(todoRepo repository.TodoRepository, redisClient *redis.Client) TodoService {
	return &todoService{
		todoRepo: todoRepo,
		redis:    redisClient,
	}
}

func validateTodoRequest(req TodoRequest) error {
	if req.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidTodo)
	}
	if len(req.Title) > maxTitleLength {
		return fmt.Errorf("%w: title must not exceed %d characters", ErrInvalidTodo, maxTitleLength)
	}
	if len(req.Description) > maxDescriptionLength {
		return fmt.Errorf("%w: description must not exceed %d characters", ErrInvalidTodo, maxDescriptionLength)
	}
	if req.Priority != nil && !req.Priority.Valid() {
		return fmt.Errorf("%w: unknown priority %q", ErrInvalidTodo, *req.Priority)
	}
	return nil
}

func (s *todoService) Create(ctx context.Context, userID int64, req TodoRequest) (*models.Todo, error) {
	if err := validateTodoRequest(req); err != nil {
		return nil, err
	}

	todo := &models.Todo{
		Title:       req.Title,
		Description: req.Description,
		Priority:    models.PriorityMedium,
		UserID:      userID,
	}
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}
	if req.Done != nil {
		todo.Done = *req.Done
	}

	if err := s.todoRepo.Create(ctx, todo); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, userID)
	return todo, nil
}

func (s *todoService) Update(ctx context.Context, userID, id int64, req TodoRequest) (*models.Todo, error) {
	if err := validateTodoRequest(req); err != nil {
		return nil, err
	}

	todo, err := s.findOwned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	todo.Title = req.Title
	todo.Description = req.Description
	if req.Priority != nil {
		todo.Priority = *req.Priority
	}
	if req.Done != nil {
		todo.Done = *req.Done
	}

	if err := s.todoRepo.Update(ctx, todo); err != nil {
		return nil, err
	}
	s.invalidateStats(ctx, userID)
	return todo, nil
}

func (s *todoService) Delete(ctx context.Context, userID, id int64) error {
	if _, err := s.findOwned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.todoRepo.DeleteByID(ctx, id); err != nil {
		return err
	}
	s.invalidateStats(ctx, userID)
	return nil
}

func (s *todoService) FindByID(ctx context.Context, userID, id int64) (*models.Todo, error) {
	return s.findOwned(ctx, userID, id)
}

func (s *todoService) FindAll(ctx context.Context, userID int64, filter TodoFilter) ([]models.Todo, error) {
	switch {
	case filter.Done != nil:
		return s.todoRepo.FindByUserIDAndDone(ctx, userID, *filter.Done)
	case filter.Priority != nil:
		if !filter.Priority.Valid() {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrInvalidTodo, *filter.Priority)
		}
		return s.todoRepo.FindByUserIDAndPriority(ctx, userID, *filter.Priority)
	default:
		return s.todoRepo.FindByUserID(ctx, userID)
	}
}

func (s *todoService) SearchByTitle(ctx context.Context, userID int64, title string) ([]models.Todo, error) {
	return s.todoRepo.SearchByTitle(ctx, userID, title)
}

// Statistics returns the user's todo counts, served from a short-lived
// Redis cache. Cache failures fall through to the database.
func (s *todoService) Statistics(ctx context.Context, userID int64) (*TodoStatistics, error) {
	key := statsCacheKey(userID)
	if cached, err := s.redis.Get(ctx, key).Result(); err == nil {
		var stats TodoStatistics
		if err := json.Unmarshal([]byte(cached), &stats); err == nil {
			return &stats, nil
		}
	}

	total, err := s.todoRepo.CountByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	completed, err := s.todoRepo.CountByUserIDAndDone(ctx, userID, true)
	if err != nil {
		return nil, err
	}

	stats := &TodoStatistics{
		Total:     total,
		Completed: completed,
		Pending:   total - completed,
	}
	if payload, err := json.Marshal(stats); err == nil {
		s.redis.Set(ctx, key, payload, statsCacheTTL)
	}
	return stats, nil
}

func (s *todoService) findOwned(ctx context.Context, userID, id int64) (*models.Todo, error) {
	todo, err := s.todoRepo.FindByIDAndUserID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTodoNotFound
		}
		return nil, err
	}
	return todo, nil
}

func (s *todoService) invalidateStats(ctx context.Context, userID int64) {
	s.redis.Del(ctx, statsCacheKey(userID))
}

func statsCacheKey(userID int64) string {
	return fmt.Sprintf("todo:stats:%d", userID)
}
