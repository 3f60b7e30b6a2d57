package repository

import (
	"context"
	"fmt"

	"github.com/Ali-Uen/todo-service/internal/models"
	"gorm.io/gorm"
)

// TodoRepository defines the persistence contract for todo items. All
// lookups except FindByID are scoped to an owning user.
type TodoRepository interface {
	Create(ctx context.Context, todo *models.Todo) error
	Update(ctx context.Context, todo *models.Todo) error
	FindByIDAndUserID(ctx context.Context, id, userID int64) (*models.Todo, error)
	FindByUserID(ctx context.Context, userID int64) ([]models.Todo, error)
	FindByUserIDAndDone(ctx context.Context, userID int64, done bool) ([]models.Todo, error)
	FindByUserIDAndPriority(ctx context.Context, userID int64, priority models.Priority) ([]models.Todo, error)
	SearchByTitle(ctx context.Context, userID int64, title string) ([]models.Todo, error)
	DeleteByID(ctx context.Context, id int64) error
	CountByUserID(ctx context.Context, userID int64) (int64, error)
	CountByUserIDAndDone(ctx context.Context, userID int64, done bool) (int64, error)
}

type todoRepository struct {
	db *gorm.DB
}

// NewTodoRepository creates a new TodoRepository instance.
func NewTodoRepository(db *gorm.DB) TodoRepository {
	return &todoRepository{db: db}
}

func (r *todoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if err := r.db.WithContext(ctx).Create(todo).Error; err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

func (r *todoRepository) Update(ctx context.Context, todo *models.Todo) error {
	if err := r.db.WithContext(ctx).Save(todo).Error; err != nil {
		return fmt.Errorf("failed to update todo id %d: %w", todo.ID, err)
	}
	return nil
}

func (r *todoRepository) FindByIDAndUserID(ctx context.Context, id, userID int64) (*models.Todo, error) {
	var todo models.Todo
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&todo).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find todo id %d: %w", id, err)
	}
	return &todo, nil
}

func (r *todoRepository) FindByUserID(ctx context.Context, userID int64) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list todos for user %d: %w", userID, err)
	}
	return todos, nil
}

func (r *todoRepository) FindByUserIDAndDone(ctx context.Context, userID int64, done bool) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND done = ?", userID, done).
		Order("created_at DESC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list todos for user %d by status: %w", userID, err)
	}
	return todos, nil
}

func (r *todoRepository) FindByUserIDAndPriority(ctx context.Context, userID int64, priority models.Priority) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND priority = ?", userID, priority).
		Order("created_at DESC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list todos for user %d by priority: %w", userID, err)
	}
	return todos, nil
}

func (r *todoRepository) SearchByTitle(ctx context.Context, userID int64, title string) ([]models.Todo, error) {
	var todos []models.Todo
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND title ILIKE ?", userID, "%"+title+"%").
		Order("created_at DESC").
		Find(&todos).Error
	if err != nil {
		return nil, fmt.Errorf("failed to search todos for user %d: %w", userID, err)
	}
	return todos, nil
}

func (r *todoRepository) DeleteByID(ctx context.Context, id int64) error {
	if err := r.db.WithContext(ctx).Delete(&models.Todo{}, id).Error; err != nil {
		return fmt.Errorf("failed to delete todo id %d: %w", id, err)
	}
	return nil
}

func (r *todoRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Todo{}).Where("user_id = ?", userID).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count todos for user %d: %w", userID, err)
	}
	return count, nil
}

func (r *todoRepository) CountByUserIDAndDone(ctx context.Context, userID int64, done bool) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Todo{}).
		Where("user_id = ? AND done = ?", userID, done).
		Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("failed to count todos for user %d by status: %w", userID, err)
	}
	return count, nil
}
