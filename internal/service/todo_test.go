package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// =============================================================================
// Mock TodoRepository
// =============================================================================

type mockTodoRepository struct {
	createFunc                  func(ctx context.Context, todo *models.Todo) error
	updateFunc                  func(ctx context.Context, todo *models.Todo) error
	findByIDAndUserIDFunc       func(ctx context.Context, id, userID int64) (*models.Todo, error)
	findByUserIDFunc            func(ctx context.Context, userID int64) ([]models.Todo, error)
	findByUserIDAndDoneFunc     func(ctx context.Context, userID int64, done bool) ([]models.Todo, error)
	findByUserIDAndPriorityFunc func(ctx context.Context, userID int64, priority models.Priority) ([]models.Todo, error)
	searchByTitleFunc           func(ctx context.Context, userID int64, title string) ([]models.Todo, error)
	deleteByIDFunc              func(ctx context.Context, id int64) error
	countByUserIDFunc           func(ctx context.Context, userID int64) (int64, error)
	countByUserIDAndDoneFunc    func(ctx context.Context, userID int64, done bool) (int64, error)
}

func (m *mockTodoRepository) Create(ctx context.Context, todo *models.Todo) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, todo)
	}
	return errors.New("not implemented")
}

func (m *mockTodoRepository) Update(ctx context.Context, todo *models.Todo) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, todo)
	}
	return errors.New("not implemented")
}

func (m *mockTodoRepository) FindByIDAndUserID(ctx context.Context, id, userID int64) (*models.Todo, error) {
	if m.findByIDAndUserIDFunc != nil {
		return m.findByIDAndUserIDFunc(ctx, id, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTodoRepository) FindByUserID(ctx context.Context, userID int64) ([]models.Todo, error) {
	if m.findByUserIDFunc != nil {
		return m.findByUserIDFunc(ctx, userID)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTodoRepository) FindByUserIDAndDone(ctx context.Context, userID int64, done bool) ([]models.Todo, error) {
	if m.findByUserIDAndDoneFunc != nil {
		return m.findByUserIDAndDoneFunc(ctx, userID, done)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTodoRepository) FindByUserIDAndPriority(ctx context.Context, userID int64, priority models.Priority) ([]models.Todo, error) {
	if m.findByUserIDAndPriorityFunc != nil {
		return m.findByUserIDAndPriorityFunc(ctx, userID, priority)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTodoRepository) SearchByTitle(ctx context.Context, userID int64, title string) ([]models.Todo, error) {
	if m.searchByTitleFunc != nil {
		return m.searchByTitleFunc(ctx, userID, title)
	}
	return nil, errors.New("not implemented")
}

func (m *mockTodoRepository) DeleteByID(ctx context.Context, id int64) error {
	if m.deleteByIDFunc != nil {
		return m.deleteByIDFunc(ctx, id)
	}
	return errors.New("not implemented")
}

func (m *mockTodoRepository) CountByUserID(ctx context.Context, userID int64) (int64, error) {
	if m.countByUserIDFunc != nil {
		return m.countByUserIDFunc(ctx, userID)
	}
	return 0, errors.New("not implemented")
}

func (m *mockTodoRepository) CountByUserIDAndDone(ctx context.Context, userID int64, done bool) (int64, error) {
	if m.countByUserIDAndDoneFunc != nil {
		return m.countByUserIDAndDoneFunc(ctx, userID, done)
	}
	return 0, errors.New("not implemented")
}

// =============================================================================
// Test Helpers
// =============================================================================

func setupTodoService(t *testing.T) (TodoService, *mockTodoRepository, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("Failed to create miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	mockRepo := &mockTodoRepository{}
	return NewTodoService(mockRepo, client), mockRepo, mr
}

func boolPtr(b bool) *bool { return &b }

func priorityPtr(p models.Priority) *models.Priority { return &p }

// =============================================================================
// Create Tests
// =============================================================================

func TestTodoCreate(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	mockRepo.createFunc = func(ctx context.Context, todo *models.Todo) error {
		todo.ID = 1
		return nil
	}

	todo, err := svc.Create(context.Background(), 7, TodoRequest{Title: "buy milk"})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if todo.UserID != 7 {
		t.Errorf("UserID = %d, want 7", todo.UserID)
	}
	if todo.Priority != models.PriorityMedium {
		t.Errorf("Priority = %v, want default MEDIUM", todo.Priority)
	}
	if todo.Done {
		t.Error("new todo should not be done")
	}
}

func TestTodoCreate_Validation(t *testing.T) {
	svc, _, _ := setupTodoService(t)
	ctx := context.Background()

	longTitle := make([]byte, maxTitleLength+1)
	for i := range longTitle {
		longTitle[i] = 'x'
	}

	tests := []struct {
		name string
		req  TodoRequest
	}{
		{name: "empty title", req: TodoRequest{Title: ""}},
		{name: "oversized title", req: TodoRequest{Title: string(longTitle)}},
		{name: "unknown priority", req: TodoRequest{Title: "ok", Priority: priorityPtr("URGENT")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, 7, tt.req); !errors.Is(err, ErrInvalidTodo) {
				t.Errorf("Create() error = %v, want ErrInvalidTodo", err)
			}
		})
	}
}

// =============================================================================
// Ownership Tests
// =============================================================================

func TestTodoFindByID_NotFound(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	mockRepo.findByIDAndUserIDFunc = func(ctx context.Context, id, userID int64) (*models.Todo, error) {
		return nil, fmt.Errorf("failed to find todo id %d: %w", id, gorm.ErrRecordNotFound)
	}

	// Absent rows and rows owned by another user both surface as not found
	if _, err := svc.FindByID(context.Background(), 7, 99); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("FindByID() error = %v, want ErrTodoNotFound", err)
	}
}

func TestTodoUpdate(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	stored := &models.Todo{ID: 1, Title: "old", UserID: 7, Priority: models.PriorityMedium}
	mockRepo.findByIDAndUserIDFunc = func(ctx context.Context, id, userID int64) (*models.Todo, error) {
		if id == stored.ID && userID == stored.UserID {
			clone := *stored
			return &clone, nil
		}
		return nil, fmt.Errorf("failed to find todo id %d: %w", id, gorm.ErrRecordNotFound)
	}
	mockRepo.updateFunc = func(ctx context.Context, todo *models.Todo) error {
		stored = todo
		return nil
	}

	todo, err := svc.Update(context.Background(), 7, 1, TodoRequest{
		Title:    "new",
		Done:     boolPtr(true),
		Priority: priorityPtr(models.PriorityHigh),
	})
	if err != nil {
		t.Fatalf("Update() error = %v", err)
	}
	if todo.Title != "new" || !todo.Done || todo.Priority != models.PriorityHigh {
		t.Errorf("Update() result = %+v, want updated fields", todo)
	}
}

func TestTodoDelete_ForeignRow(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	mockRepo.findByIDAndUserIDFunc = func(ctx context.Context, id, userID int64) (*models.Todo, error) {
		return nil, fmt.Errorf("failed to find todo id %d: %w", id, gorm.ErrRecordNotFound)
	}

	if err := svc.Delete(context.Background(), 7, 1); !errors.Is(err, ErrTodoNotFound) {
		t.Errorf("Delete() error = %v, want ErrTodoNotFound", err)
	}
}

// =============================================================================
// Listing Tests
// =============================================================================

func TestTodoFindAll_FilterRouting(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	ctx := context.Background()

	var calledDone, calledPriority, calledAll bool
	mockRepo.findByUserIDFunc = func(ctx context.Context, userID int64) ([]models.Todo, error) {
		calledAll = true
		return nil, nil
	}
	mockRepo.findByUserIDAndDoneFunc = func(ctx context.Context, userID int64, done bool) ([]models.Todo, error) {
		calledDone = true
		return nil, nil
	}
	mockRepo.findByUserIDAndPriorityFunc = func(ctx context.Context, userID int64, priority models.Priority) ([]models.Todo, error) {
		calledPriority = true
		return nil, nil
	}

	if _, err := svc.FindAll(ctx, 7, TodoFilter{}); err != nil || !calledAll {
		t.Errorf("FindAll() without filter: err = %v, calledAll = %v", err, calledAll)
	}
	if _, err := svc.FindAll(ctx, 7, TodoFilter{Done: boolPtr(true)}); err != nil || !calledDone {
		t.Errorf("FindAll() with done filter: err = %v, calledDone = %v", err, calledDone)
	}
	if _, err := svc.FindAll(ctx, 7, TodoFilter{Priority: priorityPtr(models.PriorityHigh)}); err != nil || !calledPriority {
		t.Errorf("FindAll() with priority filter: err = %v, calledPriority = %v", err, calledPriority)
	}

	if _, err := svc.FindAll(ctx, 7, TodoFilter{Priority: priorityPtr("URGENT")}); !errors.Is(err, ErrInvalidTodo) {
		t.Errorf("FindAll() with unknown priority error = %v, want ErrInvalidTodo", err)
	}
}

// =============================================================================
// Statistics Tests
// =============================================================================

func TestTodoStatistics_CachesCounts(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	ctx := context.Background()

	var countCalls int
	mockRepo.countByUserIDFunc = func(ctx context.Context, userID int64) (int64, error) {
		countCalls++
		return 5, nil
	}
	mockRepo.countByUserIDAndDoneFunc = func(ctx context.Context, userID int64, done bool) (int64, error) {
		return 2, nil
	}

	stats, err := svc.Statistics(ctx, 7)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.Total != 5 || stats.Completed != 2 || stats.Pending != 3 {
		t.Errorf("Statistics() = %+v, want {5 2 3}", stats)
	}

	// Second call is served from the cache
	if _, err := svc.Statistics(ctx, 7); err != nil {
		t.Fatalf("second Statistics() error = %v", err)
	}
	if countCalls != 1 {
		t.Errorf("repository counted %d times, want 1 (cache hit expected)", countCalls)
	}
}

func TestTodoStatistics_InvalidatedOnWrite(t *testing.T) {
	svc, mockRepo, _ := setupTodoService(t)
	ctx := context.Background()

	total := int64(1)
	mockRepo.countByUserIDFunc = func(ctx context.Context, userID int64) (int64, error) {
		return total, nil
	}
	mockRepo.countByUserIDAndDoneFunc = func(ctx context.Context, userID int64, done bool) (int64, error) {
		return 0, nil
	}
	mockRepo.createFunc = func(ctx context.Context, todo *models.Todo) error {
		todo.ID = 2
		return nil
	}

	stats, err := svc.Statistics(ctx, 7)
	if err != nil {
		t.Fatalf("Statistics() error = %v", err)
	}
	if stats.Total != 1 {
		t.Fatalf("Statistics().Total = %d, want 1", stats.Total)
	}

	total = 2
	if _, err := svc.Create(ctx, 7, TodoRequest{Title: "another"}); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	stats, err = svc.Statistics(ctx, 7)
	if err != nil {
		t.Fatalf("Statistics() after write error = %v", err)
	}
	if stats.Total != 2 {
		t.Errorf("Statistics().Total = %d after write, want 2 (cache should be invalidated)", stats.Total)
	}
}

func TestTodoStatistics_SurvivesRedisOutage(t *testing.T) {
	svc, mockRepo, mr := setupTodoService(t)
	mockRepo.countByUserIDFunc = func(ctx context.Context, userID int64) (int64, error) {
		return 3, nil
	}
	mockRepo.countByUserIDAndDoneFunc = func(ctx context.Context, userID int64, done bool) (int64, error) {
		return 1, nil
	}

	mr.Close()

	stats, err := svc.Statistics(context.Background(), 7)
	if err != nil {
		t.Fatalf("Statistics() error = %v, want fallthrough to the database", err)
	}
	if stats.Total != 3 || stats.Completed != 1 || stats.Pending != 2 {
		t.Errorf("Statistics() = %+v, want {3 1 2}", stats)
	}
}
