package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/Ali-Uen/todo-service/internal/middleware"
	"github.com/Ali-Uen/todo-service/internal/models"
	"github.com/Ali-Uen/todo-service/internal/service"
	"github.com/gin-gonic/gin"
)

// TodoHandler handles todo HTTP requests. All routes require an access
// token; the owning user is taken from the request principal.
type TodoHandler struct {
	todoService service.TodoService
}

// NewTodoHandler creates a new TodoHandler instance.
func NewTodoHandler(todoService service.TodoService) *TodoHandler {
	return &TodoHandler{todoService: todoService}
}

// List godoc
// @Summary List todos
// @Description List the authenticated user's todos, optionally filtered by done status or priority
// @Tags todos
// @Security BearerAuth
// @Produce json
// @Param done query bool false "Filter by completion status"
// @Param priority query string false "Filter by priority (LOW, MEDIUM, HIGH)"
// @Success 200 {array} models.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /todos [get]
func (h *TodoHandler) List(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}

	var filter service.TodoFilter
	if raw, exists := c.GetQuery("done"); exists {
		done, err := strconv.ParseBool(raw)
		if err != nil {
			respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "done must be a boolean")
			return
		}
		filter.Done = &done
	}
	if raw, exists := c.GetQuery("priority"); exists {
		priority := models.Priority(raw)
		filter.Priority = &priority
	}

	todos, err := h.todoService.FindAll(c.Request.Context(), userID, filter)
	if err != nil {
		if errors.Is(err, service.ErrInvalidTodo) {
			respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
			return
		}
		logAndRespondError(c, http.StatusInternalServerError, err, "TODO_LIST_FAILED", "failed to list todos")
		return
	}

	c.JSON(http.StatusOK, todos)
}

// Get godoc
// @Summary Get todo
// @Description Get a single todo by id
// @Tags todos
// @Security BearerAuth
// @Produce json
// @Param id path int true "Todo ID"
// @Success 200 {object} models.Todo
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [get]
func (h *TodoHandler) Get(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}
	id, err := parseID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid todo id")
		return
	}

	todo, err := h.todoService.FindByID(c.Request.Context(), userID, id)
	if err != nil {
		h.respondTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Create godoc
// @Summary Create todo
// @Description Create a new todo for the authenticated user
// @Tags todos
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.TodoRequest true "Todo data"
// @Success 201 {object} models.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /todos [post]
func (h *TodoHandler) Create(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}

	var req service.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	todo, err := h.todoService.Create(c.Request.Context(), userID, req)
	if err != nil {
		h.respondTodoError(c, err)
		return
	}
	c.JSON(http.StatusCreated, todo)
}

// Update godoc
// @Summary Update todo
// @Description Update an existing todo owned by the authenticated user
// @Tags todos
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Todo ID"
// @Param request body service.TodoRequest true "Todo data"
// @Success 200 {object} models.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [put]
func (h *TodoHandler) Update(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}
	id, err := parseID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid todo id")
		return
	}

	var req service.TodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
		return
	}

	todo, err := h.todoService.Update(c.Request.Context(), userID, id, req)
	if err != nil {
		h.respondTodoError(c, err)
		return
	}
	c.JSON(http.StatusOK, todo)
}

// Delete godoc
// @Summary Delete todo
// @Description Delete a todo owned by the authenticated user
// @Tags todos
// @Security BearerAuth
// @Param id path int true "Todo ID"
// @Success 204
// @Failure 401 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /todos/{id} [delete]
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}
	id, err := parseID(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "invalid todo id")
		return
	}

	if err := h.todoService.Delete(c.Request.Context(), userID, id); err != nil {
		h.respondTodoError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Search godoc
// @Summary Search todos
// @Description Case-insensitive title search over the authenticated user's todos
// @Tags todos
// @Security BearerAuth
// @Produce json
// @Param title query string true "Title fragment"
// @Success 200 {array} models.Todo
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /todos/search [get]
func (h *TodoHandler) Search(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}

	title := c.Query("title")
	if title == "" {
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", "title query parameter is required")
		return
	}

	todos, err := h.todoService.SearchByTitle(c.Request.Context(), userID, title)
	if err != nil {
		logAndRespondError(c, http.StatusInternalServerError, err, "TODO_SEARCH_FAILED", "failed to search todos")
		return
	}
	c.JSON(http.StatusOK, todos)
}

// Statistics godoc
// @Summary Todo statistics
// @Description Total, completed and pending counts for the authenticated user
// @Tags todos
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.TodoStatistics
// @Failure 401 {object} ErrorResponse
// @Router /todos/statistics [get]
func (h *TodoHandler) Statistics(c *gin.Context) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "NOT_AUTHENTICATED", "user not authenticated")
		return
	}

	stats, err := h.todoService.Statistics(c.Request.Context(), userID)
	if err != nil {
		logAndRespondError(c, http.StatusInternalServerError, err, "TODO_STATS_FAILED", "failed to compute statistics")
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *TodoHandler) respondTodoError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrTodoNotFound):
		respondError(c, http.StatusNotFound, "TODO_NOT_FOUND", "todo not found")
	case errors.Is(err, service.ErrInvalidTodo):
		respondError(c, http.StatusBadRequest, "VALIDATION_FAILED", err.Error())
	default:
		logAndRespondError(c, http.StatusInternalServerError, err, "TODO_OPERATION_FAILED", "todo operation failed")
	}
}

func parseID(c *gin.Context) (int64, error) {
	return strconv.ParseInt(c.Param("id"), 10, 64)
}
