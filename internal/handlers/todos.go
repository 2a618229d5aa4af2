package handlers

import (
	"context"
	"net/http"
	"time"

	"todo-web/internal/background"
	"todo-web/internal/logging"
	"todo-web/internal/middleware"
	"todo-web/internal/models"
	"todo-web/internal/todo"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ImageSource supplies the list view's background image
type ImageSource interface {
	Fetch(ctx context.Context) (*background.Image, error)
}

// TodoHandler serves the list view and forwards its form posts to the user's Synchronizer
type TodoHandler struct {
	registry *todo.Registry
	images   ImageSource
	now      func() time.Time
}

// NewTodoHandler creates a new to-do handler
func NewTodoHandler(registry *todo.Registry, images ImageSource) *TodoHandler {
	return &TodoHandler{
		registry: registry,
		images:   images,
		now:      time.Now,
	}
}

type todoPage struct {
	Title string
	User  string
	Items []itemView
	Draft todo.Draft
	Edit  *todo.EditState
}

type itemView struct {
	models.TodoView
	Due     string
	Editing bool
}

// List refetches the collection and renders the list view
func (h *TodoHandler) List(c *gin.Context) {
	userID, sync, ok := h.synchronizer(c)
	if !ok {
		return
	}

	if err := sync.FetchAll(c.Request.Context()); err != nil {
		logFailure(userID, "fetch", "", err)
	}

	edit := sync.Editing()
	views := ClassifyAll(sync.Snapshot(), h.now())
	items := make([]itemView, 0, len(views))
	for _, view := range views {
		items = append(items, itemView{
			TodoView: view,
			Due:      todo.FormatDate(view.EndDate),
			Editing:  edit != nil && edit.ID == view.ID,
		})
	}

	c.HTML(http.StatusOK, "todo.html", todoPage{
		Title: "To-do list",
		User:  middleware.GetDisplayName(c),
		Items: items,
		Draft: sync.Draft(),
		Edit:  edit,
	})
}

// Create adds an item from the new to-do form
func (h *TodoHandler) Create(c *gin.Context) {
	userID, sync, ok := h.synchronizer(c)
	if !ok {
		return
	}

	var form models.TodoForm
	if err := c.ShouldBind(&form); err != nil {
		logFailure(userID, "create", "", err)
		backToList(c)
		return
	}

	if err := sync.Create(c.Request.Context(), form.Text, form.StartDate, form.EndDate); err != nil {
		logFailure(userID, "create", "", err)
	}
	backToList(c)
}

// Delete removes an item
func (h *TodoHandler) Delete(c *gin.Context) {
	userID, sync, ok := h.synchronizer(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := sync.Remove(c.Request.Context(), id); err != nil {
		logFailure(userID, "delete", id, err)
	}
	backToList(c)
}

// Edit opens the inline edit form of an item
func (h *TodoHandler) Edit(c *gin.Context) {
	userID, sync, ok := h.synchronizer(c)
	if !ok {
		return
	}

	id := c.Param("id")
	if err := sync.BeginEdit(id); err != nil {
		logFailure(userID, "edit", id, err)
	}
	backToList(c)
}

// Update saves the edit form of an item
func (h *TodoHandler) Update(c *gin.Context) {
	userID, sync, ok := h.synchronizer(c)
	if !ok {
		return
	}

	id := c.Param("id")
	var form models.TodoForm
	if err := c.ShouldBind(&form); err != nil {
		logFailure(userID, "update", id, err)
		backToList(c)
		return
	}

	if err := sync.SetEditFields(id, form.Text, form.StartDate, form.EndDate); err != nil {
		logFailure(userID, "update", id, err)
		backToList(c)
		return
	}
	if err := sync.CommitEdit(c.Request.Context(), id); err != nil {
		logFailure(userID, "update", id, err)
	}
	backToList(c)
}

// CancelEdit closes the edit form without saving
func (h *TodoHandler) CancelEdit(c *gin.Context) {
	_, sync, ok := h.synchronizer(c)
	if !ok {
		return
	}

	sync.CancelEdit()
	backToList(c)
}

// Background serves a random image for the list view. Failures leave the page without one.
func (h *TodoHandler) Background(c *gin.Context) {
	userID, _ := middleware.GetUserID(c)

	img, err := h.images.Fetch(c.Request.Context())
	if err != nil {
		logging.ForOperation(userID.String(), "background").WithError(err).Warn("Error fetching background image")
		c.Status(http.StatusNoContent)
		return
	}

	c.Data(http.StatusOK, img.ContentType, img.Data)
}

// ListJSON returns the refetched collection with each item's status
func (h *TodoHandler) ListJSON(c *gin.Context) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "User not authenticated",
		})
		return
	}

	sync := h.registry.For(userID)
	if err := sync.FetchAll(c.Request.Context()); err != nil {
		logFailure(userID, "fetch", "", err)
		c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Code:    "STORE_UNAVAILABLE",
			Message: "Failed to fetch todos",
		})
		return
	}

	c.JSON(http.StatusOK, ClassifyAll(sync.Snapshot(), h.now()))
}

// ClassifyAll attaches the status and color of each item relative to now
func ClassifyAll(items []models.Todo, now time.Time) []models.TodoView {
	views := make([]models.TodoView, 0, len(items))
	for _, item := range items {
		status := todo.Classify(item.EndDate, now)
		views = append(views, models.TodoView{
			Todo:   item,
			Status: string(status),
			Color:  status.Color(),
		})
	}
	return views
}

// synchronizer resolves the signed-in user's Synchronizer, redirecting to sign-in when there is none
func (h *TodoHandler) synchronizer(c *gin.Context) (uuid.UUID, *todo.Synchronizer, bool) {
	userID, err := middleware.GetUserID(c)
	if err != nil {
		c.Redirect(http.StatusSeeOther, middleware.SignInPath)
		return uuid.Nil, nil, false
	}
	return userID, h.registry.For(userID), true
}

func backToList(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, TodoPath)
}

// logFailure records a swallowed list operation failure; the page keeps showing the previous snapshot
func logFailure(userID uuid.UUID, operation, todoID string, err error) {
	entry := logging.ForOperation(userID.String(), operation)
	if todoID != "" {
		entry = entry.WithField("todo_id", todoID)
	}
	entry.WithError(err).Warn("List operation failed")
}
