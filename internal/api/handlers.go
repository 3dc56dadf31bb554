package api

import (
	"errors"
	"fmt"
	"net/http"

	"cloud.google.com/go/civil"
	"github.com/gin-gonic/gin"

	"github.com/Jayphen/todone/internal/types"
	"github.com/Jayphen/todone/internal/workspace"
)

type taskRequest struct {
	Content          string                  `json:"content"`
	Description      string                  `json:"description"`
	ProjectID        string                  `json:"projectId"`
	SectionID        string                  `json:"sectionId"`
	Priority         types.Priority          `json:"priority"`
	Labels           []string                `json:"labels"`
	DueDate          *civil.Date             `json:"dueDate"`
	DueTime          string                  `json:"dueTime"`
	Duration         int                     `json:"duration"`
	RecurringPattern types.RecurrencePattern `json:"recurringPattern"`
	ParentID         string                  `json:"parentId"`
}

func (r taskRequest) validate() error {
	if len(r.Content) > maxContentSize {
		return errors.New("content exceeds maximum size of 64KB")
	}
	if r.Priority != 0 && !r.Priority.Valid() {
		return fmt.Errorf("priority must be 1-4, got %d", r.Priority)
	}
	if r.RecurringPattern != "" && !r.RecurringPattern.Valid() {
		return fmt.Errorf("unknown recurring pattern %q", r.RecurringPattern)
	}
	return nil
}

func (r taskRequest) input() workspace.TaskInput {
	return workspace.TaskInput{
		Content:          r.Content,
		Description:      r.Description,
		ProjectID:        r.ProjectID,
		SectionID:        r.SectionID,
		Priority:         r.Priority,
		Labels:           r.Labels,
		DueDate:          r.DueDate,
		DueTime:          r.DueTime,
		Duration:         r.Duration,
		RecurringPattern: r.RecurringPattern,
		ParentID:         r.ParentID,
	}
}

type quickRequest struct {
	taskRequest
	Text string `json:"text"`
}

type reorderRequest struct {
	ActiveID string `json:"activeId" binding:"required"`
	OverID   string `json:"overId" binding:"required"`
}

type moveRequest struct {
	Delta int `json:"delta" binding:"required"`
}

type namedRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Query string `json:"query"`
}

func respond(c *gin.Context, status int, data any) {
	c.JSON(status, gin.H{
		"success": true,
		"data":    data,
	})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// fail maps workspace errors onto HTTP statuses.
func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, workspace.ErrTaskNotFound),
		errors.Is(err, workspace.ErrProjectNotFound),
		errors.Is(err, workspace.ErrLabelNotFound),
		errors.Is(err, workspace.ErrFilterNotFound):
		status = http.StatusNotFound
	case errors.Is(err, workspace.ErrEmptyContent),
		errors.Is(err, workspace.ErrEmptyName),
		errors.Is(err, workspace.ErrInboxProtected):
		status = http.StatusBadRequest
	default:
		s.log.WithError(err).Errorf("%s %s failed", c.Request.Method, c.FullPath())
	}
	c.JSON(status, gin.H{
		"success": false,
		"error":   err.Error(),
	})
}

// failCreate reports an unknown projectId in a create request as a bad
// request rather than a missing resource.
func (s *Server) failCreate(c *gin.Context, err error) {
	if errors.Is(err, workspace.ErrProjectNotFound) {
		badRequest(c, err)
		return
	}
	s.fail(c, err)
}

// Tasks

func (s *Server) handleListTasks(c *gin.Context) {
	tasks := s.ws.Query(c.Query("q"))
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tasks,
		"count":   len(tasks),
	})
}

func (s *Server) handleGetTask(c *gin.Context) {
	id := c.Param("id")
	task, ok := s.ws.Task(id)
	if !ok {
		s.fail(c, fmt.Errorf("%w: %s", workspace.ErrTaskNotFound, id))
		return
	}
	respond(c, http.StatusOK, task)
}

func (s *Server) handleSubtasks(c *gin.Context) {
	id := c.Param("id")
	if _, ok := s.ws.Task(id); !ok {
		s.fail(c, fmt.Errorf("%w: %s", workspace.ErrTaskNotFound, id))
		return
	}
	respond(c, http.StatusOK, s.ws.Subtasks(id))
}

func (s *Server) handleCreateTask(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := req.validate(); err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.ws.CreateTask(c.Request.Context(), req.input())
	if err != nil {
		s.failCreate(c, err)
		return
	}
	respond(c, http.StatusCreated, task)
}

func (s *Server) handleQuickAdd(c *gin.Context) {
	var req quickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	req.Content = req.Text
	if err := req.validate(); err != nil {
		badRequest(c, err)
		return
	}

	task, err := s.ws.QuickAdd(c.Request.Context(), req.Text, req.input())
	if err != nil {
		s.failCreate(c, err)
		return
	}
	respond(c, http.StatusCreated, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	var patch types.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	if patch.Priority != nil && !patch.Priority.Valid() {
		badRequest(c, fmt.Errorf("priority must be 1-4, got %d", *patch.Priority))
		return
	}

	task, err := s.ws.UpdateTask(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.ws.DeleteTask(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Task deleted",
	})
}

func (s *Server) handleToggle(c *gin.Context) {
	res, err := s.ws.ToggleTask(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    res.Task,
		"next":    res.Next,
	})
}

func (s *Server) handleReorder(c *gin.Context) {
	var req reorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.ws.ReorderTasks(c.Request.Context(), req.ActiveID, req.OverID); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) handleMove(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := s.ws.MoveTask(c.Request.Context(), c.Param("id"), req.Delta); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// Projects

func (s *Server) handleListProjects(c *gin.Context) {
	respond(c, http.StatusOK, s.ws.Projects())
}

func (s *Server) handleAddProject(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.ws.AddProject(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, p)
}

func (s *Server) handleUpdateProject(c *gin.Context) {
	var patch workspace.ProjectPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	p, err := s.ws.UpdateProject(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, p)
}

func (s *Server) handleDeleteProject(c *gin.Context) {
	if err := s.ws.DeleteProject(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Project deleted",
	})
}

// Labels

func (s *Server) handleListLabels(c *gin.Context) {
	respond(c, http.StatusOK, s.ws.Labels())
}

func (s *Server) handleAddLabel(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	l, err := s.ws.AddLabel(c.Request.Context(), req.Name, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, l)
}

func (s *Server) handleUpdateLabel(c *gin.Context) {
	var patch workspace.LabelPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	l, err := s.ws.UpdateLabel(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, l)
}

func (s *Server) handleDeleteLabel(c *gin.Context) {
	if err := s.ws.DeleteLabel(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Label deleted",
	})
}

// Filters

func (s *Server) handleListFilters(c *gin.Context) {
	respond(c, http.StatusOK, s.ws.Filters())
}

func (s *Server) handleAddFilter(c *gin.Context) {
	var req namedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	f, err := s.ws.AddFilter(c.Request.Context(), req.Name, req.Query, req.Color)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusCreated, f)
}

func (s *Server) handleUpdateFilter(c *gin.Context) {
	var patch workspace.FilterPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		badRequest(c, err)
		return
	}
	f, err := s.ws.UpdateFilter(c.Request.Context(), c.Param("id"), patch)
	if err != nil {
		s.fail(c, err)
		return
	}
	respond(c, http.StatusOK, f)
}

func (s *Server) handleDeleteFilter(c *gin.Context) {
	if err := s.ws.DeleteFilter(c.Request.Context(), c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Filter deleted",
	})
}

func (s *Server) handleFilterTasks(c *gin.Context) {
	tasks, err := s.ws.FilterTasks(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    tasks,
		"count":   len(tasks),
	})
}

func (s *Server) handleFilterCounts(c *gin.Context) {
	respond(c, http.StatusOK, s.ws.FilterCounts())
}

// Views

func (s *Server) handleBoard(c *gin.Context) {
	by, err := workspace.ParseGrouping(c.Query("by"))
	if err != nil {
		badRequest(c, err)
		return
	}
	respond(c, http.StatusOK, s.ws.Board(by))
}

func (s *Server) handleWeek(c *gin.Context) {
	anchor := s.ws.Today()
	if raw := c.Query("anchor"); raw != "" {
		d, err := civil.ParseDate(raw)
		if err != nil {
			badRequest(c, fmt.Errorf("anchor must be YYYY-MM-DD: %w", err))
			return
		}
		anchor = d
	}
	respond(c, http.StatusOK, s.ws.Week(anchor))
}
