// Package api serves the workspace over a JSON REST interface.
package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Jayphen/todone/internal/logging"
	"github.com/Jayphen/todone/internal/workspace"
)

const maxContentSize = 64 << 10 // 64KB

// Server is the todone HTTP server.
type Server struct {
	ws     *workspace.Workspace
	log    *logging.Logger
	router *gin.Engine
}

// NewServer creates a server over ws. A nil log uses the global logger.
func NewServer(ws *workspace.Workspace, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Get()
	}
	router := gin.New()
	router.Use(gin.Recovery(), requestLogger(log))

	s := &Server{
		ws:     ws,
		log:    log,
		router: router,
	}

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})

	api := router.Group("/api")
	{
		api.GET("/tasks", s.handleListTasks)
		api.POST("/tasks", s.handleCreateTask)
		api.POST("/tasks/quick", s.handleQuickAdd)
		api.POST("/tasks/reorder", s.handleReorder)
		api.GET("/tasks/:id", s.handleGetTask)
		api.PATCH("/tasks/:id", s.handleUpdateTask)
		api.DELETE("/tasks/:id", s.handleDeleteTask)
		api.GET("/tasks/:id/subtasks", s.handleSubtasks)
		api.POST("/tasks/:id/toggle", s.handleToggle)
		api.POST("/tasks/:id/move", s.handleMove)

		api.GET("/projects", s.handleListProjects)
		api.POST("/projects", s.handleAddProject)
		api.PATCH("/projects/:id", s.handleUpdateProject)
		api.DELETE("/projects/:id", s.handleDeleteProject)

		api.GET("/labels", s.handleListLabels)
		api.POST("/labels", s.handleAddLabel)
		api.PATCH("/labels/:id", s.handleUpdateLabel)
		api.DELETE("/labels/:id", s.handleDeleteLabel)

		api.GET("/filters", s.handleListFilters)
		api.POST("/filters", s.handleAddFilter)
		api.GET("/filters/counts", s.handleFilterCounts)
		api.GET("/filters/:id/tasks", s.handleFilterTasks)
		api.PATCH("/filters/:id", s.handleUpdateFilter)
		api.DELETE("/filters/:id", s.handleDeleteFilter)

		api.GET("/board", s.handleBoard)
		api.GET("/week", s.handleWeek)
	}

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run starts the web server.
func (s *Server) Run(addr string) error {
	s.log.Infof("listening on %s", addr)
	return s.router.Run(addr)
}

func requestLogger(log *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(map[string]any{
			"method":   c.Request.Method,
			"path":     c.FullPath(),
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		}).Debug("request")
	}
}
