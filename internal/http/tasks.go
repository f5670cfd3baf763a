package http

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/booktrack/internal/tasks"
)

// TasksController handles task queue management endpoints.
type TasksController struct {
	client   *tasks.Client
	defaults tasks.Defaults
}

// NewTasksController creates a new TasksController.
func NewTasksController(client *tasks.Client, defaults tasks.Defaults) *TasksController {
	return &TasksController{client: client, defaults: defaults}
}

// ListTaskTypes handles GET /api/tasks/types
func (tc *TasksController) ListTaskTypes(c *gin.Context) {
	respondOK(c, gin.H{"task_types": tasks.Types()})
}

// GetTaskStatus handles GET /api/tasks/:id
func (tc *TasksController) GetTaskStatus(c *gin.Context) {
	taskID := c.Param("id")
	if taskID == "" {
		respondBadRequest(c, "Task ID required")
		return
	}
	if !tc.available(c) {
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	status, err := tc.client.Status(ctx, taskID)
	if err != nil {
		writeError(c, err)
		return
	}

	respondOK(c, gin.H{
		"id":     taskID,
		"status": tasks.StatusString(status),
	})
}

// RunTask handles POST /api/tasks/:type/run
// Parameters may come as JSON or as a form.
func (tc *TasksController) RunTask(c *gin.Context) {
	taskType := c.Param("type")

	var params tasks.Params
	switch c.ContentType() {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		_ = c.ShouldBind(&params)
	default:
		if !bindJSON(c, &params) {
			return
		}
	}

	task, err := tasks.Build(taskType, params, tc.defaults)
	if err != nil {
		respondBadRequest(c, err.Error())
		return
	}
	if !tc.available(c) {
		return
	}

	id, err := tc.client.Enqueue(c.Request.Context(), task)
	if err != nil {
		writeError(c, err)
		return
	}
	log.Printf("Task enqueued: %s (%s) [%s]", taskType, id, RequestID(c))

	respond(c, http.StatusAccepted, "Task enqueued", gin.H{
		"task_id": id,
		"type":    taskType,
	})
}

func (tc *TasksController) available(c *gin.Context) bool {
	if tc.client == nil {
		respondError(c, http.StatusServiceUnavailable, "Task queue not configured")
		return false
	}
	return true
}
