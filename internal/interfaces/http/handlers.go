package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/billerops/onboarding-workflow/internal/auth"
	"github.com/billerops/onboarding-workflow/internal/models"
	"github.com/billerops/onboarding-workflow/internal/report"
	"github.com/billerops/onboarding-workflow/internal/repository"
	"github.com/billerops/onboarding-workflow/internal/storage"
	"github.com/billerops/onboarding-workflow/internal/workflow"
)

// Context keys set by the auth middleware.
const (
	ctxUsername = "username"
	ctxRole     = "role"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	engine        *workflow.Engine
	lifecycle     *workflow.Lifecycle
	authenticator auth.Authenticator
	tokens        *auth.TokenIssuer
	store         storage.AttachmentStore
	summaries     *report.SummaryWriter
	logger        *zap.Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	engine *workflow.Engine,
	lifecycle *workflow.Lifecycle,
	authenticator auth.Authenticator,
	tokens *auth.TokenIssuer,
	store storage.AttachmentStore,
	summaries *report.SummaryWriter,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		engine:        engine,
		lifecycle:     lifecycle,
		authenticator: authenticator,
		tokens:        tokens,
		store:         store,
		summaries:     summaries,
		logger:        logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// LoginRequest carries login credentials.
type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the issued token and the caller's role.
type LoginResponse struct {
	Token    string `json:"token"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// SignoffBody is the request body for a signoff decision.
type SignoffBody struct {
	Decision string `json:"decision" binding:"required"`
	Actor    string `json:"actor"`
	Remarks  string `json:"remarks"`
}

// ListWorkflowsRequest represents query parameters for listing workflows
type ListWorkflowsRequest struct {
	Search string `form:"search"`
	Page   int    `form:"page"`
	Limit  int    `form:"limit"`
}

// WorkflowListResponse is a paginated workflow listing.
type WorkflowListResponse struct {
	Workflows  []*models.Workflow `json:"workflows"`
	Total      int                `json:"total"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	TotalPages int                `json:"total_pages"`
}

// WorkflowDetailResponse embeds a workflow's steps and attachments.
type WorkflowDetailResponse struct {
	Workflow    *models.Workflow       `json:"workflow"`
	Steps       []*models.WorkflowStep `json:"steps"`
	Attachments []*models.Attachment   `json:"attachments"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// Login handles POST /login
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "username and password are required",
		})
		return
	}

	role, ok := h.authenticator.Authenticate(req.Username, req.Password)
	if !ok {
		c.JSON(http.StatusUnauthorized, Response{
			Success: false,
			Error:   "invalid credentials",
		})
		return
	}

	token, err := h.tokens.Issue(req.Username, role)
	if err != nil {
		h.logger.Error("Failed to issue token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to issue token",
		})
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: LoginResponse{
			Token:    token,
			Username: req.Username,
			Role:     role,
		},
	})
}

// CreateWorkflow handles POST /api/workflows
func (h *Handlers) CreateWorkflow(c *gin.Context) {
	var wf models.Workflow
	if err := c.ShouldBindJSON(&wf); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	created, err := h.lifecycle.CreateWorkflow(c.Request.Context(), &wf)
	if err != nil {
		h.logger.Error("Failed to create workflow", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to create workflow",
		})
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    created,
	})
}

// ListWorkflows handles GET /api/workflows
func (h *Handlers) ListWorkflows(c *gin.Context) {
	var req ListWorkflowsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid query parameters",
		})
		return
	}

	if req.Limit <= 0 || req.Limit > 100 {
		req.Limit = 20
	}
	if req.Page < 1 {
		req.Page = 1
	}

	workflows, total, err := h.engine.ListWorkflows(c.Request.Context(), repository.ListFilter{
		Search: req.Search,
		Limit:  req.Limit,
		Offset: (req.Page - 1) * req.Limit,
	})
	if err != nil {
		h.logger.Error("Failed to list workflows", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to retrieve workflows",
		})
		return
	}

	totalPages := total / req.Limit
	if total%req.Limit > 0 {
		totalPages++
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: WorkflowListResponse{
			Workflows:  workflows,
			Total:      total,
			Page:       req.Page,
			Limit:      req.Limit,
			TotalPages: totalPages,
		},
	})
}

// GetWorkflow handles GET /api/workflows/:id
func (h *Handlers) GetWorkflow(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	wf, err := h.engine.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve workflow")
		return
	}

	steps, err := h.engine.GetSteps(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve steps")
		return
	}

	attachments, err := h.engine.GetAttachments(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve attachments")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: WorkflowDetailResponse{
			Workflow:    wf,
			Steps:       steps,
			Attachments: attachments,
		},
	})
}

// UpdateWorkflow handles PUT /api/workflows/:id
func (h *Handlers) UpdateWorkflow(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	var upd models.WorkflowUpdate
	if err := c.ShouldBindJSON(&upd); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "invalid request body",
		})
		return
	}

	// Prefer the authenticated identity over a body-supplied editor.
	if username := c.GetString(ctxUsername); username != "" {
		upd.LastUpdatedBy = &username
	}

	wf, err := h.lifecycle.UpdateWorkflow(c.Request.Context(), id, &upd)
	if err != nil {
		h.respondError(c, err, "failed to update workflow")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    wf,
	})
}

// Signoff handles POST /api/workflows/:id/steps/:step/signoff
func (h *Handlers) Signoff(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	stepNumber, err := strconv.Atoi(c.Param("step"))
	if err != nil || !workflow.ValidStep(stepNumber) {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("step must be between %d and %d", workflow.FirstStep, workflow.StepCount),
		})
		return
	}

	var body SignoffBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "decision is required",
		})
		return
	}
	if body.Decision != models.SignoffApproved && body.Decision != models.SignoffRejected {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("decision must be %q or %q", models.SignoffApproved, models.SignoffRejected),
		})
		return
	}

	actor := c.GetString(ctxUsername)
	if actor == "" {
		actor = body.Actor
	}

	step, err := h.engine.Signoff(c.Request.Context(), workflow.SignoffRequest{
		WorkflowID: id,
		StepNumber: stepNumber,
		Decision:   body.Decision,
		Actor:      actor,
		Remarks:    body.Remarks,
	})
	if err != nil {
		h.respondError(c, err, "failed to apply signoff")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    step,
	})
}

// GetHistory handles GET /api/workflows/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	history, err := h.engine.GetHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve history")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    history,
	})
}

// GetRejectionHistory handles GET /api/workflows/:id/rejection-history
func (h *Handlers) GetRejectionHistory(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	rejections, err := h.engine.GetRejectionHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve rejection history")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    rejections,
	})
}

// GetEditHistory handles GET /api/workflows/:id/edit-history
func (h *Handlers) GetEditHistory(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	edits, err := h.lifecycle.GetEditHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve edit history")
		return
	}

	c.JSON(http.StatusOK, Response{
		Success: true,
		Data:    edits,
	})
}

// DownloadSummary handles GET /api/workflows/:id/summary
func (h *Handlers) DownloadSummary(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	wf, err := h.engine.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve workflow")
		return
	}

	steps, err := h.engine.GetSteps(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve steps")
		return
	}

	rejections, err := h.engine.GetRejectionHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve rejection history")
		return
	}

	content, err := h.summaries.Write(wf, steps, rejections)
	if err != nil {
		h.logger.Error("Failed to generate summary", zap.Int64("workflow_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to generate summary",
		})
		return
	}

	fileName := fmt.Sprintf("%s_summary.xlsx", wf.Title)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", content)
}

// UploadAttachment handles POST /api/workflows/:id/attachments
func (h *Handlers) UploadAttachment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	wf, err := h.engine.GetWorkflow(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve workflow")
		return
	}

	// Upload duty follows the current step: the Integration Team supplies GL
	// Detail ahead of the step 4 gate, the Finance Team ahead of step 6. Only
	// enforced when the caller's role is known.
	if role := c.GetString(ctxRole); role != "" {
		var required string
		switch wf.CurrentStep {
		case 4:
			required = models.RoleIntegration
		case 6:
			required = models.RoleFinance
		}
		if required != "" && role != required {
			c.JSON(http.StatusForbidden, Response{
				Success: false,
				Error:   fmt.Sprintf("only the %s team may upload documents at step %d", required, wf.CurrentStep),
			})
			return
		}
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   "file is required",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("Failed to open uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to read upload",
		})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("Failed to read uploaded file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to read upload",
		})
		return
	}

	path, err := h.store.Save(id, fileHeader.Filename, content)
	if err != nil {
		h.logger.Error("Failed to store attachment", zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to store attachment",
		})
		return
	}

	uploadedBy := c.GetString(ctxUsername)
	if uploadedBy == "" {
		uploadedBy = c.PostForm("uploaded_by")
	}

	att, err := h.engine.RecordAttachment(c.Request.Context(), &models.Attachment{
		WorkflowID:  id,
		FileType:    c.PostForm("file_type"),
		FileName:    fileHeader.Filename,
		FilePath:    path,
		UploadedBy:  uploadedBy,
		Description: c.PostForm("description"),
	})
	if err != nil {
		h.respondError(c, err, "failed to record attachment")
		return
	}

	c.JSON(http.StatusCreated, Response{
		Success: true,
		Data:    att,
	})
}

// DownloadAttachment handles GET /api/attachments/:id
func (h *Handlers) DownloadAttachment(c *gin.Context) {
	id, ok := h.pathID(c, "id")
	if !ok {
		return
	}

	att, err := h.engine.GetAttachment(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "failed to retrieve attachment")
		return
	}
	if att == nil {
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "attachment not found",
		})
		return
	}

	content, err := h.store.Read(att.FilePath)
	if err != nil {
		h.logger.Error("Failed to read attachment",
			zap.Int64("attachment_id", id),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   "failed to read attachment",
		})
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", att.FileName))
	c.Data(http.StatusOK, "application/octet-stream", content)
}

// pathID parses an int64 path parameter, responding 400 on failure.
func (h *Handlers) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   fmt.Sprintf("invalid %s", name),
		})
		return 0, false
	}
	return id, true
}

// respondError maps service errors to HTTP responses.
func (h *Handlers) respondError(c *gin.Context, err error, fallback string) {
	var gateErr *workflow.GateError
	switch {
	case errors.Is(err, workflow.ErrWorkflowNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "workflow not found",
		})
	case errors.Is(err, workflow.ErrStepNotFound):
		c.JSON(http.StatusNotFound, Response{
			Success: false,
			Error:   "step not found",
		})
	case errors.As(err, &gateErr):
		c.JSON(http.StatusBadRequest, Response{
			Success: false,
			Error:   gateErr.Message,
		})
	default:
		h.logger.Error(fallback, zap.Error(err))
		c.JSON(http.StatusInternalServerError, Response{
			Success: false,
			Error:   fallback,
		})
	}
}
