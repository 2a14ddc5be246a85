package controller

import (
	"errors"

	"visa_interview_backend/internal/service"
	"visa_interview_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type InterviewController struct {
	InterviewService *service.InterviewService
	StorageService   *service.StorageService
	Hub              *service.TranscriptHub
}

func NewInterviewController(interviewService *service.InterviewService, storageService *service.StorageService, hub *service.TranscriptHub) *InterviewController {
	return &InterviewController{
		InterviewService: interviewService,
		StorageService:   storageService,
		Hub:              hub,
	}
}

// respondSessionError 把会话领域错误映射到 HTTP 状态码
func respondSessionError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrSessionNotFound):
		util.NotFound(ctx)
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	case errors.Is(err, util.ErrInvalidSessionState),
		errors.Is(err, util.ErrSessionCompleted),
		errors.Is(err, util.ErrTurnFinalized),
		errors.Is(err, util.ErrNoActiveTurn):
		util.Conflict(ctx, err.Error())
	default:
		util.LogInternalError(ctx, err)
	}
}

// StartSession godoc
// @Summary 创建面试会话
// @Description 创建 preparing 状态的模拟面试会话，persona 为空时按权重随机
// @Tags 面试
// @Accept  json
// @Produce  json
// @Param   body body service.StartSessionRequest true "会话参数"
// @Success 201 {object} util.Response{data=model.InterviewSession} "创建成功"
// @Failure 400 {object} util.Response "请求参数错误"
// @Security ApiKeyAuth
// @Router /api/interviews [post]
func (c *InterviewController) StartSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.StartSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	session, err := c.InterviewService.StartSession(claims.UserID, req)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Created(ctx, session)
}

// GetSession godoc
// @Summary 查询会话状态
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.InterviewSession}
// @Failure 404 {object} util.Response "会话不存在"
// @Security ApiKeyAuth
// @Router /api/interviews/{id} [get]
func (c *InterviewController) GetSession(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.InterviewService.GetSession(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Begin godoc
// @Summary 开始面试
// @Description preparing -> active，提出第一个问题并启动计时器
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.InterviewSession}
// @Failure 409 {object} util.Response "会话状态不允许"
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/begin [post]
func (c *InterviewController) Begin(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.InterviewService.Begin(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Pause godoc
// @Summary 暂停面试
// @Description 撤销所有计时器，当前回合不定稿
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "会话状态不允许"
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/pause [post]
func (c *InterviewController) Pause(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.InterviewService.Pause(ctx.Param("id"), claims.UserID); err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Resume godoc
// @Summary 恢复面试
// @Description paused -> active，计时器从零重新计
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "会话状态不允许"
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/resume [post]
func (c *InterviewController) Resume(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.InterviewService.Resume(ctx.Param("id"), claims.UserID); err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Advance godoc
// @Summary 手动进入下一题
// @Description 定稿当前回合 (cause=manual) 并提出下一个问题
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Failure 409 {object} util.Response "会话状态不允许"
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/advance [post]
func (c *InterviewController) Advance(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.InterviewService.Advance(ctx.Param("id"), claims.UserID); err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, nil)
}

// Complete godoc
// @Summary 提前结束面试
// @Description 定稿进行中的回合并把会话标记为 completed
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response{data=model.InterviewSession}
// @Failure 409 {object} util.Response "会话状态不允许"
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/complete [post]
func (c *InterviewController) Complete(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	session, err := c.InterviewService.Complete(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, session)
}

// Abandon godoc
// @Summary 放弃面试
// @Description 撤销计时器并丢弃会话，不产出报告
// @Tags 面试
// @Produce  json
// @Param   id path string true "会话 ID"
// @Success 200 {object} util.Response
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/abandon [post]
func (c *InterviewController) Abandon(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	c.InterviewService.Abandon(ctx.Param("id"), claims.UserID)
	util.Success(ctx, nil)
}

// Stream godoc
// @Summary 会话实时通道 (WebSocket)
// @Description 上行 TRANSCRIPT_UPDATE / BODY_SAMPLE 帧，下行问题与定稿事件
// @Tags 面试
// @Param   id path string true "会话 ID"
// @Security ApiKeyAuth
// @Router /api/interviews/{id}/stream [get]
func (c *InterviewController) Stream(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.Hub.ServeWS(ctx.Writer, ctx.Request, ctx.Param("id"), claims.UserID); err != nil {
		respondSessionError(ctx, err)
	}
}

// ListReports godoc
// @Summary 分页查询历史报告
// @Tags 报告
// @Produce  json
// @Param   page query int false "页码" default(1)
// @Param   limit query int false "每页数量" default(10)
// @Success 200 {object} util.PageResponse
// @Security ApiKeyAuth
// @Router /api/reports [get]
func (c *InterviewController) ListReports(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	page := int(util.MustParseUint(ctx.DefaultQuery("page", "1")))
	if page < 1 {
		page = 1
	}
	limit := int(util.MustParseUint(ctx.DefaultQuery("limit", "10")))
	if limit < 1 || limit > 100 {
		limit = 10
	}

	reports, total, err := c.InterviewService.ListReports(claims.UserID, page, limit)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{
		"items": reports,
		"total": total,
		"page":  page,
		"limit": limit,
	})
}

// GetReport godoc
// @Summary 查询单份报告
// @Tags 报告
// @Produce  json
// @Param   id path string true "报告 ID"
// @Success 200 {object} util.Response{data=model.InterviewReport}
// @Failure 404 {object} util.Response "报告不存在"
// @Security ApiKeyAuth
// @Router /api/reports/{id} [get]
func (c *InterviewController) GetReport(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	report, err := c.InterviewService.GetReport(ctx.Param("id"), claims.UserID)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, report)
}

// UploadRecording godoc
// @Summary 上传面试录像
// @Description 探测媒体时长并回写报告
// @Tags 报告
// @Accept  multipart/form-data
// @Produce  json
// @Param   id path string true "报告 ID"
// @Param   file formData file true "录像文件"
// @Success 200 {object} util.Response{data=object}
// @Failure 400 {object} util.Response "缺少文件"
// @Security ApiKeyAuth
// @Router /api/reports/{id}/recording [post]
func (c *InterviewController) UploadRecording(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	fh, err := ctx.FormFile("file")
	if err != nil {
		util.BadRequest(ctx, "file is required")
		return
	}

	url, duration, err := c.StorageService.UploadRecording(ctx.Request.Context(), ctx.Param("id"), claims.UserID, fh)
	if err != nil {
		respondSessionError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"url": url, "durationSec": duration})
}
