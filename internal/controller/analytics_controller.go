package controller

import (
	"visa_interview_backend/internal/service"
	"visa_interview_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	AnalyticsService   *service.AnalyticsService
	AchievementService *service.AchievementService
}

func NewAnalyticsController(analyticsService *service.AnalyticsService, achievementService *service.AchievementService) *AnalyticsController {
	return &AnalyticsController{
		AnalyticsService:   analyticsService,
		AchievementService: achievementService,
	}
}

// GetDashboard godoc
// @Summary 纵向分析面板
// @Description 总览、类别趋势、弱项、分数序列、成就与下一步建议
// @Tags 分析
// @Produce  json
// @Success 200 {object} util.Response{data=model.AnalyticsDashboard}
// @Security ApiKeyAuth
// @Router /api/analytics/dashboard [get]
func (c *AnalyticsController) GetDashboard(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	dashboard, err := c.AnalyticsService.GetDashboard(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, dashboard)
}

// GetHistory godoc
// @Summary 历史分数序列
// @Description 按时间升序返回该用户的全部得分记录
// @Tags 分析
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.ScoreHistoryEntry}
// @Security ApiKeyAuth
// @Router /api/analytics/history [get]
func (c *AnalyticsController) GetHistory(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	history, err := c.AnalyticsService.HistoryRepo.FindByUser(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, history)
}

// GetAchievements godoc
// @Summary 成就列表
// @Description 基于完整历史重新评估，已解锁的成就不会回退
// @Tags 分析
// @Produce  json
// @Success 200 {object} util.Response{data=[]model.AchievementState}
// @Security ApiKeyAuth
// @Router /api/analytics/achievements [get]
func (c *AnalyticsController) GetAchievements(ctx *gin.Context) {
	claims := util.GetUserFromContext(ctx)
	if claims == nil {
		util.Unauthorized(ctx)
		return
	}

	achievements, err := c.AchievementService.GetUserAchievements(claims.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, achievements)
}
