package controller

import (
	"habit_tracker_backend/internal/analytics"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type AnalyticsController struct {
	InsightService *service.InsightService
}

func NewAnalyticsController(insightService *service.InsightService) *AnalyticsController {
	return &AnalyticsController{InsightService: insightService}
}

// @Summary 习惯洞察
// @Description 基于全部历史记录给出风险等级、预测分数和行为提示
// @Tags 分析
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=analytics.Insight}
// @Router /api/analytics/insights [get]
func (c *AnalyticsController) GetInsights(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	insight, err := c.InsightService.GetInsights(ctx.Request.Context(), identity.UserID)
	if err != nil {
		util.LogInternalErrorMessage(ctx, err, "Could not compute analytics")
		return
	}

	util.Success(ctx, insight)
}

// @Summary 洞察预览
// @Description 对请求中给出的记录直接计算洞察，不读写数据库
// @Tags 分析
// @Accept json
// @Produce json
// @Param body body []analytics.Record true "记录列表"
// @Success 200 {object} util.Response{data=analytics.Insight}
// @Failure 400 {object} util.Response
// @Router /api/analytics/insights/preview [post]
func (c *AnalyticsController) Preview(ctx *gin.Context) {
	var records []analytics.Record
	if err := ctx.ShouldBindJSON(&records); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	util.Success(ctx, c.InsightService.Preview(records))
}
