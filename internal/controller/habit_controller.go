package controller

import (
	"errors"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type HabitController struct {
	HabitService *service.HabitService
}

func NewHabitController(habitService *service.HabitService) *HabitController {
	return &HabitController{HabitService: habitService}
}

// LogHabitRequest status 可以是数字、数字字符串或布尔值
// swagger:model LogHabitRequest
type LogHabitRequest struct {
	HabitName string      `json:"habit_name"`
	Date      string      `json:"date"`
	Status    interface{} `json:"status" swaggertype:"integer"`
}

// @Summary 记录习惯
// @Description 记录某个习惯在某天是否完成
// @Tags 习惯
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body LogHabitRequest true "习惯记录"
// @Success 200 {object} util.Response{data=model.Habit}
// @Failure 400 {object} util.Response
// @Router /api/habits [post]
func (c *HabitController) LogHabit(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	var req LogHabitRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	habit, err := c.HabitService.LogHabit(ctx.Request.Context(), identity.UserID, service.LogHabitInput{
		HabitName: req.HabitName,
		Date:      req.Date,
		Status:    req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrHabitNameRequired), errors.Is(err, util.ErrDateRequired), errors.Is(err, util.ErrInvalidDate):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalErrorMessage(ctx, err, "Could not save habit")
		}
		return
	}

	util.SuccessMessage(ctx, "Habit saved", habit)
}

// @Summary 习惯图表汇总
// @Description 最近 7 天、最近 6 个月完成率，完成/未完成计数和连续天数曲线
// @Tags 习惯
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=analytics.Summary}
// @Router /api/habits/summary [get]
func (c *HabitController) GetSummary(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	summary, err := c.HabitService.GetSummary(identity.UserID)
	if err != nil {
		util.LogInternalErrorMessage(ctx, err, "Could not load summary")
		return
	}

	util.Success(ctx, summary)
}
