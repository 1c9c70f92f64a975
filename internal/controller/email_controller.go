package controller

import (
	"errors"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type EmailController struct {
	ReminderService *service.ReminderService
}

func NewEmailController(reminderService *service.ReminderService) *EmailController {
	return &EmailController{ReminderService: reminderService}
}

// @Summary 发送提醒邮件
// @Description 给当前用户发送习惯提醒
// @Tags 邮件
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 400 {object} util.Response "缺少收件人"
// @Failure 500 {object} util.Response
// @Router /api/email/reminder [post]
func (c *EmailController) SendReminder(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ReminderService.SendReminder(ctx.Request.Context(), identity); err != nil {
		respondMailError(ctx, err, "Could not send email")
		return
	}
	util.SuccessMessage(ctx, "Reminder email sent", nil)
}

// @Summary 发送测试提醒
// @Tags 邮件
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response
// @Failure 500 {object} util.Response
// @Router /api/email/test-reminder [post]
func (c *EmailController) SendTestReminder(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.ReminderService.SendTestReminder(ctx.Request.Context(), identity); err != nil {
		respondMailError(ctx, err, "Could not send test email")
		return
	}
	util.SuccessMessage(ctx, "Test reminder email triggered", nil)
}

func respondMailError(ctx *gin.Context, err error, message string) {
	if errors.Is(err, util.ErrMissingRecipient) {
		util.BadRequest(ctx, err.Error())
		return
	}
	util.LogInternalErrorMessage(ctx, err, message)
}
