package controller

import (
	"bufio"
	"errors"
	"habit_tracker_backend/internal/service"
	"habit_tracker_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type UploadController struct {
	UploadService *service.UploadService
}

func NewUploadController(uploadService *service.UploadService) *UploadController {
	return &UploadController{UploadService: uploadService}
}

// ManualEntryRequest swagger:model ManualEntryRequest
type ManualEntryRequest struct {
	Value  float64 `json:"value"`
	Date   string  `json:"date"`
	Source string  `json:"source"`
}

// @Summary 导入 CSV / XLSX
// @Description 含 habit_name、date、status 列的行写入习惯记录，含 value、date 的行写入数值数据
// @Tags 上传
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param dataFile formData file true "CSV 或 XLSX 文件"
// @Success 200 {object} util.Response{data=service.ImportResult}
// @Failure 400 {object} util.Response
// @Router /api/upload [post]
func (c *UploadController) Upload(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	fileHeader, err := ctx.FormFile(util.UploadFormField)
	if err != nil {
		util.BadRequest(ctx, "No file uploaded")
		return
	}

	ext, err := util.UploadExtension(fileHeader.Filename)
	if err != nil {
		util.BadRequest(ctx, "Unsupported file type")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		util.LogInternalErrorMessage(ctx, err, "Could not process file")
		return
	}
	defer file.Close()

	reader := bufio.NewReader(file)
	if _, err := util.ValidateMimeType(reader, ext); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.UploadService.Import(ctx.Request.Context(), identity.UserID, fileHeader.Filename, reader, fileHeader.Size)
	if err != nil {
		if errors.Is(err, util.ErrUnsupportedFileType) {
			util.BadRequest(ctx, "Unsupported file type")
			return
		}
		util.LogInternalErrorMessage(ctx, err, "Could not process file")
		return
	}

	util.SuccessMessage(ctx, "File processed", result)
}

// @Summary 手动录入数值
// @Tags 上传
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body ManualEntryRequest true "数值数据"
// @Success 200 {object} util.Response{data=model.UploadedData}
// @Failure 400 {object} util.Response
// @Router /api/upload/manual [post]
func (c *UploadController) AddManualEntry(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	var req ManualEntryRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	entry, err := c.UploadService.AddManualEntry(identity.UserID, service.ManualEntryInput{
		Value:  req.Value,
		Date:   req.Date,
		Source: req.Source,
	})
	if err != nil {
		switch {
		case errors.Is(err, util.ErrValueRequired), errors.Is(err, util.ErrInvalidDate):
			util.BadRequest(ctx, err.Error())
		default:
			util.LogInternalErrorMessage(ctx, err, "Could not save entry")
		}
		return
	}

	util.SuccessMessage(ctx, "Manual entry saved", entry)
}

// @Summary 上传历史
// @Tags 上传
// @Produce json
// @Security BearerAuth
// @Success 200 {object} util.Response{data=[]model.UploadArchive}
// @Router /api/uploads [get]
func (c *UploadController) ListUploads(ctx *gin.Context) {
	identity := util.GetIdentityFromContext(ctx)
	if identity == nil {
		util.Unauthorized(ctx)
		return
	}

	archives, err := c.UploadService.ListArchives(identity.UserID)
	if err != nil {
		util.LogInternalError(ctx, err)
		return
	}
	util.Success(ctx, archives)
}
