package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsinglet/mrva_go_server/internal/api/middleware"
	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/pkg/response"
	"github.com/jsinglet/mrva_go_server/internal/service"
)

type VariantAnalysisHandler struct {
	vaService *service.VariantAnalysisService
}

func NewVariantAnalysisHandler(vaService *service.VariantAnalysisService) *VariantAnalysisHandler {
	return &VariantAnalysisHandler{
		vaService: vaService,
	}
}

// Submit 提交变体分析
// POST /api/v1/variant-analyses
func (h *VariantAnalysisHandler) Submit(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.SubmitVariantAnalysisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.vaService.Submit(c.Request.Context(), userID, &req)
	if err != nil {
		switch err {
		case service.ErrQuotaExceeded:
			response.QuotaError(c, err.Error())
		case service.ErrNoRepos:
			response.ParamError(c, err.Error())
		case service.ErrRepoListNotFound:
			response.NotFoundError(c, err.Error())
		default:
			response.ServerError(c, "")
		}
		return
	}

	response.SuccessWithMessage(c, "提交成功", resp)
}

// List 获取变体分析列表
// GET /api/v1/variant-analyses
func (h *VariantAnalysisHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	status := c.Query("status")

	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := h.vaService.List(userID, page, pageSize, status)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessPage(c, total, page, pageSize, items)
}

// Get 获取变体分析详情
// GET /api/v1/variant-analyses/:id
func (h *VariantAnalysisHandler) Get(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	analysisID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	va, err := h.vaService.GetByID(userID, analysisID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	response.Success(c, va)
}

// ListRepos 获取仓库级状态
// GET /api/v1/variant-analyses/:id/repos
func (h *VariantAnalysisHandler) ListRepos(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	analysisID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	items, err := h.vaService.ListRepos(userID, analysisID)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	response.Success(c, items)
}

// Cancel 取消变体分析
// POST /api/v1/variant-analyses/:id/cancel
func (h *VariantAnalysisHandler) Cancel(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	analysisID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	silent := c.Query("silent") == "true"

	if err := h.vaService.Cancel(c.Request.Context(), userID, analysisID, silent); err != nil {
		switch err {
		case service.ErrAnalysisTerminal:
			response.ConflictError(c, err.Error())
		default:
			h.respondServiceError(c, err)
		}
		return
	}

	response.SuccessWithMessage(c, "已请求取消", nil)
}

// Export 入队导出任务
// POST /api/v1/variant-analyses/:id/export
func (h *VariantAnalysisHandler) Export(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	analysisID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的分析ID")
		return
	}

	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	resp, err := h.vaService.Export(c.Request.Context(), userID, analysisID, &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "导出任务已入队", resp)
}

func (h *VariantAnalysisHandler) respondServiceError(c *gin.Context, err error) {
	switch err {
	case service.ErrAnalysisNotFound:
		response.NotFoundError(c, err.Error())
	case service.ErrAnalysisPermission:
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
