package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsinglet/mrva_go_server/internal/api/middleware"
	"github.com/jsinglet/mrva_go_server/internal/model/dto"
	"github.com/jsinglet/mrva_go_server/internal/pkg/response"
	"github.com/jsinglet/mrva_go_server/internal/service"
)

type RepoListHandler struct {
	listService *service.RepoListService
}

func NewRepoListHandler(listService *service.RepoListService) *RepoListHandler {
	return &RepoListHandler{
		listService: listService,
	}
}

// Create 创建仓库清单
// POST /api/v1/repo-lists
func (h *RepoListHandler) Create(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	var req dto.RepoListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.listService.Create(userID, &req)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.SuccessWithMessage(c, "创建成功", item)
}

// List 获取仓库清单列表
// GET /api/v1/repo-lists
func (h *RepoListHandler) List(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	items, err := h.listService.List(userID)
	if err != nil {
		response.ServerError(c, "")
		return
	}

	response.Success(c, items)
}

// Update 更新仓库清单
// PUT /api/v1/repo-lists/:id
func (h *RepoListHandler) Update(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的清单ID")
		return
	}

	var req dto.RepoListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ParamError(c, err.Error())
		return
	}

	item, err := h.listService.Update(userID, listID, &req)
	if err != nil {
		h.respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "更新成功", item)
}

// Delete 删除仓库清单
// DELETE /api/v1/repo-lists/:id
func (h *RepoListHandler) Delete(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.AuthError(c, "")
		return
	}

	listID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.ParamError(c, "无效的清单ID")
		return
	}

	if err := h.listService.Delete(userID, listID); err != nil {
		h.respondServiceError(c, err)
		return
	}

	response.SuccessWithMessage(c, "删除成功", nil)
}

func (h *RepoListHandler) respondServiceError(c *gin.Context, err error) {
	switch err {
	case service.ErrRepoListNotFound:
		response.NotFoundError(c, err.Error())
	case service.ErrRepoListPermission:
		response.PermissionError(c, err.Error())
	default:
		response.ServerError(c, "")
	}
}
