package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Clementine55/Licey22Schedule/internal/service"
	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
	"github.com/Clementine55/Licey22Schedule/pkg/response"
)

// AdminHandler 管理操作 HTTP 处理器
type AdminHandler struct {
	displaySvc service.DisplayService
}

// NewAdminHandler 创建 AdminHandler
func NewAdminHandler(displaySvc service.DisplayService) *AdminHandler {
	return &AdminHandler{displaySvc: displaySvc}
}

// RefreshSchedule 强制刷新单个课表
// POST /api/v1/admin/schedules/:name/refresh
func (h *AdminHandler) RefreshSchedule(c *gin.Context) {
	res, err := h.displaySvc.Refresh(c.Request.Context(), c.Param("name"))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotConfigured) {
			writeError(c, err)
			return
		}
		_ = c.Error(err)
		response.ErrorWithData(c, http.StatusServiceUnavailable, codeRefreshFailed, msgRefreshFailed, res)
		return
	}
	response.OK(c, res)
}

// RefreshAll 强制刷新全部课表；单个失败体现在结果中
// POST /api/v1/admin/refresh
func (h *AdminHandler) RefreshAll(c *gin.Context) {
	response.OK(c, gin.H{"list": h.displaySvc.RefreshAll(c.Request.Context())})
}
