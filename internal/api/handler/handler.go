package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/Clementine55/Licey22Schedule/internal/service"
	apperrors "github.com/Clementine55/Licey22Schedule/pkg/errors"
	"github.com/Clementine55/Licey22Schedule/pkg/response"
)

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Schedule *ScheduleHandler
	Admin    *AdminHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Schedule: NewScheduleHandler(svc.Display),
		Admin:    NewAdminHandler(svc.Display),
	}
}

// 业务错误码
const (
	codeScheduleNotFound = 20001
	codeRefreshFailed    = 20002
)

// 返回给客户端的提示（屏幕与机器人均为俄语）
const (
	msgScheduleNotFound    = "Расписание не найдено"
	msgScheduleUnavailable = "Расписание временно недоступно"
	msgRefreshFailed       = "Не удалось обновить расписание"
)

// writeError 把错误分类映射为 HTTP 响应
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, apperrors.ErrNotConfigured):
		response.NotFound(c, codeScheduleNotFound, msgScheduleNotFound)
	case errors.Is(err, apperrors.ErrNoSource),
		errors.Is(err, apperrors.ErrParse),
		errors.Is(err, apperrors.ErrPersist),
		errors.Is(err, context.DeadlineExceeded),
		errors.Is(err, context.Canceled):
		response.ServiceUnavailable(c, codeRefreshFailed, msgScheduleUnavailable, err.Error())
	default:
		response.InternalError(c)
	}
}
