package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Clementine55/Licey22Schedule/internal/dto"
	"github.com/Clementine55/Licey22Schedule/internal/service"
	"github.com/Clementine55/Licey22Schedule/pkg/response"
)

// ScheduleHandler 课表展示 HTTP 处理器
type ScheduleHandler struct {
	displaySvc service.DisplayService
}

// NewScheduleHandler 创建 ScheduleHandler
func NewScheduleHandler(displaySvc service.DisplayService) *ScheduleHandler {
	return &ScheduleHandler{displaySvc: displaySvc}
}

// ListSchedules 已配置的课表
// GET /api/v1/schedules
func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	response.OK(c, dto.ScheduleListResponse{Schedules: h.displaySvc.Schedules()})
}

// GetWeek 整周课表
// GET /api/v1/schedules/:name
func (h *ScheduleHandler) GetWeek(c *gin.Context) {
	week, err := h.displaySvc.Week(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, week)
}

// GetToday 屏幕当前应显示的内容
// GET /api/v1/schedules/:name/today
func (h *ScheduleHandler) GetToday(c *gin.Context) {
	today, err := h.displaySvc.Today(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, today)
}

// GetConsultations 全部答疑
// GET /api/v1/schedules/:name/consultations
func (h *ScheduleHandler) GetConsultations(c *gin.Context) {
	list, err := h.displaySvc.Consultations(c.Request.Context(), c.Param("name"))
	if err != nil {
		writeError(c, err)
		return
	}
	response.OK(c, list)
}
