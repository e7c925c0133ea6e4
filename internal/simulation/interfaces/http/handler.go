// Package http 暴露模拟引擎的 REST 接口
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/pkg/response"

	"github.com/wyfcoding/portfoliorisk/internal/simulation/application"
	"github.com/wyfcoding/portfoliorisk/internal/simulation/domain"
	"github.com/wyfcoding/portfoliorisk/pkg/logger"
)

// SimulationHandler 负责处理模拟与压力测试相关的 HTTP 请求
type SimulationHandler struct {
	svc *application.SimulationService
}

// NewSimulationHandler 创建 HTTP 处理器
func NewSimulationHandler(svc *application.SimulationService) *SimulationHandler {
	return &SimulationHandler{svc: svc}
}

// RegisterRoutes 注册路由
func (h *SimulationHandler) RegisterRoutes(router *gin.RouterGroup) {
	api := router.Group("/api/v1/simulation")
	{
		api.POST("/run", h.RunSimulation)
		api.POST("/stress", h.RunStressTest)
		api.POST("/compare", h.CompareStrategies)
		api.GET("/strategies", h.GetStrategies)
	}
}

// RunSimulation 运行一次路径模拟并返回风险指标
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req application.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.RunSimulation(c.Request.Context(), &req)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to run simulation", "strategy", req.Strategy, "error", err)
		response.ErrorWithStatus(c, statusFor(err), err.Error(), "")
		return
	}

	response.Success(c, dto)
}

// RunStressTest 对历史压力情景回放组合表现
func (h *SimulationHandler) RunStressTest(c *gin.Context) {
	var req application.StressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.RunStressTest(c.Request.Context(), &req)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to run stress test", "error", err)
		response.ErrorWithStatus(c, statusFor(err), err.Error(), "")
		return
	}

	response.Success(c, dto)
}

// CompareStrategies 用全部引擎运行同一组合并汇总指标
func (h *SimulationHandler) CompareStrategies(c *gin.Context) {
	var req application.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.ErrorWithStatus(c, http.StatusBadRequest, err.Error(), "")
		return
	}

	dto, err := h.svc.CompareStrategies(c.Request.Context(), &req)
	if err != nil {
		logger.Error(c.Request.Context(), "Failed to compare strategies", "error", err)
		response.ErrorWithStatus(c, statusFor(err), err.Error(), "")
		return
	}

	response.Success(c, dto)
}

// GetStrategies 返回可用的模拟引擎名称
func (h *SimulationHandler) GetStrategies(c *gin.Context) {
	response.Success(c, h.svc.Strategies())
}

// statusFor 将领域错误映射到 HTTP 状态码：参数/数据问题返回 4xx，
// 上游行情不可用返回 502，其余为 500。
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnknownStrategy),
		errors.Is(err, domain.ErrWeightMismatch),
		errors.Is(err, domain.ErrInvalidDateRange):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientData),
		errors.Is(err, domain.ErrDegenerateData),
		errors.Is(err, domain.ErrNotPositiveDefinite):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrDataUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
