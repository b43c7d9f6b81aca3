package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/niyyah-app/niyyah-api/internal/service"
)

// ActivationHandler handles device activation endpoints
type ActivationHandler struct {
	activationService *service.ActivationService
}

func NewActivationHandler(activationService *service.ActivationService) *ActivationHandler {
	return &ActivationHandler{activationService: activationService}
}

// Activate godoc
// @Summary Bind a purchased license to this device
// @Tags Activation
// @Accept json
// @Produce json
// @Param body body model.ActivateRequest true "Activate request"
// @Success 200 {object} model.ActivateResponse
// @Failure 400 {object} model.ActivateResponse
// @Failure 403 {object} model.ActivateResponse
// @Failure 404 {object} model.ActivateResponse
// @Failure 429 {object} model.ErrorResponse
// @Failure 500 {object} model.ActivateResponse
// @Router /activate [post]
func (h *ActivationHandler) Activate(c *gin.Context) {
	var req model.ActivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ActivateResponse{Success: false, Error: "Phone number and deviceId are required"})
		return
	}

	resp, err := h.activationService.Activate(c.Request.Context(), req.Phone, req.DeviceID)
	if err != nil {
		c.JSON(statusFor(err), model.ActivateResponse{Success: false, Error: service.MessageOf(err)})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckStatus godoc
// @Summary Check whether a phone number holds a usable license
// @Description Read-only. Unknown numbers and numbers bound to another device answer 200 with valid=false.
// @Tags Activation
// @Produce json
// @Param phone query string true "Phone number"
// @Param deviceId query string false "Device fingerprint"
// @Success 200 {object} model.StatusResponse
// @Failure 400 {object} model.StatusResponse
// @Failure 500 {object} model.StatusResponse
// @Router /activate [get]
func (h *ActivationHandler) CheckStatus(c *gin.Context) {
	var query model.StatusQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.StatusResponse{Valid: false, Error: "Phone number is required"})
		return
	}

	resp, err := h.activationService.CheckStatus(c.Request.Context(), query.Phone, query.DeviceID)
	if err != nil {
		status := statusFor(err)
		// an answer about the license, not a failed request
		if status == http.StatusNotFound || status == http.StatusForbidden {
			status = http.StatusOK
		}
		c.JSON(status, model.StatusResponse{Valid: false, Error: service.MessageOf(err)})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// CheckDevice godoc
// @Summary Find the activation bound to a device fingerprint
// @Description Absence answers activated=false; only store failures are errors.
// @Tags Activation
// @Produce json
// @Param fingerprint query string true "Device fingerprint"
// @Success 200 {object} model.DeviceStatusResponse
// @Failure 400 {object} model.DeviceStatusResponse
// @Failure 500 {object} model.ErrorResponse
// @Router /check-device [get]
func (h *ActivationHandler) CheckDevice(c *gin.Context) {
	var query model.DeviceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.DeviceStatusResponse{Activated: false, Error: "Fingerprint required"})
		return
	}

	resp, err := h.activationService.CheckStatusByDevice(c.Request.Context(), query.Fingerprint)
	if err != nil {
		c.JSON(statusFor(err), model.ErrorResponse{Error: service.MessageOf(err)})
		return
	}

	c.JSON(http.StatusOK, resp)
}

// statusFor maps a service error kind to its HTTP status
func statusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindDeviceConflict:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
