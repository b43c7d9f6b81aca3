package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/niyyah-app/niyyah-api/internal/model"
	"github.com/niyyah-app/niyyah-api/internal/service"
)

// AdminHandler handles manual license management
type AdminHandler struct {
	activationService *service.ActivationService
}

func NewAdminHandler(activationService *service.ActivationService) *AdminHandler {
	return &AdminHandler{activationService: activationService}
}

// CreateCode godoc
// @Summary Add an activation code by hand
// @Tags Admin
// @Accept json
// @Produce json
// @Security AdminKey
// @Param body body model.CreateCodeRequest true "Code to create"
// @Success 201 {object} model.SuccessResponse
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Failure 503 {object} model.ErrorResponse
// @Router /admin/codes [post]
func (h *AdminHandler) CreateCode(c *gin.Context) {
	var req model.CreateCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid request", Message: err.Error()})
		return
	}

	license, created, err := h.activationService.CreateLicense(c.Request.Context(), service.SourceAdmin, service.NewLicense{
		Phone:         req.Phone,
		OrderID:       req.OrderID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
	})
	if err != nil {
		if errors.Is(err, service.ErrValidation) {
			c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: service.MessageOf(err)})
			return
		}
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: service.MessageOf(err)})
		return
	}

	data := model.CreateCodeResponse{Phone: license.Phone, Created: created}
	if !created {
		c.JSON(http.StatusOK, model.SuccessResponse{
			Message: fmt.Sprintf("Activation code already exists for %s", license.Phone),
			Data:    data,
		})
		return
	}

	c.JSON(http.StatusCreated, model.SuccessResponse{
		Message: fmt.Sprintf("Activation code created for %s", license.Phone),
		Data:    data,
	})
}

// ListCodes godoc
// @Summary List the most recent activation codes
// @Tags Admin
// @Produce json
// @Security AdminKey
// @Param limit query int false "Number of codes (1-100)" default(10)
// @Success 200 {object} model.SuccessResponse
// @Failure 400 {object} model.ErrorResponse
// @Failure 401 {object} model.ErrorResponse
// @Router /admin/codes [get]
func (h *AdminHandler) ListCodes(c *gin.Context) {
	var query model.ListCodesQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{Error: "Invalid limit", Message: err.Error()})
		return
	}

	licenses, err := h.activationService.ListLicenses(c.Request.Context(), query.Limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{Error: service.MessageOf(err)})
		return
	}

	c.JSON(http.StatusOK, model.SuccessResponse{
		Message: fmt.Sprintf("%d activation codes", len(licenses)),
		Data:    licenses,
	})
}
