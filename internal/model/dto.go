package model

import "time"

// ========== Activation DTOs ==========

type ActivateRequest struct {
	Phone    string `json:"phone" binding:"required"`
	DeviceID string `json:"deviceId" binding:"required,max=128"`
}

type StatusQuery struct {
	Phone    string `form:"phone" binding:"required"`
	DeviceID string `form:"deviceId"`
}

type DeviceQuery struct {
	Fingerprint string `form:"fingerprint" binding:"required,max=128"`
}

type ActivationData struct {
	Phone       string    `json:"phone"`
	DeviceID    string    `json:"deviceId"`
	ActivatedAt time.Time `json:"activatedAt"`
	Profile     Profile   `json:"profile"`
}

type ActivateResponse struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
	Data    *ActivationData `json:"data,omitempty"`
}

type StatusResponse struct {
	Valid   bool     `json:"valid"`
	Error   string   `json:"error,omitempty"`
	Profile *Profile `json:"profile,omitempty"`
}

type DeviceStatusResponse struct {
	Activated bool     `json:"activated"`
	Phone     string   `json:"phone,omitempty"`
	Profile   *Profile `json:"profile,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// ========== Webhook DTOs ==========

const SaleEventSuccessful = "successful.sale"

type SaleWebhookPayload struct {
	Event    string       `json:"event"`
	Sale     SaleInfo     `json:"sale"`
	Product  ProductInfo  `json:"product"`
	Customer CustomerInfo `json:"customer"`
	Store    StoreInfo    `json:"store"`
	Note     string       `json:"note,omitempty"`
}

type SaleInfo struct {
	ID          string  `json:"id" binding:"max=128"`
	Amount      float64 `json:"amount"`
	Status      string  `json:"status"`
	CreatedAt   string  `json:"created_at"`
	CompletedAt string  `json:"completed_at"`
}

type ProductInfo struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	URL   string  `json:"url"`
	Price float64 `json:"price"`
}

type CustomerInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name" binding:"max=255"`
	FirstName string `json:"first_name" binding:"max=255"`
	LastName  string `json:"last_name" binding:"max=255"`
	Email     string `json:"email" binding:"max=255"`
	Phone     string `json:"phone" binding:"max=64"`
	Country   string `json:"country"`
	CreatedAt string `json:"created_at"`
}

type StoreInfo struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	URL       string `json:"url"`
	CreatedAt string `json:"created_at"`
}

type WebhookResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// ========== Admin DTOs ==========

type CreateCodeRequest struct {
	Phone         string `json:"phone" binding:"required"`
	OrderID       string `json:"order_id" binding:"max=128"`
	CustomerName  string `json:"customer_name" binding:"max=255"`
	CustomerEmail string `json:"customer_email" binding:"omitempty,email,max=255"`
}

type ListCodesQuery struct {
	Limit int `form:"limit,default=10" binding:"min=1,max=100"`
}

type CreateCodeResponse struct {
	Phone   string `json:"phone"`
	Created bool   `json:"created"`
}

// ========== Common ==========

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}
