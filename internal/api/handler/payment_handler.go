package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/y-noah0/pssms/internal/domain"
	"github.com/y-noah0/pssms/internal/repository"
	"github.com/y-noah0/pssms/internal/service"

	"github.com/gin-gonic/gin"
)

type PaymentHandler struct {
	billingService *service.BillingService
}

func NewPaymentHandler(bs *service.BillingService) *PaymentHandler {
	return &PaymentHandler{billingService: bs}
}

// POST /payments
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	var dto domain.CreatePaymentDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	payment, err := h.billingService.CreatePayment(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrRecordStillActive):
			// Phiên đang hoạt động: sai trạng thái lifecycle, không phải input sai
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrPaymentExists):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAmountTooLow):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo thanh toán", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, payment)
}

// GET /payments
func (h *PaymentHandler) GetAllPayments(c *gin.Context) {
	payments, err := h.billingService.GetAllPayments(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payments)
}

// GET /payments/daily/:date — báo cáo thanh toán theo ngày kèm tổng tiền
func (h *PaymentHandler) GetDailyPayments(c *gin.Context) {
	report, err := h.billingService.GetDailyPayments(c.Request.Context(), c.Param("date"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy báo cáo thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, report)
}

// GET /payments/record/:recordId
func (h *PaymentHandler) GetPaymentByRecordID(c *gin.Context) {
	recordID, err := strconv.Atoi(c.Param("recordId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID phiên đỗ xe không hợp lệ"})
		return
	}
	payment, err := h.billingService.GetPaymentByRecordID(c.Request.Context(), recordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy thanh toán cho phiên đỗ xe này"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payment)
}

// GET /payments/:id
func (h *PaymentHandler) GetPaymentByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID thanh toán không hợp lệ"})
		return
	}
	payment, err := h.billingService.GetPaymentByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy thanh toán"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thanh toán", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, payment)
}
