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

type ParkingRecordHandler struct {
	parkingService *service.ParkingService
}

func NewParkingRecordHandler(ps *service.ParkingService) *ParkingRecordHandler {
	return &ParkingRecordHandler{parkingService: ps}
}

// POST /parking-records — ghi nhận xe vào
func (h *ParkingRecordHandler) RecordEntry(c *gin.Context) {
	var dto domain.CreateParkingRecordDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	record, err := h.parkingService.RecordEntry(c.Request.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSlotOccupied), errors.Is(err, service.ErrCarAlreadyParked):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận xe vào", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusCreated, record)
}

// PUT /parking-records/exit/:id — ghi nhận xe ra
// Query param tùy chọn customDuration (số giờ nguyên dương) ghi đè
// thời lượng tính từ entry_time.
func (h *ParkingRecordHandler) RecordExit(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID phiên đỗ xe không hợp lệ"})
		return
	}

	var customDuration *int64
	if raw := c.Query("customDuration"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Thời lượng tùy chỉnh không hợp lệ"})
			return
		}
		customDuration = &parsed
	}

	record, fee, err := h.parkingService.RecordExit(c.Request.Context(), id, customDuration)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
		case errors.Is(err, service.ErrExitAlreadyRecorded):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrInvalidDuration):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể ghi nhận xe ra", "details": err.Error()})
		}
		return
	}
	c.JSON(http.StatusOK, domain.ExitResponseDTO{ParkingRecord: record, Fee: fee})
}

// GET /parking-records
func (h *ParkingRecordHandler) GetAllParkingRecords(c *gin.Context) {
	records, err := h.parkingService.GetAllParkingRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách phiên đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /parking-records/active
func (h *ParkingRecordHandler) GetActiveParkingRecords(c *gin.Context) {
	records, err := h.parkingService.GetActiveParkingRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách xe đang đỗ", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /parking-records/completed
func (h *ParkingRecordHandler) GetCompletedParkingRecords(c *gin.Context) {
	records, err := h.parkingService.GetCompletedParkingRecords(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách phiên đã hoàn tất", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /parking-records/car/:carId
func (h *ParkingRecordHandler) GetParkingRecordsByCarID(c *gin.Context) {
	carID, err := strconv.Atoi(c.Param("carId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	records, err := h.parkingService.GetParkingRecordsByCarID(c.Request.Context(), carID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy phiên đỗ xe theo xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /parking-records/daily/:date — báo cáo theo ngày (YYYY-MM-DD)
func (h *ParkingRecordHandler) GetDailyParkingRecords(c *gin.Context) {
	records, err := h.parkingService.GetDailyParkingRecords(c.Request.Context(), c.Param("date"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidDate) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy báo cáo ngày", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, records)
}

// GET /parking-records/:id
func (h *ParkingRecordHandler) GetParkingRecordByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID phiên đỗ xe không hợp lệ"})
		return
	}
	record, err := h.parkingService.GetParkingRecordByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy phiên đỗ xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin phiên đỗ xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, record)
}
