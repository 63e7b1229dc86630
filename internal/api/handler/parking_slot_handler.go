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

type ParkingSlotHandler struct {
	parkingService *service.ParkingService
}

func NewParkingSlotHandler(ps *service.ParkingService) *ParkingSlotHandler {
	return &ParkingSlotHandler{parkingService: ps}
}

// POST /parking-slots
func (h *ParkingSlotHandler) CreateParkingSlot(c *gin.Context) {
	var dto domain.ParkingSlotDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	slot, err := h.parkingService.CreateParkingSlot(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể tạo chỗ đỗ", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, slot)
}

// GET /parking-slots
func (h *ParkingSlotHandler) GetAllParkingSlots(c *gin.Context) {
	slots, err := h.parkingService.GetAllParkingSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /parking-slots/available
func (h *ParkingSlotHandler) GetAvailableParkingSlots(c *gin.Context) {
	slots, err := h.parkingService.GetAvailableParkingSlots(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách chỗ đỗ trống", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, slots)
}

// GET /parking-slots/:id
func (h *ParkingSlotHandler) GetParkingSlotByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID chỗ đỗ không hợp lệ"})
		return
	}
	slot, err := h.parkingService.GetParkingSlotByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin chỗ đỗ", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// PUT /parking-slots/:id — admin override trạng thái
func (h *ParkingSlotHandler) UpdateParkingSlotStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID chỗ đỗ không hợp lệ"})
		return
	}
	var dto domain.UpdateSlotStatusDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	slot, err := h.parkingService.OverrideSlotStatus(c.Request.Context(), id, dto.Status)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSlotStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật chỗ đỗ", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, slot)
}

// DELETE /parking-slots/:id
func (h *ParkingSlotHandler) DeleteParkingSlot(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID chỗ đỗ không hợp lệ"})
		return
	}
	if err := h.parkingService.DeleteParkingSlot(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy chỗ đỗ"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa chỗ đỗ", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa chỗ đỗ thành công"})
}
