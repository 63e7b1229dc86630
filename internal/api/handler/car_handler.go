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

type CarHandler struct {
	parkingService *service.ParkingService
}

func NewCarHandler(ps *service.ParkingService) *CarHandler {
	return &CarHandler{parkingService: ps}
}

// POST /cars
func (h *CarHandler) RegisterCar(c *gin.Context) {
	var dto domain.CarDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	car, err := h.parkingService.RegisterCar(c.Request.Context(), dto)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể đăng ký xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, car)
}

// GET /cars
func (h *CarHandler) GetAllCars(c *gin.Context) {
	cars, err := h.parkingService.GetAllCars(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy danh sách xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, cars)
}

// GET /cars/:id
func (h *CarHandler) GetCarByID(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	car, err := h.parkingService.GetCarByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Lỗi khi lấy thông tin xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, car)
}

// PUT /cars/:id
func (h *CarHandler) UpdateCar(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	var dto domain.UpdateCarDTO
	if err := c.ShouldBindJSON(&dto); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Dữ liệu không hợp lệ: " + err.Error()})
		return
	}

	car, err := h.parkingService.UpdateCar(c.Request.Context(), id, dto)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		if errors.Is(err, repository.ErrDuplicateEntry) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể cập nhật xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, car)
}

// DELETE /cars/:id
func (h *CarHandler) DeleteCar(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID xe không hợp lệ"})
		return
	}
	if err := h.parkingService.DeleteCar(c.Request.Context(), id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Không tìm thấy xe"})
			return
		}
		if errors.Is(err, service.ErrCarHasActiveRecord) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Không thể xóa xe", "details": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Đã xóa xe thành công"})
}
