package domain

import "time"

type SlotStatus string

const (
	StatusAvailable SlotStatus = "available"
	StatusOccupied  SlotStatus = "occupied"
)

type ParkingSlot struct {
	ID         int        `json:"id"`
	SlotNumber string     `json:"slot_number"`
	Status     SlotStatus `json:"status"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

type ParkingSlotDTO struct {
	SlotNumber string `json:"slot_number" binding:"required"`
}

// UpdateSlotStatusDTO dùng cho thao tác override trạng thái bởi admin.
type UpdateSlotStatusDTO struct {
	Status string `json:"status" binding:"required"`
}
