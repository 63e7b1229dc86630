package domain

import (
	"time"

	"gopkg.in/guregu/null.v4"
)

// ParkingRecord là một phiên đỗ xe: xe vào (entry_time), xe ra (exit_time).
// Khi exit_time còn NULL thì phiên đang hoạt động và duration_hours = 0.
// Sau khi xe ra, duration_hours luôn >= 1 (làm tròn lên theo giờ).
type ParkingRecord struct {
	ID            int       `json:"id"`
	CarID         int       `json:"car_id"`
	SlotID        int       `json:"slot_id"`
	EntryTime     time.Time `json:"entry_time"`
	ExitTime      null.Time `json:"exit_time"`
	DurationHours int64     `json:"duration"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`

	Car  *Car         `json:"car,omitempty"`  // Không map vào DB, dùng để trả về API
	Slot *ParkingSlot `json:"slot,omitempty"` // Không map vào DB
}

type CreateParkingRecordDTO struct {
	CarID  int `json:"car_id" binding:"required"`
	SlotID int `json:"slot_id" binding:"required"`
}

// ExitResponseDTO là kết quả trả về khi ghi nhận xe ra: bản ghi đã đóng
// kèm phí phải trả (duration * biểu phí giờ).
type ExitResponseDTO struct {
	ParkingRecord *ParkingRecord `json:"parking_record"`
	Fee           int64          `json:"fee"`
}
