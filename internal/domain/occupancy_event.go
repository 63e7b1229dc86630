package domain

import "time"

type OccupancyEventType string

const (
	EventEntry   OccupancyEventType = "entry"
	EventExit    OccupancyEventType = "exit"
	EventPayment OccupancyEventType = "payment"
)

// OccupancyEvent được broadcast qua WebSocket cho dashboard mỗi khi
// trạng thái chỗ đỗ hoặc thanh toán thay đổi.
type OccupancyEvent struct {
	Type        OccupancyEventType `json:"type"`
	RecordID    int                `json:"record_id"`
	SlotID      int                `json:"slot_id,omitempty"`
	SlotNumber  string             `json:"slot_number,omitempty"`
	SlotStatus  SlotStatus         `json:"slot_status,omitempty"`
	PlateNumber string             `json:"plate_number,omitempty"`
	Fee         int64              `json:"fee,omitempty"`
	Timestamp   time.Time          `json:"timestamp"`
}
