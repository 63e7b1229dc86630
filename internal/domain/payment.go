package domain

import "time"

// Payment là thanh toán cho đúng một ParkingRecord đã đóng.
// Mỗi bản ghi chỉ có tối đa một payment; sau khi tạo không được sửa.
type Payment struct {
	ID            int       `json:"id"`
	RecordID      int       `json:"record_id"`
	AmountPaid    int64     `json:"amount_paid"`
	PaymentDate   time.Time `json:"payment_date"`
	ReceiptNumber string    `json:"receipt_number"`
	CreatedAt     time.Time `json:"created_at"`

	ParkingRecord *ParkingRecord `json:"parking_record,omitempty"` // Không map vào DB
}

type CreatePaymentDTO struct {
	RecordID   int   `json:"record_id" binding:"required"`
	AmountPaid int64 `json:"amount_paid" binding:"required"`
}

// DailyPaymentReportDTO gộp danh sách thanh toán trong ngày và tổng tiền thu.
type DailyPaymentReportDTO struct {
	Date        string    `json:"date"`
	Payments    []Payment `json:"payments"`
	TotalAmount int64     `json:"total_amount"`
}
