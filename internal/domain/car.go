package domain

import "time"

type Car struct {
	ID          int       `json:"id"`
	PlateNumber string    `json:"plate_number"`
	DriverName  string    `json:"driver_name"`
	PhoneNumber string    `json:"phone_number"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type CarDTO struct {
	PlateNumber string `json:"plate_number" binding:"required"`
	DriverName  string `json:"driver_name" binding:"required"`
	PhoneNumber string `json:"phone_number" binding:"required"`
}

// UpdateCarDTO cho phép cập nhật từng trường; trường rỗng sẽ được giữ nguyên.
type UpdateCarDTO struct {
	PlateNumber string `json:"plate_number"`
	DriverName  string `json:"driver_name"`
	PhoneNumber string `json:"phone_number"`
}
