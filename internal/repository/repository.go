package repository

import (
	"context"
	"errors"
	"time"

	"github.com/y-noah0/pssms/internal/domain"
)

var ErrNotFound = errors.New("không tìm thấy bản ghi")
var ErrDuplicateEntry = errors.New("bản ghi đã tồn tại")

// ErrSlotOccupied trả về khi compare-and-swap chiếm chỗ thất bại vì
// chỗ đỗ không còn trống.
var ErrSlotOccupied = errors.New("chỗ đỗ đã có xe")

// ErrCarAlreadyParked trả về khi xe đã có phiên đỗ đang hoạt động ở chỗ khác
// (vi phạm unique index trên car_id với exit_time IS NULL).
var ErrCarAlreadyParked = errors.New("xe đang đỗ ở chỗ khác")

// ErrExitAlreadyRecorded trả về khi bản ghi đã được ghi nhận xe ra trước đó;
// lần ghi nhận thứ hai không bao giờ được giải phóng chỗ đỗ thêm lần nữa.
var ErrExitAlreadyRecorded = errors.New("phiên đỗ xe đã được ghi nhận xe ra")

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int) (*domain.User, error)
}

type CarRepository interface {
	Create(ctx context.Context, car *domain.Car) (*domain.Car, error)
	FindByID(ctx context.Context, id int) (*domain.Car, error)
	FindByPlateNumber(ctx context.Context, plateNumber string) (*domain.Car, error)
	FindAll(ctx context.Context) ([]domain.Car, error)
	Update(ctx context.Context, car *domain.Car) (*domain.Car, error)
	Delete(ctx context.Context, id int) error
}

type ParkingSlotRepository interface {
	Create(ctx context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingSlot, error)
	FindAll(ctx context.Context) ([]domain.ParkingSlot, error)
	FindAvailable(ctx context.Context) ([]domain.ParkingSlot, error)
	// UpdateStatus đặt trạng thái vô điều kiện (override của admin).
	// Lifecycle bình thường đi qua ParkingRecordRepository để đảm bảo atomic.
	UpdateStatus(ctx context.Context, id int, status domain.SlotStatus) (*domain.ParkingSlot, error)
	Delete(ctx context.Context, id int) error
}

type ParkingRecordRepository interface {
	// CreateWithSlotClaim chiếm chỗ đỗ (status available -> occupied) và tạo
	// bản ghi trong CÙNG một transaction. Hai lần entry đồng thời cho cùng
	// một chỗ thì đúng một lần thành công.
	CreateWithSlotClaim(ctx context.Context, record *domain.ParkingRecord) (*domain.ParkingRecord, error)
	// CloseWithSlotRelease đóng bản ghi (điều kiện exit_time IS NULL) và trả
	// chỗ đỗ về available trong cùng một transaction.
	CloseWithSlotRelease(ctx context.Context, id int, exitTime time.Time, durationHours int64) (*domain.ParkingRecord, error)
	FindByID(ctx context.Context, id int) (*domain.ParkingRecord, error)
	FindAll(ctx context.Context) ([]domain.ParkingRecord, error)
	FindActive(ctx context.Context) ([]domain.ParkingRecord, error)
	FindCompleted(ctx context.Context) ([]domain.ParkingRecord, error)
	FindByCarID(ctx context.Context, carID int) ([]domain.ParkingRecord, error)
	FindByEntryTimeRange(ctx context.Context, from, to time.Time) ([]domain.ParkingRecord, error)
	HasActiveByCarID(ctx context.Context, carID int) (bool, error)
}

type PaymentRepository interface {
	Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error)
	FindByID(ctx context.Context, id int) (*domain.Payment, error)
	FindByRecordID(ctx context.Context, recordID int) (*domain.Payment, error)
	FindAll(ctx context.Context) ([]domain.Payment, error)
	FindByPaymentDateRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error)
}
