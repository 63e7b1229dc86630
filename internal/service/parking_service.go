package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/y-noah0/pssms/internal/domain"
	"github.com/y-noah0/pssms/internal/repository"
)

var ErrCarAlreadyParked = errors.New("xe này đang đỗ ở một chỗ khác")
var ErrSlotOccupied = errors.New("chỗ đỗ đã có xe")
var ErrExitAlreadyRecorded = errors.New("đã ghi nhận xe ra cho phiên đỗ này")
var ErrInvalidDuration = errors.New("thời lượng tùy chỉnh không hợp lệ")
var ErrInvalidDate = errors.New("ngày không hợp lệ, định dạng phải là YYYY-MM-DD")
var ErrInvalidSlotStatus = errors.New("trạng thái chỗ đỗ không hợp lệ")
var ErrCarHasActiveRecord = errors.New("không thể xóa xe đang có phiên đỗ hoạt động")

// OccupancyNotifier đẩy sự kiện thay đổi trạng thái chỗ đỗ / thanh toán
// tới các client dashboard (WebSocket).
type OccupancyNotifier interface {
	BroadcastOccupancyEvent(event domain.OccupancyEvent)
}

type ParkingService struct {
	carRepo    repository.CarRepository
	slotRepo   repository.ParkingSlotRepository
	recordRepo repository.ParkingRecordRepository
	hourlyRate int64
	location   *time.Location
	notifier   OccupancyNotifier // Có thể nil nếu không chạy WebSocket
}

func NewParkingService(
	carRepo repository.CarRepository,
	slotRepo repository.ParkingSlotRepository,
	recordRepo repository.ParkingRecordRepository,
	hourlyRate int64,
	location *time.Location,
	notifier OccupancyNotifier,
) *ParkingService {
	if location == nil {
		location = time.UTC
	}
	return &ParkingService{
		carRepo:    carRepo,
		slotRepo:   slotRepo,
		recordRepo: recordRepo,
		hourlyRate: hourlyRate,
		location:   location,
		notifier:   notifier,
	}
}

func (s *ParkingService) HourlyRate() int64 {
	return s.hourlyRate
}

// --- Car ---

func (s *ParkingService) RegisterCar(ctx context.Context, dto domain.CarDTO) (*domain.Car, error) {
	car := &domain.Car{
		PlateNumber: strings.TrimSpace(dto.PlateNumber),
		DriverName:  dto.DriverName,
		PhoneNumber: dto.PhoneNumber,
	}
	return s.carRepo.Create(ctx, car)
}

func (s *ParkingService) GetCarByID(ctx context.Context, id int) (*domain.Car, error) {
	return s.carRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllCars(ctx context.Context) ([]domain.Car, error) {
	return s.carRepo.FindAll(ctx)
}

func (s *ParkingService) UpdateCar(ctx context.Context, id int, dto domain.UpdateCarDTO) (*domain.Car, error) {
	car, err := s.carRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if dto.PlateNumber != "" {
		car.PlateNumber = strings.TrimSpace(dto.PlateNumber)
	}
	if dto.DriverName != "" {
		car.DriverName = dto.DriverName
	}
	if dto.PhoneNumber != "" {
		car.PhoneNumber = dto.PhoneNumber
	}
	return s.carRepo.Update(ctx, car)
}

func (s *ParkingService) DeleteCar(ctx context.Context, id int) error {
	// Không xóa xe đang có phiên đỗ hoạt động: bản ghi active sẽ mồ côi
	hasActive, err := s.recordRepo.HasActiveByCarID(ctx, id)
	if err != nil {
		return fmt.Errorf("lỗi khi kiểm tra phiên đỗ của xe %d: %w", id, err)
	}
	if hasActive {
		return ErrCarHasActiveRecord
	}
	return s.carRepo.Delete(ctx, id)
}

// --- ParkingSlot ---

func (s *ParkingService) CreateParkingSlot(ctx context.Context, dto domain.ParkingSlotDTO) (*domain.ParkingSlot, error) {
	slot := &domain.ParkingSlot{
		SlotNumber: strings.TrimSpace(dto.SlotNumber),
		Status:     domain.StatusAvailable, // Mặc định
	}
	return s.slotRepo.Create(ctx, slot)
}

func (s *ParkingService) GetParkingSlotByID(ctx context.Context, id int) (*domain.ParkingSlot, error) {
	return s.slotRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllParkingSlots(ctx context.Context) ([]domain.ParkingSlot, error) {
	return s.slotRepo.FindAll(ctx)
}

func (s *ParkingService) GetAvailableParkingSlots(ctx context.Context) ([]domain.ParkingSlot, error) {
	return s.slotRepo.FindAvailable(ctx)
}

// OverrideSlotStatus là thao tác sửa tay của admin, không đi qua lifecycle.
func (s *ParkingService) OverrideSlotStatus(ctx context.Context, id int, status string) (*domain.ParkingSlot, error) {
	if status != string(domain.StatusAvailable) && status != string(domain.StatusOccupied) {
		return nil, fmt.Errorf("%w: '%s' (chỉ chấp nhận 'available' hoặc 'occupied')", ErrInvalidSlotStatus, status)
	}
	return s.slotRepo.UpdateStatus(ctx, id, domain.SlotStatus(status))
}

func (s *ParkingService) DeleteParkingSlot(ctx context.Context, id int) error {
	return s.slotRepo.Delete(ctx, id)
}

// --- Lifecycle: xe vào / xe ra ---

// RecordEntry ghi nhận xe vào: kiểm tra xe tồn tại, rồi chiếm chỗ đỗ và tạo
// bản ghi trong một transaction. Thứ tự lỗi: xe không tồn tại -> chỗ không
// tồn tại -> chỗ đã có xe -> xe đang đỗ ở chỗ khác.
func (s *ParkingService) RecordEntry(ctx context.Context, dto domain.CreateParkingRecordDTO) (*domain.ParkingRecord, error) {
	car, err := s.carRepo.FindByID(ctx, dto.CarID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: xe với ID %d không tồn tại", repository.ErrNotFound, dto.CarID)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra xe: %w", err)
	}

	record := &domain.ParkingRecord{
		CarID:     car.ID,
		SlotID:    dto.SlotID,
		EntryTime: time.Now().UTC(),
	}
	created, err := s.recordRepo.CreateWithSlotClaim(ctx, record)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: chỗ đỗ với ID %d không tồn tại", repository.ErrNotFound, dto.SlotID)
		case errors.Is(err, repository.ErrSlotOccupied):
			return nil, ErrSlotOccupied
		case errors.Is(err, repository.ErrCarAlreadyParked):
			return nil, ErrCarAlreadyParked
		}
		return nil, fmt.Errorf("lỗi tạo phiên đỗ xe: %w", err)
	}
	log.Printf("Đã ghi nhận xe %s vào chỗ đỗ ID %d (phiên %d)", car.PlateNumber, created.SlotID, created.ID)

	s.broadcast(domain.OccupancyEvent{
		Type:        domain.EventEntry,
		RecordID:    created.ID,
		SlotID:      created.SlotID,
		SlotStatus:  domain.StatusOccupied,
		PlateNumber: car.PlateNumber,
		Timestamp:   created.EntryTime,
	})
	return created, nil
}

// RecordExit ghi nhận xe ra: đóng bản ghi (một chiều, chỉ một lần) và giải
// phóng chỗ đỗ trong một transaction. customDuration (nếu có) ghi đè số giờ
// tính phí — dùng cho sửa tay của nhân viên.
func (s *ParkingService) RecordExit(ctx context.Context, recordID int, customDuration *int64) (*domain.ParkingRecord, int64, error) {
	record, err := s.recordRepo.FindByID(ctx, recordID)
	if err != nil {
		return nil, 0, err
	}
	if record.ExitTime.Valid {
		return nil, 0, ErrExitAlreadyRecorded
	}

	exitTime := time.Now().UTC()
	var duration int64
	if customDuration != nil {
		if *customDuration <= 0 {
			return nil, 0, fmt.Errorf("%w: %d", ErrInvalidDuration, *customDuration)
		}
		duration = *customDuration
	} else {
		duration = BilledHours(record.EntryTime, exitTime)
	}

	closed, err := s.recordRepo.CloseWithSlotRelease(ctx, recordID, exitTime, duration)
	if err != nil {
		if errors.Is(err, repository.ErrExitAlreadyRecorded) {
			return nil, 0, ErrExitAlreadyRecorded
		}
		return nil, 0, fmt.Errorf("lỗi đóng phiên đỗ xe: %w", err)
	}

	fee := Fee(duration, s.hourlyRate)
	log.Printf("Đã ghi nhận xe ra cho phiên %d: %d giờ, phí %d", closed.ID, duration, fee)

	event := domain.OccupancyEvent{
		Type:       domain.EventExit,
		RecordID:   closed.ID,
		SlotID:     closed.SlotID,
		SlotStatus: domain.StatusAvailable,
		Fee:        fee,
		Timestamp:  exitTime,
	}
	if closed.Car != nil {
		event.PlateNumber = closed.Car.PlateNumber
	}
	if closed.Slot != nil {
		event.SlotNumber = closed.Slot.SlotNumber
	}
	s.broadcast(event)
	return closed, fee, nil
}

// --- Query views ---

func (s *ParkingService) GetParkingRecordByID(ctx context.Context, id int) (*domain.ParkingRecord, error) {
	return s.recordRepo.FindByID(ctx, id)
}

func (s *ParkingService) GetAllParkingRecords(ctx context.Context) ([]domain.ParkingRecord, error) {
	return s.recordRepo.FindAll(ctx)
}

func (s *ParkingService) GetActiveParkingRecords(ctx context.Context) ([]domain.ParkingRecord, error) {
	return s.recordRepo.FindActive(ctx)
}

func (s *ParkingService) GetCompletedParkingRecords(ctx context.Context) ([]domain.ParkingRecord, error) {
	return s.recordRepo.FindCompleted(ctx)
}

func (s *ParkingService) GetParkingRecordsByCarID(ctx context.Context, carID int) ([]domain.ParkingRecord, error) {
	return s.recordRepo.FindByCarID(ctx, carID)
}

// GetDailyParkingRecords trả về các bản ghi có entry_time trong
// [00:00 ngày date, 00:00 ngày hôm sau) theo múi giờ báo cáo đã cấu hình.
func (s *ParkingService) GetDailyParkingRecords(ctx context.Context, date string) ([]domain.ParkingRecord, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidDate, date)
	}
	from, to := DayBounds(day, s.location)
	return s.recordRepo.FindByEntryTimeRange(ctx, from, to)
}

func (s *ParkingService) broadcast(event domain.OccupancyEvent) {
	if s.notifier != nil {
		s.notifier.BroadcastOccupancyEvent(event)
	}
}
