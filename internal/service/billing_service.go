package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/y-noah0/pssms/internal/domain"
	"github.com/y-noah0/pssms/internal/repository"

	"github.com/google/uuid"
)

var ErrRecordStillActive = errors.New("không thể thanh toán cho phiên đỗ chưa ghi nhận xe ra")
var ErrPaymentExists = errors.New("phiên đỗ xe này đã được thanh toán")
var ErrAmountTooLow = errors.New("số tiền thanh toán không đủ")

// BillingService đối soát thanh toán cho các phiên đỗ xe đã đóng.
type BillingService struct {
	paymentRepo repository.PaymentRepository
	recordRepo  repository.ParkingRecordRepository
	hourlyRate  int64
	location    *time.Location
	notifier    OccupancyNotifier // Có thể nil
}

func NewBillingService(
	paymentRepo repository.PaymentRepository,
	recordRepo repository.ParkingRecordRepository,
	hourlyRate int64,
	location *time.Location,
	notifier OccupancyNotifier,
) *BillingService {
	if location == nil {
		location = time.UTC
	}
	return &BillingService{
		paymentRepo: paymentRepo,
		recordRepo:  recordRepo,
		hourlyRate:  hourlyRate,
		location:    location,
		notifier:    notifier,
	}
}

// CreatePayment kiểm tra theo thứ tự: bản ghi tồn tại -> đã đóng -> chưa
// thanh toán -> số tiền đủ. UNIQUE (record_id) trong DB chặn race hai thanh
// toán đồng thời cho cùng một bản ghi.
func (s *BillingService) CreatePayment(ctx context.Context, dto domain.CreatePaymentDTO) (*domain.Payment, error) {
	record, err := s.recordRepo.FindByID(ctx, dto.RecordID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: phiên đỗ xe với ID %d không tồn tại", repository.ErrNotFound, dto.RecordID)
		}
		return nil, fmt.Errorf("lỗi khi kiểm tra phiên đỗ xe: %w", err)
	}
	if !record.ExitTime.Valid {
		return nil, ErrRecordStillActive
	}

	_, err = s.paymentRepo.FindByRecordID(ctx, dto.RecordID)
	if err == nil {
		return nil, ErrPaymentExists
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("lỗi khi kiểm tra thanh toán: %w", err)
	}

	expected := Fee(record.DurationHours, s.hourlyRate)
	if dto.AmountPaid < expected {
		return nil, fmt.Errorf("%w: số tiền thanh toán phải tối thiểu %d", ErrAmountTooLow, expected)
	}

	payment := &domain.Payment{
		RecordID:      dto.RecordID,
		AmountPaid:    dto.AmountPaid,
		PaymentDate:   time.Now().UTC(),
		ReceiptNumber: uuid.NewString(),
	}
	created, err := s.paymentRepo.Create(ctx, payment)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEntry) {
			return nil, ErrPaymentExists
		}
		return nil, fmt.Errorf("lỗi tạo thanh toán: %w", err)
	}
	log.Printf("Đã tạo thanh toán %d cho phiên %d: %d (biên lai %s)", created.ID, created.RecordID, created.AmountPaid, created.ReceiptNumber)

	if s.notifier != nil {
		event := domain.OccupancyEvent{
			Type:      domain.EventPayment,
			RecordID:  created.RecordID,
			SlotID:    record.SlotID,
			Fee:       created.AmountPaid,
			Timestamp: created.PaymentDate,
		}
		if record.Car != nil {
			event.PlateNumber = record.Car.PlateNumber
		}
		if record.Slot != nil {
			event.SlotNumber = record.Slot.SlotNumber
		}
		s.notifier.BroadcastOccupancyEvent(event)
	}
	return created, nil
}

func (s *BillingService) GetPaymentByID(ctx context.Context, id int) (*domain.Payment, error) {
	return s.paymentRepo.FindByID(ctx, id)
}

func (s *BillingService) GetPaymentByRecordID(ctx context.Context, recordID int) (*domain.Payment, error) {
	return s.paymentRepo.FindByRecordID(ctx, recordID)
}

func (s *BillingService) GetAllPayments(ctx context.Context) ([]domain.Payment, error) {
	return s.paymentRepo.FindAll(ctx)
}

// GetDailyPayments trả về các thanh toán có payment_date trong ngày (theo múi
// giờ báo cáo) kèm tổng tiền thu của ngày đó.
func (s *BillingService) GetDailyPayments(ctx context.Context, date string) (*domain.DailyPaymentReportDTO, error) {
	day, err := time.ParseInLocation("2006-01-02", date, s.location)
	if err != nil {
		return nil, fmt.Errorf("%w: '%s'", ErrInvalidDate, date)
	}
	from, to := DayBounds(day, s.location)
	payments, err := s.paymentRepo.FindByPaymentDateRange(ctx, from, to)
	if err != nil {
		return nil, err
	}

	var total int64
	for _, p := range payments {
		total += p.AmountPaid
	}
	return &domain.DailyPaymentReportDTO{
		Date:        date,
		Payments:    payments,
		TotalAmount: total,
	}, nil
}
