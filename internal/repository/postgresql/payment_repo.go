package postgresql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/y-noah0/pssms/internal/domain"
	"github.com/y-noah0/pssms/internal/repository"

	"github.com/lib/pq"
)

type pgPaymentRepository struct {
	db *sql.DB
}

func NewPgPaymentRepository(db *sql.DB) repository.PaymentRepository {
	return &pgPaymentRepository{db: db}
}

const paymentSelect = `SELECT p.id, p.record_id, p.amount_paid, p.payment_date, p.receipt_number, p.created_at,
	                 r.car_id, r.slot_id, r.entry_time, r.exit_time, r.duration_hours,
	                 c.plate_number, c.driver_name, s.slot_number
	           FROM payments p
	           JOIN parking_records r ON r.id = p.record_id
	           JOIN cars c ON c.id = r.car_id
	           JOIN parking_slots s ON s.id = r.slot_id`

func scanPayment(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.Payment, error) {
	payment := &domain.Payment{
		ParkingRecord: &domain.ParkingRecord{Car: &domain.Car{}, Slot: &domain.ParkingSlot{}},
	}
	rec := payment.ParkingRecord
	err := scanner.Scan(
		&payment.ID, &payment.RecordID, &payment.AmountPaid, &payment.PaymentDate, &payment.ReceiptNumber, &payment.CreatedAt,
		&rec.CarID, &rec.SlotID, &rec.EntryTime, &rec.ExitTime, &rec.DurationHours,
		&rec.Car.PlateNumber, &rec.Car.DriverName, &rec.Slot.SlotNumber,
	)
	if err != nil {
		return nil, err
	}
	rec.ID = payment.RecordID
	rec.Car.ID = rec.CarID
	rec.Slot.ID = rec.SlotID
	payment.PaymentDate = payment.PaymentDate.In(time.UTC)
	payment.CreatedAt = payment.CreatedAt.In(time.UTC)
	rec.EntryTime = rec.EntryTime.In(time.UTC)
	if rec.ExitTime.Valid {
		rec.ExitTime.Time = rec.ExitTime.Time.In(time.UTC)
	}
	return payment, nil
}

func (r *pgPaymentRepository) Create(ctx context.Context, payment *domain.Payment) (*domain.Payment, error) {
	query := `INSERT INTO payments (record_id, amount_paid, payment_date, receipt_number, created_at)
	           VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
	           RETURNING id, created_at`
	err := r.db.QueryRowContext(ctx, query, payment.RecordID, payment.AmountPaid, payment.PaymentDate, payment.ReceiptNumber).
		Scan(&payment.ID, &payment.CreatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			// UNIQUE (record_id): mỗi bản ghi chỉ được thanh toán một lần
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "payments_record_id_key" {
				return nil, fmt.Errorf("%w: phiên đỗ xe %d đã được thanh toán", repository.ErrDuplicateEntry, payment.RecordID)
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, repository.ErrNotFound
			}
		}
		return nil, fmt.Errorf("PaymentRepository.Create: %w", err)
	}
	payment.PaymentDate = payment.PaymentDate.In(time.UTC)
	payment.CreatedAt = payment.CreatedAt.In(time.UTC)
	return payment, nil
}

func (r *pgPaymentRepository) FindByID(ctx context.Context, id int) (*domain.Payment, error) {
	query := paymentSelect + ` WHERE p.id = $1`
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("PaymentRepository.FindByID: %w", err)
	}
	return payment, nil
}

func (r *pgPaymentRepository) FindByRecordID(ctx context.Context, recordID int) (*domain.Payment, error) {
	query := paymentSelect + ` WHERE p.record_id = $1`
	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, recordID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("PaymentRepository.FindByRecordID: %w", err)
	}
	return payment, nil
}

func (r *pgPaymentRepository) FindAll(ctx context.Context) ([]domain.Payment, error) {
	return r.findMany(ctx, paymentSelect+` ORDER BY p.payment_date DESC`)
}

func (r *pgPaymentRepository) FindByPaymentDateRange(ctx context.Context, from, to time.Time) ([]domain.Payment, error) {
	return r.findMany(ctx, paymentSelect+` WHERE p.payment_date >= $1 AND p.payment_date < $2 ORDER BY p.payment_date ASC`, from, to)
}

func (r *pgPaymentRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]domain.Payment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("PaymentRepository.findMany: %w", err)
	}
	defer rows.Close()

	var payments []domain.Payment
	for rows.Next() {
		payment, err := scanPayment(rows)
		if err != nil {
			return nil, fmt.Errorf("PaymentRepository.findMany (scanning row): %w", err)
		}
		payments = append(payments, *payment)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("PaymentRepository.findMany (rows error): %w", err)
	}
	return payments, nil
}
