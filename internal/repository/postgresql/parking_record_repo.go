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

type pgParkingRecordRepository struct {
	db *sql.DB
}

func NewPgParkingRecordRepository(db *sql.DB) repository.ParkingRecordRepository {
	return &pgParkingRecordRepository{db: db}
}

// Câu SELECT dùng chung: join cars và parking_slots để trả về biển số,
// tên tài xế và số chỗ đỗ cho API.
const recordSelect = `SELECT r.id, r.car_id, r.slot_id, r.entry_time, r.exit_time, r.duration_hours,
	                 r.created_at, r.updated_at,
	                 c.plate_number, c.driver_name, c.phone_number, s.slot_number, s.status
	           FROM parking_records r
	           JOIN cars c ON c.id = r.car_id
	           JOIN parking_slots s ON s.id = r.slot_id`

func scanRecord(scanner interface {
	Scan(dest ...interface{}) error
}) (*domain.ParkingRecord, error) {
	record := &domain.ParkingRecord{Car: &domain.Car{}, Slot: &domain.ParkingSlot{}}
	err := scanner.Scan(
		&record.ID, &record.CarID, &record.SlotID, &record.EntryTime, &record.ExitTime,
		&record.DurationHours, &record.CreatedAt, &record.UpdatedAt,
		&record.Car.PlateNumber, &record.Car.DriverName, &record.Car.PhoneNumber,
		&record.Slot.SlotNumber, &record.Slot.Status,
	)
	if err != nil {
		return nil, err
	}
	record.Car.ID = record.CarID
	record.Slot.ID = record.SlotID
	record.EntryTime = record.EntryTime.In(time.UTC)
	if record.ExitTime.Valid {
		record.ExitTime.Time = record.ExitTime.Time.In(time.UTC)
	}
	record.CreatedAt = record.CreatedAt.In(time.UTC)
	record.UpdatedAt = record.UpdatedAt.In(time.UTC)
	return record, nil
}

// CreateWithSlotClaim chiếm chỗ đỗ và tạo bản ghi trong một transaction.
// UPDATE có điều kiện (status = 'available') là compare-and-swap: hai lần
// entry đồng thời cho cùng một chỗ thì lần thứ hai không match row nào.
func (r *pgParkingRecordRepository) CreateWithSlotClaim(ctx context.Context, record *domain.ParkingRecord) (*domain.ParkingRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CreateWithSlotClaim (begin tx): %w", err)
	}
	defer tx.Rollback()

	claim := `UPDATE parking_slots
	           SET status = 'occupied', updated_at = CURRENT_TIMESTAMP
	           WHERE id = $1 AND status = 'available'`
	result, err := tx.ExecContext(ctx, claim, record.SlotID)
	if err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CreateWithSlotClaim (claim slot): %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CreateWithSlotClaim (rows affected): %w", err)
	}
	if rowsAffected == 0 {
		// Phân biệt chỗ không tồn tại với chỗ đã có xe
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM parking_slots WHERE id = $1)`, record.SlotID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("ParkingRecordRepository.CreateWithSlotClaim (check slot): %w", err)
		}
		if !exists {
			return nil, repository.ErrNotFound
		}
		return nil, repository.ErrSlotOccupied
	}

	insert := `INSERT INTO parking_records (car_id, slot_id, entry_time, exit_time, duration_hours, created_at, updated_at)
	            VALUES ($1, $2, $3, NULL, 0, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	            RETURNING id, created_at, updated_at`
	err = tx.QueryRowContext(ctx, insert, record.CarID, record.SlotID, record.EntryTime).
		Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			// Partial unique index trên (car_id) WHERE exit_time IS NULL:
			// mỗi xe tối đa một phiên đang hoạt động.
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "parking_records_active_car_key" {
				return nil, repository.ErrCarAlreadyParked
			}
			if pqErr.Code.Name() == "foreign_key_violation" {
				return nil, repository.ErrNotFound
			}
		}
		return nil, fmt.Errorf("ParkingRecordRepository.CreateWithSlotClaim (insert record): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CreateWithSlotClaim (commit): %w", err)
	}
	record.DurationHours = 0
	record.EntryTime = record.EntryTime.In(time.UTC)
	record.CreatedAt = record.CreatedAt.In(time.UTC)
	record.UpdatedAt = record.UpdatedAt.In(time.UTC)
	return record, nil
}

// CloseWithSlotRelease đóng bản ghi và giải phóng chỗ đỗ trong một
// transaction. Điều kiện exit_time IS NULL đảm bảo lần ghi nhận xe ra thứ hai
// thất bại và không giải phóng chỗ thêm lần nữa.
func (r *pgParkingRecordRepository) CloseWithSlotRelease(ctx context.Context, id int, exitTime time.Time, durationHours int64) (*domain.ParkingRecord, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CloseWithSlotRelease (begin tx): %w", err)
	}
	defer tx.Rollback()

	var slotID int
	closeQuery := `UPDATE parking_records
	                SET exit_time = $1, duration_hours = $2, updated_at = CURRENT_TIMESTAMP
	                WHERE id = $3 AND exit_time IS NULL
	                RETURNING slot_id`
	err = tx.QueryRowContext(ctx, closeQuery, exitTime, durationHours, id).Scan(&slotID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			var exists bool
			if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM parking_records WHERE id = $1)`, id).Scan(&exists); err != nil {
				return nil, fmt.Errorf("ParkingRecordRepository.CloseWithSlotRelease (check record): %w", err)
			}
			if !exists {
				return nil, repository.ErrNotFound
			}
			return nil, repository.ErrExitAlreadyRecorded
		}
		return nil, fmt.Errorf("ParkingRecordRepository.CloseWithSlotRelease (close record): %w", err)
	}

	release := `UPDATE parking_slots SET status = 'available', updated_at = CURRENT_TIMESTAMP WHERE id = $1`
	if _, err := tx.ExecContext(ctx, release, slotID); err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CloseWithSlotRelease (release slot): %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.CloseWithSlotRelease (commit): %w", err)
	}
	return r.FindByID(ctx, id)
}

func (r *pgParkingRecordRepository) FindByID(ctx context.Context, id int) (*domain.ParkingRecord, error) {
	query := recordSelect + ` WHERE r.id = $1`
	record, err := scanRecord(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("ParkingRecordRepository.FindByID: %w", err)
	}
	return record, nil
}

func (r *pgParkingRecordRepository) FindAll(ctx context.Context) ([]domain.ParkingRecord, error) {
	return r.findMany(ctx, recordSelect+` ORDER BY r.created_at DESC`)
}

func (r *pgParkingRecordRepository) FindActive(ctx context.Context) ([]domain.ParkingRecord, error) {
	return r.findMany(ctx, recordSelect+` WHERE r.exit_time IS NULL ORDER BY r.entry_time DESC`)
}

func (r *pgParkingRecordRepository) FindCompleted(ctx context.Context) ([]domain.ParkingRecord, error) {
	return r.findMany(ctx, recordSelect+` WHERE r.exit_time IS NOT NULL ORDER BY r.exit_time DESC`)
}

func (r *pgParkingRecordRepository) FindByCarID(ctx context.Context, carID int) ([]domain.ParkingRecord, error) {
	return r.findMany(ctx, recordSelect+` WHERE r.car_id = $1 ORDER BY r.entry_time DESC`, carID)
}

func (r *pgParkingRecordRepository) FindByEntryTimeRange(ctx context.Context, from, to time.Time) ([]domain.ParkingRecord, error) {
	return r.findMany(ctx, recordSelect+` WHERE r.entry_time >= $1 AND r.entry_time < $2 ORDER BY r.entry_time ASC`, from, to)
}

func (r *pgParkingRecordRepository) HasActiveByCarID(ctx context.Context, carID int) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM parking_records WHERE car_id = $1 AND exit_time IS NULL)`
	if err := r.db.QueryRowContext(ctx, query, carID).Scan(&exists); err != nil {
		return false, fmt.Errorf("ParkingRecordRepository.HasActiveByCarID: %w", err)
	}
	return exists, nil
}

func (r *pgParkingRecordRepository) findMany(ctx context.Context, query string, args ...interface{}) ([]domain.ParkingRecord, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.findMany: %w", err)
	}
	defer rows.Close()

	var records []domain.ParkingRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("ParkingRecordRepository.findMany (scanning row): %w", err)
		}
		records = append(records, *record)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ParkingRecordRepository.findMany (rows error): %w", err)
	}
	return records, nil
}
