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

type pgCarRepository struct {
	db *sql.DB
}

func NewPgCarRepository(db *sql.DB) repository.CarRepository {
	return &pgCarRepository{db: db}
}

func (r *pgCarRepository) Create(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	query := `INSERT INTO cars (plate_number, driver_name, phone_number, created_at, updated_at)
	           VALUES ($1, $2, $3, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)
	           RETURNING id, created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, car.PlateNumber, car.DriverName, car.PhoneNumber).
		Scan(&car.ID, &car.CreatedAt, &car.UpdatedAt)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "cars_plate_number_key" {
				return nil, fmt.Errorf("%w: xe với biển số '%s' đã tồn tại", repository.ErrDuplicateEntry, car.PlateNumber)
			}
		}
		return nil, fmt.Errorf("CarRepository.Create: %w", err)
	}
	car.CreatedAt = car.CreatedAt.In(time.UTC)
	car.UpdatedAt = car.UpdatedAt.In(time.UTC)
	return car, nil
}

func (r *pgCarRepository) FindByID(ctx context.Context, id int) (*domain.Car, error) {
	car := &domain.Car{}
	query := `SELECT id, plate_number, driver_name, phone_number, created_at, updated_at FROM cars WHERE id = $1`
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&car.ID, &car.PlateNumber, &car.DriverName, &car.PhoneNumber, &car.CreatedAt, &car.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("CarRepository.FindByID: %w", err)
	}
	car.CreatedAt = car.CreatedAt.In(time.UTC)
	car.UpdatedAt = car.UpdatedAt.In(time.UTC)
	return car, nil
}

func (r *pgCarRepository) FindByPlateNumber(ctx context.Context, plateNumber string) (*domain.Car, error) {
	car := &domain.Car{}
	query := `SELECT id, plate_number, driver_name, phone_number, created_at, updated_at FROM cars WHERE plate_number = $1`
	err := r.db.QueryRowContext(ctx, query, plateNumber).Scan(
		&car.ID, &car.PlateNumber, &car.DriverName, &car.PhoneNumber, &car.CreatedAt, &car.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("CarRepository.FindByPlateNumber: %w", err)
	}
	car.CreatedAt = car.CreatedAt.In(time.UTC)
	car.UpdatedAt = car.UpdatedAt.In(time.UTC)
	return car, nil
}

func (r *pgCarRepository) FindAll(ctx context.Context) ([]domain.Car, error) {
	query := `SELECT id, plate_number, driver_name, phone_number, created_at, updated_at
	           FROM cars ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("CarRepository.FindAll: %w", err)
	}
	defer rows.Close()

	var cars []domain.Car
	for rows.Next() {
		var car domain.Car
		if err := rows.Scan(&car.ID, &car.PlateNumber, &car.DriverName, &car.PhoneNumber, &car.CreatedAt, &car.UpdatedAt); err != nil {
			return nil, fmt.Errorf("CarRepository.FindAll (scanning row): %w", err)
		}
		car.CreatedAt = car.CreatedAt.In(time.UTC)
		car.UpdatedAt = car.UpdatedAt.In(time.UTC)
		cars = append(cars, car)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("CarRepository.FindAll (rows error): %w", err)
	}
	return cars, nil
}

func (r *pgCarRepository) Update(ctx context.Context, car *domain.Car) (*domain.Car, error) {
	query := `UPDATE cars
	           SET plate_number = $1, driver_name = $2, phone_number = $3, updated_at = CURRENT_TIMESTAMP
	           WHERE id = $4
	           RETURNING updated_at`
	err := r.db.QueryRowContext(ctx, query, car.PlateNumber, car.DriverName, car.PhoneNumber, car.ID).
		Scan(&car.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code.Name() == "unique_violation" && pqErr.Constraint == "cars_plate_number_key" {
				return nil, fmt.Errorf("%w: xe với biển số '%s' đã tồn tại", repository.ErrDuplicateEntry, car.PlateNumber)
			}
		}
		return nil, fmt.Errorf("CarRepository.Update: %w", err)
	}
	car.UpdatedAt = car.UpdatedAt.In(time.UTC)
	return car, nil
}

func (r *pgCarRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM cars WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("CarRepository.Delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("CarRepository.Delete (checking rows affected): %w", err)
	}
	if rowsAffected == 0 {
		return repository.ErrNotFound
	}
	return nil
}
