package service

import (
	"context"
	"sync"
	"time"

	"github.com/y-noah0/pssms/internal/domain"
	"github.com/y-noah0/pssms/internal/repository"

	"gopkg.in/guregu/null.v4"
)

// memStore là bản in-memory của các repository, giữ đúng ngữ nghĩa
// compare-and-swap của tầng postgresql (chiếm chỗ có điều kiện, đóng bản ghi
// có điều kiện) để test được các interleaving đồng thời.
type memStore struct {
	mu sync.Mutex

	cars     map[int]domain.Car
	slots    map[int]domain.ParkingSlot
	records  map[int]domain.ParkingRecord
	payments map[int]domain.Payment
	users    map[int]domain.User

	nextCarID     int
	nextSlotID    int
	nextRecordID  int
	nextPaymentID int
	nextUserID    int
}

func newMemStore() *memStore {
	return &memStore{
		cars:     make(map[int]domain.Car),
		slots:    make(map[int]domain.ParkingSlot),
		records:  make(map[int]domain.ParkingRecord),
		payments: make(map[int]domain.Payment),
		users:    make(map[int]domain.User),
	}
}

// --- CarRepository ---

type memCarRepo struct{ s *memStore }

func (r *memCarRepo) Create(_ context.Context, car *domain.Car) (*domain.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.cars {
		if existing.PlateNumber == car.PlateNumber {
			return nil, repository.ErrDuplicateEntry
		}
	}
	r.s.nextCarID++
	car.ID = r.s.nextCarID
	car.CreatedAt = time.Now().UTC()
	car.UpdatedAt = car.CreatedAt
	r.s.cars[car.ID] = *car
	return car, nil
}

func (r *memCarRepo) FindByID(_ context.Context, id int) (*domain.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	car, ok := r.s.cars[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &car, nil
}

func (r *memCarRepo) FindByPlateNumber(_ context.Context, plateNumber string) (*domain.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, car := range r.s.cars {
		if car.PlateNumber == plateNumber {
			c := car
			return &c, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memCarRepo) FindAll(_ context.Context) ([]domain.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var cars []domain.Car
	for _, car := range r.s.cars {
		cars = append(cars, car)
	}
	return cars, nil
}

func (r *memCarRepo) Update(_ context.Context, car *domain.Car) (*domain.Car, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cars[car.ID]; !ok {
		return nil, repository.ErrNotFound
	}
	for id, existing := range r.s.cars {
		if id != car.ID && existing.PlateNumber == car.PlateNumber {
			return nil, repository.ErrDuplicateEntry
		}
	}
	car.UpdatedAt = time.Now().UTC()
	r.s.cars[car.ID] = *car
	return car, nil
}

func (r *memCarRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.cars[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.cars, id)
	return nil
}

// --- ParkingSlotRepository ---

type memSlotRepo struct{ s *memStore }

func (r *memSlotRepo) Create(_ context.Context, slot *domain.ParkingSlot) (*domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.slots {
		if existing.SlotNumber == slot.SlotNumber {
			return nil, repository.ErrDuplicateEntry
		}
	}
	r.s.nextSlotID++
	slot.ID = r.s.nextSlotID
	slot.CreatedAt = time.Now().UTC()
	slot.UpdatedAt = slot.CreatedAt
	r.s.slots[slot.ID] = *slot
	return slot, nil
}

func (r *memSlotRepo) FindByID(_ context.Context, id int) (*domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &slot, nil
}

func (r *memSlotRepo) FindAll(_ context.Context) ([]domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var slots []domain.ParkingSlot
	for _, slot := range r.s.slots {
		slots = append(slots, slot)
	}
	return slots, nil
}

func (r *memSlotRepo) FindAvailable(_ context.Context) ([]domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var slots []domain.ParkingSlot
	for _, slot := range r.s.slots {
		if slot.Status == domain.StatusAvailable {
			slots = append(slots, slot)
		}
	}
	return slots, nil
}

func (r *memSlotRepo) UpdateStatus(_ context.Context, id int, status domain.SlotStatus) (*domain.ParkingSlot, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	slot, ok := r.s.slots[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	slot.Status = status
	slot.UpdatedAt = time.Now().UTC()
	r.s.slots[id] = slot
	return &slot, nil
}

func (r *memSlotRepo) Delete(_ context.Context, id int) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.slots[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.slots, id)
	return nil
}

// --- ParkingRecordRepository ---

type memRecordRepo struct{ s *memStore }

func (r *memRecordRepo) attach(record domain.ParkingRecord) *domain.ParkingRecord {
	if car, ok := r.s.cars[record.CarID]; ok {
		c := car
		record.Car = &c
	}
	if slot, ok := r.s.slots[record.SlotID]; ok {
		sl := slot
		record.Slot = &sl
	}
	return &record
}

func (r *memRecordRepo) CreateWithSlotClaim(_ context.Context, record *domain.ParkingRecord) (*domain.ParkingRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	slot, ok := r.s.slots[record.SlotID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if slot.Status != domain.StatusAvailable {
		return nil, repository.ErrSlotOccupied
	}
	for _, existing := range r.s.records {
		if existing.CarID == record.CarID && !existing.ExitTime.Valid {
			return nil, repository.ErrCarAlreadyParked
		}
	}

	slot.Status = domain.StatusOccupied
	r.s.slots[slot.ID] = slot

	r.s.nextRecordID++
	record.ID = r.s.nextRecordID
	record.DurationHours = 0
	record.ExitTime = null.Time{}
	record.CreatedAt = time.Now().UTC()
	record.UpdatedAt = record.CreatedAt
	r.s.records[record.ID] = *record
	return record, nil
}

func (r *memRecordRepo) CloseWithSlotRelease(_ context.Context, id int, exitTime time.Time, durationHours int64) (*domain.ParkingRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	record, ok := r.s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if record.ExitTime.Valid {
		return nil, repository.ErrExitAlreadyRecorded
	}

	record.ExitTime = null.TimeFrom(exitTime)
	record.DurationHours = durationHours
	record.UpdatedAt = time.Now().UTC()
	r.s.records[id] = record

	if slot, ok := r.s.slots[record.SlotID]; ok {
		slot.Status = domain.StatusAvailable
		r.s.slots[slot.ID] = slot
	}
	return r.attach(record), nil
}

func (r *memRecordRepo) FindByID(_ context.Context, id int) (*domain.ParkingRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	record, ok := r.s.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return r.attach(record), nil
}

func (r *memRecordRepo) FindAll(_ context.Context) ([]domain.ParkingRecord, error) {
	return r.filter(func(domain.ParkingRecord) bool { return true })
}

func (r *memRecordRepo) FindActive(_ context.Context) ([]domain.ParkingRecord, error) {
	return r.filter(func(rec domain.ParkingRecord) bool { return !rec.ExitTime.Valid })
}

func (r *memRecordRepo) FindCompleted(_ context.Context) ([]domain.ParkingRecord, error) {
	return r.filter(func(rec domain.ParkingRecord) bool { return rec.ExitTime.Valid })
}

func (r *memRecordRepo) FindByCarID(_ context.Context, carID int) ([]domain.ParkingRecord, error) {
	return r.filter(func(rec domain.ParkingRecord) bool { return rec.CarID == carID })
}

func (r *memRecordRepo) FindByEntryTimeRange(_ context.Context, from, to time.Time) ([]domain.ParkingRecord, error) {
	return r.filter(func(rec domain.ParkingRecord) bool {
		return !rec.EntryTime.Before(from) && rec.EntryTime.Before(to)
	})
}

func (r *memRecordRepo) HasActiveByCarID(_ context.Context, carID int) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, rec := range r.s.records {
		if rec.CarID == carID && !rec.ExitTime.Valid {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRecordRepo) filter(keep func(domain.ParkingRecord) bool) ([]domain.ParkingRecord, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var records []domain.ParkingRecord
	for _, rec := range r.s.records {
		if keep(rec) {
			records = append(records, *r.attach(rec))
		}
	}
	return records, nil
}

// --- PaymentRepository ---

type memPaymentRepo struct{ s *memStore }

func (r *memPaymentRepo) Create(_ context.Context, payment *domain.Payment) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.payments {
		if existing.RecordID == payment.RecordID {
			return nil, repository.ErrDuplicateEntry
		}
	}
	r.s.nextPaymentID++
	payment.ID = r.s.nextPaymentID
	payment.CreatedAt = time.Now().UTC()
	r.s.payments[payment.ID] = *payment
	return payment, nil
}

func (r *memPaymentRepo) FindByID(_ context.Context, id int) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	payment, ok := r.s.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &payment, nil
}

func (r *memPaymentRepo) FindByRecordID(_ context.Context, recordID int) (*domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, payment := range r.s.payments {
		if payment.RecordID == recordID {
			p := payment
			return &p, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memPaymentRepo) FindAll(_ context.Context) ([]domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var payments []domain.Payment
	for _, payment := range r.s.payments {
		payments = append(payments, payment)
	}
	return payments, nil
}

func (r *memPaymentRepo) FindByPaymentDateRange(_ context.Context, from, to time.Time) ([]domain.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var payments []domain.Payment
	for _, payment := range r.s.payments {
		if !payment.PaymentDate.Before(from) && payment.PaymentDate.Before(to) {
			payments = append(payments, payment)
		}
	}
	return payments, nil
}

// --- UserRepository ---

type memUserRepo struct{ s *memStore }

func (r *memUserRepo) Create(_ context.Context, user *domain.User) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.users {
		if existing.Username == user.Username {
			return nil, repository.ErrDuplicateEntry
		}
	}
	r.s.nextUserID++
	user.ID = r.s.nextUserID
	user.CreatedAt = time.Now().UTC()
	user.UpdatedAt = user.CreatedAt
	r.s.users[user.ID] = *user
	return user, nil
}

func (r *memUserRepo) FindByUsername(_ context.Context, username string) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, user := range r.s.users {
		if user.Username == username {
			u := user
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *memUserRepo) FindByID(_ context.Context, id int) (*domain.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	user, ok := r.s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &user, nil
}

// newTestParkingService dựng service trên memStore với biểu phí mặc định.
func newTestParkingService(store *memStore) *ParkingService {
	return NewParkingService(
		&memCarRepo{s: store},
		&memSlotRepo{s: store},
		&memRecordRepo{s: store},
		DefaultHourlyRate,
		time.UTC,
		nil,
	)
}

func newTestBillingService(store *memStore) *BillingService {
	return NewBillingService(
		&memPaymentRepo{s: store},
		&memRecordRepo{s: store},
		DefaultHourlyRate,
		time.UTC,
		nil,
	)
}
