package service

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/y-noah0/pssms/internal/domain"
	"github.com/y-noah0/pssms/internal/repository"
)

func seedCar(t *testing.T, svc *ParkingService, plate string) *domain.Car {
	t.Helper()
	car, err := svc.RegisterCar(context.Background(), domain.CarDTO{
		PlateNumber: plate,
		DriverName:  "Nguyễn Văn A",
		PhoneNumber: "0901234567",
	})
	if err != nil {
		t.Fatalf("không tạo được xe %s: %v", plate, err)
	}
	return car
}

func seedSlot(t *testing.T, svc *ParkingService, number string) *domain.ParkingSlot {
	t.Helper()
	slot, err := svc.CreateParkingSlot(context.Background(), domain.ParkingSlotDTO{SlotNumber: number})
	if err != nil {
		t.Fatalf("không tạo được chỗ đỗ %s: %v", number, err)
	}
	return slot
}

// backdateEntry lùi entry_time của một phiên đỗ để test tính phí.
func backdateEntry(store *memStore, recordID int, d time.Duration) {
	store.mu.Lock()
	defer store.mu.Unlock()
	rec := store.records[recordID]
	rec.EntryTime = rec.EntryTime.Add(-d)
	store.records[recordID] = rec
}

func TestRecordEntryClaimsSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slot := seedSlot(t, svc, "A1")

	record, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("RecordEntry thất bại: %v", err)
	}
	if record.ExitTime.Valid {
		t.Errorf("phiên vừa tạo phải đang hoạt động")
	}
	if record.DurationHours != 0 {
		t.Errorf("duration của phiên đang hoạt động = %d, muốn 0", record.DurationHours)
	}

	got, err := svc.GetParkingSlotByID(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetParkingSlotByID thất bại: %v", err)
	}
	if got.Status != domain.StatusOccupied {
		t.Errorf("trạng thái chỗ đỗ sau entry = %s, muốn occupied", got.Status)
	}

	active, err := svc.GetActiveParkingRecords(ctx)
	if err != nil {
		t.Fatalf("GetActiveParkingRecords thất bại: %v", err)
	}
	if len(active) != 1 || active[0].ID != record.ID {
		t.Errorf("danh sách phiên hoạt động = %v, muốn đúng một phiên %d", active, record.ID)
	}
}

func TestRecordEntryPreconditions(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	other := seedCar(t, svc, "RAC456B")
	slotA := seedSlot(t, svc, "A1")
	slotB := seedSlot(t, svc, "A2")

	if _, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: 999, SlotID: slotA.ID}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("entry với xe không tồn tại: err = %v, muốn ErrNotFound", err)
	}
	if _, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: 999}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("entry với chỗ đỗ không tồn tại: err = %v, muốn ErrNotFound", err)
	}

	if _, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slotA.ID}); err != nil {
		t.Fatalf("entry đầu tiên thất bại: %v", err)
	}

	// Chỗ đã có xe
	if _, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: other.ID, SlotID: slotA.ID}); !errors.Is(err, ErrSlotOccupied) {
		t.Errorf("entry vào chỗ đã có xe: err = %v, muốn ErrSlotOccupied", err)
	}
	// Xe đang đỗ ở chỗ khác
	if _, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slotB.ID}); !errors.Is(err, ErrCarAlreadyParked) {
		t.Errorf("entry cho xe đang đỗ: err = %v, muốn ErrCarAlreadyParked", err)
	}
	// Entry thất bại không được để lại trạng thái sai
	got, _ := svc.GetParkingSlotByID(ctx, slotB.ID)
	if got.Status != domain.StatusAvailable {
		t.Errorf("chỗ đỗ B sau entry thất bại = %s, muốn available", got.Status)
	}
}

func TestRecordExitComputesFeeAndReleasesSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slot := seedSlot(t, svc, "A1")
	record, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})
	if err != nil {
		t.Fatalf("RecordEntry thất bại: %v", err)
	}

	// Xe đỗ 90 phút -> 2 giờ tính phí -> 1000
	backdateEntry(store, record.ID, 90*time.Minute)

	closed, fee, err := svc.RecordExit(ctx, record.ID, nil)
	if err != nil {
		t.Fatalf("RecordExit thất bại: %v", err)
	}
	if !closed.ExitTime.Valid {
		t.Errorf("phiên sau exit phải có exit_time")
	}
	if closed.DurationHours != 2 {
		t.Errorf("duration = %d, muốn 2", closed.DurationHours)
	}
	if fee != 1000 {
		t.Errorf("fee = %d, muốn 1000", fee)
	}

	got, _ := svc.GetParkingSlotByID(ctx, slot.ID)
	if got.Status != domain.StatusAvailable {
		t.Errorf("trạng thái chỗ đỗ sau exit = %s, muốn available", got.Status)
	}

	completed, _ := svc.GetCompletedParkingRecords(ctx)
	if len(completed) != 1 {
		t.Errorf("số phiên đã hoàn thành = %d, muốn 1", len(completed))
	}
}

func TestRecordExitOnlyOnce(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slot := seedSlot(t, svc, "A1")
	record, _ := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})

	if _, _, err := svc.RecordExit(ctx, record.ID, nil); err != nil {
		t.Fatalf("exit lần đầu thất bại: %v", err)
	}

	// Chỗ đỗ lại có xe mới: exit lần hai không được giải phóng nhầm
	other := seedCar(t, svc, "RAC456B")
	if _, err := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: other.ID, SlotID: slot.ID}); err != nil {
		t.Fatalf("entry của xe thứ hai thất bại: %v", err)
	}

	if _, _, err := svc.RecordExit(ctx, record.ID, nil); !errors.Is(err, ErrExitAlreadyRecorded) {
		t.Fatalf("exit lần hai: err = %v, muốn ErrExitAlreadyRecorded", err)
	}
	got, _ := svc.GetParkingSlotByID(ctx, slot.ID)
	if got.Status != domain.StatusOccupied {
		t.Errorf("exit lần hai làm đổi trạng thái chỗ đỗ thành %s", got.Status)
	}
}

func TestRecordExitCustomDuration(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slot := seedSlot(t, svc, "A1")
	record, _ := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})

	bad := int64(0)
	if _, _, err := svc.RecordExit(ctx, record.ID, &bad); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("customDuration=0: err = %v, muốn ErrInvalidDuration", err)
	}
	negative := int64(-3)
	if _, _, err := svc.RecordExit(ctx, record.ID, &negative); !errors.Is(err, ErrInvalidDuration) {
		t.Errorf("customDuration=-3: err = %v, muốn ErrInvalidDuration", err)
	}
	// Duration không hợp lệ không được đóng phiên
	active, _ := svc.GetActiveParkingRecords(ctx)
	if len(active) != 1 {
		t.Fatalf("phiên phải còn hoạt động sau duration không hợp lệ")
	}

	custom := int64(5)
	closed, fee, err := svc.RecordExit(ctx, record.ID, &custom)
	if err != nil {
		t.Fatalf("exit với customDuration thất bại: %v", err)
	}
	if closed.DurationHours != 5 {
		t.Errorf("duration = %d, muốn 5", closed.DurationHours)
	}
	if fee != 2500 {
		t.Errorf("fee = %d, muốn 2500", fee)
	}
}

func TestDeleteCarWithActiveRecord(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slot := seedSlot(t, svc, "A1")
	record, _ := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})

	if err := svc.DeleteCar(ctx, car.ID); !errors.Is(err, ErrCarHasActiveRecord) {
		t.Fatalf("xóa xe đang đỗ: err = %v, muốn ErrCarHasActiveRecord", err)
	}

	if _, _, err := svc.RecordExit(ctx, record.ID, nil); err != nil {
		t.Fatalf("RecordExit thất bại: %v", err)
	}
	if err := svc.DeleteCar(ctx, car.ID); err != nil {
		t.Fatalf("xóa xe sau khi xe ra thất bại: %v", err)
	}
}

func TestOverrideSlotStatus(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	slot := seedSlot(t, svc, "A1")
	if _, err := svc.OverrideSlotStatus(ctx, slot.ID, "broken"); !errors.Is(err, ErrInvalidSlotStatus) {
		t.Errorf("override với trạng thái lạ: err = %v, muốn ErrInvalidSlotStatus", err)
	}
	got, err := svc.OverrideSlotStatus(ctx, slot.ID, "occupied")
	if err != nil {
		t.Fatalf("override thất bại: %v", err)
	}
	if got.Status != domain.StatusOccupied {
		t.Errorf("trạng thái sau override = %s, muốn occupied", got.Status)
	}
}

func TestGetDailyParkingRecords(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slotA := seedSlot(t, svc, "A1")
	slotB := seedSlot(t, svc, "A2")

	recToday, _ := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slotA.ID})
	if _, _, err := svc.RecordExit(ctx, recToday.ID, nil); err != nil {
		t.Fatalf("RecordExit thất bại: %v", err)
	}
	recYesterday, _ := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slotB.ID})
	backdateEntry(store, recYesterday.ID, 24*time.Hour)

	today := time.Now().UTC().Format("2006-01-02")
	records, err := svc.GetDailyParkingRecords(ctx, today)
	if err != nil {
		t.Fatalf("GetDailyParkingRecords thất bại: %v", err)
	}
	if len(records) != 1 || records[0].ID != recToday.ID {
		t.Errorf("báo cáo ngày %s có %d phiên, muốn đúng phiên %d", today, len(records), recToday.ID)
	}

	if _, err := svc.GetDailyParkingRecords(ctx, "31-08-2026"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("ngày sai định dạng: err = %v, muốn ErrInvalidDate", err)
	}
}

// Hai entry đồng thời tranh cùng một chỗ đỗ: đúng một lần thành công.
func TestConcurrentEntriesSameSlot(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	slot := seedSlot(t, svc, "A1")
	const n = 16
	cars := make([]*domain.Car, n)
	for i := range cars {
		cars[i] = seedCar(t, svc, "RAB"+string(rune('A'+i))+"00")
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: cars[i].ID, SlotID: slot.ID})
		}(i)
	}
	wg.Wait()

	var ok, occupied int
	for _, err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrSlotOccupied):
			occupied++
		default:
			t.Errorf("lỗi không mong đợi: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d entry thành công cho cùng một chỗ, muốn đúng 1", ok)
	}
	if occupied != n-1 {
		t.Errorf("%d entry bị từ chối vì chỗ đã có xe, muốn %d", occupied, n-1)
	}
}

// Một xe tranh nhiều chỗ đỗ cùng lúc: chỉ được một phiên hoạt động.
func TestConcurrentEntriesSameCar(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	const n = 16
	slots := make([]*domain.ParkingSlot, n)
	for i := range slots {
		slots[i] = seedSlot(t, svc, "B"+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slots[i].ID})
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrCarAlreadyParked) {
			t.Errorf("lỗi không mong đợi: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d entry thành công cho cùng một xe, muốn đúng 1", ok)
	}
	active, _ := svc.GetActiveParkingRecords(ctx)
	if len(active) != 1 {
		t.Errorf("số phiên hoạt động = %d, muốn 1", len(active))
	}
}

// Nhiều lần exit đồng thời cho cùng một phiên: đúng một lần thành công.
func TestConcurrentExitsSameRecord(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	car := seedCar(t, svc, "RAB123A")
	slot := seedSlot(t, svc, "A1")
	record, _ := svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, results[i] = svc.RecordExit(ctx, record.ID, nil)
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range results {
		if err == nil {
			ok++
		} else if !errors.Is(err, ErrExitAlreadyRecorded) {
			t.Errorf("lỗi không mong đợi: %v", err)
		}
	}
	if ok != 1 {
		t.Fatalf("%d exit thành công cho cùng một phiên, muốn đúng 1", ok)
	}
	got, _ := svc.GetParkingSlotByID(ctx, slot.ID)
	if got.Status != domain.StatusAvailable {
		t.Errorf("trạng thái chỗ đỗ sau exit = %s, muốn available", got.Status)
	}
}

// Trộn ngẫu nhiên entry/exit trên nhiều goroutine rồi kiểm tra bất biến:
// mỗi chỗ đỗ và mỗi xe có tối đa một phiên hoạt động.
func TestRandomInterleavingsKeepInvariants(t *testing.T) {
	store := newMemStore()
	svc := newTestParkingService(store)
	ctx := context.Background()

	const numCars, numSlots = 6, 4
	cars := make([]*domain.Car, numCars)
	slots := make([]*domain.ParkingSlot, numSlots)
	for i := range cars {
		cars[i] = seedCar(t, svc, "RND"+string(rune('A'+i)))
	}
	for i := range slots {
		slots[i] = seedSlot(t, svc, "R"+string(rune('A'+i)))
	}

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(seed int64) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed))
			for i := 0; i < 200; i++ {
				if rng.Intn(2) == 0 {
					car := cars[rng.Intn(numCars)]
					slot := slots[rng.Intn(numSlots)]
					svc.RecordEntry(ctx, domain.CreateParkingRecordDTO{CarID: car.ID, SlotID: slot.ID})
				} else {
					active, _ := svc.GetActiveParkingRecords(ctx)
					if len(active) > 0 {
						svc.RecordExit(ctx, active[rng.Intn(len(active))].ID, nil)
					}
				}
			}
		}(int64(g))
	}
	wg.Wait()

	active, err := svc.GetActiveParkingRecords(ctx)
	if err != nil {
		t.Fatalf("GetActiveParkingRecords thất bại: %v", err)
	}
	bySlot := make(map[int]int)
	byCar := make(map[int]int)
	for _, rec := range active {
		bySlot[rec.SlotID]++
		byCar[rec.CarID]++
	}
	for slotID, count := range bySlot {
		if count > 1 {
			t.Errorf("chỗ đỗ %d có %d phiên hoạt động cùng lúc", slotID, count)
		}
	}
	for carID, count := range byCar {
		if count > 1 {
			t.Errorf("xe %d có %d phiên hoạt động cùng lúc", carID, count)
		}
	}

	// Chỗ đỗ occupied <=> có đúng một phiên hoạt động trỏ vào nó
	allSlots, _ := svc.GetAllParkingSlots(ctx)
	for _, slot := range allSlots {
		switch slot.Status {
		case domain.StatusOccupied:
			if bySlot[slot.ID] != 1 {
				t.Errorf("chỗ đỗ %s occupied nhưng có %d phiên hoạt động", slot.SlotNumber, bySlot[slot.ID])
			}
		case domain.StatusAvailable:
			if bySlot[slot.ID] != 0 {
				t.Errorf("chỗ đỗ %s available nhưng có %d phiên hoạt động", slot.SlotNumber, bySlot[slot.ID])
			}
		}
	}
}
