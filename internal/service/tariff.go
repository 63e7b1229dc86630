package service

import (
	"math"
	"time"
)

// DefaultHourlyRate là biểu phí tham chiếu (500 đơn vị tiền tệ / giờ);
// giá trị thực tế lấy từ cấu hình HOURLY_RATE.
const DefaultHourlyRate int64 = 500

// BilledHours tính số giờ tính phí cho một phiên đỗ xe: luôn làm tròn LÊN
// theo giờ, tối thiểu 1 giờ.
func BilledHours(entryTime, exitTime time.Time) int64 {
	elapsed := exitTime.Sub(entryTime).Hours()
	if elapsed < 1 {
		return 1
	}
	return int64(math.Ceil(elapsed))
}

// Fee tính phí phải trả: số giờ tính phí nhân với biểu phí giờ.
func Fee(durationHours, hourlyRate int64) int64 {
	return durationHours * hourlyRate
}

// DayBounds trả về [00:00 ngày d, 00:00 ngày d+1) theo múi giờ loc.
// Dùng AddDate thay vì cộng 24h để ranh giới đúng cả những ngày đổi DST.
func DayBounds(d time.Time, loc *time.Location) (time.Time, time.Time) {
	start := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
	return start, start.AddDate(0, 0, 1)
}
