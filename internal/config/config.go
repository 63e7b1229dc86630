package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort string
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSslMode  string

	JWTSecret          string        // Secret key cho JWT
	JWTExpirationHours time.Duration // Thời gian hết hạn của JWT

	HourlyRate     int64          // Biểu phí cố định theo giờ (đơn vị tiền tệ / giờ)
	ReportLocation *time.Location // Múi giờ dùng để tính ranh giới ngày cho báo cáo

	AdminUsername string // Tài khoản admin được seed khi khởi động
	AdminPassword string
}

func Load() *Config {
	err := godotenv.Load()
	if err != nil && !os.IsNotExist(err) {
		log.Printf("Cảnh báo: Không thể tải file .env: %v", err)
	}

	dbPort, _ := strconv.Atoi(getEnv("DB_PORT", "5432"))

	jwtExpHours, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24")) // Mặc định 24 giờ

	hourlyRate, err := strconv.ParseInt(getEnv("HOURLY_RATE", "500"), 10, 64)
	if err != nil || hourlyRate <= 0 {
		log.Printf("HOURLY_RATE không hợp lệ, sử dụng giá trị mặc định 500")
		hourlyRate = 500
	}

	// Ranh giới ngày của báo cáo phụ thuộc múi giờ. Mặc định UTC để không
	// lệ thuộc vào timezone của server.
	tzName := getEnv("REPORT_TIMEZONE", "UTC")
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		log.Printf("REPORT_TIMEZONE '%s' không hợp lệ: %v. Sử dụng UTC.", tzName, err)
		loc = time.UTC
	}

	return &Config{
		ServerPort: getEnv("SERVER_PORT", "8080"),
		DBHost:     getEnv("DB_HOST", "localhost"),
		DBPort:     dbPort,
		DBUser:     getEnv("DB_USER", "youruser"),
		DBPassword: getEnv("DB_PASSWORD", "yourpassword"),
		DBName:     getEnv("DB_NAME", "parking_db"),
		DBSslMode:  getEnv("DB_SSLMODE", "disable"),

		JWTSecret:          getEnv("JWT_SECRET", "your-very-secret-key-for-jwt-!@#$"),
		JWTExpirationHours: time.Duration(jwtExpHours) * time.Hour,

		HourlyRate:     hourlyRate,
		ReportLocation: loc,

		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin123"),
	}
}

func getEnv(key string, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	log.Printf("Biến môi trường '%s' không được đặt, sử dụng giá trị mặc định: '%s'", key, fallback)
	return fallback
}
