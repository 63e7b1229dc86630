package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/y-noah0/pssms/internal/api"
	"github.com/y-noah0/pssms/internal/api/handler"
	"github.com/y-noah0/pssms/internal/api/middleware"
	"github.com/y-noah0/pssms/internal/config"
	"github.com/y-noah0/pssms/internal/repository/postgresql"
	"github.com/y-noah0/pssms/internal/service"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	log.Println("Cấu hình đã được tải.")

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatalf("Không thể kết nối database: %v", err)
	}
	defer db.Close()
	log.Println("Đã kết nối database thành công!")

	// 3. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	carRepo := postgresql.NewPgCarRepository(db)
	slotRepo := postgresql.NewPgParkingSlotRepository(db)
	recordRepo := postgresql.NewPgParkingRecordRepository(db)
	paymentRepo := postgresql.NewPgPaymentRepository(db)

	// 4. Init WebSocket manager cho dashboard real-time
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Println("WebSocket Manager đã được khởi động.")

	// 5. Initialize Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	parkingService := service.NewParkingService(carRepo, slotRepo, recordRepo, cfg.HourlyRate, cfg.ReportLocation, webSocketManager)
	billingService := service.NewBillingService(paymentRepo, recordRepo, cfg.HourlyRate, cfg.ReportLocation, webSocketManager)

	// 6. Seed tài khoản admin nếu chưa có
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authService.EnsureAdminUser(seedCtx, cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Không thể seed tài khoản admin: %v", err)
	}
	cancelSeed()

	// 7. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 8. Setup HTTP Router
	router := api.SetupRouter(authService, parkingService, billingService, authMiddleware, webSocketManager)

	// 9. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Printf("Server đang chạy trên port %s (biểu phí %d/giờ, múi giờ báo cáo %s)",
			cfg.ServerPort, cfg.HourlyRate, cfg.ReportLocation)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Lỗi ListenAndServe(): %v", err)
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Đang tắt server...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("Server buộc phải tắt: %v", err)
	}

	log.Println("Server đã tắt.")
}
