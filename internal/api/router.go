package api

import (
	"github.com/y-noah0/pssms/internal/api/handler"
	"github.com/y-noah0/pssms/internal/api/middleware"
	"github.com/y-noah0/pssms/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(as *service.AuthService, ps *service.ParkingService, bs *service.BillingService,
	authMw *middleware.AuthMiddleware, wsManager *handler.WebSocketManager) *gin.Engine {
	r := gin.Default()
	r.Use(middleware.RequestID())

	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// WebSocket endpoint cho dashboard (không cần auth cho real-time connection)
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	loginLimiter := middleware.NewRateLimiter(1, 5) // 1 req/s, burst 5 theo IP

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", loginLimiter.Limit(), authHandler.Login)
		authRoutes.GET("/me", authMw.Authenticate(), authHandler.Me)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		carH := handler.NewCarHandler(ps)
		carRoutes := v1.Group("/cars")
		{
			carRoutes.POST("", carH.RegisterCar)
			carRoutes.GET("", carH.GetAllCars)
			carRoutes.GET("/:id", carH.GetCarByID)
			carRoutes.PUT("/:id", carH.UpdateCar)
			carRoutes.DELETE("/:id", carH.DeleteCar)
		}

		slotH := handler.NewParkingSlotHandler(ps)
		slotRoutes := v1.Group("/parking-slots")
		{
			slotRoutes.POST("", authMw.AuthorizeRole("admin"), slotH.CreateParkingSlot)
			slotRoutes.GET("", slotH.GetAllParkingSlots)
			slotRoutes.GET("/available", slotH.GetAvailableParkingSlots)
			slotRoutes.GET("/:id", slotH.GetParkingSlotByID)
			slotRoutes.PUT("/:id", authMw.AuthorizeRole("admin"), slotH.UpdateParkingSlotStatus)
			slotRoutes.DELETE("/:id", authMw.AuthorizeRole("admin"), slotH.DeleteParkingSlot)
		}

		recordH := handler.NewParkingRecordHandler(ps)
		recordRoutes := v1.Group("/parking-records")
		{
			recordRoutes.POST("", recordH.RecordEntry)
			recordRoutes.PUT("/exit/:id", recordH.RecordExit)
			recordRoutes.GET("", recordH.GetAllParkingRecords)
			recordRoutes.GET("/active", recordH.GetActiveParkingRecords)
			recordRoutes.GET("/completed", recordH.GetCompletedParkingRecords)
			recordRoutes.GET("/car/:carId", recordH.GetParkingRecordsByCarID)
			recordRoutes.GET("/daily/:date", recordH.GetDailyParkingRecords)
			recordRoutes.GET("/:id", recordH.GetParkingRecordByID)
		}

		paymentH := handler.NewPaymentHandler(bs)
		paymentRoutes := v1.Group("/payments")
		{
			paymentRoutes.POST("", paymentH.CreatePayment)
			paymentRoutes.GET("", paymentH.GetAllPayments)
			paymentRoutes.GET("/daily/:date", paymentH.GetDailyPayments)
			paymentRoutes.GET("/record/:recordId", paymentH.GetPaymentByRecordID)
			paymentRoutes.GET("/:id", paymentH.GetPaymentByID)
		}
	}
	return r
}
