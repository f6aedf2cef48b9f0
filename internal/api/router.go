package api

import (
	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/handler"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/api/middleware"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/domain"
	"github.com/anand-babu-0003/ParkWise-sub000/internal/service"

	"github.com/gin-gonic/gin"
)

func SetupRouter(
	as *service.AuthService,
	ls *service.LotService,
	bs *service.BookingService,
	qs *service.QRService,
	authMw *middleware.AuthMiddleware,
	wsManager *handler.WebSocketManager,
) *gin.Engine {
	r := gin.Default()
	r.Use(gin.Logger())
	r.Use(gin.Recovery())

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

	// availability stream needs no auth
	wsHandler := handler.NewWebSocketHandler(wsManager)
	r.GET("/ws", wsHandler.HandleWebSocket)

	authHandler := handler.NewAuthHandler(as)
	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	v1 := r.Group("/api/v1")
	v1.Use(authMw.Authenticate())
	{
		lotH := handler.NewParkingLotHandler(ls, bs)
		lotRoutes := v1.Group("/parking-lots")
		{
			lotRoutes.POST("", authMw.AuthorizeRole(domain.RoleOwner, domain.RoleAdmin), lotH.CreateParkingLot)
			lotRoutes.GET("", lotH.GetAllParkingLots)
			lotRoutes.GET("/search", lotH.SearchParkingLots)
			lotRoutes.GET("/mine", authMw.AuthorizeRole(domain.RoleOwner, domain.RoleAdmin), lotH.GetOwnParkingLots)
			lotRoutes.GET("/:id", lotH.GetParkingLotByID)
			lotRoutes.PUT("/:id", authMw.AuthorizeRole(domain.RoleOwner, domain.RoleAdmin), lotH.UpdateParkingLot)
			lotRoutes.DELETE("/:id", authMw.AuthorizeRole(domain.RoleOwner, domain.RoleAdmin), lotH.DeleteParkingLot)
			lotRoutes.GET("/:id/bookings", authMw.AuthorizeRole(domain.RoleOwner, domain.RoleAdmin), lotH.GetLotBookings)
		}

		bookingH := handler.NewBookingHandler(bs, qs)
		bookingRoutes := v1.Group("/bookings")
		{
			bookingRoutes.POST("", bookingH.CreateBooking)
			bookingRoutes.GET("", bookingH.ListOwnBookings)
			bookingRoutes.GET("/all", authMw.AuthorizeRole(domain.RoleAdmin), bookingH.ListAllBookings)
			bookingRoutes.GET("/by-reference/:reference", bookingH.GetBookingByReference)
			bookingRoutes.GET("/:id", bookingH.GetBookingByID)
			bookingRoutes.PUT("/:id", bookingH.UpdateBooking)
			bookingRoutes.DELETE("/:id", bookingH.DeleteBooking)
			bookingRoutes.GET("/:id/qr", bookingH.GetBookingQR)
		}
	}
	return r
}
