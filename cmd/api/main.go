package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"repairshop/internal/config"
	"repairshop/internal/database"
	"repairshop/internal/domain/auth"
	"repairshop/internal/domain/client"
	"repairshop/internal/domain/order"
	"repairshop/internal/domain/supply"
	"repairshop/internal/middleware"
	jwtsvc "repairshop/internal/pkg/jwt"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal(err)
	}
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}
	if err := database.EnsureDefaults(db, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		log.Fatal(err)
	}

	j := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)

	authService := auth.NewService(db, j)
	authHandler := auth.NewHandler(authService)

	orderService := order.NewService(db)
	orderHandler := order.NewHandler(orderService)

	clientService := client.NewService(db)
	clientHandler := client.NewHandler(clientService)

	supplyService := supply.NewService(db)
	supplyHandler := supply.NewHandler(supplyService)

	r := gin.Default()
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorLogger())

	v1 := r.Group("/api/v1")
	{
		// public
		authHandler.RegisterPublicRoutes(v1)

		// protected (any authenticated user)
		protected := v1.Group("/")
		protected.Use(middleware.JWTAuth(j))

		// admin management surface
		admin := protected.Group("/admin")
		admin.Use(middleware.AdminOnly())

		authHandler.RegisterProtectedRoutes(protected)
		orderHandler.RegisterRoutes(protected, admin)
		clientHandler.RegisterRoutes(protected, admin)
		supplyHandler.RegisterRoutes(admin)
	}

	if err := r.Run(cfg.ListenAddr); err != nil {
		log.Fatal(err)
	}
}
