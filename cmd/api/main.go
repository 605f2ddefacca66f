package main

import (
	"log/slog"
	"os"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/handler"
	"app/internal/infra/db"
	"app/internal/infra/payment"
	infraRepo "app/internal/infra/repository"
	"app/internal/server"
	"app/internal/usecase"
	"app/internal/validator"

	"github.com/joho/godotenv"
)

func main() {
	// .env は無くてもよい（本番は環境変数で渡す）
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "error", err)
		os.Exit(1)
	}

	logLevel := slog.LevelInfo
	if cfg.GoEnv == "dev" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	gormDB, err := db.Connect(cfg)
	if err != nil {
		logger.Error("db connect failed", "error", err)
		os.Exit(1)
	}

	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.UserProfile{},
		&model.Category{},
		&model.Product{},
		&model.Order{},
		&model.OrderItem{},
	); err != nil {
		logger.Error("migrate failed", "error", err)
		os.Exit(1)
	}

	// Repository（GORM実装）生成
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	profileRepo := infraRepo.NewProfileGormRepository(gormDB)
	categoryRepo := infraRepo.NewCategoryGormRepository(gormDB)
	productRepo := infraRepo.NewProductGormRepository(gormDB)
	inventoryRepo := infraRepo.NewInventoryGormRepository(gormDB)
	txManager := infraRepo.NewTxManagerGorm(gormDB)

	// 決済ゲートウェイ
	gateway := payment.NewStripeGateway(cfg.StripeSecretKey)

	// Usecase生成
	authUC := usecase.NewAuthUsecase(cfg, userRepo, profileRepo, validator.NewAuthValidator(userRepo))
	profileUC := usecase.NewProfileUsecase(profileRepo)
	categoryUC := usecase.NewCategoryUsecase(categoryRepo)
	productUC := usecase.NewProductUsecase(productRepo, inventoryRepo, categoryRepo)
	orderUC := usecase.NewOrderUsecase(txManager, userRepo, profileRepo, gateway, cfg, logger)

	// Handler生成
	h := server.Handlers{
		Auth:     handler.NewAuthHandler(authUC),
		Profile:  handler.NewProfileHandler(profileUC),
		Category: handler.NewCategoryHandler(categoryUC),
		Product:  handler.NewProductHandler(productUC),
		Admin:    handler.NewAdminProductHandler(productUC, categoryUC),
		Order:    handler.NewOrderHandler(orderUC),
	}

	e := server.New(cfg, userRepo, h)

	logger.Info("starting api", "port", cfg.Port, "env", cfg.GoEnv)
	if err := server.Start(e, cfg.Port); err != nil {
		logger.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
