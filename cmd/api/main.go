package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"orderapp/internal/config"
	"orderapp/internal/domain/model"
	"orderapp/internal/handler"
	"orderapp/internal/infra/cache"
	"orderapp/internal/infra/db"
	infraRepo "orderapp/internal/infra/repository"
	repo "orderapp/internal/repository"
	"orderapp/internal/usecase"
	"orderapp/internal/validator"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
)

// 1リクエスト1行のアクセスログ（request_idで追えるようにする）
func requestLogger(logger *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			reqID := uuid.NewString()
			c.Response().Header().Set("X-Request-ID", reqID)

			start := time.Now()
			err := next(c)

			logger.Info("http request",
				"request_id", reqID,
				"method", c.Request().Method,
				"path", c.Request().URL.Path,
				"status", c.Response().Status,
				"duration_ms", time.Since(start).Milliseconds(),
			)
			return err
		}
	}
}

func newLogger(goEnv string) *slog.Logger {
	level := slog.LevelInfo
	if goEnv == "dev" {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))
}

func main() {
	//.envがあれば読む（無ければ環境変数をそのまま使う）
	_ = godotenv.Load("../.env")

	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := newLogger(cfg.GoEnv)

	//DB接続
	gormDB, err := db.Connect(cfg)
	if err != nil {
		panic(err)
	}
	if err := gormDB.AutoMigrate(
		&model.User{},
		&model.Order{},
		&model.Product{},
		&model.AuditLog{},
	); err != nil {
		panic(err)
	}

	//Repository（GORM実装）生成
	orderRepo := infraRepo.NewOrderGormRepository(gormDB)
	userRepo := infraRepo.NewUserGormRepository(gormDB)
	auditRepo := infraRepo.NewAuditLogGormRepository(gormDB)

	//キャッシュ（REDIS_HOST未設定ならインメモリ）
	var orderCache repo.OrderCache
	if cfg.RedisHost != "" {
		client := redis.NewClient(&redis.Options{
			Addr: fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort),
		})
		orderCache = cache.NewOrderRedisCache(client)
		logger.Info("order cache: redis", "addr", client.Options().Addr)
	} else {
		orderCache = cache.NewOrderMemoryCache()
		logger.Info("order cache: in-memory")
	}

	//Validator生成
	orderValidator := validator.NewOrderValidator(orderRepo, userRepo)

	//Usecase生成
	orderUC := usecase.NewOrderUsecase(orderRepo, orderValidator, orderCache, auditRepo, logger)

	//Handler生成・ルート登録
	e := echo.New()
	e.HideBanner = true
	e.Use(requestLogger(logger))

	orderH := handler.NewOrderHandler(orderUC)
	orderH.RegisterRoutes(e, cfg)

	//Server起動
	addr := cfg.Port
	if addr[0] != ':' {
		addr = ":" + addr
	}

	if err := e.Start(addr); err != nil {
		panic(err)
	}
}
