package main // Entry point package

import (
	"log"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/school-admissions/internal/config"
	"github.com/iliyamo/school-admissions/internal/database"
	"github.com/iliyamo/school-admissions/internal/handler"
	"github.com/iliyamo/school-admissions/internal/queue"
	"github.com/iliyamo/school-admissions/internal/repository"
	"github.com/iliyamo/school-admissions/internal/router"
	"github.com/iliyamo/school-admissions/internal/service"
)

func main() {
	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis backs rate limiting and the availability cache; both degrade to
	// pass-through when it is unreachable.
	rdb := config.NewRedisClient()
	rlCfg := config.LoadRateLimitConfig()
	cacheCfg := config.LoadCacheConfig()

	// Repositories over the shared *sql.DB.
	users := repository.NewUserRepo(db)
	quotas := repository.NewQuotaRepo(db)
	apps := repository.NewApplicationRepo(db)

	// The coordinator is the only writer of occupancy; every status change
	// funnels through the transition service so the two stay consistent.
	alloc := service.NewAllocationCoordinator(quotas)
	resolver := service.NewQuotaResolver(quotas)
	availability := service.NewAvailabilityService(resolver)
	publisher := queue.NewPublisher()
	transitions := service.NewTransitionService(db, apps, quotas, resolver, alloc, publisher)
	quotaAdmin := service.NewQuotaAdminService(quotas, apps, transitions)

	// Consume status events in the background; the loop reconnects on its own.
	go func() {
		if err := queue.StartStatusConsumer(); err != nil {
			log.Printf("status consumer stopped: %v", err)
		}
	}()

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterAuth(e, handler.NewAuthHandler(cfg, users), cfg.JWTSecret)
	router.RegisterPublic(e, handler.NewAvailabilityHandler(availability), rdb, rlCfg, cacheCfg)
	router.RegisterApplications(e, handler.NewApplicationHandler(apps, transitions), cfg.JWTSecret)
	router.RegisterAdminQuotas(e, handler.NewAdminQuotaHandler(quotas, apps, quotaAdmin), cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
