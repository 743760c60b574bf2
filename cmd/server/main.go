package main // Entry point package

import (
	"github.com/joho/godotenv"    // loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework
	log "github.com/sirupsen/logrus"

	"github.com/pumpup/gym-edge/internal/config"     // environment config loader
	"github.com/pumpup/gym-edge/internal/database"   // MySQL connection helper
	"github.com/pumpup/gym-edge/internal/handler"    // HTTP handlers
	"github.com/pumpup/gym-edge/internal/queue"      // activity log consumer
	"github.com/pumpup/gym-edge/internal/repository" // DB repositories
	"github.com/pumpup/gym-edge/internal/router"     // route registration
	"github.com/pumpup/gym-edge/internal/service"    // domain services
)

func main() {
	// Load .env when present; real deployments set the environment
	// directly and the file is absent.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connect failed: %v", err)
	}
	defer db.Close()

	// Redis backs the auth-route rate limiter only; nil degrades the
	// limiter to a pass-through.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Warn("redis unavailable, auth rate limiting disabled")
	}

	// Repositories
	devices := repository.NewDeviceRepo(db)
	members := repository.NewMemberRepo(db)
	checkIns := repository.NewCheckInRepo(db)
	equipment := repository.NewEquipmentRepo(db)
	sessions := repository.NewSessionRepo(db)
	heartRates := repository.NewHeartRateRepo(db)
	staff := repository.NewStaffRepo(db)
	tokens := repository.NewTokenRepo(db)

	// Services
	auth := service.NewAuthService(devices)
	access := service.NewAccessService(db, members, checkIns)
	sessionSvc := service.NewSessionService(db, members, checkIns, equipment, sessions)
	heartRate := service.NewHeartRateService(members, sessions, heartRates)
	forwarder := service.NewForwarder(cfg.ForwardURL, cfg.ForwardToken)

	// Handlers
	accessH := handler.NewAccessHandler(cfg, auth, access, forwarder)
	equipH := handler.NewEquipmentHandler(cfg, auth, sessionSvc, heartRate, forwarder)
	authH := handler.NewAuthHandler(cfg, staff, tokens)
	adminH := handler.NewAdminHandler(members, equipment)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterDevice(e, accessH, equipH)
	router.RegisterAuth(e, authH, cfg.JWTSecret, rdb)
	router.RegisterAdmin(e, adminH, cfg.JWTSecret)

	// The consumer drains the activity queue into logs/activity.log.  It
	// runs in-process so a single-box deployment needs no extra binary.
	if cfg.ConsumerEnabled {
		go func() {
			if err := queue.StartActivityConsumer(); err != nil {
				log.Warnf("activity consumer stopped: %v", err)
			}
		}()
	}

	addr := ":" + cfg.Port
	log.WithFields(log.Fields{
		"env":        cfg.Env,
		"addr":       addr,
		"forwarding": forwarder.Enabled(),
		"events":     cfg.EventsEnabled,
	}).Info("gym edge service starting")

	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
