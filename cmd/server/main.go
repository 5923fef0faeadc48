package main // entry point: wires storage, engine, broker and HTTP together

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/MintEngine/mintcraft-node/internal/config"
	"github.com/MintEngine/mintcraft-node/internal/database"
	"github.com/MintEngine/mintcraft-node/internal/engine"
	"github.com/MintEngine/mintcraft-node/internal/handler"
	"github.com/MintEngine/mintcraft-node/internal/middleware"
	"github.com/MintEngine/mintcraft-node/internal/model"
	"github.com/MintEngine/mintcraft-node/internal/queue"
	"github.com/MintEngine/mintcraft-node/internal/random"
	"github.com/MintEngine/mintcraft-node/internal/repository"
	"github.com/MintEngine/mintcraft-node/internal/router"
	queuepub "github.com/MintEngine/mintcraft-node/internal/service"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(database.Params{
		User:            cfg.DBUser,
		Pass:            cfg.DBPass,
		Host:            cfg.DBHost,
		Port:            cfg.DBPort,
		Name:            cfg.DBName,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
	})
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Repositories over the MySQL pool.
	accounts := repository.NewAccountRepo(db, model.Balance(cfg.ExistentialDeposit))
	assets := repository.NewAssetRepo(db)
	dungeons := repository.NewDungeonRepo(db)
	instances := repository.NewInstanceRepo(db)
	tokens := repository.NewTokenRepo(db)
	store := repository.NewSQLStore(db, accounts, assets, dungeons, instances)

	// The logical clock starts at the current minute count so ticket
	// windows survive a restart without jumping backwards.
	clock := engine.NewTickClock(model.Tick(time.Now().UTC().Unix() / 60))
	gen := random.NewGenerator(cfg.ServerSeed, uint32(cfg.MaxGenerateRandom))

	eng := engine.New(store, store, clock, gen, queuepub.New(), engine.Params{
		ClosingGap: model.Tick(cfg.ClosingGap),
		PlayingGap: model.Tick(cfg.PlayingGap),
	})

	// Broker consumer: append lifecycle events to logs/lifecycle.log.
	go func() {
		if err := queue.StartLifecycleConsumer(); err != nil {
			log.Printf("lifecycle consumer stopped: %v", err)
		}
	}()

	// Tick loop: advance the clock and run the expiry sweep.
	go func() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for range ticker.C {
			clock.Advance()
			ctx, cancel := context.WithTimeout(context.Background(), cfg.TickInterval)
			n, err := eng.Sweep(ctx)
			cancel()
			if err != nil {
				log.Printf("sweep: %v", err)
				continue
			}
			if n > 0 {
				log.Printf("sweep: transitioned %d instances at tick %d", n, clock.Now())
			}
		}
	}()

	e := echo.New()
	e.Use(echomw.Recover())
	e.Use(echomw.Logger())

	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; cache and rate limit disabled")
	}
	e.Use(middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb))
	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)

	authH := handler.NewAuthHandler(cfg, accounts, tokens)
	browseH := handler.NewBrowseHandler(dungeons, instances, assets)
	dungeonH := handler.NewDungeonHandler(eng)
	adminH := handler.NewAdminHandler(accounts, assets)
	ticketH := handler.NewTicketHandler(eng, instances)

	router.RegisterRoutes(e)
	router.RegisterAuth(e, authH, cfg.JWTSecret)
	router.RegisterPublic(e, browseH, cacheMW)
	router.RegisterManager(e, dungeonH, adminH, cfg.JWTSecret)
	router.RegisterTickets(e, ticketH, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s, tick=%s)", addr, cfg.Env, cfg.TickInterval)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
