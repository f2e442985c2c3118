// @title        Activos API
// @version      1.0
// @description  Ciclo de vida, asignación e importación de activos de TI.
// @BasePath     /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
// @description                 Bearer <token>
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"

	_ "github.com/jhoicas/Activos-api/docs"
	"github.com/jhoicas/Activos-api/internal/application/intake"
	"github.com/jhoicas/Activos-api/internal/application/lifecycle"
	"github.com/jhoicas/Activos-api/internal/application/tagging"
	"github.com/jhoicas/Activos-api/internal/domain/entity"
	"github.com/jhoicas/Activos-api/internal/domain/repository"
	"github.com/jhoicas/Activos-api/internal/infrastructure/broker"
	"github.com/jhoicas/Activos-api/internal/infrastructure/memory"
	infrapdf "github.com/jhoicas/Activos-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Activos-api/internal/infrastructure/postgres"
	"github.com/jhoicas/Activos-api/internal/infrastructure/redislock"
	"github.com/jhoicas/Activos-api/internal/infrastructure/userdir"
	httpRouter "github.com/jhoicas/Activos-api/internal/interfaces/http"
	"github.com/jhoicas/Activos-api/pkg/config"
	"github.com/jhoicas/Activos-api/pkg/logger"
)

const swaggerFile = "./docs/swagger.json"

// stores repositorios y transacción según STORE_DRIVER.
type stores struct {
	tx        lifecycle.TxRunner
	assets    repository.AssetRepository
	events    repository.AssignmentEventRepository
	users     repository.UserRepository
	locations repository.LocationRepository
	close     func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:   cfg.App.Env,
		Level: cfg.App.LogLevel,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("store", cfg.App.StoreDriver).
		Str("lock", cfg.Lock.Driver).
		Msg("iniciando aplicación")

	if cfg.JWT.Secret == "" {
		log.Fatal().Msg("JWT_SECRET requerido")
	}

	ctx := context.Background()
	st, err := openStores(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar almacenamiento")
	}
	defer st.close()

	// Directorio REST de usuarios: reemplaza la tabla local cuando está configurado.
	if cfg.Users.URL != "" {
		st.users = userdir.NewClient(cfg.Users.URL, cfg.Users.Timeout, cfg.Users.Token)
		log.Info().Str("url", cfg.Users.URL).Msg("directorio de usuarios REST")
	}

	var locker lifecycle.AssetLocker = lifecycle.NewKeyedMutex()
	if cfg.Lock.Driver == config.LockDriverRedis {
		rdb, err := redislock.NewClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a Redis")
		}
		defer rdb.Close()
		locker = redislock.New(rdb, cfg.Lock.TTL, cfg.Lock.Retry, log)
	}

	var publisher lifecycle.EventPublisher = lifecycle.NopPublisher{}
	if cfg.Broker.URL != "" {
		rp, err := broker.NewRabbitPublisher(cfg.Broker.URL, cfg.Broker.Exchange, log)
		if err != nil {
			log.Fatal().Err(err).Msg("conexión a RabbitMQ")
		}
		defer rp.Close()
		publisher = rp
	}

	lifecycleUC := lifecycle.NewUseCase(lifecycle.Deps{
		TxRunner:          st.tx,
		Assets:            st.assets,
		Events:            st.events,
		Users:             st.users,
		Locations:         st.locations,
		Locker:            locker,
		Publisher:         publisher,
		Logger:            log,
		DefaultLocationID: cfg.Intake.LocationID,
	})
	intakeUC := intake.NewUseCase(intake.Deps{
		TxRunner:          st.tx,
		Locations:         st.locations,
		Publisher:         publisher,
		Logger:            log,
		DefaultLocationID: cfg.Intake.LocationID,
	})
	taggingUC := tagging.NewUseCase(st.assets, st.locations, infrapdf.NewTagSheetGenerator())

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 30,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    12 << 20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs
	if _, err := os.Stat(swaggerFile); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: swaggerFile,
			Path:     "docs",
			Title:    "Activos API",
		}))
	}

	httpRouter.Router(app, httpRouter.RouterDeps{
		Lifecycle: lifecycleUC,
		Intake:    intakeUC,
		Tagging:   taggingUC,
		JWTSecret: cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	log.Info().Msg("aplicación detenida")
}

// openStores abre PostgreSQL (con migraciones) o el store en memoria con la sede de recepción.
func openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	if cfg.App.StoreDriver == config.StoreDriverMemory {
		s := memory.NewStore()
		s.PutLocation(entity.Location{ID: cfg.Intake.LocationID, Name: "Recepción", CreatedAt: time.Now().UTC()})
		return &stores{
			tx:        memory.NewTxRunner(s),
			assets:    s.Assets(),
			events:    s.Events(),
			users:     s.Users(),
			locations: s.Locations(),
			close:     func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if err := postgres.Migrate(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return postgresStores(pool), nil
}

func postgresStores(pool *pgxpool.Pool) *stores {
	return &stores{
		tx:        postgres.NewTxRunner(pool),
		assets:    postgres.NewAssetRepository(pool),
		events:    postgres.NewAssignmentEventRepository(pool),
		users:     postgres.NewUserRepository(pool),
		locations: postgres.NewLocationRepository(pool),
		close:     pool.Close,
	}
}
