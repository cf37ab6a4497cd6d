package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/jhoicas/colmado-api/internal/application/catalog"
	"github.com/jhoicas/colmado-api/internal/application/consistency"
	"github.com/jhoicas/colmado-api/internal/application/delivery"
	"github.com/jhoicas/colmado-api/internal/application/ports"
	"github.com/jhoicas/colmado-api/internal/domain/repository"
	"github.com/jhoicas/colmado-api/internal/infrastructure/memory"
	"github.com/jhoicas/colmado-api/internal/infrastructure/postgres"
	"github.com/jhoicas/colmado-api/internal/infrastructure/supabase"
	httpRouter "github.com/jhoicas/colmado-api/internal/interfaces/http"
	"github.com/jhoicas/colmado-api/pkg/config"
	"github.com/jhoicas/colmado-api/pkg/logger"
)

// backend puertos de salida según DATA_BACKEND.
type backend struct {
	products   repository.ProductRepository
	images     repository.ProductImageRepository
	categories repository.ProductCategoryRepository
	profiles   repository.ProfileRepository
	assocs     repository.ColmadoAssociationRepository
	view       repository.DeliveryViewRepository
	blobs      ports.BlobStore
	identity   ports.IdentityProvisioner
	close      func()
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
		Str("backend", cfg.App.DataBackend).
		Msg("iniciando aplicación")

	ctx := context.Background()
	be, err := newBackend(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("inicializar backend de datos")
	}
	defer be.close()

	poller := consistency.New(cfg.Workflow.PollMaxAttempts, cfg.Workflow.PollDelay)
	productBuilder := catalog.NewProductBuilder(be.products, be.images, be.categories, be.blobs, log, catalog.ProductBuilderConfig{
		Bucket:            cfg.Storage.ProductBucket,
		Poller:            poller,
		UploadConcurrency: cfg.Workflow.UploadConcurrency,
	})
	deliveryBuilder := delivery.NewDeliveryBuilder(be.identity, be.profiles, be.assocs, be.view, be.blobs, log, delivery.DeliveryBuilderConfig{
		AvatarBucket: cfg.Storage.AvatarBucket,
		Poller:       poller,
	})

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 30,
		WriteTimeout: time.Second * 60,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    30 << 20, // hasta 5 imágenes de 5 MB más campos
	})
	app.Use(recover.New())

	httpRouter.Router(app, httpRouter.RouterDeps{
		Products:   productBuilder,
		Deliveries: deliveryBuilder,
		JWTSecret:  cfg.Supabase.JWTSecret,
		AppName:    cfg.App.Name,
		Log:        log,
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

func newBackend(ctx context.Context, cfg *config.Config, log *logger.Logger) (*backend, error) {
	switch cfg.App.DataBackend {
	case config.BackendMemory:
		log.Warn().Msg("backend en memoria: los datos se pierden al reiniciar")
		store := memory.NewStore("http://" + cfg.HTTP.Addr())
		return &backend{
			products:   store.Products(),
			images:     store.ProductImages(),
			categories: store.ProductCategories(),
			profiles:   store.Profiles(),
			assocs:     store.Associations(),
			view:       store.DeliveryView(),
			blobs:      store.Blobs(),
			identity:   store.Identity(),
			close:      func() {},
		}, nil

	case config.BackendPostgres:
		pool, err := postgres.NewPool(ctx, cfg.DB, log)
		if err != nil {
			return nil, err
		}
		// Archivos e identidades siguen en Supabase.
		client := supabase.NewClient(cfg.Supabase, log)
		return &backend{
			products:   postgres.NewProductRepository(pool),
			images:     postgres.NewProductImageRepository(pool),
			categories: postgres.NewProductCategoryRepository(pool),
			profiles:   postgres.NewProfileRepository(pool),
			assocs:     postgres.NewAssociationRepository(pool),
			view:       postgres.NewDeliveryViewRepository(pool),
			blobs:      supabase.NewStorage(client),
			identity:   supabase.NewIdentityFunction(client),
			close:      pool.Close,
		}, nil

	default:
		client := supabase.NewClient(cfg.Supabase, log)
		return &backend{
			products:   supabase.NewProductRepository(client),
			images:     supabase.NewProductImageRepository(client),
			categories: supabase.NewProductCategoryRepository(client),
			profiles:   supabase.NewProfileRepository(client),
			assocs:     supabase.NewAssociationRepository(client),
			view:       supabase.NewDeliveryViewRepository(client),
			blobs:      supabase.NewStorage(client),
			identity:   supabase.NewIdentityFunction(client),
			close:      func() {},
		}, nil
	}
}
