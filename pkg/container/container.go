package container

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"

	"catalog-analyzer/internal/config"
	"catalog-analyzer/internal/domains/statistic"
	statisticHandler "catalog-analyzer/internal/domains/statistic/handler"
	statisticRepo "catalog-analyzer/internal/domains/statistic/repository"
	statisticService "catalog-analyzer/internal/domains/statistic/service"
	"catalog-analyzer/internal/domains/unit"
	unitHandler "catalog-analyzer/internal/domains/unit/handler"
	unitRepo "catalog-analyzer/internal/domains/unit/repository"
	unitService "catalog-analyzer/internal/domains/unit/service"
	"catalog-analyzer/internal/infrastructure/database"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container is the root of the dependency graph: configuration, the
// connection pool, and every repository, service and handler, built once at
// startup and shared for the process lifetime.
type Container struct {
	Config *config.Config
	DB     *database.PostgresDB

	UnitRepo      unit.UnitRepository
	HierarchyRepo unit.HierarchyRepository
	AggregateRepo unit.AggregateRepository
	HistoryRepo   unit.HistoryRepository
	StatisticRepo statistic.StatisticRepository

	UnitService      unit.Service
	StatisticService statistic.Service

	UnitHandler      *unitHandler.UnitHandler
	StatisticHandler *statisticHandler.StatisticHandler
}

// NewContainer builds the graph in dependency order: migrations and the
// pool first, then repositories, services, handlers. Any failure aborts
// startup.
func NewContainer(v *viper.Viper, cfg *config.Config) (*Container, error) {
	c := &Container{Config: cfg}

	dbConfig := config.LoadDatabaseConfig(v, cfg)

	if err := database.RunMigrations(dbConfig); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(context.Background()); err != nil {
		return nil, fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db

	c.initRepositories()
	c.initServices()
	c.initHandlers()

	log.Info().Str("database", dbConfig.DBName).Msg("container initialized")
	return c, nil
}

// ========================================
// LAYER INITIALIZATION
// ========================================

func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UnitRepo = unitRepo.NewUnitRepository(pool)
	c.HierarchyRepo = unitRepo.NewHierarchyRepository(pool)
	c.AggregateRepo = unitRepo.NewAggregateRepository(pool)
	c.HistoryRepo = unitRepo.NewHistoryRepository(pool)
	c.StatisticRepo = statisticRepo.NewStatisticRepository(pool)
}

func (c *Container) initServices() {
	c.UnitService = unitService.NewUnitService(
		c.DB.Pool,
		c.UnitRepo,
		c.HierarchyRepo,
		c.AggregateRepo,
		c.HistoryRepo,
	)
	c.StatisticService = statisticService.NewStatisticService(c.StatisticRepo)
}

func (c *Container) initHandlers() {
	c.UnitHandler = unitHandler.NewUnitHandler(c.UnitService, c.Config.App.MaxImportItems)
	c.StatisticHandler = statisticHandler.NewStatisticHandler(c.StatisticService)
}

// Cleanup releases shared resources during graceful shutdown.
func (c *Container) Cleanup() {
	if c.DB != nil {
		c.DB.Close()
		log.Info().Msg("database connections closed")
	}
}
