package container

import (
	"context"
	"fmt"

	"veritas/adapters/excel"
	"veritas/adapters/learners"
	"veritas/adapters/postgres"
	"veritas/adapters/rng"
	"veritas/internal"
	"veritas/internal/config"
	"veritas/internal/dataset"
	"veritas/internal/harness"
	"veritas/internal/migration"
	"veritas/ports"

	"github.com/jmoiron/sqlx"
)

// Container holds all application dependencies and manages their lifecycle
type Container struct {
	Config *config.Config
	Logger *internal.Logger

	// Infrastructure
	DB *sqlx.DB

	// Input
	Reader ports.TableReader
	Loader *dataset.Loader

	// Harness
	RNG        ports.RNGPort
	Classifier *harness.Classifier
	Aggregator *harness.Aggregator
	Comparator *harness.Comparator

	// Output
	Workbook *excel.WorkbookWriter
	Results  ports.ResultRepository
}

// New creates a container with every component that needs no database
func New(cfg *config.Config, logger *internal.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if logger == nil {
		logger = internal.NewLogger(internal.ParseLogLevel(cfg.Log.Level), cfg.Log.Format)
	}

	c := &Container{
		Config: cfg,
		Logger: logger,
	}
	c.initInput()
	c.initHarness()
	c.Workbook = excel.NewWorkbookWriter(excel.DefaultWorkbookConfig())
	return c, nil
}

func (c *Container) initInput() {
	c.Reader = excel.NewTableReader(c.Logger)
	c.Loader = dataset.NewLoader(c.Reader, c.Logger)
}

func (c *Container) initHarness() {
	inner := harness.InnerConfig{
		Rounds:   c.Config.Harness.InnerRounds,
		Fraction: c.Config.Harness.InnerFraction,
	}
	c.RNG = rng.NewSeededAdapter()
	c.Classifier = harness.NewClassifier(learners.For, inner, c.Logger)
	c.Aggregator = harness.NewAggregator(c.Classifier, c.RNG, c.Logger)
	c.Comparator = harness.NewComparator()
}

// RunConfig returns the harness settings from configuration
func (c *Container) RunConfig() harness.RunConfig {
	h := c.Config.Harness
	cfg := harness.RunConfig{
		Rounds:        h.Rounds,
		TrainFraction: h.TrainFraction,
		BaseSeed:      h.Seed,
		Policy:        harness.SkipAndContinue,
		Workers:       h.Workers,
	}
	if h.FailFast {
		cfg.Policy = harness.FailFast
	}
	return cfg
}

// InitWithDatabase migrates the schema and wires the result repository
func (c *Container) InitWithDatabase(ctx context.Context, db *sqlx.DB) error {
	if db == nil {
		return fmt.Errorf("database connection cannot be nil")
	}

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database connection test failed: %w", err)
	}

	runner := migration.NewRunner()
	if err := runner.Run(ctx, db); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	c.DB = db
	c.Results = postgres.NewResultRepository(db)
	c.Logger.Info("container initialized with database (schema %s)", runner.Version())
	return nil
}

// Close releases the database connection, if any
func (c *Container) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}
