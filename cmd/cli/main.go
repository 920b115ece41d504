package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"veritas/domain/core"
	"veritas/domain/model"
	"veritas/domain/statement"
	"veritas/internal/config"
	"veritas/internal/container"
	"veritas/internal/dataset"
	"veritas/internal/experiment"
	"veritas/internal/preprocess"
	"veritas/internal/report"
	"veritas/internal/testkit"
	"veritas/ports"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "veritas",
		Short:         "Repeated evaluation harness for truth/lie statement classifiers",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEvaluateCmd(),
		newDemoCmd(),
		newPreprocessCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// harnessFlags are shared by evaluate and demo
type harnessFlags struct {
	families      string
	rounds        int
	trainFraction float64
	seed          int64
	workers       int
	failFast      bool
	out           string
	store         bool
	noClean       bool
}

func (f *harnessFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.families, "family", "all", "Classifier families: all or a comma list of logistic|svm|nnet")
	cmd.Flags().IntVar(&f.rounds, "rounds", 10, "Number of repeated train/test rounds")
	cmd.Flags().Float64Var(&f.trainFraction, "train-fraction", 0.75, "Share of statements in each training split")
	cmd.Flags().Int64Var(&f.seed, "seed", 42, "Base seed for deterministic operations")
	cmd.Flags().IntVar(&f.workers, "workers", 1, "Rounds evaluated in parallel")
	cmd.Flags().BoolVar(&f.failFast, "fail-fast", false, "Abort the run at the first failed round")
	cmd.Flags().StringVar(&f.out, "out", "", "Output directory (default VERITAS_OUTPUT_DIR or ./out)")
	cmd.Flags().BoolVar(&f.store, "store", false, "Persist runs to the database at DATABASE_URL")
	cmd.Flags().BoolVar(&f.noClean, "no-clean", false, "Skip skew correction, filtering and scaling")
}

// apply overrides configuration values with the flags the user set
func (f *harnessFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("rounds") {
		cfg.Harness.Rounds = f.rounds
	}
	if flags.Changed("train-fraction") {
		cfg.Harness.TrainFraction = f.trainFraction
	}
	if flags.Changed("seed") {
		cfg.Harness.Seed = f.seed
	}
	if flags.Changed("workers") {
		cfg.Harness.Workers = f.workers
	}
	if flags.Changed("fail-fast") {
		cfg.Harness.FailFast = f.failFast
	}
	if f.out != "" {
		cfg.Output.Dir = f.out
	}
	return cfg.Validate()
}

func newEvaluateCmd() *cobra.Command {
	var flags harnessFlags
	var statementsPath, humanPath string
	var featurePaths []string

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate classifier families on a statement corpus",
		Long: `Load the statement, feature and human-prediction tables, clean the features,
run repeated train/test rounds for each family (hybrid and non-hybrid),
compare the variants and write CSV, XLSX, Markdown and HTML outputs.

Example:
  veritas evaluate --statements statements.csv --features liwc.xlsx --features sentiment.csv \
    --human human.csv --family svm,nnet --rounds 10 --seed 42 --out ./out`,
		RunE: func(cmd *cobra.Command, args []string) error {
			req := dataset.LoadRequest{Statements: statementsPath, Features: featurePaths, Human: humanPath}
			return runEvaluate(cmd, &flags, func(ctx context.Context, c *container.Container) (*statement.Dataset, error) {
				ds, stats, err := c.Loader.Load(ctx, req)
				if err != nil {
					return nil, err
				}
				fmt.Printf("📥 Loaded %d statements (%d dropped for missing features, %d with human predictions)\n",
					stats.Statements, stats.MissingFeatures, stats.HumanPredictions)
				return ds, nil
			})
		},
	}

	cmd.Flags().StringVar(&statementsPath, "statements", "", "Statements table with id and label columns (CSV or XLSX)")
	cmd.Flags().StringSliceVar(&featurePaths, "features", nil, "Feature tables keyed by id (repeatable)")
	cmd.Flags().StringVar(&humanPath, "human", "", "Human prediction table with id and prediction columns")
	_ = cmd.MarkFlagRequired("statements")
	_ = cmd.MarkFlagRequired("features")
	flags.register(cmd)
	return cmd
}

func newDemoCmd() *cobra.Command {
	var flags harnessFlags
	corpus := testkit.DefaultCorpusConfig()

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the evaluation on a synthetic corpus",
		Long: `Generate a seeded synthetic statement corpus and evaluate it exactly like
'veritas evaluate' would.

Example: veritas demo --statements 400 --family logistic --rounds 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEvaluate(cmd, &flags, func(ctx context.Context, c *container.Container) (*statement.Dataset, error) {
				ds, err := testkit.NewCorpusGenerator(corpus).Generate()
				if err != nil {
					return nil, err
				}
				fmt.Printf("🧪 Generated %s\n", ds.Describe())
				return ds, nil
			})
		},
	}

	cmd.Flags().IntVar(&corpus.Statements, "statements", corpus.Statements, "Number of synthetic statements")
	cmd.Flags().Float64Var(&corpus.Signal, "signal", corpus.Signal, "Separation of truth and lie features in sd units")
	cmd.Flags().Float64Var(&corpus.HumanAccuracy, "human-accuracy", corpus.HumanAccuracy, "Accuracy of the synthetic human rater")
	cmd.Flags().Float64Var(&corpus.HybridShare, "hybrid-share", corpus.HybridShare, "Share of statements with a human prediction")
	cmd.Flags().Int64Var(&corpus.Seed, "corpus-seed", corpus.Seed, "Seed of the corpus generator")
	flags.register(cmd)
	return cmd
}

func newPreprocessCmd() *cobra.Command {
	var statementsPath, humanPath string
	var featurePaths []string

	cmd := &cobra.Command{
		Use:   "preprocess",
		Short: "Fit the cleaning pipeline and print it as JSON",
		Long: `Load the corpus tables, fit skew correction, near-zero-variance and
collinearity filters, and print which columns were kept, transformed or dropped.

Example: veritas preprocess --statements statements.csv --features features.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			c, err := container.New(cfg, nil)
			if err != nil {
				return err
			}
			defer c.Logger.Sync()

			ds, stats, err := c.Loader.Load(cmd.Context(), dataset.LoadRequest{
				Statements: statementsPath, Features: featurePaths, Human: humanPath,
			})
			if err != nil {
				return err
			}
			pipeline, err := preprocess.Fit(ds, preprocess.OptionsFromConfig(cfg.Clean))
			if err != nil {
				return err
			}

			out := map[string]interface{}{
				"load":     stats,
				"pipeline": pipeline,
			}
			data, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			return nil
		},
	}

	cmd.Flags().StringVar(&statementsPath, "statements", "", "Statements table with id and label columns")
	cmd.Flags().StringSliceVar(&featurePaths, "features", nil, "Feature tables keyed by id (repeatable)")
	cmd.Flags().StringVar(&humanPath, "human", "", "Human prediction table")
	_ = cmd.MarkFlagRequired("statements")
	_ = cmd.MarkFlagRequired("features")
	return cmd
}

type corpusSource func(ctx context.Context, c *container.Container) (*statement.Dataset, error)

func runEvaluate(cmd *cobra.Command, flags *harnessFlags, source corpusSource) error {
	ctx := cmd.Context()
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := flags.apply(cmd, cfg); err != nil {
		return err
	}
	families, err := parseFamilies(flags.families)
	if err != nil {
		return err
	}

	c, err := container.New(cfg, nil)
	if err != nil {
		return err
	}
	defer c.Logger.Sync()
	defer c.Close()

	if flags.store {
		if err := connectStore(ctx, c); err != nil {
			return err
		}
	}

	ds, err := source(ctx, c)
	if err != nil {
		return err
	}

	req := experiment.Request{
		Families:  families,
		Run:       c.RunConfig(),
		Clean:     preprocess.OptionsFromConfig(cfg.Clean),
		SkipClean: flags.noClean,
	}

	fmt.Printf("🔬 Evaluating %s over %d rounds (train %.2f, seed %d)...\n",
		flags.families, req.Run.Rounds, req.Run.TrainFraction, req.Run.BaseSeed)
	start := time.Now()
	runner := experiment.NewRunner(c.Aggregator, c.Comparator, c.Logger)
	outcome, runErr := runner.Run(ctx, ds, req)
	if outcome == nil || len(outcome.Results) == 0 {
		return runErr
	}
	fmt.Printf("Finished in %v on %d hybrid-annotated statements\n", time.Since(start).Round(time.Millisecond), outcome.Hybrid)

	printOutcome(outcome)

	header := report.Header{Title: "Evaluation report", Fingerprint: outcome.Fingerprint, BaseSeed: req.Run.BaseSeed}
	paths, err := experiment.NewWriter(cfg.Output.Dir, c.Workbook).Write(header, outcome)
	if err != nil {
		return err
	}
	fmt.Printf("\n💾 Outputs:\n")
	for _, p := range paths {
		fmt.Printf("• %s\n", p)
	}

	if c.Results != nil {
		if err := storeOutcome(ctx, c.Results, outcome, req); err != nil {
			return err
		}
	}
	return runErr
}

func parseFamilies(s string) ([]model.Family, error) {
	if strings.EqualFold(strings.TrimSpace(s), "all") {
		return []model.Family{model.DefaultLogistic(), model.DefaultSVMRadial(), model.DefaultNeuralNet()}, nil
	}
	var families []model.Family
	for _, part := range strings.Split(s, ",") {
		kind, err := model.ParseKind(part)
		if err != nil {
			return nil, err
		}
		family, err := model.Default(kind)
		if err != nil {
			return nil, err
		}
		families = append(families, family)
	}
	return families, nil
}

func connectStore(ctx context.Context, c *container.Container) error {
	if c.Config.Database.URL == "" {
		return core.NewConfigurationError("DATABASE_URL", "is required with --store")
	}
	db, err := sqlx.ConnectContext(ctx, "postgres", c.Config.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := c.InitWithDatabase(ctx, db); err != nil {
		db.Close()
		return err
	}
	return nil
}

func storeOutcome(ctx context.Context, repo ports.ResultRepository, outcome *experiment.Outcome, req experiment.Request) error {
	fmt.Printf("\n🗄️  Stored runs:\n")
	for _, res := range outcome.Results {
		run := &ports.RunRecord{
			ID:            core.NewRunID(),
			Family:        res.Table.Family,
			Fingerprint:   outcome.Fingerprint,
			TrainFraction: req.Run.TrainFraction,
			BaseSeed:      req.Run.BaseSeed,
			Table:         res.Table,
			Comparison:    res.Comparison,
		}
		if err := repo.SaveRun(ctx, run); err != nil {
			return err
		}
		fmt.Printf("• %s: %s\n", run.Family, run.ID)
	}
	return nil
}

func printOutcome(outcome *experiment.Outcome) {
	if p := outcome.Pipeline; p != nil {
		fmt.Printf("\n🧹 Cleaning kept %d of %d features\n", len(p.Columns), len(p.Input))
		for _, d := range p.Dropped {
			fmt.Printf("   🚫 %s (%s)\n", d.Name, d.Reason)
		}
	}

	for _, res := range outcome.Results {
		fmt.Printf("\n📊 %s: %d rows, %d failed rounds\n", res.Table.Family, len(res.Table.Rows), len(res.Table.Failures))
		for _, s := range report.Summarize(res.Table) {
			fmt.Printf("   %-10s accuracy %.4f ± %.4f over %d rounds\n", s.Variant, s.Accuracy.Mean, s.Accuracy.SD, s.Rounds)
		}
		if c := res.Comparison; c != nil {
			fmt.Printf("   pairs %d, hybrid wins %d, ties %d\n", c.EffectiveN, c.HybridWins, c.Ties)
			fmt.Printf("   prop.test p=%.4g  sign p=%.4g  wilcoxon p=%.4g\n", c.TwoProportion.PValue, c.Sign.PValue, c.Wilcoxon.PValue)
		}
		for _, f := range res.Table.Failures {
			fmt.Printf("   ⚠️  round %d: %s\n", f.Round, f.Error)
		}
	}
}
