package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"time"

	"b3-stock-qa/internal/knowledge/ingest"
	"b3-stock-qa/internal/knowledge/kb"
	"b3-stock-qa/internal/knowledge/resolver"
	"b3-stock-qa/internal/knowledge/schema"
	"b3-stock-qa/internal/qa/config"
	delivery "b3-stock-qa/internal/qa/delivery/http"
	"b3-stock-qa/internal/qa/repository"
	"b3-stock-qa/internal/qa/service"
	"b3-stock-qa/pkg/logger"

	"github.com/fatih/color"
	"github.com/labstack/echo/v4"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
	"github.com/spf13/cobra"
)

var (
	configPath string
	tableMode  bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the question-answering service",
	Run:   runServe,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answers a single question and exits",
	Args:  cobra.ExactArgs(1),
	Run:   runAsk,
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Builds the knowledge base and prints graph statistics",
	Run:   runStats,
}

// bootstrap loads configuration, builds the logger and constructs a ready
// knowledge base. Fatal on any error; no command can run without the graph.
func bootstrap() (*config.Config, *logger.Logger, *kb.KnowledgeBase, *resolver.Resolver) {
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	sch, err := schema.Load(cfg.Knowledge.SchemaPath)
	if err != nil {
		appLogger.Fatal("Failed to load schema", logger.ErrorField(err))
	}

	res, err := resolver.New(resolver.Options{
		AliasMapPath:  cfg.Knowledge.AliasMapPath,
		StrictTickers: cfg.Knowledge.StrictTickers,
	}, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize entity resolver", logger.ErrorField(err))
	}

	companySources := make([]ingest.CompanySource, 0, len(cfg.Knowledge.CompanySources))
	for _, path := range cfg.Knowledge.CompanySources {
		companySources = append(companySources, &ingest.CSVCompanySource{Path: path})
	}
	tradingSources := make([]ingest.TradingSource, 0, len(cfg.Knowledge.TradingSources))
	for _, path := range cfg.Knowledge.TradingSources {
		tradingSources = append(tradingSources, &ingest.CSVTradingSource{Path: path, Columns: cfg.Knowledge.TradingColumns})
	}

	base := kb.New(sch, res, appLogger)
	if err := base.Initialize(companySources, tradingSources); err != nil {
		appLogger.Fatal("Failed to build knowledge base", logger.ErrorField(err))
	}

	return cfg, appLogger, base, res
}

func newQuestionService(cfg *config.Config, appLogger *logger.Logger, base *kb.KnowledgeBase, res *resolver.Resolver) service.QuestionService {
	intentRepo := repository.NewSubprocessIntentRepository(cfg.NLU, appLogger)
	templateRepo := repository.NewFileTemplateRepository(cfg.Knowledge.TemplatesDir, appLogger)
	builder := service.NewQueryBuilder(res, base.Schema(), appLogger)
	return service.NewQuestionService(intentRepo, templateRepo, builder, base, appLogger)
}

func runServe(cmd *cobra.Command, args []string) {
	// Create a context that is canceled on interrupt signals
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger, base, res := bootstrap()
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting QA Service", logger.Field("name", cfg.App.Name))

	questionSvc := newQuestionService(cfg, appLogger, base, res)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	questionHandler := delivery.NewQuestionHandler(questionSvc, base, appLogger)
	apiV1 := e.Group("/api/v1")
	questionHandler.RegisterRoutes(apiV1)
	questionHandler.RegisterHealth(e)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Server exiting")
}

func runAsk(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, appLogger, base, res := bootstrap()
	defer func() { _ = appLogger.Sync() }()

	questionSvc := newQuestionService(cfg, appLogger, base, res)

	answer, err := questionSvc.Answer(ctx, args[0])
	if err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}

	if tableMode {
		printAnswerTable(args[0], answer)
		return
	}
	fmt.Println(answer)
}

func runStats(cmd *cobra.Command, args []string) {
	_, appLogger, base, _ := bootstrap()
	defer func() { _ = appLogger.Sync() }()

	stats := base.Stats()

	color.Cyan("Knowledge base statistics")
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Class", "Entities"})

	classes := make([]string, 0, len(stats.ClassCounts))
	for class := range stats.ClassCounts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		table.Append([]string{class, fmt.Sprintf("%d", stats.ClassCounts[class])})
	}
	table.Render()

	fmt.Printf("\nBase facts: %d\nTotal facts (with inferred): %d\n", stats.BaseFacts, stats.TotalFacts)
	fmt.Printf("Rows processed: %d, skipped: %d, errors: %d\n",
		stats.IngestReport.Processed, stats.IngestReport.Skipped, stats.IngestReport.Errors)
}

func printAnswerTable(question, answer string) {
	table := tablewriter.NewTable(os.Stdout,
		tablewriter.WithRenderer(renderer.NewMarkdown()),
		tablewriter.WithHeaderAutoFormat(tw.Off),
	)
	table.Header([]string{"Question", "Answer"})
	table.Append([]string{question, answer})
	table.Render()
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "qa-service",
		Short: "A question-answering service over stock trading data",
	}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	askCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")
	askCmd.Flags().BoolVar(&tableMode, "table", false, "Render the answer as a table")
	statsCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd, askCmd, statsCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing qa-service CLI: %s\n", err)
		os.Exit(1)
	}
}
