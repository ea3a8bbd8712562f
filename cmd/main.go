package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"advisor/internal/adapters/config"
	"advisor/internal/bootstrap"
	"advisor/internal/metrics"
	"advisor/internal/rag"
	"advisor/internal/workflow"
	"advisor/pkg/logger"
)

const usage = `Usage: advisor <command> [arguments]

Commands:
  analyze [-o file] <query>  run an analysis for one question
  ingest <domain> <path>   ingest a file or directory into a knowledge domain (stock|company)
  count <domain>           print the chunk count of a knowledge domain
  clear <domain>           remove every chunk from a knowledge domain
  serve                    expose the Prometheus /metrics endpoint
`

func main() {
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() < 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Init(cfg.App.LogLevel, cfg.App.Env); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	defer logger.Sync()

	log := logger.Get()

	if err := run(cfg, flag.Args()); err != nil {
		log.Errorf("Command failed: %v", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	command := args[0]

	if err := cfg.Validate(); err != nil {
		return err
	}

	container, err := bootstrap.NewContainer(ctx, cfg)
	if err != nil {
		return err
	}
	defer container.Close()

	log := logger.Get()
	log.Infof("Starting %s in %s mode (%s)", cfg.App.Name, cfg.App.Env, container.Describe())

	switch command {
	case "analyze":
		fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
		output := fs.String("o", "", "write the report to this file instead of the output directory")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if fs.NArg() < 1 {
			return fmt.Errorf("analyze requires a query")
		}
		return runAnalyze(ctx, container, cfg, strings.Join(fs.Args(), " "), *output)
	case "ingest":
		if len(args) < 3 {
			return fmt.Errorf("ingest requires a domain and a path")
		}
		return runIngest(ctx, container, args[1], args[2])
	case "count":
		if len(args) < 2 {
			return fmt.Errorf("count requires a domain")
		}
		return runCount(ctx, container, args[1])
	case "clear":
		if len(args) < 2 {
			return fmt.Errorf("clear requires a domain")
		}
		return runClear(ctx, container, args[1])
	case "serve":
		return runServe(ctx, cfg)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func runAnalyze(ctx context.Context, container *bootstrap.Container, cfg *config.Config, query, outputPath string) error {
	started := time.Now()

	state, err := container.Engine.Run(ctx, query)
	if err != nil {
		return err
	}

	fmt.Println(state.Answer)

	if state.Degraded() {
		fmt.Fprintf(os.Stderr, "\n部分分析环节失败：\n")
		for _, stageErr := range state.Errors {
			fmt.Fprintf(os.Stderr, "- [%s] %s\n", stageErr.Stage, stageErr.Message)
		}
	}

	var path string
	if outputPath != "" {
		path = outputPath
		err = os.WriteFile(outputPath, []byte(state.Answer), 0o644)
	} else {
		path, err = saveReport(cfg.App.OutputDir, state)
	}
	if err != nil {
		logger.Warnf("Failed to save report: %v", err)
	} else {
		logger.Infof("Report saved to %s (took %s)", path, time.Since(started).Round(time.Millisecond))
	}
	return nil
}

func runIngest(ctx context.Context, container *bootstrap.Container, domain, path string) error {
	retriever, err := selectRetriever(container, domain)
	if err != nil {
		return err
	}

	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", path, err)
	}

	var count int
	if info.IsDir() {
		count, err = retriever.IngestDirectory(ctx, path)
	} else {
		count, err = retriever.IngestFile(ctx, path)
	}
	if err != nil {
		return err
	}

	fmt.Printf("Ingested %d chunks into %s\n", count, domain)
	return nil
}

func runCount(ctx context.Context, container *bootstrap.Container, domain string) error {
	retriever, err := selectRetriever(container, domain)
	if err != nil {
		return err
	}

	count, err := retriever.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("%s: %d chunks\n", domain, count)
	return nil
}

func runClear(ctx context.Context, container *bootstrap.Container, domain string) error {
	retriever, err := selectRetriever(container, domain)
	if err != nil {
		return err
	}

	if err := retriever.Clear(ctx); err != nil {
		return err
	}

	fmt.Printf("Cleared %s knowledge\n", domain)
	return nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())

	server := &http.Server{
		Addr:              ":9090",
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Infof("Metrics listening on %s", server.Addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func selectRetriever(container *bootstrap.Container, domain string) (*rag.Retriever, error) {
	switch domain {
	case "stock":
		return container.StockKnowledge, nil
	case "company":
		return container.CompanyKnowledge, nil
	default:
		return nil, fmt.Errorf("unknown knowledge domain %q (want stock or company)", domain)
	}
}

// saveReport writes the final answer under the output directory. Stock
// analyses are named after the company; other runs fall back to the
// run id.
func saveReport(dir string, state *workflow.State) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	stamp := time.Now().Format("20060102_150405")
	var name string
	if state.StockName != "" && state.StockCode != "" {
		name = fmt.Sprintf("%s_%s_%s.md", sanitizeFilename(state.StockName), sanitizeFilename(state.StockCode), stamp)
	} else {
		name = fmt.Sprintf("report_%s_%s.md", stamp, state.ID.String()[:8])
	}
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, []byte(state.Answer), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// sanitizeFilename strips characters that are unsafe in file names.
func sanitizeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|', ' ':
			return '_'
		default:
			return r
		}
	}, s)
}
