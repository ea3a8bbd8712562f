package bootstrap

import (
	"context"
	"fmt"

	"advisor/internal/adapters/ai"
	"advisor/internal/adapters/config"
	"advisor/internal/adapters/embeddings"
	noopTracker "advisor/internal/adapters/errors/noop"
	"advisor/internal/adapters/marketdata"
	redisclient "advisor/internal/adapters/redis"
	"advisor/internal/agents"
	"advisor/internal/metrics"
	"advisor/internal/rag"
	"advisor/internal/rag/vectorstore"
	"advisor/internal/tools/stock"
	"advisor/internal/workflow"
	"advisor/pkg/errors"
	"advisor/pkg/logger"
)

// Container holds all application dependencies and their lifecycle.
// Components are organized in initialization order.
type Container struct {
	Config       *config.Config
	Log          *logger.Logger
	ErrorTracker errors.Tracker

	// Infrastructure
	Redis *redisclient.Client

	// AI layer
	ChatProvider ai.ChatProvider
	Embeddings   embeddings.Provider
	Runner       *agents.Runner

	// Data layer
	Market marketdata.Client

	// Knowledge layer
	StockKnowledge   *rag.Retriever
	CompanyKnowledge *rag.Retriever

	// Workflow
	Engine *workflow.Engine
}

// NewContainer builds the full dependency graph from configuration.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	c := &Container{
		Config:       cfg,
		Log:          logger.Get(),
		ErrorTracker: noopTracker.New(),
	}

	metrics.Register()

	if err := c.initInfrastructure(ctx); err != nil {
		return nil, err
	}
	if err := c.initAI(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initMarketData(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initKnowledge(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.initWorkflow(); err != nil {
		c.Close()
		return nil, err
	}

	c.Log.Infof("Container initialized: market=%s, model=%s", c.Market.Name(), cfg.AI.Model)
	return c, nil
}

func (c *Container) initInfrastructure(ctx context.Context) error {
	if !c.Config.Redis.Enabled() {
		return nil
	}

	client, err := redisclient.NewClient(c.Config.Redis)
	if err != nil {
		// Cache is an optimization, not a dependency.
		c.Log.Warnf("Redis unavailable, running without cache: %v", err)
		return nil
	}
	c.Redis = client
	return nil
}

func (c *Container) initAI() error {
	chat, err := ai.NewOpenAIChat(ai.OpenAIChatConfig{
		APIKey:       c.Config.AI.APIKey,
		BaseURL:      c.Config.AI.BaseURL,
		Timeout:      c.Config.AI.Timeout,
		ReqPerMinute: c.Config.AI.RateLimit,
	})
	if err != nil {
		return errors.Wrap(err, "init chat provider")
	}
	c.ChatProvider = chat

	provider, err := embeddings.NewProvider(embeddings.Config{
		Provider: embeddings.ProviderOpenAI,
		APIKey:   c.Config.AI.APIKey,
		BaseURL:  c.Config.AI.BaseURL,
		Model:    c.Config.RAG.EmbeddingModel,
		Timeout:  c.Config.AI.Timeout,
	})
	if err != nil {
		return errors.Wrap(err, "init embeddings provider")
	}
	c.Embeddings = provider

	c.Runner = agents.NewRunner(agents.RunnerConfig{
		Provider:            c.ChatProvider,
		Model:               c.Config.AI.Model,
		MaxIterations:       c.Config.Workflow.MaxIterations,
		MaxIterationsNoTool: c.Config.Workflow.MaxIterationsNoTool,
	})
	return nil
}

func (c *Container) initMarketData(ctx context.Context) error {
	// Counters sit directly over the feed so cached reads do not count
	// as upstream calls.
	var client marketdata.Client = marketdata.NewInstrumentedClient(marketdata.NewReferenceClient())

	if rpm := int(c.Config.MarketData.RateLimit * 60); rpm > 0 {
		client = marketdata.NewRateLimitedClient(client, rpm)
	}
	if c.Redis != nil {
		client = marketdata.NewCachedClient(client, c.Redis, c.Config.MarketData.CacheTTL, 0)
	}

	if err := client.Connect(ctx); err != nil {
		return errors.Wrap(err, "connect market data feed")
	}
	c.Market = client
	return nil
}

func (c *Container) initKnowledge() error {
	chunker := rag.NewChunker(c.Config.RAG.ChunkSize, c.Config.RAG.ChunkOverlap)

	stockStore, err := c.openStore("stock", c.Config.RAG.StockDBDir)
	if err != nil {
		return err
	}
	companyStore, err := c.openStore("company", c.Config.RAG.CompanyDBDir)
	if err != nil {
		return err
	}

	c.StockKnowledge = rag.NewRetriever(rag.RetrieverConfig{
		Domain:       "stock",
		Chunker:      chunker,
		Provider:     c.Embeddings,
		Store:        stockStore,
		TopK:         c.Config.RAG.TopK,
		KnowledgeDir: c.Config.RAG.StockKnowledgeDir,
	})
	c.CompanyKnowledge = rag.NewRetriever(rag.RetrieverConfig{
		Domain:       "company",
		Chunker:      chunker,
		Provider:     c.Embeddings,
		Store:        companyStore,
		TopK:         c.Config.RAG.TopK,
		KnowledgeDir: c.Config.RAG.CompanyKnowledgeDir,
	})

	metrics.RegisterIndexCollector(map[string]vectorstore.Store{
		"stock":   stockStore,
		"company": companyStore,
	})
	return nil
}

// openStore selects the vector store backend: pgvector when Postgres is
// configured, the embedded SQLite store otherwise.
func (c *Container) openStore(collection, dir string) (vectorstore.Store, error) {
	if c.Config.Postgres.Enabled() {
		store, err := vectorstore.NewPgVectorStore(c.Config.Postgres.DSN(), collection, c.Embeddings.Dimensions())
		if err != nil {
			return nil, errors.Wrapf(err, "open pgvector store %s", collection)
		}
		return store, nil
	}

	store, err := vectorstore.NewSQLiteStore(collection, dir)
	if err != nil {
		return nil, errors.Wrapf(err, "open sqlite store %s", collection)
	}
	return store, nil
}

func (c *Container) initWorkflow() error {
	handlers := workflow.NewHandlers(workflow.StageDeps{
		Runner:           c.Runner,
		StockDeps:        stock.Deps{Market: c.Market},
		StockKnowledge:   c.StockKnowledge,
		CompanyKnowledge: c.CompanyKnowledge,
		Metrics:          metrics.NewWorkflow(),
	})

	engine, err := workflow.NewEngine(handlers, c.Config.Workflow.StageTimeout, metrics.NewWorkflow())
	if err != nil {
		return errors.Wrap(err, "build workflow engine")
	}
	c.Engine = engine
	return nil
}

// Close releases every held resource in reverse initialization order.
func (c *Container) Close() {
	closers := []struct {
		name string
		fn   func() error
	}{
		{"company knowledge", closeIfSet(c.CompanyKnowledge)},
		{"stock knowledge", closeIfSet(c.StockKnowledge)},
		{"market data", func() error {
			if c.Market == nil {
				return nil
			}
			return c.Market.Close()
		}},
		{"redis", func() error {
			if c.Redis == nil {
				return nil
			}
			return c.Redis.Close()
		}},
	}

	for _, closer := range closers {
		if err := closer.fn(); err != nil {
			c.Log.Warnf("Close %s: %v", closer.name, err)
		}
	}
}

func closeIfSet(r *rag.Retriever) func() error {
	return func() error {
		if r == nil {
			return nil
		}
		return r.Close()
	}
}

// Describe returns a short startup summary for logs.
func (c *Container) Describe() string {
	backend := "sqlite"
	if c.Config.Postgres.Enabled() {
		backend = "pgvector"
	}
	cache := "off"
	if c.Redis != nil {
		cache = "redis"
	}
	return fmt.Sprintf("vector=%s cache=%s market=%s", backend, cache, c.Market.Name())
}
