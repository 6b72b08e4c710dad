package bootstrap

import (
	"context"
	"fmt"

	"github.com/OFFIS-RIT/animekg/backend/internal/queue"
	"github.com/OFFIS-RIT/animekg/backend/internal/storage"
	"github.com/OFFIS-RIT/animekg/backend/pkg/ai"
	oai "github.com/OFFIS-RIT/animekg/backend/pkg/ai/ollama"
	gai "github.com/OFFIS-RIT/animekg/backend/pkg/ai/openai"
	"github.com/OFFIS-RIT/animekg/backend/pkg/history"
	"github.com/OFFIS-RIT/animekg/backend/pkg/intent"
	"github.com/OFFIS-RIT/animekg/backend/pkg/logger"
	"github.com/OFFIS-RIT/animekg/backend/pkg/ner"
	"github.com/OFFIS-RIT/animekg/backend/pkg/query"
	"github.com/OFFIS-RIT/animekg/backend/pkg/schema"
	"github.com/OFFIS-RIT/animekg/backend/pkg/store/neo4j"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rabbitmq/amqp091-go"
)

// Stack is the assembled question answering pipeline and its optional
// history backends.
type Stack struct {
	Graph    *neo4j.Client
	Resolver *ner.Resolver
	AI       ai.GraphAIClient
	QA       *query.Service

	DB       *pgxpool.Pool
	History  *history.Store
	Recorder history.Recorder

	amqpConn *amqp091.Connection
	amqpCh   *amqp091.Channel
	direct   *history.DirectRecorder
}

// NewAIClient picks the model adapter. Without credentials the result is
// nil and callers run without a model.
func NewAIClient(cfg Config) (ai.GraphAIClient, error) {
	switch cfg.AIAdapter {
	case "ollama":
		client, err := oai.NewGraphOllamaClient(oai.NewGraphOllamaClientParams{
			ChatModel:             cfg.AIChatModel,
			IntentModel:           cfg.AIIntentModel,
			BaseURL:               cfg.AIChatURL,
			ApiKey:                cfg.AIChatKey,
			MaxConcurrentRequests: int64(cfg.AIParallel),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return client, nil
	default:
		client := gai.NewGraphOpenAIClient(gai.NewGraphOpenAIClientParams{
			ChatModel:   cfg.AIChatModel,
			IntentModel: cfg.AIIntentModel,
			ChatURL:     cfg.AIChatURL,
			ChatKey:     cfg.AIChatKey,
		})
		if client == nil {
			return nil, nil
		}
		return client, nil
	}
}

// NewLoader picks the dictionary source: a local directory, an S3 prefix,
// or the graph itself.
func NewLoader(ctx context.Context, cfg Config, catalog *neo4j.Client) (ner.Loader, error) {
	switch {
	case cfg.DictDir != "":
		return ner.DirLoader{Dir: cfg.DictDir}, nil
	case cfg.DictS3Prefix != "":
		bucket, err := storage.NewBucket(ctx, storage.BucketParams{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
		})
		if err != nil {
			return nil, err
		}
		return ner.BucketLoader{Store: bucket, Prefix: cfg.DictS3Prefix}, nil
	default:
		return ner.GraphLoader{Catalog: catalog}, nil
	}
}

// Build connects to the graph, loads the dictionaries and assembles the
// pipeline. History is attached when withHistory is set and DATABASE_URL or
// RabbitMQ is configured.
func Build(ctx context.Context, cfg Config, withHistory bool) (*Stack, error) {
	graph, err := neo4j.NewClient(ctx, neo4j.ClientParams{
		URI:                   cfg.Neo4jURI,
		Username:              cfg.Neo4jUser,
		Password:              cfg.Neo4jPassword,
		Database:              cfg.Neo4jDatabase,
		MaxConnectionPoolSize: cfg.Neo4jMaxPoolSize,
		AcquisitionTimeout:    cfg.Neo4jAcquireTimeout,
		ConnectRetries:        cfg.Neo4jConnectRetries,
	})
	if err != nil {
		return nil, err
	}
	s := &Stack{Graph: graph, Recorder: history.Noop()}

	loader, err := NewLoader(ctx, cfg, graph)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	s.Resolver = ner.NewResolver(loader)
	if _, err := s.Resolver.Reload(ctx); err != nil {
		logger.Warn("Starting with empty entity dictionaries", "err", err)
	}

	s.AI, err = NewAIClient(cfg)
	if err != nil {
		s.Close(ctx)
		return nil, err
	}
	if s.AI == nil {
		logger.Warn("No model configured, answers fall back to templates or refusals")
	} else {
		loadCtx, cancel := context.WithTimeout(ctx, cfg.AIAnswerTimeout)
		if err := s.AI.LoadModel(loadCtx); err != nil {
			logger.Warn("Failed to preload model", "err", err)
		}
		cancel()
	}

	sch := schema.Default()
	s.QA = query.NewService(query.ServiceParams{
		Resolver: s.Resolver,
		Classifier: intent.NewClassifier(intent.ClassifierParams{
			Client:     s.AI,
			Schema:     sch,
			Timeout:    cfg.AIIntentTimeout,
			Structured: cfg.IntentStructured,
			Model:      cfg.IntentModel(),
		}),
		Store: graph,
		Synthesizer: query.NewSynthesizer(query.SynthesizerParams{
			Client:           s.AI,
			Timeout:          cfg.AIAnswerTimeout,
			TemplateFallback: cfg.TemplateFallback,
			Thinking:         cfg.AIThinking,
		}),
		Schema:      sch,
		EvidenceCap: cfg.EvidenceCap,
		RowLimit:    cfg.RowLimit,
	})

	if withHistory {
		if err := s.attachHistory(ctx, cfg); err != nil {
			logger.Error("History disabled", "err", err)
		}
	}
	return s, nil
}

func (s *Stack) attachHistory(ctx context.Context, cfg Config) error {
	if cfg.DatabaseURL != "" {
		pool, store, err := OpenHistory(ctx, cfg)
		if err != nil {
			return err
		}
		s.DB, s.History = pool, store
	}

	switch {
	case cfg.RabbitMQURL != "":
		conn, err := queue.Dial(cfg.RabbitMQURL)
		if err != nil {
			return err
		}
		ch, err := conn.Channel()
		if err != nil {
			_ = conn.Close()
			return fmt.Errorf("failed to open channel: %w", err)
		}
		if err := queue.SetupQueues(ch, []string{queue.HistoryQueue}); err != nil {
			_ = ch.Close()
			_ = conn.Close()
			return err
		}
		s.amqpConn, s.amqpCh = conn, ch
		s.Recorder = history.NewQueueRecorder(queue.NewHistoryPublisher(ch))
		logger.Info("History recording through queue", "queue", queue.HistoryQueue)
	case s.History != nil:
		s.direct = history.NewDirectRecorder(s.History, 3)
		s.Recorder = s.direct
		logger.Info("History recording directly to database")
	}
	return nil
}

// OpenHistory applies the history migrations and connects a pool.
func OpenHistory(ctx context.Context, cfg Config) (*pgxpool.Pool, *history.Store, error) {
	if err := history.Migrate(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		return nil, nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return pool, history.NewStore(pool), nil
}

// Close releases every connection held by the stack. Pending direct history
// writes are flushed first.
func (s *Stack) Close(ctx context.Context) {
	if s.direct != nil {
		s.direct.Wait()
	}
	if s.amqpCh != nil {
		_ = s.amqpCh.Close()
	}
	if s.amqpConn != nil {
		_ = s.amqpConn.Close()
	}
	if s.DB != nil {
		s.DB.Close()
	}
	if s.Graph != nil {
		if err := s.Graph.Close(ctx); err != nil {
			logger.Warn("Failed to close graph driver", "err", err)
		}
	}
}
