// Package bootstrap wires the question answering stack from environment
// variables. The server, the worker and the chat console share it.
package bootstrap

import (
	"time"

	"github.com/OFFIS-RIT/animekg/backend/internal/queue"
	"github.com/OFFIS-RIT/animekg/backend/internal/util"
)

type Config struct {
	Neo4jURI            string
	Neo4jUser           string
	Neo4jPassword       string
	Neo4jDatabase       string
	Neo4jMaxPoolSize    int
	Neo4jAcquireTimeout time.Duration
	Neo4jConnectRetries int

	AIAdapter        string
	AIChatModel      string
	AIIntentModel    string
	AIChatURL        string
	AIChatKey        string
	AIParallel       int
	AIIntentTimeout  time.Duration
	AIAnswerTimeout  time.Duration
	IntentStructured bool
	TemplateFallback bool
	AIThinking       string

	DictDir      string
	DictS3Prefix string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	S3Bucket     string

	EvidenceCap int
	RowLimit    int

	DatabaseURL      string
	MigrationsDir    string
	RabbitMQURL      string
	HistoryRetention time.Duration

	MasterAPIKey string
	Port         string
	Debug        bool
}

// LoadConfig reads the configuration from the environment.
func LoadConfig() Config {
	return Config{
		Neo4jURI:            util.GetEnvString("NEO4J_URI", "neo4j://localhost:7687"),
		Neo4jUser:           util.GetEnvString("NEO4J_USER", "neo4j"),
		Neo4jPassword:       util.GetEnv("NEO4J_PASSWORD"),
		Neo4jDatabase:       util.GetEnv("NEO4J_DATABASE"),
		Neo4jMaxPoolSize:    util.GetEnvInt("NEO4J_MAX_POOL_SIZE", 50),
		Neo4jAcquireTimeout: util.GetEnvSeconds("NEO4J_ACQUIRE_TIMEOUT_SEC", 60),
		Neo4jConnectRetries: util.GetEnvInt("NEO4J_CONNECT_RETRIES", 5),

		AIAdapter:        util.GetEnvString("AI_ADAPTER", "openai"),
		AIChatModel:      util.GetEnvString("AI_CHAT_MODEL", "Qwen/Qwen2.5-7B-Instruct"),
		AIIntentModel:    util.GetEnv("AI_INTENT_MODEL"),
		AIChatURL:        util.GetEnvString("AI_CHAT_URL", "https://api.siliconflow.cn/v1"),
		AIChatKey:        util.GetEnv("AI_CHAT_KEY"),
		AIParallel:       util.GetEnvInt("AI_PARALLEL_REQ", 4),
		AIIntentTimeout:  util.GetEnvSeconds("AI_INTENT_TIMEOUT_SEC", 30),
		AIAnswerTimeout:  util.GetEnvSeconds("AI_ANSWER_TIMEOUT_SEC", 30),
		IntentStructured: util.GetEnvBool("AI_INTENT_STRUCTURED", false),
		TemplateFallback: util.GetEnvBool("ANSWER_TEMPLATE_FALLBACK", false),
		AIThinking:       util.GetEnv("AI_THINKING"),

		DictDir:      util.GetEnv("NER_DICT_DIR"),
		DictS3Prefix: util.GetEnv("NER_DICT_S3_PREFIX"),
		S3Region:     util.GetEnvString("AWS_REGION", "us-east-1"),
		S3Endpoint:   util.GetEnv("AWS_ENDPOINT_URL"),
		S3AccessKey:  util.GetEnv("AWS_ACCESS_KEY"),
		S3SecretKey:  util.GetEnv("AWS_SECRET_KEY"),
		S3Bucket:     util.GetEnv("AWS_BUCKET"),

		EvidenceCap: util.GetEnvInt("EVIDENCE_CAP", 30),
		RowLimit:    util.GetEnvInt("PLAN_ROW_LIMIT", 100),

		DatabaseURL:      util.GetEnv("DATABASE_URL"),
		MigrationsDir:    util.GetEnv("MIGRATIONS_DIR"),
		RabbitMQURL:      queue.URL(),
		HistoryRetention: time.Duration(util.GetEnvInt("HISTORY_RETENTION_DAYS", 0)) * 24 * time.Hour,

		MasterAPIKey: util.GetEnv("MASTER_API_KEY"),
		Port:         util.GetEnvString("PORT", "8080"),
		Debug:        util.GetEnvBool("DEBUG", false),
	}
}

// IntentModel is the model used for intent classification. It falls back to
// the chat model.
func (c Config) IntentModel() string {
	if c.AIIntentModel != "" {
		return c.AIIntentModel
	}
	return c.AIChatModel
}
