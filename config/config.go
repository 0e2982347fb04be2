package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/korjavin/docquizbot/quiz"
)

// Model backends
const (
	BackendHuggingFace = "huggingface"
	BackendDeepseek    = "deepseek"
)

const defaultHFModel = "mrm8488/t5-base-finetuned-question-generation-ap"

// Config holds all the configuration for the application
type Config struct {
	BotToken string
	Debug    bool
	LogMode  string

	ModelBackend   string
	HFAPIToken     string
	HFModel        string
	DeepseekAPIKey string
	ModelTimeout   time.Duration

	DatabasePath string
	HealthAddr   string

	WorkerConcurrency int
	WorkerQueue       int
	MaxFileBytes      int64

	Limits quiz.Limits
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	botToken := os.Getenv("BOT_TOKEN")
	if botToken == "" {
		return nil, errors.New("BOT_TOKEN environment variable is required")
	}

	cfg := &Config{
		BotToken:          botToken,
		Debug:             os.Getenv("DEBUG") == "true",
		LogMode:           envOr("LOG_MODE", "development"),
		ModelBackend:      strings.ToLower(envOr("MODEL_BACKEND", BackendHuggingFace)),
		HFAPIToken:        os.Getenv("HF_API_TOKEN"),
		HFModel:           envOr("HF_MODEL", defaultHFModel),
		DeepseekAPIKey:    os.Getenv("DEEPSEEK_API_KEY"),
		ModelTimeout:      time.Duration(envInt("MODEL_TIMEOUT_SEC", 60)) * time.Second,
		DatabasePath:      envOr("DB_PATH", "./data/quizbot.db"),
		HealthAddr:        os.Getenv("HEALTH_ADDR"),
		WorkerConcurrency: envInt("WORKER_CONCURRENCY", 4),
		WorkerQueue:       envInt("WORKER_QUEUE", 64),
		MaxFileBytes:      int64(envInt("MAX_FILE_BYTES", 20*1024*1024)),
	}

	switch cfg.ModelBackend {
	case BackendHuggingFace:
		if cfg.HFAPIToken == "" {
			return nil, errors.New("HF_API_TOKEN environment variable is required")
		}
	case BackendDeepseek:
		if cfg.DeepseekAPIKey == "" {
			return nil, errors.New("DEEPSEEK_API_KEY environment variable is required")
		}
	default:
		return nil, fmt.Errorf("unknown MODEL_BACKEND %q", cfg.ModelBackend)
	}

	def := quiz.DefaultLimits()
	cfg.Limits = quiz.Limits{
		MaxQuestionsPerFile: envInt("MAX_QUESTIONS_PER_FILE", def.MaxQuestionsPerFile),
		MinQuestions:        envInt("MIN_QUESTIONS", def.MinQuestions),
		QuestionsPerBatch:   envInt("QUESTIONS_PER_BATCH", def.QuestionsPerBatch),
		MaxFilesPerHour:     envInt("MAX_FILES_PER_HOUR", def.MaxFilesPerHour),
		MaxFilesPerDay:      envInt("MAX_FILES_PER_DAY", def.MaxFilesPerDay),
		ChunkWords:          envInt("CHUNK_WORDS", def.ChunkWords),
	}
	if err := cfg.Limits.Validate(); err != nil {
		return nil, fmt.Errorf("invalid limits: %w", err)
	}

	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}
	if cfg.WorkerQueue < 1 {
		cfg.WorkerQueue = 1
	}

	return cfg, nil
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
