package configs

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

// HTTPConfig - адрес HTTP API
type HTTPConfig struct {
	Addr         string
	WriteTimeout time.Duration
}

// LogConfig - уровень и формат логов
type LogConfig struct {
	Level  string
	Pretty bool
}

// RabbitMQConfig хранит конфигурацию для RabbitMQ. Пустой URL отключает воркер.
type RabbitMQConfig struct {
	URL           string
	PrefetchCount int
}

// DBconfig хранит конфигурацию для БД. Пустой URL - только встроенный справочник.
type DBconfig struct {
	URL      string
	MaxConns int
}

// LiveConfig - настройки живого извлечения
type LiveConfig struct {
	URL                string
	PageTimeout        time.Duration
	InteractionTimeout time.Duration
	ResultsTimeout     time.Duration
	Headless           bool
}

// SyntheticConfig - объем синтетической выборки
type SyntheticConfig struct {
	MinRecords int
	MaxRecords int
	HighVolume bool
	Seed       uint64 // 0 - случайный
}

// CatalogConfig - синхронизация справочника районов
type CatalogConfig struct {
	SourceURL    string
	ItemSelector string
	SyncOnStart  bool
	SyncCities   []string
	SyncInterval time.Duration
	RandomDelay  time.Duration
}

// AppConfig хранит всю конфигурацию приложения
type AppConfig struct {
	HTTP      HTTPConfig
	Log       LogConfig
	Database  DBconfig
	RabbitMQ  RabbitMQConfig
	Live      LiveConfig
	Synthetic SyntheticConfig
	Catalog   CatalogConfig
}

// LoadConfig загружает конфигурацию из переменных окружения.
// Файл .env необязателен: переменные окружения имеют приоритет над ним.
func LoadConfig(envPath ...string) (*AppConfig, error) {
	var err error
	if len(envPath) > 0 {
		err = godotenv.Load(envPath...)
	} else {
		err = godotenv.Load()
	}
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("could not load .env file (path: %v): %w", envPath, err)
		}
		log.Debug().Strs("path", envPath).Msg("No .env file, using process environment")
	}

	cfg := &AppConfig{
		HTTP: HTTPConfig{
			Addr:         getEnvAsString("HTTP_ADDR", ":8080"),
			WriteTimeout: getEnvAsDuration("HTTP_WRITE_TIMEOUT", 3*time.Minute),
		},
		Log: LogConfig{
			Level:  getEnvAsString("LOG_LEVEL", "info"),
			Pretty: getEnvAsBool("LOG_PRETTY", false),
		},
		Database: DBconfig{
			URL:      os.Getenv("DATABASE_URL"),
			MaxConns: getEnvAsInt("DATABASE_MAX_CONNS", 5),
		},
		RabbitMQ: RabbitMQConfig{
			URL:           os.Getenv("RABBITMQ_URL"),
			PrefetchCount: getEnvAsInt("RABBITMQ_PREFETCH", 2),
		},
		Live: LiveConfig{
			URL:                getEnvAsString("NADLAN_URL", "https://www.nadlan.gov.il/"),
			PageTimeout:        getEnvAsDuration("LIVE_PAGE_TIMEOUT", 60*time.Second),
			InteractionTimeout: getEnvAsDuration("LIVE_INTERACTION_TIMEOUT", 15*time.Second),
			ResultsTimeout:     getEnvAsDuration("LIVE_RESULTS_TIMEOUT", 45*time.Second),
			Headless:           getEnvAsBool("LIVE_HEADLESS", true),
		},
		Synthetic: SyntheticConfig{
			MinRecords: getEnvAsInt("SYNTHETIC_MIN_RECORDS", 50),
			MaxRecords: getEnvAsInt("SYNTHETIC_MAX_RECORDS", 200),
			HighVolume: getEnvAsBool("SYNTHETIC_HIGH_VOLUME", false),
			Seed:       uint64(getEnvAsInt("SYNTHETIC_SEED", 0)),
		},
		Catalog: CatalogConfig{
			SourceURL:    os.Getenv("CATALOG_SOURCE_URL"),
			ItemSelector: getEnvAsString("CATALOG_ITEM_SELECTOR", "li.neighborhood"),
			SyncOnStart:  getEnvAsBool("CATALOG_SYNC_ON_START", false),
			SyncCities:   getEnvAsList("CATALOG_SYNC_CITIES", nil),
			SyncInterval: getEnvAsDuration("CATALOG_SYNC_INTERVAL", 24*time.Hour),
			RandomDelay:  getEnvAsDuration("CATALOG_RANDOM_DELAY", 2*time.Second),
		},
	}

	if cfg.Synthetic.MinRecords <= 0 || cfg.Synthetic.MaxRecords < cfg.Synthetic.MinRecords {
		return nil, fmt.Errorf("SYNTHETIC_MIN_RECORDS/SYNTHETIC_MAX_RECORDS must satisfy 0 < min <= max, got %d..%d",
			cfg.Synthetic.MinRecords, cfg.Synthetic.MaxRecords)
	}
	if cfg.Catalog.SyncOnStart && (cfg.Catalog.SourceURL == "" || cfg.Database.URL == "") {
		return nil, fmt.Errorf("CATALOG_SYNC_ON_START requires CATALOG_SOURCE_URL and DATABASE_URL")
	}

	return cfg, nil
}

// getEnvAsString читает переменную окружения как строку или возвращает значение по умолчанию
func getEnvAsString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt читает переменную окружения как int или возвращает значение по умолчанию.
// Нечисловое значение логируется и заменяется значением по умолчанию.
func getEnvAsInt(key string, defaultValue int) int {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return defaultValue
	}
	valueInt, err := strconv.Atoi(strings.TrimSpace(valueStr))
	if err != nil {
		log.Warn().Str("key", key).Str("value", valueStr).Int("default", defaultValue).Msg("Could not parse env var as int")
		return defaultValue
	}
	return valueInt
}

// getEnvAsBool читает переменную окружения как bool или возвращает значение по умолчанию
func getEnvAsBool(key string, defaultValue bool) bool {
	valStr, exists := os.LookupEnv(key)
	if !exists || valStr == "" {
		return defaultValue
	}
	valBool, err := strconv.ParseBool(strings.TrimSpace(valStr))
	if err != nil {
		log.Warn().Str("key", key).Str("value", valStr).Bool("default", defaultValue).Msg("Could not parse env var as bool")
		return defaultValue
	}
	return valBool
}

// getEnvAsDuration понимает "45s", "2m"; голое число - секунды.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valStr, exists := os.LookupEnv(key)
	valStr = strings.TrimSpace(valStr)
	if !exists || valStr == "" {
		return defaultValue
	}
	if secs, err := strconv.Atoi(valStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(valStr)
	if err != nil {
		log.Warn().Str("key", key).Str("value", valStr).Dur("default", defaultValue).Msg("Could not parse env var as duration")
		return defaultValue
	}
	return d
}

// getEnvAsList - список через запятую, пустые элементы отбрасываются.
func getEnvAsList(key string, defaultValue []string) []string {
	valStr, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(valStr) == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
