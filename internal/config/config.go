package config

import (
	"math/big"
	"os"
	"strconv"
	"strings"

	"github.com/artmart/marketplace-engine/internal/log"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

type Config struct {
	Env       string
	Network   string
	Index     string
	Debug     bool
	Reindex   bool
	LogPath   string
	SentryDsn string

	ApiPort    string
	HealthPort string

	PlatformAddress     string
	EscrowAddress       string
	CommissionBps       uint
	CollectorFeeBps     uint
	CollectorRoyaltyBps []uint
	MinPrimarySalePrice uint64

	WebhookUrl     string
	WebhookRetries int

	AmqpUri string

	ElasticSearch ElasticSearchConfig
}

type ElasticSearchConfig struct {
	Hosts            []string
	Sniff            bool
	HealthCheck      bool
	Debug            bool
	Username         string
	Password         string
	MappingDir       string
	BulkPersistCount int
	Refresh          string
}

var defaultCollectorRoyaltyBps = []uint{150, 90, 60}

func Init(service string) {
	err := godotenv.Load(".env")
	if err != nil {
		zap.L().With(zap.Error(err)).Warn("Unable to load .env, using environment")
	}

	initLogger(service)
}

func initLogger(service string) {
	cfg := Get()
	log.NewLogger(cfg.LogPath+"/"+service+".log", cfg.Debug, cfg.SentryDsn)
}

func Get() *Config {
	return &Config{
		Env:       getString("ENV", ""),
		Network:   getString("NETWORK", "mainnet"),
		Index:     getString("INDEX_NAME", "marketplace"),
		Debug:     getBool("DEBUG", false),
		Reindex:   getBool("REINDEX", false),
		LogPath:   getString("LOG_PATH", "./var/logs"),
		SentryDsn: getString("SENTRY_DSN", ""),

		ApiPort:    getString("API_PORT", "8080"),
		HealthPort: getString("HEALTH_PORT", "8081"),

		PlatformAddress:     getString("PLATFORM_ADDRESS", ""),
		EscrowAddress:       getString("ESCROW_ADDRESS", "escrow.marketplace"),
		CommissionBps:       getUint("COMMISSION_BPS", 2000),
		CollectorFeeBps:     getUint("COLLECTOR_FEE_BPS", 300),
		CollectorRoyaltyBps: getUintSlice("COLLECTOR_ROYALTY_BPS", defaultCollectorRoyaltyBps, ","),
		MinPrimarySalePrice: uint64(getInt("MIN_PRIMARY_SALE_PRICE", 1000000)),

		WebhookUrl:     getString("WEBHOOK_URL", ""),
		WebhookRetries: getInt("WEBHOOK_RETRIES", 3),

		AmqpUri: getString("AMQP_URI", ""),

		ElasticSearch: ElasticSearchConfig{
			Hosts:            getSlice("ELASTIC_SEARCH_HOSTS", make([]string, 0), ","),
			Sniff:            getBool("ELASTIC_SEARCH_SNIFF", true),
			HealthCheck:      getBool("ELASTIC_SEARCH_HEALTH_CHECK", true),
			Debug:            getBool("ELASTIC_SEARCH_DEBUG", false),
			Username:         getString("ELASTIC_SEARCH_USERNAME", ""),
			Password:         getString("ELASTIC_SEARCH_PASSWORD", ""),
			MappingDir:       getString("ELASTIC_SEARCH_MAPPING_DIR", "/data/mappings"),
			BulkPersistCount: getInt("ELASTIC_SEARCH_BULK_PERSIST_COUNT", 300),
			Refresh:          getString("ELASTIC_SEARCH_REFRESH", "wait_for"),
		},
	}
}

func getString(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultValue
}

func getInt(key string, defaultValue int) int {
	valStr := getString(key, "")
	val, _, err := big.ParseFloat(valStr, 10, 0, big.ToNearestEven)
	if err != nil {
		return defaultValue
	}

	intVal, _ := val.Int64()
	return int(intVal)
}

func getUint(key string, defaultValue uint) uint {
	return uint(getInt(key, int(defaultValue)))
}

func getBool(key string, defaultValue bool) bool {
	valStr := getString(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultValue
}

func getSlice(key string, defaultVal []string, sep string) []string {
	valStr := getString(key, "")
	if valStr == "" {
		return defaultVal
	}

	return strings.Split(valStr, sep)
}

func getUintSlice(key string, defaultVal []uint, sep string) []uint {
	parts := getSlice(key, nil, sep)
	if parts == nil {
		return defaultVal
	}

	vals := make([]uint, 0, len(parts))
	for _, part := range parts {
		val, err := strconv.ParseUint(strings.TrimSpace(part), 10, 32)
		if err != nil {
			return defaultVal
		}
		vals = append(vals, uint(val))
	}

	return vals
}
