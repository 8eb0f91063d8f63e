package config

import (
	"os"
	"strconv"
	"time"
)

// DealConfig holds the knobs of the deal state machine.
type DealConfig struct {
	RatingIncrement int
	MaxInfoLength   int
}

func LoadDealConfig() *DealConfig {
	return &DealConfig{
		RatingIncrement: getEnvAsInt("DEAL_RATING_INCREMENT", 1),
		MaxInfoLength:   getEnvAsInt("DEAL_MAX_INFO_LENGTH", 1000),
	}
}

// VoucherConfig holds the cheque verification settings.
type VoucherConfig struct {
	RemotePeer       string
	CommandPrefix    string
	GreetingPrefix   string
	PollInterval     time.Duration
	Timeout          time.Duration
	LockTTL          time.Duration
	MaxChecksPerUser int
	RateLimitWindow  time.Duration
	ReferenceSalt    string
	HashTime         int
	HashMemoryKiB    int
	HashThreads      int
	GatewayURL       string
	GatewayToken     string
	GatewayTimeout   time.Duration
}

func LoadVoucherConfig() *VoucherConfig {
	return &VoucherConfig{
		RemotePeer:       getEnv("VOUCHER_REMOTE_PEER", "BTC_CHANGE_BOT"),
		CommandPrefix:    getEnv("VOUCHER_COMMAND_PREFIX", "/start "),
		GreetingPrefix:   getEnv("VOUCHER_GREETING_PREFIX", "Приветствую,"),
		PollInterval:     getEnvAsDuration("VOUCHER_POLL_INTERVAL", 500*time.Millisecond),
		Timeout:          getEnvAsDuration("VOUCHER_TIMEOUT", 30*time.Second),
		LockTTL:          getEnvAsDuration("VOUCHER_LOCK_TTL", time.Minute),
		MaxChecksPerUser: getEnvAsInt("VOUCHER_MAX_CHECKS_PER_USER", 10),
		RateLimitWindow:  getEnvAsDuration("VOUCHER_RATE_LIMIT_WINDOW", time.Hour),
		ReferenceSalt:    getEnv("VOUCHER_REFERENCE_SALT", "garant-cheque"),
		HashTime:         getEnvAsInt("VOUCHER_HASH_TIME", 1),
		HashMemoryKiB:    getEnvAsInt("VOUCHER_HASH_MEMORY_KIB", 19*1024),
		HashThreads:      getEnvAsInt("VOUCHER_HASH_THREADS", 1),
		GatewayURL:       getEnv("VOUCHER_GATEWAY_URL", "http://localhost:8091"),
		GatewayToken:     getEnv("VOUCHER_GATEWAY_TOKEN", ""),
		GatewayTimeout:   getEnvAsDuration("VOUCHER_GATEWAY_HTTP_TIMEOUT", 10*time.Second),
	}
}

// InviteConfig controls deal invitation links.
type InviteConfig struct {
	BotName string
	TTL     time.Duration
	QRSize  int
}

func LoadInviteConfig() *InviteConfig {
	return &InviteConfig{
		BotName: getEnv("INVITE_BOT_NAME", "garant_bot"),
		TTL:     getEnvAsDuration("INVITE_TTL", 24*time.Hour),
		QRSize:  getEnvAsInt("INVITE_QR_SIZE", 256),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}
