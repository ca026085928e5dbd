package config

import (
	"os"
	"strconv"
	"strings"
)

// FromEnv returns base with FAMCAL_* overrides applied.
func FromEnv(base Config) Config {
	cfg := base
	if v, ok := getEnvString("FAMCAL_DB"); ok {
		cfg.DatabasePath = v
	}
	if v, ok := getEnvString("FAMCAL_MARKER_BACKEND"); ok {
		cfg.Markers.Backend = strings.ToLower(v)
	}
	if v, ok := getEnvString("FAMCAL_POSTGRES_URL"); ok {
		cfg.Markers.PostgresURL = v
	}
	if v, ok := getEnvString("FAMCAL_MARKER_PREFIX"); ok {
		cfg.Markers.Prefix = v
	}
	if v, ok := getEnvString("FAMCAL_TICK"); ok {
		cfg.TickSpec = v
	}
	if v, ok := getEnvString("FAMCAL_TIMEZONE"); ok {
		cfg.Timezone = v
	}
	if v, ok := getEnvInt("FAMCAL_CHANNEL_BUFFER"); ok && v > 0 {
		cfg.ChannelBuffer = v
	}
	if v, ok := getEnvString("FAMCAL_VIEWER"); ok {
		cfg.DefaultViewer = v
	}
	if v, ok := getEnvBool("FAMCAL_LEGACY_NAME_MATCH"); ok {
		cfg.LegacyNameMatch = v
	}
	if v, ok := getEnvBool("FAMCAL_DESKTOP_NOTIFICATIONS"); ok {
		cfg.DesktopNotifications = v
	}
	if v, ok := getEnvString("FAMCAL_TELEGRAM_TOKEN"); ok {
		cfg.Telegram.Token = v
	}
	if v, ok := getEnvInt64("FAMCAL_TELEGRAM_CHAT_ID"); ok {
		cfg.Telegram.ChatID = v
	}
	if v, ok := getEnvString("FAMCAL_LOG_LEVEL"); ok {
		cfg.LogLevel = v
	}
	if v, ok := getEnvString("FAMCAL_LOG_FILE"); ok {
		cfg.LogFile = v
	}
	return cfg
}

func getEnvString(name string) (string, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	return raw, raw != ""
}

func getEnvInt(name string) (int, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvInt64(name string) (int64, bool) {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func getEnvBool(name string) (bool, bool) {
	raw := strings.TrimSpace(strings.ToLower(os.Getenv(name)))
	if raw == "" {
		return false, false
	}
	switch raw {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
