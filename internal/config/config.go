package config

import (
	"os"
	"strconv"
	"strings"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

type Config struct {
	Mode     Mode
	HTTPAddr string

	DBDriver string
	DBDSN    string

	// Identity provider (ID token verification).
	IDPIssuer   string
	IDPAudience string
	IDPJWKSURL  string

	// Dev-only bypass: accepts a fixed mock token instead of a signed one.
	EnableDevAuth bool

	// Kiosk machine credential, bcrypt hash of the shared key. Empty disables
	// the check (offline/dev setups).
	KioskKeyHash string

	RedeemTTLDays int

	// Local directory holding campaign media (sprites, backgrounds).
	AssetDir string

	CORSOriginsOnline  []string
	CORSOriginsOffline []string
}

func FromEnv() Config {
	mode := Mode(os.Getenv("MODE"))
	if mode == "" {
		mode = ModeOffline
	}
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		Mode:     mode,
		HTTPAddr: addr,

		DBDriver: envOr("DB_DRIVER", "sqlite"),
		DBDSN:    envOr("DB_DSN", ""),

		IDPIssuer:   envOr("IDP_ISSUER", "https://access.line.me"),
		IDPAudience: os.Getenv("IDP_AUDIENCE"),
		IDPJWKSURL:  envOr("IDP_JWKS_URL", "https://api.line.me/oauth2/v2.1/certs"),

		EnableDevAuth: envBool("ENABLE_DEV_AUTH", mode == ModeOffline),

		KioskKeyHash: os.Getenv("KIOSK_KEY_HASH"),

		RedeemTTLDays: envInt("REDEEM_TTL_DAYS", 7),

		AssetDir: envOr("ASSET_DIR", "./assets"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://hunt.trailquest.app"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:3010"),
	}
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
