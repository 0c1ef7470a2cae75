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
	Mode      Mode
	HTTPAddr  string
	PublicURL string

	DBDriver string
	DBDSN    string

	// Progress/certificate persistence backend: memory|sql|redis
	StateBackend string
	RedisURL     string

	// Extra curriculum files loaded on top of the embedded seed.
	CatalogDir string

	BlobBasePath string

	EnableLocalAuth bool
	// AdminAuth gates the /admin CMS surface behind JWT+RBAC. The authoring
	// tool historically ran unauthenticated on a trusted host; default stays
	// permissive, see DESIGN.md.
	AdminAuth bool

	AdminUser     string
	AdminPassHash string // bcrypt

	CORSOriginsOnline  []string
	CORSOriginsOffline []string

	// Per-question time budget for quiz attempts, in seconds.
	QuizSecondsPerQuestion int
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
		Mode:         mode,
		HTTPAddr:     addr,
		PublicURL:    os.Getenv("PUBLIC_URL"),
		DBDriver:     envOr("DB_DRIVER", "sqlite"),
		DBDSN:        envOr("DB_DSN", ""),
		StateBackend: envOr("STATE_BACKEND", "sql"),
		RedisURL:     envOr("REDIS_URL", "redis://localhost:6379/0"),
		CatalogDir:   os.Getenv("CATALOG_DIR"),
		BlobBasePath: envOr("BLOB_BASE_PATH", "./data"),

		EnableLocalAuth: envBool("ENABLE_LOCAL_AUTH", true),
		AdminAuth:       envBool("ADMIN_AUTH", false),

		AdminUser:     envOr("ADMIN_USER", "admin"),
		AdminPassHash: envOr("ADMIN_PASS_HASH", "$2y$12$pyZAiWaTfVtM7UElIRStvOC3gNbnp70nmQU4eYopLGBfCJr1DOvji"),

		CORSOriginsOnline:  csvOr("CORS_ORIGINS_ONLINE", "https://www.vertechie.com"),
		CORSOriginsOffline: csvOr("CORS_ORIGINS_OFFLINE", "http://localhost:3000,http://localhost:5173"),

		QuizSecondsPerQuestion: envInt("QUIZ_SECONDS_PER_QUESTION", 60),
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
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
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
