package config

import (
	"os"
	"strconv"
	"strings"
)

var (
	BIND_ADDRESS = "0.0.0.0:8080"
	TLS_DOMAINS  = "" // e.g. "photos.example.com,api.example.com"
	DEBUG_MODE   = false
	STAGE        = "dev"
	CORS_ORIGINS = "*"

	// Database. DATABASE_URL (PostgreSQL) wins over SQLITE_FILE.
	// When DB_PARAM_PREFIX is set (e.g. "/brd/dev") and DATABASE_URL is empty, the connection
	// details are read from SSM: <prefix>/db-host, db-name, db-user and db-password.
	DATABASE_URL      = ""
	SQLITE_FILE       = ""
	DB_PARAM_PREFIX   = ""
	DB_INSTANCE_PARAM = "/brd/db-instance" // SSM parameter holding the RDS instance identifier
	MIGRATIONS_TABLE  = "pgmigrations"

	// Object storage
	STORAGE_TYPE      = "s3" // "s3" or "disk"
	UPLOAD_BUCKET     = ""
	AWS_REGION        = "us-east-1"
	S3_ENDPOINT       = "" // custom endpoint (MinIO, localstack); switches to path-style addressing
	DISK_STORAGE_PATH = "/tmp/photostore"
	PUBLIC_BASE_URL   = "http://localhost:8080" // used to build URLs for disk-stored objects

	// Identity. Tokens are verified upstream unless JWKS_URL is set.
	JWKS_URL     = ""
	JWT_ISSUER   = ""
	GROUPS_CLAIM = "cognito:groups"

	THUMB_SIZE    = 200
	MAX_UPLOAD_MB = 32
)

func init() {
	Load()
}

// Load (re)reads all settings from the environment. Unset variables keep their current value.
func Load() {
	readEnvString("BIND_ADDRESS", &BIND_ADDRESS)
	readEnvString("TLS_DOMAINS", &TLS_DOMAINS)
	readEnvBool("DEBUG_MODE", &DEBUG_MODE)
	readEnvString("STAGE", &STAGE)
	readEnvString("CORS_ORIGINS", &CORS_ORIGINS)
	readEnvString("DATABASE_URL", &DATABASE_URL)
	readEnvString("SQLITE_FILE", &SQLITE_FILE)
	readEnvString("DB_PARAM_PREFIX", &DB_PARAM_PREFIX)
	readEnvString("DB_INSTANCE_PARAM", &DB_INSTANCE_PARAM)
	readEnvString("MIGRATIONS_TABLE", &MIGRATIONS_TABLE)
	readEnvString("STORAGE_TYPE", &STORAGE_TYPE)
	readEnvString("UPLOAD_BUCKET", &UPLOAD_BUCKET)
	readEnvString("AWS_REGION", &AWS_REGION)
	readEnvString("S3_ENDPOINT", &S3_ENDPOINT)
	readEnvString("DISK_STORAGE_PATH", &DISK_STORAGE_PATH)
	readEnvString("PUBLIC_BASE_URL", &PUBLIC_BASE_URL)
	readEnvString("JWKS_URL", &JWKS_URL)
	readEnvString("JWT_ISSUER", &JWT_ISSUER)
	readEnvString("GROUPS_CLAIM", &GROUPS_CLAIM)
	readEnvInt("THUMB_SIZE", &THUMB_SIZE)
	readEnvInt("MAX_UPLOAD_MB", &MAX_UPLOAD_MB)
}

// CorsOrigins splits CORS_ORIGINS on commas
func CorsOrigins() []string {
	result := []string{}
	for _, origin := range strings.Split(CORS_ORIGINS, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			result = append(result, origin)
		}
	}
	return result
}

func readEnvString(name string, value *string) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	*value = v
}

func readEnvBool(name string, value *bool) {
	v := strings.ToLower(os.Getenv(name))
	if v == "true" || v == "1" || v == "yes" || v == "on" {
		*value = true
	} else if v == "false" || v == "0" || v == "no" || v == "off" {
		*value = false
	}
}

func readEnvInt(name string, value *int) {
	v := os.Getenv(name)
	if v == "" {
		return
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return
	}
	*value = i
}
