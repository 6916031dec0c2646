// Package config loads CRM configuration from environment variables.
//
// Every setting has a default, so an empty environment runs the server on a
// filesystem store under ./crm-data.
//
// Server settings:
//
//	CRM_HOST="0.0.0.0"
//	CRM_PORT="8080"
//	CRM_METRICS_PORT="9090"
//	CRM_READ_TIMEOUT="15s"
//	CRM_WRITE_TIMEOUT="15s"
//	CRM_SHUTDOWN_TIMEOUT="30s"
//
// Storage settings:
//
//	CRM_STORAGE_TYPE="filesystem"  # memory, filesystem, redis, postgres, sqlite
//	CRM_FILESYSTEM_ROOT="./crm-data"
//	CRM_REDIS_URL="redis://localhost:6379/0"
//	CRM_REDIS_PREFIX="crm:"
//	CRM_POSTGRES_URL="postgres://localhost/crm?sslmode=disable"
//	CRM_SQLITE_PATH="./crm.db"
//	CRM_CACHE_ENABLED="true"
//	CRM_CACHE_TTL="1m"
//
// Report export settings:
//
//	CRM_EXPORT_DIR="./exports"
//	CRM_EXPORT_S3_BUCKET="crm-reports"
//	CRM_EXPORT_S3_ENDPOINT="http://localhost:9000"
//	CRM_EXPORT_S3_PATH_STYLE="true"
//
// Everything else:
//
//	CRM_LOG_LEVEL="info"  # debug, info, warn, error
//	CRM_LOG_FORMAT="json" # json, text
//	CRM_METRICS_ENABLED="true"
//	CRM_SEED_FILE="./seed.yaml"
//	CRM_TIMEZONE="America/New_York"
package config
