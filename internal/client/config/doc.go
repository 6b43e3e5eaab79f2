// Package config loads runtime configuration for the storefront CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c/-config or $STOREFRONT_CONFIG.
//  3. STOREFRONT_* environment variables.
//  4. Command-line flags, which override everything else.
//
// Supported flags
//
//	-a string   storefront API base URL
//	-d string   local SQLite database path
//	-t int      request timeout (seconds)
//	-i int      online status check interval (seconds)
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "api_base_url": "http://localhost:8000",
//	  "database_path": "storefront.db",
//	  "request_timeout": "10s",
//	  "online_check_interval": "3s",
//	  "log_level": "info"
//	}
//
// # Environment
//
//	STOREFRONT_API_URL, STOREFRONT_DB, STOREFRONT_TIMEOUT,
//	STOREFRONT_CHECK_INTERVAL, STOREFRONT_LOG_LEVEL
package config
