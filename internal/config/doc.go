// Package config defines the application configuration schema and loads
// it from environment variables (PULSE_ prefix) with fail-fast
// validation.
package config
