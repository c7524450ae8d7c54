// Package config loads echoserver configuration.
//
// Values come, in increasing precedence, from built-in defaults, an optional
// YAML file, and environment variables. Environment names are bare
// (PORT, CACHE_TTL, REDIS_HOSTNAME, DATABASE_URL, ...). Secret-bearing fields
// accept secretref: values, resolved through package secret.
package config
