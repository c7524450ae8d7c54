// Package secret resolves secret references in configuration values.
//
// A value of the form "secretref:<provider>:<ref>" is replaced by what the
// named provider returns for ref. Two providers are built in:
//
//	secretref:env:REDIS_PASSWORD      value of an environment variable
//	secretref:file:/run/secrets/db    contents of a file, trailing newline trimmed
//
// References may also appear inline ("rediss://:secretref:env:PW@host").
// Plain values pass through untouched. Providers never log resolved values.
package secret
