// Package storage is the relational backend for echo records.
//
// It opens a gorm handle on SQLite (pure Go, no cgo), migrates the schema,
// and implements echo.Repository. Every driver error is classified through
// apierr.FromStorage before it leaves the package.
package storage
