// Package db embeds the database schema.
package db

import _ "embed"

// Schema contains the DDL for the orders table.
//
//go:embed migrations/001_orders.sql
var Schema string
