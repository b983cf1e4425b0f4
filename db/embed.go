// Package db 内嵌 SQL 迁移文件
package db

import "embed"

// Migrations 迁移目录，文件名形如 0001_init_up.sql
//
//go:embed migrations/*.sql
var Migrations embed.FS
