package main

import (
	"io/fs"
	"os"

	"bookshelf/db"

	"github.com/joho/godotenv"
)

func loadEnvFiles() {
	// Do not override environment provided by the runtime (e.g. Docker).
	_ = godotenv.Load(".env")
	_ = godotenv.Load(".env.local")
}

// migrationsSource returns the filesystem and directory goose reads. A nil
// filesystem means the OS one. MIGRATIONS_DIR switches from the migrations
// compiled into the binary to a directory on disk.
func migrationsSource() (fs.FS, string) {
	if v := os.Getenv("MIGRATIONS_DIR"); v != "" {
		return nil, v
	}
	return db.Migrations, db.MigrationsDir
}
