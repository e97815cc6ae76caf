package db

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zulandar/bugboard/internal/config"
	"github.com/zulandar/bugboard/internal/models"
	"gorm.io/gorm"
)

func TestDSN(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		host     string
		port     int
		database string
		want     string
	}{
		{
			name:     "default local",
			user:     "root",
			host:     "127.0.0.1",
			port:     3306,
			database: "bugboard",
			want:     "root@tcp(127.0.0.1:3306)/bugboard?parseTime=true&charset=utf8mb4",
		},
		{
			name:     "custom host and port",
			user:     "tracker",
			host:     "10.0.0.5",
			port:     3307,
			database: "bugs_prod",
			want:     "tracker@tcp(10.0.0.5:3307)/bugs_prod?parseTime=true&charset=utf8mb4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DSN(tt.user, tt.host, tt.port, tt.database)
			if got != tt.want {
				t.Errorf("DSN() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDSN_ParseTimeFlag(t *testing.T) {
	dsn := DSN("root", "localhost", 3306, "test")
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("DSN missing parseTime=true: %s", dsn)
	}
}

func TestConnect_Error(t *testing.T) {
	// Port 1 is unlikely to have a MySQL server; expect connection error.
	_, err := Connect("root", "127.0.0.1", 1, "nonexistent")
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: connect to")
	}
}

func TestConnectAdmin_Error(t *testing.T) {
	_, err := ConnectAdmin("root", "127.0.0.1", 1)
	if err == nil {
		t.Fatal("expected error connecting to invalid port")
	}
	if !strings.Contains(err.Error(), "db: admin connect to") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db: admin connect to")
	}
}

func TestCreateDatabase_Signature(t *testing.T) {
	var fn func(*gorm.DB, string) error = CreateDatabase
	if fn == nil {
		t.Fatal("CreateDatabase function is nil")
	}
}

func TestOpen_MemoryDriverRejected(t *testing.T) {
	_, err := Open(config.StorageConfig{Driver: config.DriverMemory})
	if err == nil {
		t.Fatal("expected error for memory driver")
	}
}

func TestOpen_SQLiteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bugs.db")
	gdb, err := Open(config.StorageConfig{Driver: config.DriverSQLite, Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	if !gdb.Migrator().HasTable(&models.Bug{}) || !gdb.Migrator().HasTable(&models.Comment{}) {
		t.Error("expected bugs and comments tables")
	}
}

func TestAllModels_Count(t *testing.T) {
	if got := len(AllModels()); got != 2 {
		t.Errorf("AllModels() returned %d models, want 2", got)
	}
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := ConnectSQLite(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := AutoMigrate(gdb); err != nil {
		t.Fatalf("AutoMigrate: %v", err)
	}
	return gdb
}

func TestSeedSamples(t *testing.T) {
	gdb := testDB(t)
	ctx := context.Background()

	n, err := SeedSamples(ctx, gdb)
	if err != nil {
		t.Fatalf("SeedSamples: %v", err)
	}
	if n != 5 {
		t.Errorf("seeded %d bugs, want 5", n)
	}

	var comments int64
	gdb.Model(&models.Comment{}).Count(&comments)
	if comments != 4 {
		t.Errorf("comments = %d, want 4", comments)
	}

	var first models.Bug
	if err := gdb.Order("seq ASC").First(&first).Error; err != nil {
		t.Fatalf("load first bug: %v", err)
	}
	if first.ID != "bug-00001" || len(first.Tags) != 3 {
		t.Errorf("first bug = %s with tags %v", first.ID, first.Tags)
	}
}

func TestSeedSamples_NonEmptyDatabase(t *testing.T) {
	gdb := testDB(t)
	ctx := context.Background()

	if _, err := SeedSamples(ctx, gdb); err != nil {
		t.Fatalf("SeedSamples: %v", err)
	}
	n, err := SeedSamples(ctx, gdb)
	if err != nil {
		t.Fatalf("SeedSamples again: %v", err)
	}
	if n != 0 {
		t.Errorf("second seed inserted %d, want 0", n)
	}
	var count int64
	gdb.Model(&models.Bug{}).Count(&count)
	if count != 5 {
		t.Errorf("bugs = %d, want 5", count)
	}
}
