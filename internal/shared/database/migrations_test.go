package database

import (
	"context"
	"reflect"
	"testing"
	"testing/fstest"

	"galaxy-forge/migrations"
)

func TestMigrationFilesOrder(t *testing.T) {
	fsys := fstest.MapFS{
		"002_gates.sql":        {Data: []byte("SELECT 1;")},
		"001_galaxies.sql":     {Data: []byte("SELECT 1;")},
		"notes.md":             {Data: []byte("ignored")},
		"extra/003_hubs.sql":   {Data: []byte("SELECT 1;")},
		"extra/000_readme.txt": {Data: []byte("ignored")},
	}

	got, err := MigrationFiles(fsys)
	if err != nil {
		t.Fatalf("MigrationFiles: %v", err)
	}
	want := []string{"001_galaxies.sql", "002_gates.sql", "extra/003_hubs.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestLoadMigrationsChecksums(t *testing.T) {
	fsys := fstest.MapFS{
		"001_galaxies.sql": {Data: []byte("CREATE TABLE galaxies (id BIGSERIAL);")},
		"002_pois.sql":     {Data: []byte("CREATE TABLE pois (id BIGSERIAL);")},
	}
	first, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if len(first) != 2 || first[0].Version != "001_galaxies.sql" || first[1].Version != "002_pois.sql" {
		t.Fatalf("unexpected migrations %+v", first)
	}
	if len(first[0].Checksum) != 64 || first[0].Checksum == first[1].Checksum {
		t.Errorf("checksums %q %q", first[0].Checksum, first[1].Checksum)
	}

	fsys["002_pois.sql"] = &fstest.MapFile{Data: []byte("CREATE TABLE pois (id BIGSERIAL, x DOUBLE PRECISION);")}
	second, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("LoadMigrations: %v", err)
	}
	if second[0].Checksum != first[0].Checksum {
		t.Error("unchanged file changed checksum")
	}
	if second[1].Checksum == first[1].Checksum {
		t.Error("edited file kept its checksum")
	}
}

func TestEmbeddedMigrationsPresent(t *testing.T) {
	files, err := MigrationFiles(migrations.FS)
	if err != nil {
		t.Fatalf("MigrationFiles: %v", err)
	}
	if len(files) == 0 {
		t.Fatal("no embedded migrations")
	}
}

func TestNilDB(t *testing.T) {
	var db *DB
	if err := db.Ping(context.Background()); err == nil {
		t.Error("nil DB reported reachable")
	}
	if err := db.Close(); err != nil {
		t.Errorf("Close on nil DB: %v", err)
	}
}
