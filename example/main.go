package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meikuraledutech/datasets"
	"github.com/meikuraledutech/datasets/postgres"
)

const manifest = `{
	"name": "Weather Stations 2024",
	"description": "Hourly readings from 40 ground stations",
	"@spec": "https://raw.githubusercontent.com/fidlabs/data-prep-standard/main/specification/v0/manifest.schema.json",
	"@spec_version": "0.1.0",
	"uuid": "6f1e4d2a-8c3b-4b7e-9a51-2d0c9e7f4a10",
	"license": "CC-BY-4.0",
	"tags": ["weather", "timeseries"],
	"contents": [
		{"@type": "directory", "name": "2024", "contents": [
			{"@type": "file", "name": "jan.csv", "byte_length": 1048576, "cid": "bafkjan"},
			{"@type": "file", "name": "feb.csv", "byte_length": 983040, "cid": "bafkfeb"},
			{"@type": "split-file", "name": "raw.tar", "byte_length": 4194304, "parts": [
				{"name": "raw.tar.0", "byte_length": 2097152},
				{"name": "raw.tar.1", "byte_length": 2097152}
			]}
		]},
		{"@type": "file", "name": "README.md", "byte_length": 2048}
	]
}`

func main() {
	ctx := context.Background()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Fatal("DATABASE_URL is not set")
	}

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		log.Fatalf("connect: %v", err)
	}
	defer pool.Close()

	// Wire up the postgres implementation behind the Store interface.
	var store datasets.Store = postgres.New(pool)

	// 1. Create tables
	if err := store.CreateSchema(ctx); err != nil {
		log.Fatalf("schema: %v", err)
	}
	fmt.Println("schema created")

	// ── Ingest ────────────────────────────────────────────────────────
	d, err := datasets.Ingest([]byte(manifest), datasets.IngestOptions{})
	if err != nil {
		log.Fatalf("ingest: %v", err)
	}
	fmt.Printf("manifest ingested: %d files, %d bytes, format %s\n",
		datasets.CountFiles(d.FileStructure), d.Size, d.Format)

	id, err := store.CreateDataset(ctx, d)
	if err != nil {
		log.Fatalf("create dataset: %v", err)
	}
	fmt.Printf("dataset created: %s\n", id)

	// ── Retrieve ──────────────────────────────────────────────────────
	got, err := store.GetDataset(ctx, id)
	if err != nil {
		log.Fatalf("get dataset: %v", err)
	}
	fmt.Println("\ndataset retrieved:")
	printJSON(got.FileStructure)

	// ── Review ────────────────────────────────────────────────────────
	if err := store.SetStatus(ctx, id, datasets.StatusApproved); err != nil {
		log.Fatalf("approve: %v", err)
	}

	page, err := store.ListDatasets(ctx, datasets.ListQuery{
		Status:     datasets.StatusApproved,
		PublicOnly: true,
		Tags:       []string{"weather"},
	}.Normalize())
	if err != nil {
		log.Fatalf("list: %v", err)
	}
	fmt.Printf("\napproved datasets tagged weather (%d):\n", page.Pagination.Total)
	for _, ds := range page.Data {
		fmt.Printf("  %s  %s  %s\n", ds.ID, ds.Title, ds.Status)
	}

	// ── Cleanup ───────────────────────────────────────────────────────
	if err := store.DeleteDataset(ctx, id); err != nil {
		log.Fatalf("delete: %v", err)
	}
	fmt.Println("\ndataset deleted")
}

func printJSON(v any) {
	out, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(out))
}
