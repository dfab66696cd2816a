// Command contentimport loads a CSV or YAML manifest of content rows into
// MongoDB using the same ingestion as POST /api/nodes/import.
//
//	contentimport -file lectures.csv
//	contentimport -file manifest.yaml -by ops@example.com
//
// Connection settings come from flags, then STRATACONTENT_MONGO_URI and
// STRATACONTENT_MONGO_DATABASE, which may be set in a .env file.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/dalemusser/stratacontent/internal/app/store/importrun"
	nodestore "github.com/dalemusser/stratacontent/internal/app/store/node"
	"github.com/dalemusser/stratacontent/internal/app/system/indexes"
	"github.com/dalemusser/stratacontent/internal/app/system/ingest"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	file := flag.String("file", "", "CSV or YAML file to import (required)")
	mongoURI := flag.String("mongo-uri", "", "MongoDB URI (default $STRATACONTENT_MONGO_URI)")
	database := flag.String("db", "", "MongoDB database (default $STRATACONTENT_MONGO_DATABASE or stratacontent)")
	startedBy := flag.String("by", "contentimport", "Name recorded as the import's author")
	timeout := flag.Duration("timeout", 30*time.Minute, "Abort the import after this long")
	flag.Parse()

	// A missing .env is fine.
	_ = godotenv.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if *file == "" {
		flag.Usage()
		os.Exit(2)
	}
	uri := firstNonEmpty(*mongoURI, os.Getenv("STRATACONTENT_MONGO_URI"), "mongodb://localhost:27017")
	dbName := firstNonEmpty(*database, os.Getenv("STRATACONTENT_MONGO_DATABASE"), "stratacontent")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, *timeout)
	defer cancel()

	if err := run(ctx, uri, dbName, *file, *startedBy, logger); err != nil {
		logger.Error("import failed", zap.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context, uri, dbName, path, startedBy string, logger *zap.Logger) error {
	rows, err := readRows(path)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return errors.New("no rows to import")
	}

	if err := wafflemongo.ValidateURI(uri); err != nil {
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}
	client, err := wafflemongo.ConnectWithPool(ctx, uri, dbName, wafflemongo.DefaultPoolConfig())
	if err != nil {
		return err
	}
	defer func() {
		dctx, dcancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer dcancel()
		_ = client.Disconnect(dctx)
	}()
	db := client.Database(dbName)

	if err := indexes.EnsureAll(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes: %w", err)
	}

	runs := importrun.New(db)
	rec, err := runs.Start(ctx, filepath.Base(path), startedBy, len(rows))
	if err != nil {
		return fmt.Errorf("record import run: %w", err)
	}
	logger.Info("import started",
		zap.String("run", rec.ID.Hex()),
		zap.String("file", path),
		zap.Int("rows", len(rows)))

	start := time.Now()
	res, ingestErr := ingest.Run(ctx, nodestore.New(db), rows, func(done, total int) {
		fmt.Fprintf(os.Stderr, "\r%d/%d rows", done, total)
		if done%100 == 0 || done == total {
			_ = runs.Progress(ctx, rec.ID, done, total)
		}
	})
	fmt.Fprintln(os.Stderr)

	counts := importrun.Counts{
		Processed:      res.Rows,
		FoldersCreated: res.FoldersCreated,
		NodesCreated:   res.NodesCreated,
		NodesUpdated:   res.NodesUpdated,
	}
	// The run record is finished even if ctx was cancelled.
	fctx, fcancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer fcancel()
	if ingestErr != nil {
		if err := runs.Fail(fctx, rec.ID, counts, ingestErr); err != nil {
			logger.Warn("could not mark import failed", zap.Error(err))
		}
		return ingestErr
	}
	if err := runs.Complete(fctx, rec.ID, counts); err != nil {
		logger.Warn("could not mark import complete", zap.Error(err))
	}

	logger.Info("import finished",
		zap.String("run", rec.ID.Hex()),
		zap.Int("rows", res.Rows),
		zap.Int("folders_created", res.FoldersCreated),
		zap.Int("nodes_created", res.NodesCreated),
		zap.Int("nodes_updated", res.NodesUpdated),
		zap.Duration("took", time.Since(start)))
	return nil
}

func readRows(path string) ([]ingest.Row, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return parseRows(path, f)
}

// parseRows picks the parser from the file extension; anything that is not
// .yaml or .yml is read as CSV.
func parseRows(name string, r io.Reader) ([]ingest.Row, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		return ingest.ParseYAML(r)
	default:
		return ingest.ParseCSV(r)
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
