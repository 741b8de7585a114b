// Command bqschema-generate infers a BigQuery-compatible schema from a
// stream of JSON or CSV records.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"

	"github.com/kestrel-labs/bqschema/internal/config"
	"github.com/kestrel-labs/bqschema/internal/source"
	"github.com/kestrel-labs/bqschema/pkg/bqschema"
)

var (
	version = "dev"
	commit  = "unknown"
)

func main() {
	var (
		configFile  string
		inputPath   string
		inputFormat string
		outputPath  string
		dataDir     string
		showVersion bool
	)

	flag.StringVar(&configFile, "config", "", "Path to configuration file (YAML or JSON)")
	flag.StringVar(&inputPath, "input", "", "Path to input file (required)")
	flag.StringVar(&inputFormat, "input-format", "", "Input format: json or csv (overrides config)")
	flag.StringVar(&outputPath, "output", "", "Path to write the generated schema (default: stdout)")
	flag.StringVar(&dataDir, "data-dir", "", "Base directory for the schema registry")
	flag.BoolVar(&showVersion, "version", false, "Show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bqschema-generate - infer a BigQuery schema from JSON or CSV\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bqschema-generate --input records.jsonl [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if showVersion {
		fmt.Printf("bqschema-generate version %s (commit: %s)\n", version, commit)
		os.Exit(0)
	}

	if inputPath == "" {
		fmt.Fprintln(os.Stderr, "error: --input is required")
		flag.Usage()
		os.Exit(2)
	}

	opts, err := loadOptions(configFile)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if inputFormat != "" {
		opts.InputFormat = config.InputFormat(inputFormat)
	}
	if dataDir != "" {
		opts.DataDir = dataDir
	}
	opts.Resolve()

	if err := opts.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	runID := uuid.New().String()
	ctx := context.Background()

	var (
		reader io.Closer
		rd     source.Reader
	)
	if opts.Storage.Type == config.StorageS3 {
		store, err := bqschema.OpenStorage(ctx, opts)
		if err != nil {
			log.Fatalf("run %s: failed to open storage: %v", runID, err)
		}
		rd, reader, err = source.FromObjectStorage(ctx, store, inputPath, string(opts.InputFormat))
		if err != nil {
			log.Fatalf("run %s: failed to open input: %v", runID, err)
		}
	} else {
		r, closer, err := source.Open(inputPath, string(opts.InputFormat))
		if err != nil {
			log.Fatalf("run %s: failed to open input: %v", runID, err)
		}
		rd, reader = r, closer
	}
	defer reader.Close()

	gen := bqschema.NewGenerator(opts)

	if opts.ExistingSchemaPath != "" {
		data, err := readExistingSchemaBytes(ctx, opts)
		if err != nil {
			log.Fatalf("run %s: failed to load existing schema: %v", runID, err)
		}
		existing, err := bqschema.LoadExistingSchema(data)
		if err != nil {
			log.Fatalf("run %s: failed to parse existing schema: %v", runID, err)
		}
		gen.SeedExisting(existing)
	}

	if err := gen.Consume(rd); err != nil {
		log.Fatalf("run %s: failed to process input: %v", runID, err)
	}

	result := gen.Finish()

	for _, entry := range result.Log {
		log.Printf("run %s: record %d: %s", runID, entry.Line, entry.Message)
	}
	log.Printf("run %s: %d records observed, %d rejected, %d hard fields, %d soft fields, %d ignored",
		runID, result.Metrics.RecordsObserved, result.Metrics.RecordsRejected,
		result.Metrics.HardCount, result.Metrics.SoftCount, result.Metrics.IgnoreCount)

	out, err := json.MarshalIndent(result.Fields, "", "  ")
	if err != nil {
		log.Fatalf("failed to marshal schema: %v", err)
	}

	if outputPath == "" || outputPath == "-" {
		fmt.Println(string(out))
		return
	}
	if err := writeOutput(ctx, opts, outputPath, out); err != nil {
		log.Fatalf("failed to write output: %v", err)
	}

	if opts.DataDir != "" {
		reg, err := bqschema.SchemaRegistry(context.Background(), opts)
		if err != nil {
			log.Printf("bqschema-generate: failed to open registry: %v", err)
			return
		}
		defer reg.Close()
		version, err := reg.Register(context.Background(), result.Fields)
		if err != nil {
			log.Printf("bqschema-generate: failed to register schema: %v", err)
			return
		}
		log.Printf("bqschema-generate: registered as version %d", version)
	}
}

func loadOptions(configFile string) (*config.Options, error) {
	if configFile == "" {
		opts := config.Default()
		config.LoadFromEnv(opts)
		return opts, nil
	}
	opts, err := config.LoadFromFile(configFile)
	if err != nil {
		return nil, err
	}
	config.LoadFromEnv(opts)
	return opts, nil
}

// readExistingSchemaBytes fetches the raw existing-schema document,
// either from local disk or, when the run is configured against S3,
// through the ObjectStorage abstraction (checking Exists first so a
// missing document produces a clear error rather than a download
// failure).
func readExistingSchemaBytes(ctx context.Context, opts *config.Options) ([]byte, error) {
	if opts.Storage.Type != config.StorageS3 {
		return os.ReadFile(opts.ExistingSchemaPath)
	}

	store, err := bqschema.OpenStorage(ctx, opts)
	if err != nil {
		return nil, err
	}
	found, err := store.Exists(ctx, opts.ExistingSchemaPath)
	if err != nil {
		return nil, fmt.Errorf("checking for existing schema: %w", err)
	}
	if !found {
		return nil, fmt.Errorf("existing schema object %q not found", opts.ExistingSchemaPath)
	}

	tmp, err := os.CreateTemp("", "bqschema-existing-*.json")
	if err != nil {
		return nil, err
	}
	tmpPath := tmp.Name()
	tmp.Close()
	defer os.Remove(tmpPath)

	if err := store.Download(ctx, opts.ExistingSchemaPath, tmpPath); err != nil {
		return nil, fmt.Errorf("downloading existing schema: %w", err)
	}
	return os.ReadFile(tmpPath)
}

// writeOutput writes the generated schema to outputPath, using the
// ObjectStorage abstraction's Upload when the run is configured against
// S3 so the output ends up in the same bucket the input and existing
// schema were read from.
func writeOutput(ctx context.Context, opts *config.Options, outputPath string, out []byte) error {
	if opts.Storage.Type != config.StorageS3 {
		return os.WriteFile(outputPath, out, 0644)
	}

	store, err := bqschema.OpenStorage(ctx, opts)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp("", "bqschema-output-*.json")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		return err
	}
	tmp.Close()

	return store.Upload(ctx, tmpPath, outputPath)
}
