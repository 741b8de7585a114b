// Command bqschema-validate checks a stream of JSON or CSV records
// against a canonical BigQuery schema.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kestrel-labs/bqschema/internal/source"
	"github.com/kestrel-labs/bqschema/pkg/bqschema"
)

func main() {
	var (
		schemaPath   string
		inputPath    string
		inputFormat  string
		allowUnknown bool
		strictTypes  bool
		maxErrors    int
	)

	flag.StringVar(&schemaPath, "schema", "", "Path to the canonical schema JSON file (required)")
	flag.StringVar(&inputPath, "input", "", "Path to input file to validate (required)")
	flag.StringVar(&inputFormat, "input-format", "json", "Input format: json or csv")
	flag.BoolVar(&allowUnknown, "allow-unknown", false, "Demote unknown fields to warnings instead of errors")
	flag.BoolVar(&strictTypes, "strict-types", false, "Disallow quoted-scalar coercion")
	flag.IntVar(&maxErrors, "max-errors", 100, "Stop after this many errors (0 = unlimited)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bqschema-validate - validate records against a BigQuery schema\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bqschema-validate --schema schema.json --input records.jsonl [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if schemaPath == "" || inputPath == "" {
		fmt.Fprintln(os.Stderr, "error: --schema and --input are required")
		flag.Usage()
		os.Exit(2)
	}

	schemaData, err := os.ReadFile(schemaPath)
	if err != nil {
		log.Fatalf("failed to read schema: %v", err)
	}
	fields, err := bqschema.LoadExistingSchema(schemaData)
	if err != nil {
		log.Fatalf("failed to parse schema: %v", err)
	}

	reader, closer, err := source.Open(inputPath, inputFormat)
	if err != nil {
		log.Fatalf("failed to open input: %v", err)
	}
	defer closer.Close()

	validator := bqschema.NewValidator(fields, allowUnknown, strictTypes, maxErrors)
	result, err := validator.ValidateAll(reader)
	if err != nil {
		log.Fatalf("failed to validate input: %v", err)
	}

	for _, w := range result.Warnings {
		fmt.Printf("warning: %s\n", w.Error())
	}
	for _, e := range result.Errors {
		fmt.Printf("error: %s\n", e.Error())
	}

	fmt.Printf("\n%d errors, %d warnings\n", len(result.Errors), len(result.Warnings))

	if !result.Valid {
		os.Exit(1)
	}
}
