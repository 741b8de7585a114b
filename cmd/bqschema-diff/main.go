// Command bqschema-diff compares two BigQuery schema JSON files and
// reports which fields changed, and whether the change is breaking.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kestrel-labs/bqschema/pkg/bqschema"
)

func main() {
	var (
		oldPath string
		newPath string
		strict  bool
		failOn  bool
	)

	flag.StringVar(&oldPath, "old", "", "Path to the previous schema JSON file (required)")
	flag.StringVar(&newPath, "new", "", "Path to the new schema JSON file (required)")
	flag.BoolVar(&strict, "strict", false, "Flag every change, including safe widenings, as breaking")
	flag.BoolVar(&failOn, "fail-on-breaking", true, "Exit with status 1 if any breaking change is found")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "bqschema-diff - compare two BigQuery schemas\n\n")
		fmt.Fprintf(os.Stderr, "Usage: bqschema-diff --old old.json --new new.json [options]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}

	flag.Parse()

	if oldPath == "" || newPath == "" {
		fmt.Fprintln(os.Stderr, "error: --old and --new are required")
		flag.Usage()
		os.Exit(2)
	}

	oldFields, err := loadSchema(oldPath)
	if err != nil {
		log.Fatalf("failed to load old schema: %v", err)
	}
	newFields, err := loadSchema(newPath)
	if err != nil {
		log.Fatalf("failed to load new schema: %v", err)
	}

	result := bqschema.Diff(oldFields, newFields, strict)

	if !result.HasChanges() {
		fmt.Println("no changes")
		return
	}

	for _, c := range result.Changes {
		marker := " "
		if c.Breaking {
			marker = "!"
		}
		fmt.Printf("%s %-8s %s: %s\n", marker, c.ChangeType, c.Path, c.Description)
	}

	fmt.Printf("\nsummary: %d added, %d removed, %d modified, %d breaking\n",
		result.Summary.Added, result.Summary.Removed, result.Summary.Modified, result.Summary.Breaking)

	if failOn && result.HasBreakingChanges() {
		os.Exit(1)
	}
}

func loadSchema(path string) ([]bqschema.Field, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return bqschema.LoadExistingSchema(data)
}
