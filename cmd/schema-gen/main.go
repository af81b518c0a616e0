// Schema Generator
//
// Generates JSON Schema files for the HTTP API types so the web UI can
// validate responses. Go is the source of truth for these shapes.
//
// Usage:
//
//	go run ./cmd/schema-gen [-out dir]
//
// Output:
//
//	<dir>/trends.json
//	<dir>/shopping.json
//	<dir>/snapshot.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/contatogonetwork/urban-space-broccoli/internal/handlers"
	"github.com/contatogonetwork/urban-space-broccoli/internal/optimizer"
	"github.com/contatogonetwork/urban-space-broccoli/internal/trends"
)

// SchemaGroup represents a group of related schemas
type SchemaGroup struct {
	Name   string
	Types  []any
	Output string
}

// schemaGroups lists every exported API type by file.
func schemaGroups() []SchemaGroup {
	return []SchemaGroup{
		{
			Name: "trends",
			Types: []any{
				trends.TrendSummary{},
				handlers.ItemTrend{},
				handlers.ListTrendsResponse{},
				trends.MarketComparison{},
				handlers.LocationsResponse{},
			},
			Output: "trends.json",
		},
		{
			Name: "shopping",
			Types: []any{
				// Request types
				handlers.PlanRequest{},
				optimizer.RequestLine{},
				// Response types
				optimizer.ShoppingPlan{},
				optimizer.LineItem{},
				optimizer.LocationGroup{},
				handlers.PlanResponse{},
			},
			Output: "shopping.json",
		},
		{
			Name: "snapshot",
			Types: []any{
				handlers.SnapshotResponse{},
				handlers.HealthResponse{},
			},
			Output: "snapshot.json",
		},
	}
}

func main() {
	outputDir := flag.String("out", "schemas", "output directory")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create output directory: %v\n", err)
		os.Exit(1)
	}

	for _, group := range schemaGroups() {
		schema := generateGroupSchema(group)
		outputPath := filepath.Join(*outputDir, group.Output)

		if err := writeSchema(schema, outputPath); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to write %s: %v\n", group.Output, err)
			os.Exit(1)
		}

		fmt.Printf("Generated %s\n", outputPath)
	}

	fmt.Println("Schema generation complete!")
}

// generateGroupSchema creates a combined schema with all types in a group
func generateGroupSchema(group SchemaGroup) map[string]any {
	reflector := &jsonschema.Reflector{
		DoNotReference: false,
		ExpandedStruct: false,
	}

	definitions := make(map[string]any)

	for _, t := range group.Types {
		schema := reflector.Reflect(t)

		for name, def := range schema.Definitions {
			definitions[name] = def
		}
	}

	return map[string]any{
		"$schema":     "https://json-schema.org/draft/2020-12/schema",
		"$id":         fmt.Sprintf("https://fridge.local/schemas/%s.json", group.Name),
		"title":       fmt.Sprintf("%s API Types", capitalize(group.Name)),
		"description": fmt.Sprintf("JSON Schema for %s API types generated from Go structs", group.Name),
		"$defs":       definitions,
	}
}

// writeSchema writes a schema to a JSON file
func writeSchema(schema map[string]any, path string) error {
	data, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal schema: %w", err)
	}

	return os.WriteFile(path, data, 0644)
}

func capitalize(s string) string {
	if len(s) == 0 {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
