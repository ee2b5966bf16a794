// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Accountd Contributors

// Command gen-schema writes the JSON Schemas of the API request bodies.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/accountd/accountd/internal/api"
)

func main() {
	outDir := "schemas"
	if len(os.Args) > 1 {
		outDir = os.Args[1]
	}

	if err := os.MkdirAll(outDir, 0o750); err != nil {
		fmt.Fprintf(os.Stderr, "Error creating directory: %v\n", err)
		os.Exit(1)
	}

	for _, s := range api.RequestSchemas() {
		schema, err := s.Generate()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error generating %s schema: %v\n", s.Name(), err)
			os.Exit(1)
		}

		outPath := filepath.Join(outDir, s.Name()+".schema.json")
		if err := os.WriteFile(outPath, schema, 0o600); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", outPath)
	}
}
