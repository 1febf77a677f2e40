// cmd/tools/knowledge-lint/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"expo-chat-workers/internal/knowledge"
	"expo-chat-workers/internal/knowledge/overlay"
	"expo-chat-workers/internal/knowledge/tree"
)

func main() {
	jsonPath := flag.String("json", "docs/knowledge.json", "Path to the JSON knowledge overlay")
	csvPath := flag.String("csv", "docs/knowledge.csv", "Path to the CSV knowledge overlay")
	printTree := flag.Bool("print", false, "Print the merged knowledge tree")
	resolve := flag.String("resolve", "", "Resolve a dot path against the merged tree (e.g. tickets.general)")
	flag.Parse()

	ctx := context.Background()
	failed := false

	merged := knowledge.DefaultBaseline()
	fmt.Printf("baseline: %d top-level sections\n", len(merged))

	loaders := []overlay.Loader{
		overlay.NewJSONFileLoader(*jsonPath),
		overlay.NewCSVFileLoader(*csvPath),
	}

	for _, l := range loaders {
		t, err := l.Load(ctx)
		if err != nil {
			fmt.Printf("%s: SKIP (%v)\n", l.Source(), err)
			failed = true
			continue
		}
		fmt.Printf("%s: OK, %d top-level sections\n", l.Source(), len(t))
		merged = tree.Merge(merged, t)
	}

	if *resolve != "" {
		value, found := tree.Resolve(*resolve, merged)
		if !found {
			fmt.Printf("resolve %s: not found\n", *resolve)
			failed = true
		} else {
			fmt.Printf("resolve %s: %v\n", *resolve, value)
		}
	}

	if *printTree {
		data, err := json.MarshalIndent(merged, "", "  ")
		if err != nil {
			fmt.Printf("marshal merged tree: %v\n", err)
			os.Exit(1)
		}
		fmt.Println(string(data))
	}

	if failed {
		os.Exit(1)
	}
}
