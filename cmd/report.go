package main

import (
	"fmt"
	"io"
	"runtime"

	"skipgram-go/internal/service"
)

func printReport(w io.Writer, res *service.ProcessResult, cm *service.CorpusManager, top int) {
	stats := cm.GetStats()

	fmt.Fprintf(w, "=== Corpus %s ===\n", res.Corpus)
	fmt.Fprintf(w, "Root: %s\n", res.Root)
	if res.Revision != "" {
		fmt.Fprintf(w, "Revision: %s\n", res.Revision)
	}
	fmt.Fprintf(w, "Files: %d (failed %d)\n", res.Files, res.Failed)
	fmt.Fprintf(w, "Tokens: %d\n", stats.TotalTokens)
	fmt.Fprintf(w, "Unique entries: %d, trie nodes: %d\n", stats.Global.Unique, stats.Global.Nodes)
	fmt.Fprintf(w, "Duration: %s\n\n", res.Duration)

	if top <= 0 {
		return
	}
	maxOrder, _ := cm.Bounds()
	for order := 1; order <= maxOrder; order++ {
		entries, err := cm.TopNGrams(order, 0, top)
		if err != nil || len(entries) == 0 {
			continue
		}
		fmt.Fprintf(w, "--- Top %d-grams ---\n", order)
		for _, e := range entries {
			fmt.Fprintf(w, "%8d  %s\n", e.Count, e.Tokens.String())
		}
		fmt.Fprintln(w)
	}
}

func readHeap() uint64 {
	runtime.GC()
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.HeapAlloc
}

func printHeap(w io.Writer, before, after uint64) {
	fmt.Fprintln(w, "--- Memory ---")
	fmt.Fprintf(w, "Heap before ingestion: %.2f MB\n", float64(before)/(1024*1024))
	fmt.Fprintf(w, "Heap after ingestion: %.2f MB\n", float64(after)/(1024*1024))
	if after > before {
		fmt.Fprintf(w, "Retained by corpora: ~%.2f MB\n", float64(after-before)/(1024*1024))
	}
}
