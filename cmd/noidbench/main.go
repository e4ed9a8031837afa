// Command noidbench drives the noidkv engine through mixed workloads and,
// optionally, a Pebble LSM baseline for comparison. It is the ambient
// "public database API/handle, CLI" collaborator spec.md §1 places out of
// scope for the core, made concrete as a thin driver (SPEC_FULL.md §2
// item 11) — it exercises the engine, it does not extend its contract.
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/spf13/afero"

	"noidkv/internal/kvengine"
	"noidkv/internal/page"
	"noidkv/internal/vfs"
)

func main() {
	var (
		ops        = flag.Int("ops", 100000, "operations per workload phase")
		out        = flag.String("out", "noidbench_results.csv", "CSV results path")
		withPebble = flag.Bool("pebble", false, "also benchmark a Pebble LSM baseline")
		dbPath     = flag.String("db", "noidbench.db", "noidkv data file path")
	)
	flag.Parse()

	if err := run(*ops, *out, *withPebble, *dbPath); err != nil {
		fmt.Fprintln(os.Stderr, "noidbench:", err)
		os.Exit(1)
	}
}

func run(ops int, outPath string, withPebble bool, dbPath string) error {
	f, err := os.Create(outPath)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()
	w.Write([]string{"Engine", "Config", "TestType", "LatencyNs", "MemMB", "HeapObjects"})

	if err := benchNoidTree(w, ops, dbPath); err != nil {
		return fmt.Errorf("noidkv b+tree: %w", err)
	}

	if withPebble {
		dir, err := os.MkdirTemp("", "noidbench-pebble-*")
		if err != nil {
			return err
		}
		defer os.RemoveAll(dir)
		if err := benchPebble(w, ops, dir); err != nil {
			return fmt.Errorf("pebble baseline: %w", err)
		}
	}

	return nil
}

func benchNoidTree(w *csv.Writer, ops int, dbPath string) error {
	os.Remove(dbPath)
	vf, err := vfs.Open(afero.NewOsFs(), dbPath)
	if err != nil {
		return err
	}
	defer vf.Close()
	defer os.Remove(dbPath)

	db, err := kvengine.Open(vf, nil)
	if err != nil {
		return err
	}
	tree, err := db.CreateTree("noidbench", page.TreeTypeTable)
	if err != nil {
		return err
	}

	for _, wt := range []WorkloadType{OLTP, OLAP, Reporting} {
		start := time.Now()
		if err := ExecuteWorkload(tree, wt, ops); err != nil {
			return err
		}
		elapsed := time.Since(start)
		mem := readMemoryStats()
		recordResult(w, BenchResult{
			Name:      "noidkv b+tree",
			Config:    fmt.Sprintf("ops=%d", ops),
			Operation: string(wt),
			LatencyNs: elapsed.Nanoseconds(),
			MemMB:     mem.AllocMB,
			Objects:   mem.HeapObjects,
		})
	}
	return nil
}

func benchPebble(w *csv.Writer, ops int, dir string) error {
	p, err := openPebbleBaseline(dir)
	if err != nil {
		return err
	}
	defer p.Close()

	start := time.Now()
	for i := 0; i < ops; i++ {
		if err := p.Insert(i, []byte("x")); err != nil {
			return err
		}
	}
	for i := 0; i < ops; i++ {
		if _, err := p.Get(i); err != nil {
			return err
		}
	}
	elapsed := time.Since(start)
	mem := readMemoryStats()
	recordResult(w, BenchResult{
		Name:      "pebble (LSM baseline)",
		Config:    fmt.Sprintf("ops=%d", ops),
		Operation: "mixed insert+get",
		LatencyNs: elapsed.Nanoseconds(),
		MemMB:     mem.AllocMB,
		Objects:   mem.HeapObjects,
	})
	return nil
}
