// Command annkit is the reference CLI demo: it builds an index from a
// word2vec.bin embedding dump, runs a sample search, and can exercise the
// recall self-test and mass-deletion stress test on request.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/annkit/annkit/internal/distance"
	"github.com/annkit/annkit/internal/hnsw"
	"github.com/annkit/annkit/internal/loader"
)

const embeddingDim = 300

func main() {
	fs := flag.NewFlagSet("annkit", flag.ContinueOnError)
	quant := fs.Bool("quant", false, "quantize vectors to Q8 (8-bit signed)")
	binQuant := fs.Bool("bin", false, "quantize vectors to BIN (1-bit sign)")
	threads := fs.Int("threads", 0, "number of concurrent insert/search workers (0 = single-threaded)")
	numele := fs.Int("numele", 20000, "number of word2vec.bin records to load")
	massDel := fs.Bool("mass-del", false, "delete 95% of inserted nodes and re-validate")
	recall := fs.Bool("recall", false, "run the recall self-test against a brute-force baseline")
	dataPath := fs.String("data", "word2vec.bin", "path to the word2vec.bin embedding dump")

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(1)
	}

	kind := distance.FP32
	switch {
	case *binQuant:
		kind = distance.BIN
	case *quant:
		kind = distance.Q8
	default:
		log.Println("no quantization requested; pass --quant or --bin to enable it")
	}

	idx, err := hnsw.New(embeddingDim, kind, hnsw.DefaultConfig())
	if err != nil {
		log.Fatalf("creating index: %v", err)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Println("interrupted, exiting")
		os.Exit(1)
	}()

	if _, err := os.Stat(*dataPath); err != nil {
		log.Printf("%s missing: %v", *dataPath, err)
		os.Exit(1)
	}

	var lastWord string
	var lastVector []float32
	start := time.Now()
	loaded := 0

	if *threads > 0 {
		lastWord, lastVector, loaded = runConcurrent(idx, *dataPath, *numele, *threads)
	} else {
		fmt.Println("single-threaded load; pass --threads N for the concurrent insert path")
		id := uint64(0)
		err := loader.Load(*dataPath, embeddingDim, *numele, func(e loader.Entry) error {
			if _, err := idx.Insert(id, e.Vector, e.Word, nil, 0); err != nil {
				return err
			}
			lastWord, lastVector = e.Word, e.Vector
			id++
			loaded++
			if loaded%10000 == 0 {
				fmt.Printf("%d added\n", loaded)
			}
			return nil
		})
		if err != nil {
			log.Fatalf("loading %s: %v", *dataPath, err)
		}
	}

	elapsed := time.Since(start)
	rate := float64(loaded) / elapsed.Seconds()
	fmt.Printf("%d words added (%.0f words/sec), last word: %s\n", idx.NodeCount(), rate, lastWord)

	if lastVector == nil {
		lastVector = make([]float32, embeddingDim)
	}
	results, err := idx.Search(lastVector, 10, hnsw.SearchOptions{})
	if err != nil {
		log.Fatalf("search: %v", err)
	}
	fmt.Printf("Found %d neighbors:\n", len(results))
	for _, r := range results {
		fmt.Printf("Node ID: %d, distance: %f\n", r.ID, r.Distance)
	}

	if *recall {
		fmt.Print(idx.PrintStats())
		idx.TestGraphRecall(200, 10)
	}

	report := idx.ValidateGraph()
	fmt.Printf("%d connected nodes. Links all reciprocal: %v\n", report.ConnectedNodes, report.AllReciprocal)

	if *massDel {
		runMassDeletion(idx)
	}
}

// runConcurrent mirrors the reference multi-threaded loader: N worker
// goroutines share one file reader under a mutex and race to insert via
// the optimistic prepare/commit path, falling back to a locking insert on
// conflict.
func runConcurrent(idx *hnsw.Index, path string, numele, threads int) (lastWord string, lastVector []float32, loaded int) {
	r, err := loader.Open(path, embeddingDim)
	if err != nil {
		log.Fatalf("opening %s: %v", path, err)
	}
	defer r.Close()

	var fileMu sync.Mutex
	var idMu sync.Mutex
	var wg sync.WaitGroup
	nextID := uint64(0)
	var mu sync.Mutex

	worker := func() {
		defer wg.Done()
		for {
			fileMu.Lock()
			entry, err := r.Next()
			fileMu.Unlock()
			if err != nil {
				return
			}

			idMu.Lock()
			id := nextID
			nextID++
			idMu.Unlock()
			if int(id) >= numele {
				return
			}

			prep, err := idx.PrepareInsert(id, entry.Vector, entry.Word, nil, 0)
			if err != nil {
				continue
			}
			if _, err := idx.CommitInsert(prep); err != nil {
				idx.Insert(id, entry.Vector, entry.Word, nil, 0)
			}

			mu.Lock()
			lastWord, lastVector = entry.Word, entry.Vector
			loaded++
			n := loaded
			mu.Unlock()
			if n%10000 == 0 {
				fmt.Printf("%d added\n", n)
			}
		}
	}

	for i := 0; i < threads; i++ {
		wg.Add(1)
		go worker()
	}
	wg.Wait()
	return lastWord, lastVector, loaded
}

// runMassDeletion deletes ~95% of the index's live nodes in a
// non-contiguous order and re-validates and re-measures recall, following
// the reference implementation's mass-deletion stress test.
func runMassDeletion(idx *hnsw.Index) {
	const removePct = 95
	initial := idx.NodeCount()
	target := initial * (100 - removePct) / 100

	fmt.Printf("\nRemoving %d%% of nodes...\n", removePct)
	var live []uint64
	idx.WalkLiveIDs(func(id uint64) bool {
		live = append(live, id)
		return true
	})

	deleted := 0
	for i := 0; i < len(live) && idx.NodeCount() > target; i++ {
		if err := idx.DeleteNode(live[i]); err == nil {
			deleted++
		}
		// From time to time skip an extra node, so deletions don't only
		// remove a contiguous run of the walk order.
		if i+1 < len(live) && rand.Intn(removePct) == 0 {
			i++
		}
	}
	fmt.Printf("%d nodes left\n", idx.NodeCount())

	report := idx.ValidateGraph()
	fmt.Printf("%d connected nodes. Links all reciprocal: %v\n", report.ConnectedNodes, report.AllReciprocal)
	idx.TestGraphRecall(200, 10)
}
