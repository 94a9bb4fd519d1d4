package storage

import (
	"sync"
)

// fingerprintTask is one file queued for hashing; index keeps encounter order.
type fingerprintTask struct {
	index int
	path  string
}

// FingerprintResult is the outcome of hashing one file.
type FingerprintResult struct {
	Path        string
	Fingerprint Fingerprint
	Err         error
}

// FingerprintAll hashes paths on numWorkers goroutines. Results come back in
// the order of paths regardless of which worker finished first.
func FingerprintAll(paths []string, numWorkers int) []FingerprintResult {
	if numWorkers < 1 {
		numWorkers = 1
	}
	if numWorkers > len(paths) {
		numWorkers = len(paths)
	}

	results := make([]FingerprintResult, len(paths))
	queue := make(chan fingerprintTask, len(paths))
	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range queue {
				fp, err := FingerprintFile(task.path)
				// Każdy worker pisze tylko do własnego indeksu.
				results[task.index] = FingerprintResult{Path: task.path, Fingerprint: fp, Err: err}
			}
		}()
	}

	for i, path := range paths {
		queue <- fingerprintTask{index: i, path: path}
	}
	close(queue)
	wg.Wait()

	return results
}
