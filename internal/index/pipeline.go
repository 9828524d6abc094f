package index

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"os"
	"runtime"
	"sync"

	"github.com/zeebo/blake3"

	"sdkdocs/internal/walker"
)

// sniffLen is how much of a file is checked for NUL bytes.
const sniffLen = 8000

// HashBytes returns the hex blake3 digest used for snapshot records.
func HashBytes(b []byte) string {
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func isBinary(src []byte) bool {
	if len(src) > sniffLen {
		src = src[:sniffLen]
	}
	return bytes.IndexByte(src, 0) >= 0
}

func runPipeline(ctx context.Context, root string, opts Options) ([]*File, error) {
	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	// Stage 1: Walk
	fileCh, walkErrCh := walker.Walk(root, walker.Filter{
		MaxSize:   opts.MaxFileSize,
		KeepEmpty: true,
		OnSkip: func(rel, reason string) {
			opts.Logger.Info("not indexed", "path", rel, "reason", reason)
		},
	})

	// Stage 2: Read + hash + extract (N workers)
	outCh := make(chan *File, numWorkers)
	var wg sync.WaitGroup
	for range numWorkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for fi := range fileCh {
				if ctx.Err() != nil {
					continue // drain so the walker can finish
				}
				src, err := os.ReadFile(fi.Path)
				if err != nil {
					opts.Logger.Debug("skip unreadable file", "path", fi.RelPath, "err", err)
					continue
				}
				if isBinary(src) {
					opts.Logger.Info("not indexed", "path", fi.RelPath, "reason", "binary file")
					continue
				}
				outCh <- &File{
					Path:     fi.RelPath,
					Text:     string(src),
					Size:     fi.Size,
					Hash:     HashBytes(src),
					Language: opts.Extractor.Language(fi.Path),
					Snapshot: fi.ModTime,
					Symbols:  opts.Extractor.Extract(ctx, fi.RelPath, src),
				}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(outCh)
	}()

	// Stage 3: Collect (1 worker)
	var files []*File
	for f := range outCh {
		files = append(files, f)
	}

	if err := <-walkErrCh; err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return files, nil
}
