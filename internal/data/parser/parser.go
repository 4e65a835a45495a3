package parser

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/errgroup"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/util"
)

// Parser decodes archive fragments.
type Parser struct {
	concurrency int
}

// ParseResult represents the result of parsing a single file.
type ParseResult struct {
	File     string
	Fragment *model.RawFragment
	Error    error
}

// NewParser creates a new Parser instance. Concurrency below one parses
// sequentially.
func NewParser(concurrency int) *Parser {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Parser{concurrency: concurrency}
}

// ParseFile decodes the fragment at path. Individual malformed messages do
// not fail the fragment; a file that is not a JSON object does.
func (p *Parser) ParseFile(path string) (*model.RawFragment, error) {
	util.LogDebug(fmt.Sprintf("Start parsing file: %s", path))

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read fragment %s: %w", path, err)
	}

	var fragment model.RawFragment
	if err := sonic.Unmarshal(data, &fragment); err != nil {
		return nil, fmt.Errorf("failed to decode fragment %s: %w", path, err)
	}

	util.LogDebug(fmt.Sprintf("Parsed %s: %d participants, %d messages",
		path, len(fragment.Participants), len(fragment.Messages)))
	return &fragment, nil
}

// ParseFiles parses files concurrently and streams one result per file.
// The channel is closed once every file has been handled. Files not yet
// started when ctx is cancelled are reported with the context error.
func (p *Parser) ParseFiles(ctx context.Context, files []string) <-chan ParseResult {
	start := time.Now()
	results := make(chan ParseResult, len(files))

	util.LogDebug(fmt.Sprintf("Start concurrent parsing of %d files, concurrency: %d", len(files), p.concurrency))

	var g errgroup.Group
	g.SetLimit(p.concurrency)

	go func() {
		for _, file := range files {
			file := file
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					results <- ParseResult{File: file, Error: err}
					return nil
				}

				fragment, err := p.ParseFile(file)
				if err != nil {
					util.LogDebug(fmt.Sprintf("File parsing failed: %s - %v", file, err))
				}
				results <- ParseResult{File: file, Fragment: fragment, Error: err}
				return nil
			})
		}

		_ = g.Wait()
		close(results)
		util.LogDebug(fmt.Sprintf("Concurrent parsing finished, total duration: %v", time.Since(start)))
	}()

	return results
}
