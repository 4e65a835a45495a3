package analyzer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/d1j/facebook-stats/internal/core/model"
	"github.com/d1j/facebook-stats/internal/core/normalizer"
	"github.com/d1j/facebook-stats/internal/core/registry"
	"github.com/d1j/facebook-stats/internal/data/aggregator"
	"github.com/d1j/facebook-stats/internal/data/cache"
	"github.com/d1j/facebook-stats/internal/data/parser"
	"github.com/d1j/facebook-stats/internal/data/scanner"
	"github.com/d1j/facebook-stats/internal/util"
)

// ErrNoFragments is returned when the archive directory holds no fragments.
var ErrNoFragments = errors.New("no archive fragments found")

type Config struct {
	DataDir  string
	CacheDir string
	UseCache bool
	// Reaction is the counted reaction kind; model.ReactionAny counts all.
	Reaction        string
	Location        *time.Location
	Concurrency     int
	DiscoverSenders bool
	RawEncoding     bool
	Dedupe          bool
}

// Analyzer loads an archive directory into a Dataset. It may be reused for
// repeated loads, in which case cached fragments stay in memory.
type Analyzer struct {
	config    *Config
	cache     cache.Cache
	scanner   *scanner.FileScanner
	parser    *parser.Parser
	preloaded bool
}

func New(config *Config) *Analyzer {
	if config.Concurrency <= 0 {
		config.Concurrency = runtime.NumCPU()
	}
	if config.Location == nil {
		config.Location = time.Local
	}

	a := &Analyzer{
		config:  config,
		scanner: scanner.NewFileScanner(config.DataDir),
		parser:  parser.NewParser(config.Concurrency),
	}

	if config.UseCache {
		fileCache, err := cache.NewFileCache(config.CacheDir)
		if err != nil {
			util.LogWarn(fmt.Sprintf("Fragment cache disabled: %v", err))
		} else {
			a.cache = fileCache
		}
	}

	return a
}

// Load scans, parses and normalizes the archive. Fragment failures and bad
// records are counted in the dataset's stats rather than returned.
func (a *Analyzer) Load(ctx context.Context) (*Dataset, error) {
	startTime := time.Now()
	util.LogInfof("Loading archive from %s", a.config.DataDir)

	if a.cache != nil && !a.preloaded {
		if err := a.cache.Preload(); err != nil {
			util.LogWarn(fmt.Sprintf("Cache preload failed: %v", err))
		}
		a.preloaded = true
	}

	files, err := a.scanner.Scan()
	if err != nil {
		return nil, fmt.Errorf("failed to scan archive: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoFragments, a.config.DataDir)
	}
	util.LogInfof("Found %d fragments", len(files))

	stats := NewIngestStats()
	stats.Files = len(files)

	fragments, err := a.loadFragments(ctx, files, stats)
	if err != nil {
		return nil, err
	}

	// Raw mode leaves reactions in export form, so the target follows.
	target := a.config.Reaction
	if a.config.RawEncoding {
		target = normalizer.ExportText(target)
	}

	reg := registry.New()
	var events []*model.Event

	// Discovery and normalization run in path order so ids are stable
	// across runs regardless of parse completion order.
	for _, file := range files {
		fragment, ok := fragments[file]
		if !ok {
			continue
		}
		if !a.config.RawEncoding {
			fragment = normalizer.RepairFragment(fragment)
		}

		for _, p := range fragment.Participants {
			if p.Name != "" {
				reg.Ensure(p.Name)
			}
		}

		for _, raw := range fragment.Messages {
			stats.Messages++
			event, err := normalizer.Normalize(raw, target)
			if err != nil {
				stats.Malformed++
				util.LogDebug(fmt.Sprintf("Skipping record in %s: %v", file, err))
				continue
			}
			if event == nil {
				stats.Unsent++
				continue
			}

			if a.config.DiscoverSenders {
				reg.Ensure(event.Sender)
				for _, r := range event.Reactions {
					reg.Ensure(r.Actor)
				}
			}
			events = append(events, event)
		}
	}

	if a.config.Dedupe {
		var dropped int
		events, dropped = aggregator.Deduplicate(events)
		stats.Duplicates = dropped
	}
	stats.Events = len(events)
	stats.Participants = reg.Len()

	stats.Log()
	util.LogDebug(fmt.Sprintf("Archive loaded in %v", time.Since(startTime)))

	return &Dataset{
		Registry: reg,
		Events:   events,
		Files:    files,
		Stats:    stats,
		Reaction: target,
		Location: a.config.Location,
	}, nil
}

// loadFragments returns the raw fragment of every readable file, taken from
// the cache where valid and parsed concurrently otherwise.
func (a *Analyzer) loadFragments(ctx context.Context, files []string, stats *IngestStats) (map[string]*model.RawFragment, error) {
	fragments := make(map[string]*model.RawFragment, len(files))
	missReasons := make(map[string]cache.CacheMissReason)

	var filesToParse []string
	for _, file := range files {
		if a.cache == nil {
			filesToParse = append(filesToParse, file)
			continue
		}
		result := a.cache.Get(file)
		if result.Found {
			stats.CacheHits++
			fragments[file] = result.Data.Fragment
			continue
		}
		filesToParse = append(filesToParse, file)
		missReasons[file] = result.MissReason
	}

	util.LogDebug(fmt.Sprintf("Cache hit for %d files, need to parse %d files",
		len(files)-len(filesToParse), len(filesToParse)))

	for result := range a.parser.ParseFiles(ctx, filesToParse) {
		if result.Error != nil {
			stats.FailedFiles++
			if !errors.Is(result.Error, context.Canceled) && !errors.Is(result.Error, context.DeadlineExceeded) {
				util.LogWarn(fmt.Sprintf("Failed to parse file %s: %v", result.File, result.Error))
			}
			continue
		}

		fragments[result.File] = result.Fragment
		if a.cache != nil {
			stats.RecordMiss(missReasons[result.File])
			if err := a.cache.Set(result.File, result.Fragment); err != nil {
				util.LogWarn(fmt.Sprintf("Failed to save cache for %s: %v", result.File, err))
			}
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return fragments, nil
}

// ClearCache removes every cached fragment.
func (a *Analyzer) ClearCache() error {
	if a.cache == nil {
		return nil
	}
	a.preloaded = false
	return a.cache.Clear()
}
