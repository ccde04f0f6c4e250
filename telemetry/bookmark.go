package telemetry

import (
	"fmt"
	"log/slog"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstFullBout        BookmarkType = "first_full_bout"
	BookmarkForagingBreakthrough BookmarkType = "foraging_breakthrough"
	BookmarkSearchBreakthrough   BookmarkType = "search_breakthrough"
	BookmarkForagingSlump        BookmarkType = "foraging_slump"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type          BookmarkType `csv:"type" json:"type"`
	Tick          int          `csv:"tick" json:"tick"`
	FullHiveBouts int          `csv:"full_hive_bouts" json:"full_hive_bouts"`
	Description   string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark(logger *slog.Logger) {
	logger.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"full_hive_bouts", b.FullHiveBouts,
		"description", b.Description,
	)
}

// BoutStats are the metrics sampled each time the full-hive bout count rises.
type BoutStats struct {
	Tick               int
	FullHiveBouts      int
	ForagingEfficiency float64
	SearchEfficiency   float64
}

// BookmarkDetector detects notable full-hive bouts.
type BookmarkDetector struct {
	// Rolling history (circular buffer)
	history     []BoutStats
	historySize int
	historyIdx  int
	historyFull bool

	seenFirst    bool
	foragingPeak float64
}

// Breakthrough and slump thresholds relative to history.
const (
	breakthroughFactor = 1.5
	slumpFactor        = 0.5
	minHistory         = 3
)

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < minHistory {
		historySize = minHistory
	}
	return &BookmarkDetector{
		history:     make([]BoutStats, historySize),
		historySize: historySize,
	}
}

// Check analyzes the latest bout and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats BoutStats) []Bookmark {
	var bookmarks []Bookmark

	if !bd.seenFirst && stats.FullHiveBouts >= 1 {
		bd.seenFirst = true
		bookmarks = append(bookmarks, Bookmark{
			Type:          BookmarkFirstFullBout,
			Tick:          stats.Tick,
			FullHiveBouts: stats.FullHiveBouts,
			Description:   fmt.Sprintf("Every agent completed a bout by tick %d", stats.Tick),
		})
	}

	if b := bd.checkBreakthrough(stats, BookmarkForagingBreakthrough, "Foraging efficiency",
		func(s BoutStats) float64 { return s.ForagingEfficiency }); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkBreakthrough(stats, BookmarkSearchBreakthrough, "Search efficiency",
		func(s BoutStats) float64 { return s.SearchEfficiency }); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkSlump(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.addToHistory(stats)
	if stats.ForagingEfficiency > bd.foragingPeak {
		bd.foragingPeak = stats.ForagingEfficiency
	}

	return bookmarks
}

func (bd *BookmarkDetector) addToHistory(stats BoutStats) {
	bd.history[bd.historyIdx] = stats
	bd.historyIdx = (bd.historyIdx + 1) % bd.historySize
	if bd.historyIdx == 0 {
		bd.historyFull = true
	}
}

func (bd *BookmarkDetector) getHistory() []BoutStats {
	if bd.historyFull {
		return bd.history
	}
	return bd.history[:bd.historyIdx]
}

func (bd *BookmarkDetector) checkBreakthrough(stats BoutStats, typ BookmarkType, label string, metric func(BoutStats) float64) *Bookmark {
	history := bd.getHistory()
	if len(history) < minHistory {
		return nil
	}

	var total float64
	for _, h := range history {
		total += metric(h)
	}
	avg := total / float64(len(history))
	if avg <= 0 {
		return nil
	}

	current := metric(stats)
	if current > avg*breakthroughFactor {
		return &Bookmark{
			Type:          typ,
			Tick:          stats.Tick,
			FullHiveBouts: stats.FullHiveBouts,
			Description:   fmt.Sprintf("%s %.4f is %.1fx average (%.4f)", label, current, current/avg, avg),
		}
	}
	return nil
}

func (bd *BookmarkDetector) checkSlump(stats BoutStats) *Bookmark {
	if len(bd.getHistory()) < minHistory || bd.foragingPeak <= 0 {
		return nil
	}
	if stats.ForagingEfficiency < bd.foragingPeak*slumpFactor {
		peak := bd.foragingPeak
		// Reset so a sustained slump triggers once
		bd.foragingPeak = stats.ForagingEfficiency
		return &Bookmark{
			Type:          BookmarkForagingSlump,
			Tick:          stats.Tick,
			FullHiveBouts: stats.FullHiveBouts,
			Description:   fmt.Sprintf("Foraging efficiency fell from %.4f to %.4f", peak, stats.ForagingEfficiency),
		}
	}
	return nil
}
