package telemetry

import "testing"

func hasBookmark(bookmarks []Bookmark, typ BookmarkType) bool {
	for _, bm := range bookmarks {
		if bm.Type == typ {
			return true
		}
	}
	return false
}

func TestBookmarkDetector_FirstFullBout(t *testing.T) {
	bd := NewBookmarkDetector(10)

	if got := bd.Check(BoutStats{Tick: 10, FullHiveBouts: 0}); len(got) != 0 {
		t.Errorf("unexpected bookmarks before any bout: %v", got)
	}
	if !hasBookmark(bd.Check(BoutStats{Tick: 500, FullHiveBouts: 1}), BookmarkFirstFullBout) {
		t.Error("expected first_full_bout bookmark")
	}
	if hasBookmark(bd.Check(BoutStats{Tick: 900, FullHiveBouts: 2}), BookmarkFirstFullBout) {
		t.Error("first_full_bout triggered twice")
	}
}

func TestBookmarkDetector_Breakthroughs(t *testing.T) {
	tests := []struct {
		name  string
		spike BoutStats
		want  BookmarkType
	}{
		{"foraging", BoutStats{ForagingEfficiency: 40, SearchEfficiency: 0.01}, BookmarkForagingBreakthrough},
		{"search", BoutStats{ForagingEfficiency: 10, SearchEfficiency: 0.05}, BookmarkSearchBreakthrough},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd := NewBookmarkDetector(10)
			for i := 1; i <= 5; i++ {
				bd.Check(BoutStats{Tick: i * 100, FullHiveBouts: i, ForagingEfficiency: 10, SearchEfficiency: 0.01})
			}
			tt.spike.Tick, tt.spike.FullHiveBouts = 600, 6
			got := bd.Check(tt.spike)
			if !hasBookmark(got, tt.want) {
				t.Errorf("expected %s bookmark, got %v", tt.want, got)
			}
		})
	}
}

func TestBookmarkDetector_NeedsHistory(t *testing.T) {
	bd := NewBookmarkDetector(10)
	bd.Check(BoutStats{FullHiveBouts: 1, ForagingEfficiency: 1})
	got := bd.Check(BoutStats{FullHiveBouts: 2, ForagingEfficiency: 100})
	if hasBookmark(got, BookmarkForagingBreakthrough) {
		t.Error("breakthrough triggered without enough history")
	}
}

func TestBookmarkDetector_SlumpTriggersOnce(t *testing.T) {
	bd := NewBookmarkDetector(10)
	for i := 1; i <= 4; i++ {
		bd.Check(BoutStats{FullHiveBouts: i, ForagingEfficiency: 20})
	}

	if !hasBookmark(bd.Check(BoutStats{FullHiveBouts: 5, ForagingEfficiency: 5}), BookmarkForagingSlump) {
		t.Fatal("expected foraging_slump bookmark")
	}
	if hasBookmark(bd.Check(BoutStats{FullHiveBouts: 6, ForagingEfficiency: 5}), BookmarkForagingSlump) {
		t.Error("sustained slump triggered again")
	}
}
