package trend

import (
	"strings"
	"testing"
	"time"

	"github.com/madisonpr/mentions/internal/storage"
)

var testNow = time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)

func articleAt(outlet string, daysAgo int) storage.Article {
	return storage.Article{
		Outlet:      outlet,
		PublishedOn: testNow.AddDate(0, 0, -daysAgo),
	}
}

func TestOutletChange_TooFewArticles(t *testing.T) {
	articles := []storage.Article{
		articleAt("Politico", 10),
		articleAt("Politico", 20),
		articleAt("Washington Post", 200),
		articleAt("Washington Post", 210),
	}

	changed, note := OutletChange(articles, testNow, DefaultRecentWindow)
	if changed || note != "" {
		t.Errorf("OutletChange() = (%v, %q), want (false, \"\") for < 5 articles", changed, note)
	}
}

func TestOutletChange_SparseBucket(t *testing.T) {
	// Five articles but only one in the older bucket.
	articles := []storage.Article{
		articleAt("Politico", 10),
		articleAt("Politico", 20),
		articleAt("Politico", 30),
		articleAt("Politico", 40),
		articleAt("Washington Post", 200),
	}

	changed, _ := OutletChange(articles, testNow, DefaultRecentWindow)
	if changed {
		t.Error("expected no change with < 2 articles in the older bucket")
	}
}

func TestOutletChange_Detected(t *testing.T) {
	// Older: 3 Washington Post + 1 other (75% >= 40%).
	// Recent: 3 Politico + 1 other (75% >= 40%).
	articles := []storage.Article{
		articleAt("Politico", 10),
		articleAt("Politico", 30),
		articleAt("Politico", 60),
		articleAt("Axios", 90),
		articleAt("Washington Post", 200),
		articleAt("Washington Post", 230),
		articleAt("Washington Post", 260),
		articleAt("The Hill", 290),
	}

	changed, note := OutletChange(articles, testNow, DefaultRecentWindow)
	if !changed {
		t.Fatal("expected outlet change to be detected")
	}

	if !strings.Contains(note, "Washington Post") || !strings.Contains(note, "Politico") {
		t.Errorf("note %q should mention both outlets", note)
	}
}

func TestOutletChange_SameOutlet(t *testing.T) {
	articles := []storage.Article{
		articleAt("Reuters", 10),
		articleAt("Reuters", 30),
		articleAt("Reuters", 60),
		articleAt("Reuters", 200),
		articleAt("Reuters", 230),
		articleAt("Reuters", 260),
	}

	changed, _ := OutletChange(articles, testNow, DefaultRecentWindow)
	if changed {
		t.Error("expected no change when plurality outlet is stable")
	}
}

func TestOutletChange_NoDominance(t *testing.T) {
	// Recent plurality holds only 2/6 = 33% < 40%: fragmented bylines,
	// not a change.
	articles := []storage.Article{
		articleAt("Politico", 10),
		articleAt("Politico", 20),
		articleAt("Axios", 30),
		articleAt("The Hill", 40),
		articleAt("CNN", 50),
		articleAt("NPR", 60),
		articleAt("Washington Post", 200),
		articleAt("Washington Post", 230),
		articleAt("Washington Post", 260),
	}

	changed, _ := OutletChange(articles, testNow, DefaultRecentWindow)
	if changed {
		t.Error("expected no change when recent plurality lacks dominance")
	}
}

func TestOutletChange_ConfiguredWindow(t *testing.T) {
	// With the default 180-day window everything lands in the recent bucket,
	// so no change is reported. A 90-day window splits the timeline and the
	// move from Washington Post to Politico becomes visible.
	articles := []storage.Article{
		articleAt("Politico", 10),
		articleAt("Politico", 30),
		articleAt("Politico", 60),
		articleAt("Washington Post", 100),
		articleAt("Washington Post", 120),
		articleAt("Washington Post", 140),
	}

	if changed, _ := OutletChange(articles, testNow, DefaultRecentWindow); changed {
		t.Error("expected no change with the default window")
	}

	changed, note := OutletChange(articles, testNow, 90*24*time.Hour)
	if !changed {
		t.Fatal("expected change with a 90-day window")
	}

	if !strings.Contains(note, "Politico") {
		t.Errorf("note %q should name the new outlet", note)
	}
}

func TestOutletChange_ZeroWindowUsesDefault(t *testing.T) {
	articles := []storage.Article{
		articleAt("Politico", 10),
		articleAt("Politico", 30),
		articleAt("Politico", 60),
		articleAt("Washington Post", 200),
		articleAt("Washington Post", 230),
		articleAt("Washington Post", 260),
	}

	defChanged, defNote := OutletChange(articles, testNow, DefaultRecentWindow)

	changed, note := OutletChange(articles, testNow, 0)
	if changed != defChanged || note != defNote {
		t.Errorf("zero window = (%v, %q), want default-window result (%v, %q)", changed, note, defChanged, defNote)
	}
}

func TestOutletHistory(t *testing.T) {
	articles := []storage.Article{
		articleAt("Politico", 1),
		articleAt("Politico", 2),
		articleAt("Politico", 3),
		articleAt("Axios", 4),
		articleAt("Axios", 5),
		articleAt("CNN", 6),
	}

	history := OutletHistory(articles)
	if len(history) != 3 {
		t.Fatalf("got %d outlets, want 3", len(history))
	}

	if history[0].Outlet != "Politico" || history[0].Count != 3 {
		t.Errorf("history[0] = %+v, want Politico x3", history[0])
	}

	if history[1].Outlet != "Axios" || history[1].Count != 2 {
		t.Errorf("history[1] = %+v, want Axios x2", history[1])
	}
}

func TestOutletHistory_Empty(t *testing.T) {
	if history := OutletHistory(nil); len(history) != 0 {
		t.Errorf("got %d outlets for empty input, want 0", len(history))
	}
}
