package templates

import (
	"net/http/httptest"
	"strings"
	"testing"

	"tarotscore/internal/summary"
)

func TestWriteRecapHTML(t *testing.T) {
	sum := summary.Summary{
		Ranking: []summary.RankEntry{
			{Position: 1, PlayerName: "Alice", Score: 120},
			{Position: 2, PlayerName: "<Bruno>", Score: -30},
		},
		ScoreSpread: 150,
		Highlights: summary.Highlights{
			TotalGames: 4,
			BestGame:   &summary.GameHighlight{Position: 2, TakerName: "Alice", Score: 280},
		},
		Awards: []summary.Award{{Title: "Le Boucher", Emoji: "🔪", PlayerName: "Alice", Description: "meilleure donne"}},
	}
	w := httptest.NewRecorder()
	WriteRecapHTML(w, sum)

	body := w.Body.String()
	if !strings.Contains(body, "Alice") || !strings.Contains(body, "Le Boucher") {
		t.Fatalf("recap missing content: %s", body)
	}
	if strings.Contains(body, "<Bruno>") {
		t.Fatalf("player name not escaped")
	}
	if !strings.Contains(body, "Meilleure donne : Alice (280, donne 2)") {
		t.Fatalf("best game missing: %s", body)
	}
	if strings.Contains(body, "Pire donne") {
		t.Fatalf("worst game should be omitted")
	}
	if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
