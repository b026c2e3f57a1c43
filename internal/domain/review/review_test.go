package review

import (
	"testing"

	"github.com/BruksfildServices01/barber-manager/internal/models"
)

func TestSummarize(t *testing.T) {
	four, five := 4, 5
	got := Summarize([]models.Review{
		{NPSScore: 10, Rating: &five},
		{NPSScore: 9, Rating: &four},
		{NPSScore: 8},
		{NPSScore: 7},
		{NPSScore: 6},
		{NPSScore: 0, Rating: &four},
	})

	want := Summary{Total: 6, Promoters: 2, Passives: 2, Detractors: 2, NPS: 0, Ratings: 3, AvgRating: 4.33}
	if got != want {
		t.Fatalf("got %+v, want %+v", got, want)
	}

	if got := Summarize([]models.Review{{NPSScore: 10}, {NPSScore: 9}, {NPSScore: 3}}); got.NPS != 33 {
		t.Fatalf("nps = %d, want 33", got.NPS)
	}
	if got := Summarize(nil); got != (Summary{}) {
		t.Fatalf("empty = %+v", got)
	}
}
