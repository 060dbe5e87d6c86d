package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/playmatatu/eightball/internal/models"
)

type fakeRatings struct {
	calls  int
	change *models.RatingChange
	err    error
}

func (f *fakeRatings) UpdateRatingsAfterGame(ctx context.Context, winnerID, loserID string) (*models.RatingChange, error) {
	f.calls++
	return f.change, f.err
}

type fakeGames struct {
	recs []*models.GameRecord
	err  error
}

func (f *fakeGames) CreateGame(ctx context.Context, rec *models.GameRecord) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.recs = append(f.recs, rec)
	return int64(len(f.recs)), nil
}

type fakePublisher struct {
	published []*models.GameRecord
}

func (f *fakePublisher) PublishGameResult(ctx context.Context, rec *models.GameRecord) error {
	f.published = append(f.published, rec)
	return nil
}

func TestRecorderRatedGame(t *testing.T) {
	ratings := &fakeRatings{change: &models.RatingChange{WinnerRating: 340, LoserRating: 260, RatingGained: 40, RatingLost: 40}}
	games := &fakeGames{}
	pub := &fakePublisher{}
	r := NewRecorder(ratings, games, pub, 4)

	var rated []int
	r.OnRated(func(winnerID string, winnerRating int, loserID string, loserRating int) {
		rated = append(rated, winnerRating, loserRating)
	})

	r.process(context.Background(), MatchResult{GameID: 1, WinnerID: "7", LoserID: "9", WinnerScore: 8, WinReason: WinByScore, Rated: true})

	if ratings.calls != 1 || len(rated) != 2 || rated[0] != 340 {
		t.Fatalf("ratings calls=%d rated=%v", ratings.calls, rated)
	}
	if len(games.recs) != 1 || len(pub.published) != 1 {
		t.Fatal("game not recorded and published")
	}
	rec := pub.published[0]
	if rec.ID != 1 || rec.WinnerID.Int64 != 7 || rec.RatingGained.Int64 != 40 || rec.WinReason != 1 {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRecorderUnratedGuestGame(t *testing.T) {
	ratings := &fakeRatings{}
	games := &fakeGames{}
	r := NewRecorder(ratings, games, nil, 4)

	r.process(context.Background(), MatchResult{GameID: 2, WinnerID: "guest_abc", LoserID: "9", Rated: false})

	if ratings.calls != 0 {
		t.Fatal("unrated game was rated")
	}
	rec := games.recs[0]
	if rec.WinnerID.Valid || !rec.LoserID.Valid || rec.RatingGained.Valid {
		t.Fatalf("record = %+v", rec)
	}
}

func TestRecorderContinuesAfterFailures(t *testing.T) {
	ratings := &fakeRatings{err: errors.New("deadlock")}
	games := &fakeGames{err: errors.New("db down")}
	pub := &fakePublisher{}
	r := NewRecorder(ratings, games, pub, 4)

	r.process(context.Background(), MatchResult{GameID: 3, WinnerID: "1", LoserID: "2", Rated: true})

	if len(pub.published) != 1 || pub.published[0].ID != 0 {
		t.Fatal("publish skipped after earlier failures")
	}
}

func TestRecorderSubmitDropsWhenFull(t *testing.T) {
	r := NewRecorder(nil, nil, nil, 1)
	done := make(chan struct{})
	go func() {
		r.Submit(MatchResult{GameID: 1})
		r.Submit(MatchResult{GameID: 2})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Submit blocked")
	}
	if len(r.results) != 1 || (<-r.results).GameID != 1 {
		t.Fatal("expected only the first result to be buffered")
	}
}

type signalGames struct {
	got chan *models.GameRecord
}

func (f signalGames) CreateGame(ctx context.Context, rec *models.GameRecord) (int64, error) {
	f.got <- rec
	return 1, nil
}

func TestRecorderRunProcessesSubmitted(t *testing.T) {
	games := signalGames{got: make(chan *models.GameRecord, 1)}
	r := NewRecorder(nil, games, nil, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	r.Submit(MatchResult{GameID: 1, WinnerName: "alice", LoserName: "bob"})
	select {
	case rec := <-games.got:
		if rec.WinnerName != "alice" {
			t.Fatalf("record = %+v", rec)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("result never processed")
	}
}
