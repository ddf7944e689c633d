package api_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/outwit/internal/adapters/repository"
	service "github.com/okian/outwit/internal/app"
	"github.com/okian/outwit/internal/domain/model"
	"github.com/okian/outwit/internal/domain/types"
)

func TestAPIIntegration(t *testing.T) {
	Convey("Given the API over a running service and a seeded memory store", t, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		st := repository.NewMemoryStore()
		So(st.Seed(ctx, model.Season{
			Castaways: []model.Castaway{
				{ID: 1, Name: "Ana", Active: true},
				{ID: 2, Name: "Ben", Active: true},
				{ID: 3, Name: "Cyd", Active: true},
				{ID: 4, Name: "Dov", Active: true},
			},
			Episodes: []model.Episode{{ID: 10, Number: 1}},
			Players:  []model.Player{{ID: "alice", DisplayName: "Alice"}, {ID: "bob", DisplayName: "Bob"}},
		}), ShouldBeNil)

		svc := service.New(service.WithStore(st), service.WithWorkerCount(1))
		So(svc.Start(ctx), ShouldBeNil)
		defer func() { _ = svc.Stop(ctx) }()
		mux := newMux(svc)

		Convey("When picks are submitted and an episode is finalized", func() {
			So(do(mux, http.MethodPost, "/players/alice/picks", validPicks).Code, ShouldEqual, http.StatusOK)
			w := do(mux, http.MethodPost, "/episodes/10/finalize",
				`{"request_id":"ep-10","events":[{"castaway_id":1,"kind":"individual_immunity_win"}],`+
					`"eliminations":[{"castaway_id":4,"placement":"first_boot","boot_order":1}]}`)
			So(w.Code, ShouldEqual, http.StatusAccepted)

			deadline := time.Now().Add(5 * time.Second)
			for time.Now().Before(deadline) {
				if n, _ := svc.GetStats()["jobs_processed"].(int64); n >= 1 {
					break
				}
				time.Sleep(5 * time.Millisecond)
			}

			Convey("Then the leaderboard reflects the finalized episode", func() {
				lw := do(mux, http.MethodGet, "/leaderboard", "")
				So(lw.Code, ShouldEqual, http.StatusOK)
				var rows []types.Entry
				So(json.Unmarshal(lw.Body.Bytes(), &rows), ShouldBeNil)
				So(len(rows), ShouldEqual, 2)
				So(rows[0].PlayerID, ShouldEqual, "alice")
				So(rows[0].TrioPoints, ShouldEqual, 6)
				So(rows[0].IckyPoints, ShouldEqual, 15)
				So(rows[0].TotalPoints, ShouldEqual, 21)
				So(rows[1].TotalPoints, ShouldEqual, 0)
			})

			Convey("Then an unknown player's score is a 404", func() {
				So(do(mux, http.MethodGet, "/players/zed/score", "").Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}
