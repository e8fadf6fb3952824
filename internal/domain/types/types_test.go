package types_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/okian/auscult/internal/domain/model"
	types "github.com/okian/auscult/internal/domain/types"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSessionInfo(t *testing.T) {
	Convey("Given a SessionInfo", t, func() {
		brand := "Carrefour"
		info := types.SessionInfo{
			ID:           "abc",
			CreatedAt:    time.Unix(10, 0).UTC(),
			StoredEvents: 3,
			AppProfile:   model.AppProfile{SourceApp: "com.carrefour.fid.android", LikelyBrand: &brand},
		}

		Convey("When encoding it as JSON", func() {
			b, err := json.Marshal(info)
			So(err, ShouldBeNil)

			var m map[string]any
			So(json.Unmarshal(b, &m), ShouldBeNil)

			Convey("Then it uses the wire field names", func() {
				So(m["sessionId"], ShouldEqual, "abc")
				So(m["storedEvents"], ShouldEqual, 3)
				So(m, ShouldContainKey, "filter")
				profile := m["appProfile"].(map[string]any)
				So(profile["likelyBrand"], ShouldEqual, "Carrefour")
			})
		})
	})
}

func TestIngestAck(t *testing.T) {
	Convey("Given an ingest ack with zero values", t, func() {
		ack := types.IngestAck{SessionID: "s", Status: types.StatusQueued}

		Convey("Then zero counters are still serialized", func() {
			b, err := json.Marshal(ack)
			So(err, ShouldBeNil)
			So(string(b), ShouldEqual, `{"sessionId":"s","status":"queued","events":0,"malformed":0}`)
		})
	})
}
