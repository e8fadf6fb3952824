package scoring_test

import (
	"testing"

	"github.com/okian/auscult/internal/domain/model"
	scoring "github.com/okian/auscult/internal/domain/scoring"
	. "github.com/smartystreets/goconvey/convey"
)

func TestScorer_Score(t *testing.T) {
	Convey("Given a default scorer", t, func() {
		scorer := scoring.NewScorer()

		Convey("When an inferred add-to-cart click carries a price", func() {
			ev := &model.NormalizedEvent{
				RawKind:  model.KindClick,
				Category: model.AddToCart,
				Evidence: []string{"raw_event:click", "pattern:add_to_cart", model.EvidenceTextMatch, model.EvidencePrice},
				Context:  model.Context{ScreenGuess: model.ProductDetail},
			}

			Convey("Then corroborating evidence outweighs the missing id", func() {
				// 0.5 base +0.2 click +0.2 text -0.2 text only +0.15 screen +0.1 price
				So(scorer.Score(ev), ShouldAlmostEqual, 0.95, 0.0001)
			})
		})

		Convey("When an explicit add-to-cart signal has every corroboration", func() {
			ev := &model.NormalizedEvent{
				RawKind:  model.KindAddToCart,
				Category: model.AddToCart,
				Widget:   model.Widget{ID: "btn_add"},
				Evidence: []string{model.EvidencePrice},
				Context:  model.Context{ScreenGuess: model.ProductDetail},
			}

			Convey("Then the score is clamped to 1", func() {
				So(scorer.Score(ev), ShouldEqual, 1.0)
			})
		})

		Convey("When a click comes from an embedded web view", func() {
			ev := &model.NormalizedEvent{
				RawKind:  model.KindClick,
				Category: model.Click,
				Evidence: []string{model.EvidenceWebSurface},
			}

			Convey("Then the web surface penalty applies", func() {
				So(scorer.Score(ev), ShouldAlmostEqual, 0.75, 0.0001)
			})
		})

		Convey("When the event is unknown", func() {
			ev := &model.NormalizedEvent{RawKind: "custom", Category: model.Unknown}

			Convey("Then the score stays low", func() {
				So(scorer.Score(ev), ShouldAlmostEqual, 0.1, 0.0001)
			})
		})

		Convey("When a category has no listed base", func() {
			So(scorer.Base(model.Payment), ShouldEqual, 0.35)
			So(scorer.Base(model.Click), ShouldEqual, 0.6)
		})

		Convey("When penalties pile up", func() {
			ev := &model.NormalizedEvent{
				RawKind:  model.KindContentChanged,
				Category: model.Unknown,
				Evidence: []string{model.EvidenceTextMatch, model.EvidenceWebSurface},
			}

			Convey("Then the score never drops below 0", func() {
				So(scorer.Score(ev), ShouldEqual, 0.0)
			})
		})

		Convey("When scoring the same event twice", func() {
			ev := &model.NormalizedEvent{
				RawKind:  model.KindScroll,
				Category: model.ProductList,
				Evidence: []string{"pattern:product_grid", model.EvidenceTextMatch},
			}
			first := scorer.Score(ev)
			scorer.Apply(ev)

			Convey("Then the result is identical", func() {
				So(ev.Confidence, ShouldEqual, first)
				So(scorer.Score(ev), ShouldEqual, first)
			})
		})
	})
}

func TestScorer_Options(t *testing.T) {
	Convey("Given a scorer with custom options", t, func() {
		scorer := scoring.NewScorer(
			scoring.WithBaseConfidence(map[model.Category]float64{
				model.Payment: 0.7,
				model.Search:  1.5,
			}),
			scoring.WithPenalties(0, 0),
		)

		Convey("Then valid overrides apply and invalid ones are ignored", func() {
			So(scorer.Base(model.Payment), ShouldEqual, 0.7)
			So(scorer.Base(model.Search), ShouldEqual, 0.45)
		})

		Convey("Then disabled penalties leave web events untouched", func() {
			ev := &model.NormalizedEvent{
				RawKind:  model.KindClick,
				Category: model.Click,
				Evidence: []string{model.EvidenceWebSurface},
			}
			So(scorer.Score(ev), ShouldAlmostEqual, 0.9, 0.0001)
		})
	})
}
