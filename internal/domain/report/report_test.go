package report

import (
	"testing"

	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"
)

var lx = vocab.Compile(vocab.Default())

func ev(ts int64, cat model.Category, text string, conf float64, evidence ...string) model.NormalizedEvent {
	return model.NormalizedEvent{
		TS:         ts,
		SourceApp:  "com.leclerc.drive",
		RawKind:    model.KindClick,
		Widget:     model.Widget{Text: text},
		Category:   cat,
		Confidence: conf,
		Evidence:   evidence,
	}
}

func TestAssembleEmpty(t *testing.T) {
	Convey("Given no events", t, func() {
		r := NewAssembler(lx).Assemble(nil)

		Convey("Then the report is well formed and asks for a capture", func() {
			So(r.AppProfile.EventCount, ShouldEqual, 0)
			So(r.SessionTimeline, ShouldBeEmpty)
			So(r.SessionTimeline, ShouldNotBeNil)
			So(r.CategorizedEvents, ShouldNotBeNil)
			So(r.Inferences, ShouldNotBeNil)
			So(r.ConfidenceReport.Strong, ShouldNotBeNil)
			So(r.ConfidenceReport.Missing, ShouldHaveLength, 14)
			So(r.ConfidenceReport.Missing, ShouldNotContain, model.Unknown)
			So(r.OpenQuestions, ShouldNotBeEmpty)
			So(r.OpenQuestions[0], ShouldEqual, QuestionCapture)
			So(r.Summary, ShouldEqual, "No events captured for this session.")
		})
	})
}

func TestAssemble(t *testing.T) {
	Convey("Given a short shopping session", t, func() {
		events := []model.NormalizedEvent{
			ev(1000, model.Navigation, "", 0.85),
			ev(2000, model.Click, "Fruits", 0.9),
			ev(2500, model.Click, "Légumes", 0.9),
			ev(3000, model.AddToCart, "Ajouter au panier", 0.95, "raw_event:click", "pattern:add_to_cart", model.EvidenceTextMatch, model.EvidencePrice),
			ev(3500, model.Unknown, "noise", 0.1),
			ev(4000, model.CartView, "Panier", 0.6, "raw_event:content-changed", "pattern:cart_content", model.EvidenceTextMatch),
			ev(4500, model.Click, "Fruits", 0.4),
			ev(5000, model.ProductDetail, "Bananes bio", 0.35, model.EvidencePrice),
			ev(5500, model.Click, "Retour", 0.2),
		}
		events[5].WasInferred = true
		events[7].WasInferred = false

		r := NewAssembler(lx).Assemble(events)

		Convey("Then the profile is derived from the events", func() {
			So(r.AppProfile.EventCount, ShouldEqual, 9)
			So(*r.AppProfile.LikelyBrand, ShouldEqual, "E.Leclerc")
			So(r.AppProfile.FirstSeen, ShouldEqual, int64(1000))
			So(r.AppProfile.LastSeen, ShouldEqual, int64(5500))
		})

		Convey("Then categories are ranked by count with distinct examples", func() {
			So(r.CategorizedEvents[0].Category, ShouldEqual, model.Click)
			So(r.CategorizedEvents[0].Count, ShouldEqual, 4)
			So(r.CategorizedEvents[0].Examples, ShouldResemble, []string{"Fruits", "Légumes", "Retour"})
			So(r.CategorizedEvents[1].Category, ShouldEqual, model.Navigation)
			So(r.CategorizedEvents[2].Category, ShouldEqual, model.AddToCart)
			So(r.CategorizedEvents, ShouldHaveLength, 6)
		})

		Convey("Then inferences cover inferred and priced events", func() {
			So(r.Inferences, ShouldHaveLength, 3)
			So(r.Inferences[0].Hypothesis, ShouldEqual, "ADD_TO_CART")
			So(r.Inferences[0].BecauseEvidence, ShouldContain, model.EvidencePrice)
			So(r.Inferences[1].Hypothesis, ShouldEqual, "CART_VIEW")
			So(r.Inferences[2].Hypothesis, ShouldEqual, "PRODUCT_DETAIL_VIEW")
		})

		Convey("Then confidence buckets split by thresholds and skip UNKNOWN", func() {
			cr := r.ConfidenceReport
			So(cr.Strong, ShouldHaveLength, 4)
			So(cr.Strong[0], ShouldEqual, "NAVIGATION: Screen changed (0.85)")
			So(cr.Medium, ShouldHaveLength, 1)
			So(cr.Weak, ShouldHaveLength, 2)
			So(cr.Missing, ShouldContain, model.CheckoutStart)
			So(cr.Missing, ShouldNotContain, model.AddToCart)
		})

		Convey("Then the timeline collapses runs and skips UNKNOWN", func() {
			cats := make([]model.Category, 0, len(r.SessionTimeline))
			for _, e := range r.SessionTimeline {
				cats = append(cats, e.Category)
			}
			So(cats, ShouldResemble, []model.Category{
				model.Navigation, model.Click, model.AddToCart, model.CartView, model.Click, model.ProductDetail, model.Click,
			})
		})

		Convey("Then open questions follow what was not observed", func() {
			So(r.OpenQuestions, ShouldContain, nextSteps[model.CheckoutStart])
			So(r.OpenQuestions, ShouldContain, QuestionWebViews)
			So(r.OpenQuestions, ShouldNotContain, QuestionPrices)
			So(r.OpenQuestions, ShouldNotContain, QuestionNavigation)
			So(r.OpenQuestions, ShouldNotContain, QuestionCapture)
		})

		Convey("Then the summary follows the template", func() {
			So(r.Summary, ShouldStartWith, "Detected E.Leclerc app (com.leclerc.drive). Session of 9 events over 4.5s: 4 CLICK, 1 NAVIGATION")
			So(r.Summary, ShouldContainSubstring, "Capabilities: clicks, text richness LOW, embedded web LOW.")
		})
	})

	Convey("Given caps on inferences and buckets", t, func() {
		var events []model.NormalizedEvent
		for i := 0; i < 10; i++ {
			e := ev(int64(i), model.AddToCart, "Ajouter", 0.9, model.EvidencePrice)
			events = append(events, e)
		}
		r := NewAssembler(lx, WithMaxInferences(3), WithBucketLimit(4)).Assemble(events)

		Convey("Then the caps are respected", func() {
			So(r.Inferences, ShouldHaveLength, 3)
			So(r.ConfidenceReport.Strong, ShouldHaveLength, 4)
			So(r.CategorizedEvents[0].Examples, ShouldResemble, []string{"Ajouter"})
		})
	})

	Convey("Given tied counts", t, func() {
		events := []model.NormalizedEvent{
			ev(1, model.Search, "Rechercher", 0.9),
			ev(2, model.Scroll, "", 0.9),
			ev(3, model.Scroll, "", 0.9),
			ev(4, model.Search, "Rechercher", 0.9),
		}
		r := NewAssembler(lx).Assemble(events)

		Convey("Then first-seen order breaks the tie", func() {
			So(r.CategorizedEvents[0].Category, ShouldEqual, model.Search)
			So(r.CategorizedEvents[1].Category, ShouldEqual, model.Scroll)
		})
	})
}

func TestMarshalYAMLDocument(t *testing.T) {
	Convey("Given an empty report", t, func() {
		r := NewAssembler(vocab.Compile(vocab.Default())).Assemble(nil)
		r.SessionID = "s-1"

		Convey("When it is rendered as YAML", func() {
			out, err := MarshalYAMLDocument(r)
			So(err, ShouldBeNil)

			Convey("Then it keeps the JSON field names in block style", func() {
				s := string(out)
				So(s, ShouldContainSubstring, "sessionId: s-1")
				So(s, ShouldContainSubstring, "appProfile:")
				So(s, ShouldContainSubstring, "openQuestions:")
				So(s, ShouldNotContainSubstring, `"sessionId"`)
			})
		})
	})

	Convey("Given a report whose string fields look like other types", t, func() {
		r := NewAssembler(vocab.Compile(vocab.Default())).Assemble(nil)
		r.SessionID = "2000"
		r.Summary = "true"

		Convey("When it is rendered as YAML", func() {
			out, err := MarshalYAMLDocument(r)
			So(err, ShouldBeNil)

			Convey("Then only those values are quoted and they read back as strings", func() {
				s := string(out)
				So(s, ShouldContainSubstring, `sessionId: "2000"`)
				So(s, ShouldContainSubstring, `summary: "true"`)
				So(s, ShouldContainSubstring, "eventCount: 0")

				var back struct {
					SessionID string `yaml:"sessionId"`
					Summary   string `yaml:"summary"`
				}
				So(yaml.Unmarshal(out, &back), ShouldBeNil)
				So(back.SessionID, ShouldEqual, "2000")
				So(back.Summary, ShouldEqual, "true")
			})
		})
	})
}
