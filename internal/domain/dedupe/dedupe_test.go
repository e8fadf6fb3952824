package dedupe_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/okian/auscult/internal/domain/dedupe"
	"github.com/okian/auscult/internal/domain/model"
	"github.com/okian/auscult/internal/domain/vocab"
	"github.com/okian/auscult/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var lx = vocab.Compile(vocab.Default())

type collector struct {
	events []model.RawEvent
}

func (c *collector) Accept(_ context.Context, ev model.RawEvent) {
	c.events = append(c.events, ev)
}

func cartEvent(ts int64, name string) model.RawEvent {
	return model.RawEvent{
		Timestamp:    model.Millis(ts),
		SourceApp:    "com.carrefour.fid.android",
		RawKind:      model.KindAddToCart,
		ProductHints: &model.ProductHints{ProductName: name},
	}
}

func TestFilterQualityGate(t *testing.T) {
	ctx := context.Background()

	Convey("Given a filter without hold", t, func() {
		sink := &collector{}
		f := dedupe.NewFilter(lx, sink, dedupe.WithHold(0))

		Convey("When a real product is added with its cart action", func() {
			ev := cartEvent(1000, "Bananes bio 1kg 2,50€")
			ev.ProductHints.CartAction = "Ajouter un produit dans le panier"
			d := f.Submit(ctx, ev)

			Convey("Then it is accepted with a positive score", func() {
				So(d.Outcome, ShouldEqual, dedupe.Accepted)
				So(d.Identity, ShouldEqual, "bananes bio 1kg")
				So(d.Score, ShouldEqual, 130)
				So(sink.events, ShouldHaveLength, 1)
			})
		})

		Convey("When the product text is a placeholder", func() {
			d := f.Submit(ctx, cartEvent(1000, "Prix N/A"))

			Convey("Then it is rejected into the generic bucket", func() {
				So(d.Outcome, ShouldEqual, dedupe.Rejected)
				So(d.Reason, ShouldEqual, dedupe.ReasonEmptyIdentity)
				So(d.Bucket, ShouldEqual, dedupe.BucketGeneric)
				So(sink.events, ShouldBeEmpty)
				So(f.Audit().Generic, ShouldHaveLength, 1)
				So(f.Audit().Generic[0].Text, ShouldEqual, "Prix N/A")
			})
		})

		Convey("When the product name is navigation chrome", func() {
			ev := cartEvent(1000, "Panier")
			ev.ProductHints.CartAction = "Ajouter au panier"
			d := f.Submit(ctx, ev)

			Convey("Then it is rerouted to a neutral view, not dropped", func() {
				So(d.Outcome, ShouldEqual, dedupe.Rerouted)
				So(d.Reason, ShouldEqual, dedupe.ReasonNavigation)
				So(sink.events, ShouldHaveLength, 1)
				So(sink.events[0].RawKind, ShouldEqual, model.KindViewed)
				So(sink.events[0].ProductHints.CartAction, ShouldBeEmpty)
				So(ev.ProductHints.CartAction, ShouldEqual, "Ajouter au panier")

				audit := f.Audit()
				So(audit.Generic, ShouldHaveLength, 1)
				So(audit.Generic[0].Outcome, ShouldEqual, dedupe.Rerouted)

				stats := f.Stats()
				So(stats.Rerouted, ShouldEqual, 1)
				So(stats.Accepted, ShouldEqual, 0)
			})
		})

		Convey("When promotional and system texts arrive", func() {
			promo := f.Submit(ctx, cartEvent(1000, "Promotion Club - 2€ cagnottés"))
			sysText := f.Submit(ctx, cartEvent(1100, "3 nouvelles notifications"))
			sysApp := cartEvent(1200, "Bananes bio 1kg")
			sysApp.SourceApp = "com.android.systemui"
			sysPkg := f.Submit(ctx, sysApp)

			Convey("Then they land in their own buckets", func() {
				So(promo.Bucket, ShouldEqual, dedupe.BucketPromotion)
				So(promo.Reason, ShouldEqual, dedupe.ReasonBlacklist)
				So(promo.Score, ShouldEqual, -100)
				So(sysText.Bucket, ShouldEqual, dedupe.BucketSystem)
				So(sysPkg.Bucket, ShouldEqual, dedupe.BucketSystem)
				So(sysPkg.Reason, ShouldEqual, dedupe.ReasonSystemPackage)

				audit := f.Audit()
				So(audit.Promotion, ShouldHaveLength, 1)
				So(audit.Promotion[0].Term, ShouldEqual, "promotion")
				So(audit.System, ShouldHaveLength, 2)
				So(sink.events, ShouldBeEmpty)
			})
		})

		Convey("When the price is zero", func() {
			d := f.Submit(ctx, cartEvent(1000, "Sachet surprise 0,00€"))

			Convey("Then it is rejected outright", func() {
				So(d.Outcome, ShouldEqual, dedupe.Rejected)
				So(d.Reason, ShouldEqual, dedupe.ReasonZeroPrice)
			})
		})

		Convey("When the identity is short, generic or scores nothing", func() {
			short := f.Submit(ctx, cartEvent(1000, "Kiwi"))
			generic := f.Submit(ctx, cartEvent(1100, "Produit"))
			low := f.Submit(ctx, cartEvent(1200, "Gizmo abc"))

			Convey("Then each is rejected with its reason", func() {
				So(short.Reason, ShouldEqual, dedupe.ReasonShortIdentity)
				So(generic.Reason, ShouldEqual, dedupe.ReasonGenericIdentity)
				So(low.Reason, ShouldEqual, dedupe.ReasonLowQuality)
				So(f.Stats().Rejected, ShouldEqual, 3)
			})
		})

		Convey("When a screen only names a product", func() {
			d := f.Submit(ctx, model.RawEvent{
				Timestamp:    model.Millis(1000),
				RawKind:      model.KindScroll,
				ProductHints: &model.ProductHints{ProductName: "Logo"},
			})

			Convey("Then it is not gated as cart intent", func() {
				So(d.Outcome, ShouldEqual, dedupe.Accepted)
				So(sink.events, ShouldHaveLength, 1)
				So(f.Audit().System, ShouldBeEmpty)
				So(f.Audit().Generic, ShouldBeEmpty)
			})
		})

		Convey("When an event carries no cart intent", func() {
			d := f.Submit(ctx, model.RawEvent{
				Timestamp: model.Millis(1000),
				RawKind:   model.KindClick,
				Element:   &model.Element{Text: "Prix N/A"},
			})

			Convey("Then it passes straight through", func() {
				So(d.Outcome, ShouldEqual, dedupe.Accepted)
				So(sink.events, ShouldHaveLength, 1)
			})
		})
	})
}

func TestFilterWindow(t *testing.T) {
	ctx := context.Background()

	Convey("Given a filter with a 2s window and no hold", t, func() {
		sink := &collector{}
		f := dedupe.NewFilter(lx, sink, dedupe.WithHold(0), dedupe.WithWindow(2*time.Second))

		Convey("When the same product is added twice within the window", func() {
			first := f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg 2,50€"))
			second := f.Submit(ctx, cartEvent(2000, "Bananes bio 1kg"))

			Convey("Then exactly one is accepted", func() {
				So(first.Outcome, ShouldEqual, dedupe.Accepted)
				So(second.Outcome, ShouldEqual, dedupe.Rejected)
				So(second.Reason, ShouldEqual, dedupe.ReasonDuplicate)
				So(sink.events, ShouldHaveLength, 1)
				So(f.Stats().Duplicates, ShouldEqual, 1)
			})

			Convey("And again after the window", func() {
				third := f.Submit(ctx, cartEvent(3000, "Bananes bio 1kg 2,50€"))

				Convey("Then it is accepted", func() {
					So(third.Outcome, ShouldEqual, dedupe.Accepted)
					So(sink.events, ShouldHaveLength, 2)
				})
			})
		})

		Convey("When a product view precedes the add-to-cart of the same product", func() {
			view := f.Submit(ctx, model.RawEvent{
				Timestamp:    model.Millis(1000),
				RawKind:      model.KindContentChanged,
				ProductHints: &model.ProductHints{ProductName: "Bananes bio 1kg 2,50€"},
			})
			add := f.Submit(ctx, cartEvent(2000, "Bananes bio 1kg 2,50€"))

			Convey("Then the view does not claim the window", func() {
				So(view.Outcome, ShouldEqual, dedupe.Accepted)
				So(add.Outcome, ShouldEqual, dedupe.Accepted)
				So(sink.events, ShouldHaveLength, 2)
				So(f.Stats().Duplicates, ShouldEqual, 0)
			})
		})

		Convey("When different products are added close together", func() {
			f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg"))
			d := f.Submit(ctx, cartEvent(1100, "Pommes Golden 1kg"))

			Convey("Then both are accepted", func() {
				So(d.Outcome, ShouldEqual, dedupe.Accepted)
				So(sink.events, ShouldHaveLength, 2)
			})
		})

		Convey("When old entries age past twice the window", func() {
			f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg"))
			f.Submit(ctx, cartEvent(10000, "Pommes Golden 1kg"))

			Convey("Then they are evicted on the next call", func() {
				stats := f.Stats()
				So(stats.WindowEntries, ShouldEqual, 1)
				So(stats.Evicted, ShouldEqual, 1)
			})
		})
	})

	Convey("Given a filter with a tiny window cache", t, func() {
		f := dedupe.NewFilter(lx, &collector{}, dedupe.WithHold(0), dedupe.WithMaxEntries(2))

		Convey("When more identities arrive than it can hold", func() {
			for i, name := range []string{"Bananes bio 1kg", "Pommes Golden 1kg", "Carottes bio 1kg"} {
				f.Submit(ctx, cartEvent(int64(1000+i*10), name))
			}

			Convey("Then the oldest entry is pushed out", func() {
				So(f.Stats().WindowEntries, ShouldEqual, 2)
				So(f.Stats().Evicted, ShouldEqual, 1)
			})
		})
	})
}

func TestFilterHold(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	Convey("Given a filter with a 500ms hold on a manual clock", t, func() {
		clock := dedupe.NewManualClock(start)
		sink := &collector{}
		f := dedupe.NewFilter(lx, sink, dedupe.WithHold(500*time.Millisecond), dedupe.WithClock(clock))

		Convey("When two identical events arrive 300ms apart", func() {
			first := f.Submit(ctx, cartEvent(1000, "Bananes bio"))
			clock.Advance(300 * time.Millisecond)
			second := f.Submit(ctx, cartEvent(1300, "Bananes bio"))

			Convey("Then the second pre-empts the first and nothing is emitted yet", func() {
				So(first.Outcome, ShouldEqual, dedupe.Held)
				So(second.Outcome, ShouldEqual, dedupe.Held)
				So(second.Reason, ShouldEqual, dedupe.ReasonConsolidated)
				So(sink.events, ShouldBeEmpty)
				So(f.Stats().Consolidated, ShouldEqual, 1)
				So(f.Stats().Pending, ShouldEqual, 1)
			})

			Convey("And the hold expires", func() {
				clock.Advance(500 * time.Millisecond)
				n := f.Expire(ctx, clock.Now())

				Convey("Then exactly the surviving event is emitted", func() {
					So(n, ShouldEqual, 1)
					So(sink.events, ShouldHaveLength, 1)
					So(sink.events[0].Timestamp.Millis, ShouldEqual, int64(1300))
					So(f.Stats().Pending, ShouldEqual, 0)
				})

				Convey("Then expiring again emits nothing", func() {
					So(f.Expire(ctx, clock.Now().Add(time.Hour)), ShouldEqual, 0)
					So(f.Flush(ctx), ShouldEqual, 0)
				})
			})
		})

		Convey("When a held event is followed by unrelated traffic after the hold", func() {
			f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg"))
			clock.Advance(time.Second)
			d := f.Submit(ctx, model.RawEvent{Timestamp: model.Millis(2000), RawKind: model.KindScroll})

			Convey("Then the held event is emitted first, inline", func() {
				So(d.Outcome, ShouldEqual, dedupe.Accepted)
				So(sink.events, ShouldHaveLength, 2)
				So(sink.events[0].RawKind, ShouldEqual, model.KindAddToCart)
				So(sink.events[1].RawKind, ShouldEqual, model.KindScroll)
			})
		})

		Convey("When a duplicate arrives after the hold interval but within the window", func() {
			f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg"))
			d := f.Submit(ctx, cartEvent(1800, "Bananes bio 1kg"))

			Convey("Then it is rejected and the held event survives", func() {
				So(d.Outcome, ShouldEqual, dedupe.Rejected)
				So(d.Reason, ShouldEqual, dedupe.ReasonDuplicate)
				So(f.Flush(ctx), ShouldEqual, 1)
				So(sink.events, ShouldHaveLength, 1)
				So(sink.events[0].Timestamp.Millis, ShouldEqual, int64(1000))
			})
		})

		Convey("When the same product returns after the window while still held", func() {
			f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg"))
			d := f.Submit(ctx, cartEvent(4000, "Bananes bio 1kg"))

			Convey("Then the first is finalised and the second held", func() {
				So(d.Outcome, ShouldEqual, dedupe.Held)
				So(sink.events, ShouldHaveLength, 1)
				So(f.Flush(ctx), ShouldEqual, 1)
				So(sink.events, ShouldHaveLength, 2)
			})
		})

		Convey("When the batch ends", func() {
			f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg"))
			f.Submit(ctx, cartEvent(1100, "Pommes Golden 1kg"))

			Convey("Then Flush emits pending decisions in timestamp order", func() {
				So(f.Flush(ctx), ShouldEqual, 2)
				So(sink.events, ShouldHaveLength, 2)
				So(sink.events[0].ProductHints.ProductName, ShouldEqual, "Bananes bio 1kg")
			})
		})
	})

	Convey("Given a hold as long as the window", t, func() {
		f := dedupe.NewFilter(lx, &collector{}, dedupe.WithHold(2*time.Second), dedupe.WithWindow(2*time.Second))

		Convey("Then holding is disabled", func() {
			So(f.Submit(ctx, cartEvent(1000, "Bananes bio 1kg")).Outcome, ShouldEqual, dedupe.Accepted)
		})
	})
}

func TestFilterAudit(t *testing.T) {
	ctx := context.Background()

	Convey("Given a filter whose audit buckets hold two entries", t, func() {
		f := dedupe.NewFilter(lx, nil, dedupe.WithHold(0), dedupe.WithAuditCapacity(2))

		Convey("When three placeholders are rejected", func() {
			for i := 0; i < 3; i++ {
				f.Submit(ctx, cartEvent(int64(1000+i), fmt.Sprintf("Produit %d", i)))
			}

			Convey("Then the oldest entry is evicted", func() {
				generic := f.Audit().Generic
				So(generic, ShouldHaveLength, 2)
				So(generic[0].Text, ShouldEqual, "Produit 1")
				So(generic[1].Text, ShouldEqual, "Produit 2")
			})
		})

		Convey("When the audit copy is modified", func() {
			f.Submit(ctx, cartEvent(1000, "Prix N/A"))
			audit := f.Audit()
			audit.Generic[0].Text = "changed"

			Convey("Then the filter keeps its own entries", func() {
				So(f.Audit().Generic[0].Text, ShouldEqual, "Prix N/A")
			})
		})
	})
}
