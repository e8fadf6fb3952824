package config_test

import (
	"errors"
	"runtime"
	"testing"
	"time"

	"github.com/okian/auscult/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.LogFormat, convey.ShouldEqual, "text")
			convey.So(cfg.QueueSize, convey.ShouldEqual, 10_000)
			convey.So(cfg.WorkerCount, convey.ShouldEqual, runtime.NumCPU())
			convey.So(cfg.MaxSessions, convey.ShouldEqual, 1000)
			convey.So(cfg.DedupeWindow(), convey.ShouldEqual, 2*time.Second)
			convey.So(cfg.Hold(), convey.ShouldEqual, 500*time.Millisecond)
			convey.So(cfg.ExpireInterval(), convey.ShouldEqual, 250*time.Millisecond)
			convey.So(cfg.MinIdentityLength, convey.ShouldEqual, 5)
			convey.So(cfg.MetricsEnabled, convey.ShouldBeTrue)
			convey.So(cfg.MetricsRefresh(), convey.ShouldEqual, 5*time.Second)
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Validate(t *testing.T) {
	convey.Convey("Given configs with one bad setting each", t, func() {
		cases := map[string]func(c *config.Config){
			"empty addr":            func(c *config.Config) { c.Addr = "" },
			"zero window":           func(c *config.Config) { c.DedupeWindowMS = 0 },
			"negative hold":         func(c *config.Config) { c.HoldMS = -1 },
			"hold not below window": func(c *config.Config) { c.HoldMS = c.DedupeWindowMS },
			"zero identity length":  func(c *config.Config) { c.MinIdentityLength = 0 },
			"zero workers":          func(c *config.Config) { c.WorkerCount = 0 },
			"zero queue":            func(c *config.Config) { c.QueueSize = 0 },
			"zero burst":            func(c *config.Config) { c.IngestBurst = 0 },
			"zero metrics refresh":  func(c *config.Config) { c.MetricsRefreshMS = 0 },
		}

		convey.Convey("Then every one is rejected as invalid", func() {
			for _, mutate := range cases {
				cfg := config.New()
				mutate(cfg)
				err := cfg.Validate()
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
				convey.So(err.Error(), convey.ShouldNotBeEmpty)
			}
		})

		convey.Convey("Then a zero hold is allowed", func() {
			cfg := config.New()
			cfg.HoldMS = 0
			convey.So(cfg.Validate(), convey.ShouldBeNil)
		})
	})
}

func TestConfig_Pipeline(t *testing.T) {
	convey.Convey("Given the default config", t, func() {
		cfg := config.New()

		convey.Convey("When the pipeline is built", func() {
			p, err := cfg.Pipeline()

			convey.Convey("Then it uses the built-in vocabulary", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(p, convey.ShouldNotBeNil)
				convey.So(p.Lexicon(), convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the vocabulary file is missing", func() {
			cfg.VocabularyFile = "/non/existent/vocabulary.yaml"
			p, err := cfg.Pipeline()

			convey.Convey("Then the config is reported invalid", func() {
				convey.So(p, convey.ShouldBeNil)
				convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
			})
		})

		convey.Convey("Then filter options follow the settings", func() {
			convey.So(cfg.FilterOptions(), convey.ShouldHaveLength, 5)
		})
	})
}
