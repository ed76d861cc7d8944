package config_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/ocumetry/eyelid/internal/config"
	"github.com/smartystreets/goconvey/convey"
)

func TestConfig_New(t *testing.T) {
	convey.Convey("Given a new config with default options", t, func() {
		cfg := config.New()

		convey.Convey("Then it should have sensible defaults", func() {
			convey.So(cfg.LogLevel, convey.ShouldEqual, "info")
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.BusSize, convey.ShouldEqual, 4096)
			convey.So(cfg.StorePath, convey.ShouldEqual, "eyelid.db")
			convey.So(cfg.ModelVersion, convey.ShouldEqual, 2)
			convey.So(cfg.PlotBuffer, convey.ShouldEqual, 8)
		})
	})
}

func TestConfig_LoadDefaults(t *testing.T) {
	convey.Convey("Given no overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then defaults are returned", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":9080")
			convey.So(cfg.ModelVersion, convey.ShouldEqual, 2)
		})
	})
}

func TestConfig_LoadEnv(t *testing.T) {
	t.Setenv("EYELID_ADDR", ":7070")
	t.Setenv("EYELID_BUS_SIZE", "128")
	t.Setenv("EYELID_LOG_LEVEL", "debug")

	convey.Convey("Given environment overrides", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then the overrides take effect over defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":7070")
			convey.So(cfg.BusSize, convey.ShouldEqual, 128)
			convey.So(cfg.LogLevel, convey.ShouldEqual, "debug")
			convey.So(cfg.ModelVersion, convey.ShouldEqual, 2)
		})
	})
}

func TestConfig_LoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eyelid.yaml")
	if err := os.WriteFile(path, []byte("addr: \":6060\"\nstore_path: /tmp/models.db\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EYELID_CONFIG", path)

	convey.Convey("Given a YAML config file", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then file values layer over defaults", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":6060")
			convey.So(cfg.StorePath, convey.ShouldEqual, "/tmp/models.db")
			convey.So(cfg.BusSize, convey.ShouldEqual, 4096)
		})
	})
}

func TestConfig_LoadFileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eyelid.yaml")
	if err := os.WriteFile(path, []byte("addr: \":6060\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("EYELID_CONFIG", path)
	t.Setenv("EYELID_ADDR", ":5050")

	convey.Convey("Given both a file and an env override", t, func() {
		cfg, err := config.Load(context.Background())

		convey.Convey("Then env wins over the file", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cfg.Addr, convey.ShouldEqual, ":5050")
		})
	})
}

func TestConfig_LoadMissingFile(t *testing.T) {
	t.Setenv("EYELID_CONFIG", filepath.Join(t.TempDir(), "absent.yaml"))

	convey.Convey("Given a missing config file", t, func() {
		_, err := config.Load(context.Background())

		convey.Convey("Then loading fails with a load error", func() {
			convey.So(errors.Is(err, config.ErrLoadConfig), convey.ShouldBeTrue)
		})
	})
}

func TestConfig_LoadInvalid(t *testing.T) {
	t.Setenv("EYELID_BUS_SIZE", "-1")

	convey.Convey("Given an invalid bus size", t, func() {
		_, err := config.Load(context.Background())

		convey.Convey("Then validation rejects it", func() {
			convey.So(errors.Is(err, config.ErrInvalidConfig), convey.ShouldBeTrue)
		})
	})
}
