package config_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/okian/savra/internal/config"
	"github.com/okian/savra/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

var configEnvVars = []string{
	"SAVRA_CONFIG", "SAVRA_ENV_FILE", "SAVRA_ADDR", "SAVRA_QUEUE_SIZE", "SAVRA_WORKER_COUNT",
	"SAVRA_SOURCE_KIND", "SAVRA_SOURCE_PATH", "SAVRA_ASSESSMENT_KINDS", "SAVRA_LESSON_WEIGHT",
	"SAVRA_REDIS_ADDR",
}

func clearConfigEnvVars() {
	for _, k := range configEnvVars {
		_ = os.Unsetenv(k)
	}
}

func writeTemp(t *testing.T, name, content string) string {
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestConfigLoader(t *testing.T) {
	convey.Convey("Given a config loader", t, func() {
		ctx := context.Background()
		clearConfigEnvVars()
		// Point at a missing default so a stray .env in the working dir is not read.
		t.Chdir(t.TempDir())

		convey.Convey("When loading config with defaults only", func() {
			cfg, err := config.Load(ctx)

			convey.Convey("Then it should load successfully with defaults", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8000")
				convey.So(cfg.AssessmentKinds, convey.ShouldResemble, []string{"assessment"})
			})
		})

		convey.Convey("When loading config with environment variables", func() {
			_ = os.Setenv("SAVRA_ADDR", ":8080")
			_ = os.Setenv("SAVRA_QUEUE_SIZE", "500")
			_ = os.Setenv("SAVRA_ASSESSMENT_KINDS", "quiz,question_paper")
			_ = os.Setenv("SAVRA_LESSON_WEIGHT", "0.5")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should override defaults with env vars", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":8080")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 500)
				convey.So(cfg.AssessmentKinds, convey.ShouldResemble, []string{"quiz", "question_paper"})
				convey.So(cfg.LessonWeight, convey.ShouldEqual, 0.5)
			})
		})

		convey.Convey("When the assessment kinds env var has spaces and blanks", func() {
			_ = os.Setenv("SAVRA_ASSESSMENT_KINDS", " Quiz , ,question paper,")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then each listed kind becomes one policy entry", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.AssessmentKinds, convey.ShouldResemble, []string{"Quiz", "question paper"})
				p, err := cfg.AssessmentPolicy()
				convey.So(err, convey.ShouldBeNil)
				convey.So(p.Kinds(), convey.ShouldResemble, []model.ActivityKind{model.KindQuiz, model.KindQuestionPaper})
			})
		})

		convey.Convey("When loading config with both file and environment variables", func() {
			path := writeTemp(t, "savra.yaml", `
addr: ":9090"
queue_size: 3000
worker_count: 6
source_kind: csv
source_path: /data/activities.csv
`)
			_ = os.Setenv("SAVRA_CONFIG", path)
			_ = os.Setenv("SAVRA_WORKER_COUNT", "12")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then environment variables should override file values", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.Addr, convey.ShouldEqual, ":9090")
				convey.So(cfg.EventQueueSize, convey.ShouldEqual, 3000)
				convey.So(cfg.WorkerCount, convey.ShouldEqual, 12)
				convey.So(cfg.SourceKind, convey.ShouldEqual, config.SourceCSV)
				convey.So(cfg.SourcePath, convey.ShouldEqual, "/data/activities.csv")
			})
		})

		convey.Convey("When a .env file is present", func() {
			path := writeTemp(t, "savra.env", "SAVRA_REDIS_ADDR=localhost:6379\nSAVRA_ADDR=:7000\n")
			_ = os.Setenv("SAVRA_ENV_FILE", path)
			_ = os.Setenv("SAVRA_ADDR", ":7500")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it fills gaps without overriding the environment", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(cfg.RedisAddr, convey.ShouldEqual, "localhost:6379")
				convey.So(cfg.Addr, convey.ShouldEqual, ":7500")
			})
		})

		convey.Convey("When an explicit .env file is missing", func() {
			_ = os.Setenv("SAVRA_ENV_FILE", "/non/existent/.env")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with invalid YAML file", func() {
			_ = os.Setenv("SAVRA_CONFIG", writeTemp(t, "bad.yaml", `invalid: yaml: content: [`))
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with non-existent file", func() {
			_ = os.Setenv("SAVRA_CONFIG", "/non/existent/file.yaml")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return an error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When loading config with empty addr", func() {
			_ = os.Setenv("SAVRA_ADDR", "")
			defer clearConfigEnvVars()

			cfg, err := config.Load(ctx)

			convey.Convey("Then it should return a validation error", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "addr must not be empty")
				convey.So(cfg, convey.ShouldBeNil)
			})
		})

		convey.Convey("When the source kind needs a path", func() {
			_ = os.Setenv("SAVRA_SOURCE_KIND", "xlsx")
			defer clearConfigEnvVars()

			_, err := config.Load(ctx)

			convey.Convey("Then validation names the missing key", func() {
				convey.So(err, convey.ShouldNotBeNil)
				convey.So(err.Error(), convey.ShouldContainSubstring, "source_path")
			})
		})
	})
}
