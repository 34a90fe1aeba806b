package main

import (
	"net/http"
	"os"
	"time"

	"github.com/avoss/kinodigest/app"
	"github.com/avoss/kinodigest/config"
	"github.com/avoss/kinodigest/lib"
	"github.com/avoss/kinodigest/lib/dispatch"
	"github.com/avoss/kinodigest/lib/render"
	"github.com/avoss/kinodigest/lib/repos"
	"github.com/avoss/kinodigest/lib/scraper"
	"github.com/avoss/kinodigest/senders"
	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	godotenv.Load()

	fx.New(
		fx.Provide(config.NewConfig),
		fx.Provide(NewLogger),

		fx.Provide(senders.NewSenderRegistry),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),

		fx.Provide(repos.NewAttributeRepo),
		fx.Provide(repos.NewMovieRepo),
		fx.Provide(repos.NewRecipientRepo),

		fx.Provide(render.NewRenderer),
		fx.Provide(scraper.NewScraper),
		fx.Provide(dispatch.NewDispatcher),

		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*scraper.Scraper) {}),
		fx.Invoke(func(*dispatch.Dispatcher) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
