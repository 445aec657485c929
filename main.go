package main

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/mager/geetyatra/artwork"
	"github.com/mager/geetyatra/config"
	"github.com/mager/geetyatra/database"
	"github.com/mager/geetyatra/dataset"
	"github.com/mager/geetyatra/handler/health"
	"github.com/mager/geetyatra/handler/recommendation"
	"github.com/mager/geetyatra/handler/song"
	"github.com/mager/geetyatra/logger"
	"github.com/mager/geetyatra/musicbrainz"
	"github.com/mager/geetyatra/neighbors"
	"github.com/mager/geetyatra/recommend"
	"github.com/mager/geetyatra/scaler"
	"github.com/mager/geetyatra/spotify"
	"github.com/mager/geetyatra/web"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

// Route is an http.Handler that knows the mux pattern
// under which it will be registered.
type Route interface {
	http.Handler

	// Pattern reports the path at which this is registered.
	Pattern() string

	// Methods reports the HTTP methods this route accepts.
	Methods() []string
}

//	@title			GeetYatra
//	@version		1.0
//	@description	Song recommendations from audio-feature clusters

//	@license.name	Apache 2.0
//	@license.url	http://www.apache.org/licenses/LICENSE-2.0.html

// @host		localhost:8080
// @BasePath	/
func main() {
	fx.New(
		fx.Provide(
			fx.Annotate(
				NewHTTPServer,
				fx.ParamTags(``, ``, ``, `group:"routes"`),
			),
			config.Options,
			logger.Options,
			database.Options,
			dataset.Options,
			scaler.Options,
			neighbors.Options,
			spotify.Options,
			musicbrainz.Options,
			artwork.Options,
			recommend.Options,

			AsRoute(song.NewIndexHandler),
			AsRoute(song.NewSearchHandler),
			AsRoute(recommendation.NewRecommendationHandler),
			AsRoute(health.NewHealthHandler),
		),
		fx.WithLogger(func(log *zap.SugaredLogger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Desugar()}
		}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}

// NewHTTPServer registers every route and starts serving on the configured port.
func NewHTTPServer(
	lc fx.Lifecycle,
	log *zap.SugaredLogger,
	cfg config.Config,
	routes []Route,
) *http.Server {
	r := mux.NewRouter()

	for _, route := range routes {
		r.Handle(route.Pattern(), route).Methods(route.Methods()...)
	}
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.PathPrefix("/static/").Handler(web.StaticHandler("/static/"))

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Infow("Starting HTTP server", "addr", srv.Addr, "routes", len(routes))
			go srv.Serve(ln)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})

	return srv
}

// AsRoute annotates the given constructor to state that
// it provides a route to the "routes" group.
func AsRoute(f any) any {
	return fx.Annotate(
		f,
		fx.As(new(Route)),
		fx.ResultTags(`group:"routes"`),
	)
}
