// Пакет templater - HTTP сервер редактора шаблонов договоров. Фронтенд
// открывает сессию редактора, правит документ, вставляет и настраивает поля
// шаблона и получает манифест шаблона при сохранении.
package templater

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/aisa-it/templater/internal/templater/catalog"
	"github.com/aisa-it/templater/internal/templater/config"
	"github.com/aisa-it/templater/internal/templater/cronmanager"
	"github.com/aisa-it/templater/internal/templater/session"
	"github.com/aisa-it/templater/pkg/limiter"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

type Services struct {
	cfg     *config.Config
	version string

	catalog *catalog.Catalog
	manager *session.Manager
}

func NewServices(cfg *config.Config, c *catalog.Catalog, l limiter.LimiterInt, version string) *Services {
	return &Services{
		cfg:     cfg,
		version: version,
		catalog: c,
		manager: session.NewManager(c, l, session.Options{ImageMaxWidth: uint(cfg.ImageMaxWidth)}),
	}
}

// newEcho собирает API без метрик запросов.
func (s *Services) newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
		}

		// Ignore 404
		if code == http.StatusNotFound {
			c.NoContent(http.StatusNotFound)
			return
		}
		slog.Error("Unhandled error in endpoint", "url", c.Request().URL, "err", err)
		EErrorMsgStatus(c, nil, code)
	}

	e.Use(ServerHeader)
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())
	e.Use(middleware.BodyLimit(s.cfg.BodyLimit))
	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		Level:     5,
		MinLength: 2048,
	}))
	e.Pre(middleware.AddTrailingSlash())

	e.Validator = NewRequestValidator()

	apiGroup := e.Group("/api/")

	s.AddCatalogServices(apiGroup)
	s.AddSessionServices(apiGroup)

	apiGroup.GET("version/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"version":  s.version,
			"sanitize": !s.cfg.SanitizeDisabled,
		})
	})

	// Health endpoint
	apiGroup.GET("_health/", func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	// Front handler
	if s.cfg.FrontFilesPath != "" {
		slog.Info("Start front routing", "path", s.cfg.FrontFilesPath)
		e.Use(middleware.StaticWithConfig(middleware.StaticConfig{
			Root:  s.cfg.FrontFilesPath,
			HTML5: true,
			Skipper: func(c echo.Context) bool {
				return strings.HasPrefix(c.Request().URL.Path, "/api/")
			},
		}))
	}

	return e
}

// Server запускает API и сервер метрик и работает до сигнала завершения.
func Server(cfg *config.Config, c *catalog.Catalog, version string) error {
	limiter.Init(cfg)
	s := NewServices(cfg, c, limiter.Limiter, version)

	if err := session.RegisterMetrics(prometheus.DefaultRegisterer); err != nil {
		return err
	}

	cronManager := cronmanager.NewCronManager(cronmanager.JobRegistry{
		"sessions_evict": cronmanager.Job{
			Func: func() {
				if n := s.manager.EvictIdle(cfg.SessionIdleTTL()); n > 0 {
					slog.Info("Evict idle sessions", "count", n, "active", s.manager.Count())
				}
			},
			Schedule: "* * * * *", // every minute
		},
	})
	if err := cronManager.LoadJobs(); err != nil {
		return err
	}
	cronManager.Start()

	e := s.newEcho()
	e.Use(echoprometheus.NewMiddleware("templater"))

	bootTimeGauge := prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "templater",
		Name:      "boot_time",
		Help:      "Server startup time",
	})
	bootTimeGauge.Set(float64(time.Now().UnixMilli()))
	if err := prometheus.Register(bootTimeGauge); err != nil {
		return err
	}

	metrics := echo.New()
	metrics.HideBanner = true
	metrics.HidePort = true
	metrics.GET("/metrics", echoprometheus.NewHandler())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("Start API server", "addr", cfg.HTTPAddr)
		if err := e.Start(cfg.HTTPAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		slog.Info("Start metrics server", "addr", cfg.MetricsAddr)
		if err := metrics.Start(cfg.MetricsAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		slog.Info("Shutting down gracefully, press Ctrl+C again to force")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		cronManager.Stop()
		err := errors.Join(e.Shutdown(shutdownCtx), metrics.Shutdown(shutdownCtx))
		s.manager.CloseAll()
		return err
	})

	return g.Wait()
}
