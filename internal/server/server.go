package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v3"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-playground/validator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/smadinen7/Market-Intelligence-Assistant/internal/bootstrap"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/metrics"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/queue"
	mid "github.com/smadinen7/Market-Intelligence-Assistant/internal/server/middleware"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/session"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/storage"
	"github.com/smadinen7/Market-Intelligence-Assistant/internal/util"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/logger"
	"github.com/smadinen7/Market-Intelligence-Assistant/pkg/workflow"
)

type CustomValidator struct {
	validator *validator.Validate
}

func (cv *CustomValidator) Validate(i any) error {
	if err := cv.validator.Struct(i); err != nil {
		return err
	}
	return nil
}

// New builds the echo instance with middleware and routes. reg may be nil
// to leave out the /metrics route.
func New(app *mid.App, reg prometheus.Gatherer) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = &CustomValidator{validator: validator.New()}

	e.Use(mid.AppContextMiddleware(app))
	e.Use(middleware.CORS())
	e.Use(middleware.RequestLogger())
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit("1M"))

	RegisterRoutes(e, reg)
	return e
}

func Init() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()

	cfg := bootstrap.ConfigFromEnv()
	aiClient, err := bootstrap.NewAIClient(cfg)
	if err != nil {
		logger.Fatal("Failed to create AI client", "err", err)
	}
	m.WatchModel(aiClient)
	stack := bootstrap.NewStack(cfg, aiClient, m)

	notifiers := workflow.MultiNotifier{m}
	if queue.Enabled() {
		que := queue.Init()
		defer que.Close()
		ch, err := que.Channel()
		if err != nil {
			logger.Fatal("Failed to open channel", "err", err)
		}
		if err := queue.SetupQueues(ch); err != nil {
			logger.Fatal("Failed to setup queues", "err", err)
		}
		notifiers = append(notifiers, queue.NewPublisher(ch))
	}

	var s3Client *s3.Client
	if storage.Enabled() {
		s3Client, err = storage.NewS3Client(ctx)
		if err != nil {
			logger.Fatal("Failed to create S3 client", "err", err)
		}
	}

	var k keyfunc.Keyfunc
	if authURL := util.GetEnv("AUTH_URL"); authURL != "" {
		k, err = keyfunc.NewDefaultCtx(ctx, []string{authURL + "/jwks"})
		if err != nil {
			logger.Fatal("Failed to load jwks keys", "err", err)
		}
	}

	timeout := util.GetEnvDuration("COLLABORATOR_TIMEOUT", 2*time.Minute)
	sessions := session.NewManager(session.NewManagerParams{
		Factory: func(id string) *workflow.Session {
			return stack.Session(workflow.NewSessionParams{
				ID:       id,
				Notifier: notifiers,
				Timeout:  timeout,
			})
		},
		OnCount: func(n int) {
			m.SessionsActive.Set(float64(n))
		},
	})

	masterUserID, _ := strconv.ParseInt(util.GetEnv("MASTER_USER_ID"), 10, 64)
	app := &mid.App{
		Sessions:       sessions,
		Key:            k,
		S3:             s3Client,
		MasterAPIKey:   util.GetEnv("MASTER_API_KEY"),
		MasterUserID:   masterUserID,
		MasterUserRole: util.GetEnv("MASTER_USER_ROLE"),
	}
	e := New(app, m.Registry())

	go func() {
		port := util.GetEnvString("PORT", "8080")
		logger.Info("Starting server", "port", port)
		if err := e.Start(":" + port); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed shutting down server", "err", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown server", "err", err)
	}
	if err := sessions.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to stop background analyses", "err", err)
	}
}
