package container

import (
	"context"
	"net/http"

	"github.com/pawdesk/pawdesk/internal/api"
	"github.com/pawdesk/pawdesk/internal/audit"
	"github.com/pawdesk/pawdesk/internal/auth"
	"github.com/pawdesk/pawdesk/internal/aws"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/pawdesk/pawdesk/internal/database"
	"github.com/pawdesk/pawdesk/internal/email"
	"github.com/pawdesk/pawdesk/internal/image"
	"github.com/pawdesk/pawdesk/internal/logging"
	"github.com/pawdesk/pawdesk/internal/queue"
	"github.com/pawdesk/pawdesk/internal/tenancy"
	"github.com/redis/go-redis/v9"
)

type Container struct {
	Config        *config.Config
	Database      *database.Database
	Queue         *queue.TaskQueue
	RedisClient   *redis.Client
	AuthService   *auth.AuthService
	Mailer        *email.Mailer
	S3Service     *aws.S3Service
	Authenticator *auth.Authenticator
	Server        *api.Server
}

func New(cfg config.Config) (*Container, error) {
	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, err
	}

	taskQueue, err := queue.NewQueue(&cfg.Redis)
	if err != nil {
		db.Close()
		return nil, err
	}

	// asynq keeps its own pool; this client holds auth state (login
	// attempts, refresh tokens).
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	c := &Container{
		Config:      &cfg,
		Database:    db,
		Queue:       taskQueue,
		RedisClient: redisClient,
	}

	jwtService, err := auth.NewJWTService([]byte(cfg.JWT.SigningKey), cfg.JWT.Issuer, cfg.JWT.Expiry)
	if err != nil {
		c.Cleanup()
		return nil, err
	}

	mailer, err := email.NewMailer(taskQueue, cfg.App, cfg.Auth)
	if err != nil {
		c.Cleanup()
		return nil, err
	}
	c.Mailer = mailer

	c.AuthService = auth.NewAuthService(redisClient, jwtService, db, mailer, cfg.Auth, cfg.App)
	c.Authenticator = auth.NewAuthenticator(jwtService, db.Queries())

	s3Service, err := aws.NewS3Service(cfg.AWS)
	if err != nil {
		c.Cleanup()
		return nil, err
	}
	c.S3Service = s3Service

	// buckets are provisioned outside the app except on localstack
	if cfg.AWS.EndpointURL != "" {
		if err := s3Service.CreateBucket(context.Background()); err != nil {
			logging.Info("S3 bucket creation attempted", "bucket", cfg.AWS.Bucket, "result", err)
		}
	}

	c.Server = api.NewServer(
		db,
		c.AuthService,
		s3Service,
		image.NewProcessor(cfg.Upload.MaxSize),
		audit.NewRecorder(db.Queries()),
		tenancy.NewLocales(cfg.App.DefaultLocale, cfg.App.SupportedLocales),
	)

	logging.Info("Connected to database",
		"host", cfg.Database.Host,
		"port", cfg.Database.Port)

	return c, nil
}

// Handler builds the HTTP router over the container's services.
func (c *Container) Handler() (http.Handler, error) {
	return api.NewRouter(c.Server, api.RouterConfig{
		Authenticate: c.Authenticator.Authenticate,
		CORS:         &c.Config.CORS,
		RateLimit:    &c.Config.RateLimit,
		Development:  !c.Config.App.IsProduction(),
	})
}

// NewWorker builds the email worker; it is only needed by cmd/worker.
func NewWorker(cfg config.Config) (*queue.Worker, error) {
	sesService, err := aws.NewEmailService(cfg.AWS)
	if err != nil {
		return nil, err
	}

	// sender identities are managed outside the app except on localstack
	if cfg.AWS.EndpointURL != "" {
		if _, err := sesService.VerifyEmailIdentity(context.Background()); err != nil {
			logging.Error("Failed to verify email identity", "error", err)
		}
	}

	return queue.NewWorker(&cfg.Redis, sesService), nil
}

func (c *Container) Cleanup() {
	if c.Queue != nil {
		c.Queue.Close()
		logging.Info("Queue client closed")
	}
	if c.RedisClient != nil {
		c.RedisClient.Close()
		logging.Info("Redis client closed")
	}
	if c.Database != nil {
		c.Database.Close()
		logging.Info("Database connection closed")
	}
}
