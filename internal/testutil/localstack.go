package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/pawdesk/pawdesk/internal/aws"
	"github.com/pawdesk/pawdesk/internal/config"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestLocalStack runs S3 and SES in a LocalStack container and exposes the
// application's own service wrappers pointed at it.
type TestLocalStack struct {
	Container *localstack.LocalStackContainer
	Config    config.AWSConfig
	S3        *aws.S3Service
	Email     *aws.EmailService
}

func NewTestLocalStack(t *testing.T) *TestLocalStack {
	ctx := context.Background()

	container, err := localstack.Run(ctx,
		"localstack/localstack:3.0",
		testcontainers.WithReuseByName("pawdesk-test-localstack"),
		testcontainers.CustomizeRequest(testcontainers.GenericContainerRequest{
			ContainerRequest: testcontainers.ContainerRequest{
				Env: map[string]string{
					"SERVICES": "s3,ses",
				},
			},
		}),
		testcontainers.WithWaitStrategy(
			wait.ForAll(
				wait.ForLog("Ready.").
					WithOccurrence(1).
					WithStartupTimeout(60*time.Second),
				wait.ForListeningPort("4566/tcp").
					WithStartupTimeout(60*time.Second),
			),
		),
	)
	require.NoError(t, err, "Failed to start LocalStack container")

	endpoint, err := container.PortEndpoint(ctx, "4566/tcp", "http")
	require.NoError(t, err, "Failed to get LocalStack endpoint")

	cfg := config.AWSConfig{
		Region:          "us-east-1",
		AccessKeyID:     "test",
		SecretAccessKey: "test",
		EndpointURL:     endpoint,
		Bucket:          fmt.Sprintf("pawdesk-test-%s", shortID()),
		FromEmail:       "no-reply@pawdesk.test",
	}

	s3Service, err := aws.NewS3Service(cfg)
	require.NoError(t, err, "Failed to create S3 service")
	require.NoError(t, s3Service.CreateBucket(ctx), "Failed to create bucket")

	emailService, err := aws.NewEmailService(cfg)
	require.NoError(t, err, "Failed to create email service")

	ls := &TestLocalStack{
		Container: container,
		Config:    cfg,
		S3:        s3Service,
		Email:     emailService,
	}

	t.Cleanup(func() {
		ls.Close()
	})

	return ls
}

func (ls *TestLocalStack) Close() {
	if ls.Container != nil {
		_ = ls.Container.Terminate(context.Background())
	}
}

// SESClient returns a raw SES client for assertions the wrapper does not expose.
func (ls *TestLocalStack) SESClient(t *testing.T) *ses.Client {
	awsCfg, err := aws.LoadAWSConfig(ls.Config)
	require.NoError(t, err)
	endpoint := ls.Config.EndpointURL
	return ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		o.BaseEndpoint = &endpoint
	})
}
