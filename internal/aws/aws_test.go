package aws_test

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/pawdesk/pawdesk/internal/aws"
	"github.com/pawdesk/pawdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPetPhotoKey(t *testing.T) {
	key := aws.PetPhotoKey("t1", "p1", "thumbnail", ".jpg")
	assert.Equal(t, "tenants/t1/pets/p1/thumbnail.jpg", key)
}

func TestS3Service(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping LocalStack tests in short mode")
	}

	ls := testutil.NewTestLocalStack(t)
	ctx := context.Background()
	key := aws.PetPhotoKey("tenant", "pet", "original", ".png")

	t.Run("put then get returns the same bytes", func(t *testing.T) {
		require.NoError(t, ls.S3.PutObject(ctx, key, bytes.NewReader([]byte("png-bytes")), "image/png"))

		body, err := ls.S3.GetObject(ctx, key)
		require.NoError(t, err)
		defer body.Close()

		data, err := io.ReadAll(body)
		require.NoError(t, err)
		assert.Equal(t, "png-bytes", string(data))
	})

	t.Run("presigned url names the bucket and key", func(t *testing.T) {
		url, err := ls.S3.PresignGet(ctx, key, 15*time.Minute)
		require.NoError(t, err)
		assert.Contains(t, url, ls.Config.Bucket)
		assert.Contains(t, url, "original.png")
		assert.Contains(t, url, "X-Amz-Expires=900")
	})

	t.Run("deleted object is gone", func(t *testing.T) {
		require.NoError(t, ls.S3.DeleteObject(ctx, key))
		_, err := ls.S3.GetObject(ctx, key)
		assert.Error(t, err)
	})
}

func TestEmailService(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping LocalStack tests in short mode")
	}

	ls := testutil.NewTestLocalStack(t)
	ctx := context.Background()

	_, err := ls.Email.VerifyEmailIdentity(ctx)
	require.NoError(t, err)

	identities, err := ls.SESClient(t).ListIdentities(ctx, &ses.ListIdentitiesInput{})
	require.NoError(t, err)
	assert.Contains(t, identities.Identities, ls.Email.Sender())

	err = ls.Email.SendEmail(ctx, "owner@example.com", "Verify your email", "text body", "<p>html body</p>")
	require.NoError(t, err)

	err = ls.Email.SendEmail(ctx, "owner@example.com", "Plain", strings.Repeat("x", 10), "")
	assert.NoError(t, err)
}
