// Package main finalizes a document after its S3 PUT by recording the upload
// on the owning claim.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/url"
	"strings"

	"github.com/insureco/claims-backend/internal/awsutil"
	"github.com/insureco/claims-backend/internal/config"
	"github.com/insureco/claims-backend/internal/ddb"
	"github.com/insureco/claims-backend/internal/logging"
	"github.com/insureco/claims-backend/internal/s3io"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// App holds the application state, including configuration and AWS clients.
type App struct {
	env    config.Env
	logger *slog.Logger
	s3c    *s3.Client
	claims *ddb.ClaimRepo
}

func main() {
	env := config.MustLoad()
	logger := logging.New(env.LogLevel)

	clients, err := awsutil.NewClients(context.Background(), env.Region)
	if err != nil {
		log.Fatal(err)
	}

	app := &App{
		env:    env,
		logger: logger,
		s3c:    clients.S3,
		claims: &ddb.ClaimRepo{DB: clients.DDB, Table: env.ClaimsTable},
	}
	lambda.Start(app.handler)
}

// handler processes S3 event records, one document per record.
func (a *App) handler(ctx context.Context, ev events.S3Event) (any, error) {
	for _, rec := range ev.Records {
		if err := a.processRecord(ctx, rec); err != nil {
			a.logger.Error("indexer record failed", "key", rec.S3.Object.Key, "error", err)
		}
	}
	return nil, nil
}

// processRecord finalizes the document named by one S3 event record.
func (a *App) processRecord(ctx context.Context, rec events.S3EventRecord) error {
	bucket := rec.S3.Bucket.Name
	key, _ := url.QueryUnescape(rec.S3.Object.Key)

	meta, err := a.headObject(ctx, bucket, key)
	if err != nil {
		return fmt.Errorf("head %s: %w", key, err)
	}

	// Prefer metadata-sourced IDs; fall back to path parsing.
	userID := strings.TrimSpace(meta.user["user_id"])
	claimID := strings.TrimSpace(meta.user["claim_id"])
	docID := strings.TrimSpace(meta.user["document_id"])
	if userID == "" || claimID == "" || docID == "" {
		u, c, d, ok := s3io.ParseKey(key)
		if !ok {
			return fmt.Errorf("bad key %q", key)
		}
		if userID == "" {
			userID = u
		}
		if claimID == "" {
			claimID = c
		}
		if docID == "" {
			docID = d
		}
	}

	err = a.claims.FinalizeDocument(ctx, userID, claimID, docID, meta.size, meta.etag, ddb.NowISO())
	if err != nil {
		return fmt.Errorf("finalize %s/%s/%s: %w", userID, claimID, docID, err)
	}

	a.logger.Info("document finalized",
		"claim", claimID, "document", docID, "size", meta.size, "etag", meta.etag)
	return nil
}

// objectMeta holds the subset of S3 object metadata the indexer needs.
type objectMeta struct {
	size int64
	etag string
	user map[string]string // lowercased user metadata
}

// headObject fetches object size, etag and user metadata.
func (a *App) headObject(ctx context.Context, bucket, key string) (objectMeta, error) {
	out, err := a.s3c.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: &bucket,
		Key:    &key,
	})
	if err != nil {
		return objectMeta{}, err
	}

	m := objectMeta{user: make(map[string]string, len(out.Metadata))}
	if out.ContentLength != nil {
		m.size = *out.ContentLength
	}
	if out.ETag != nil {
		m.etag = strings.Trim(*out.ETag, "\"")
	}
	for k, v := range out.Metadata {
		m.user[strings.ToLower(k)] = v
	}
	return m, nil
}
