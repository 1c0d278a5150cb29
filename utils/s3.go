package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ReportArchiveEnabled reports whether generated financial reports should be
// archived to S3. Controlled by REPORT_ARCHIVE_BUCKET.
func ReportArchiveEnabled() bool {
	return os.Getenv("REPORT_ARCHIVE_BUCKET") != ""
}

func getReportArchiveConfig() (aws.Config, error) {
	accessKey := os.Getenv("AWS_ACCESS_KEY_ID")
	secretKey := os.Getenv("AWS_SECRET_ACCESS_KEY")
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "ap-southeast-1"
	}

	if accessKey != "" && secretKey != "" {
		return config.LoadDefaultConfig(context.TODO(),
			config.WithRegion(region),
			config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
			),
		)
	}
	// Fall back to the default chain (instance role, shared config).
	return config.LoadDefaultConfig(context.TODO(), config.WithRegion(region))
}

func getReportArchiveClient() (*s3.Client, string, error) {
	bucket := os.Getenv("REPORT_ARCHIVE_BUCKET")
	if bucket == "" {
		return nil, "", fmt.Errorf("REPORT_ARCHIVE_BUCKET is not set")
	}
	cfg, err := getReportArchiveConfig()
	if err != nil {
		return nil, "", fmt.Errorf("load report archive config: %w", err)
	}
	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})
	return client, bucket, nil
}

// UploadReport archives a generated report under reports/<name> and returns
// the object key.
func UploadReport(ctx context.Context, name string, body []byte, contentType string) (string, error) {
	client, bucket, err := getReportArchiveClient()
	if err != nil {
		return "", err
	}
	if contentType == "" {
		contentType = "text/csv"
	}

	key := "reports/" + name
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("upload report %s: %w", key, err)
	}
	return key, nil
}

// PresignReportURL returns a time-limited download URL for an archived report.
func PresignReportURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	client, bucket, err := getReportArchiveClient()
	if err != nil {
		return "", err
	}
	if expiry <= 0 {
		expiry = 15 * time.Minute
	}

	presigner := s3.NewPresignClient(client)
	req, err := presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("presign report %s: %w", key, err)
	}
	return req.URL, nil
}
