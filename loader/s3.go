package loader

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/caelum-lang/stepweave/step"
)

// S3Credentials pins a static access key pair instead of falling back to
// the default AWS credential chain, matching the teacher's S3Factory
// AccessKeyID/SecretAccessKey fields (persistence-s3.go).
type S3Credentials struct {
	AccessKeyID     string
	SecretAccessKey string
}

// loadS3Directory loads every .step object under an s3://bucket/prefix
// URI, repurposing the teacher's S3Storage client setup (persistence-s3.go)
// from a column-store backing store into a source of method definitions.
// recursive is accepted for symmetry with loadLocalDirectory; S3 listing
// has no directory concept to prune, so it has no effect here.
func (l *Loader) loadS3Directory(module *step.Module, uri string, recursive bool) error {
	bucket, prefix, err := parseS3URI(uri)
	if err != nil {
		return err
	}

	ctx := context.Background()
	var opts []func(*config.LoadOptions) error
	if l.S3Creds.AccessKeyID != "" && l.S3Creds.SecretAccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(l.S3Creds.AccessKeyID, l.S3Creds.SecretAccessKey, ""),
		))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return fmt.Errorf("loader: failed to load AWS config: %w", err)
	}
	client := s3.NewFromConfig(cfg)

	paginator := s3.NewListObjectsV2Paginator(client, &s3.ListObjectsV2Input{
		Bucket: aws.String(bucket),
		Prefix: aws.String(prefix),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return fmt.Errorf("loader: listing s3://%s/%s: %w", bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if path.Ext(key) != ".step" {
				continue
			}
			resp, err := client.GetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			})
			if err != nil {
				return fmt.Errorf("loader: reading s3://%s/%s: %w", bucket, key, err)
			}
			data, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("loader: reading s3://%s/%s: %w", bucket, key, err)
			}
			if err := l.LoadDefinitions(module, string(data), "s3://"+bucket+"/"+key); err != nil {
				return err
			}
		}
	}
	return nil
}

func parseS3URI(uri string) (bucket, prefix string, err error) {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		return "", "", fmt.Errorf("loader: not an s3:// URI: %s", uri)
	}
	parts := strings.SplitN(rest, "/", 2)
	bucket = parts[0]
	if bucket == "" {
		return "", "", fmt.Errorf("loader: missing bucket in s3:// URI: %s", uri)
	}
	if len(parts) == 2 {
		prefix = parts[1]
	}
	return bucket, prefix, nil
}
