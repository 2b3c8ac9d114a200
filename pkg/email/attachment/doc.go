// Package attachment resolves attachment descriptors stored on messages and
// queue items into file contents for the transport clients.
//
// A descriptor is either a local file path or an s3://bucket/key URL. Loader
// dispatches on the scheme:
//
//	s3Source, err := attachment.NewS3Source(ctx, attachment.S3Config{Region: "eu-central-1"})
//	loader := attachment.NewLoader(attachment.WithS3(s3Source))
//	f, err := loader.Load(ctx, "s3://invoices/2024/0001.pdf")
package attachment
