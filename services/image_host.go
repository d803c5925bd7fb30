package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	"github.com/rpupo63/fadarc-site-backend/config"
	"github.com/rpupo63/fadarc-site-backend/errs"
)

const (
	// BlogImageFolder is the remote folder every blog image lands in.
	BlogImageFolder = "blog-images"

	// cloudinaryDelivery asks for automatic quality and format negotiation plus progressive delivery.
	cloudinaryDelivery = "q_auto,f_auto,fl_progressive"

	HostCloudinary = "cloudinary"
	HostS3         = "s3"
)

// ImageHost stores a processed image remotely and returns its public URL.
type ImageHost interface {
	Name() string
	// MissingConfig lists the unset settings Upload needs. Empty means ready.
	MissingConfig() []string
	Upload(ctx context.Context, data []byte, fileName string) (string, error)
}

// NewImageHost picks the host named by IMAGE_HOST, defaulting to cloudinary.
// Missing credentials are reported by Upload, not here.
func NewImageHost(cfg map[string]string) ImageHost {
	switch strings.ToLower(config.GetString(cfg, "IMAGE_HOST", HostCloudinary)) {
	case HostS3:
		return NewS3Host(
			config.GetString(cfg, "S3_BUCKET", ""),
			config.GetString(cfg, "S3_PUBLIC_BASE_URL", ""),
		)
	default:
		return NewCloudinaryHost(
			config.GetString(cfg, "CLOUDINARY_CLOUD_NAME", ""),
			config.GetString(cfg, "CLOUDINARY_API_KEY", ""),
			config.GetString(cfg, "CLOUDINARY_API_SECRET", ""),
		)
	}
}

type CloudinaryHost struct {
	CloudName string
	APIKey    string
	APISecret string
}

func NewCloudinaryHost(cloudName, apiKey, apiSecret string) *CloudinaryHost {
	return &CloudinaryHost{CloudName: cloudName, APIKey: apiKey, APISecret: apiSecret}
}

func (h *CloudinaryHost) Name() string { return HostCloudinary }

func (h *CloudinaryHost) MissingConfig() []string {
	var missing []string
	if h.CloudName == "" {
		missing = append(missing, "CLOUDINARY_CLOUD_NAME")
	}
	if h.APIKey == "" {
		missing = append(missing, "CLOUDINARY_API_KEY")
	}
	if h.APISecret == "" {
		missing = append(missing, "CLOUDINARY_API_SECRET")
	}
	return missing
}

func (h *CloudinaryHost) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	if missing := h.MissingConfig(); len(missing) > 0 {
		return "", errs.NewConfigMissingError(HostCloudinary, missing...)
	}

	cld, err := cloudinary.NewFromParams(h.CloudName, h.APIKey, h.APISecret)
	if err != nil {
		return "", errs.NewConfigError("cloudinary", err)
	}

	resp, err := cld.Upload.Upload(ctx, bytes.NewReader(data), uploader.UploadParams{
		Folder:         BlogImageFolder,
		PublicID:       strings.TrimSuffix(fileName, path.Ext(fileName)),
		ResourceType:   "image",
		Transformation: cloudinaryDelivery,
	})
	if err != nil {
		return "", errs.NewUploadFailedError(HostCloudinary, err)
	}
	if resp.Error.Message != "" {
		return "", errs.NewUploadFailedError(HostCloudinary, errors.New(resp.Error.Message))
	}
	if resp.SecureURL == "" {
		return "", errs.NewUploadFailedError(HostCloudinary, errors.New("no secure url in upload response"))
	}
	return resp.SecureURL, nil
}

type S3Host struct {
	Bucket        string
	PublicBaseURL string

	mu     sync.Mutex
	client *s3.Client
}

func NewS3Host(bucket, publicBaseURL string) *S3Host {
	return &S3Host{Bucket: bucket, PublicBaseURL: strings.TrimSuffix(publicBaseURL, "/")}
}

func (h *S3Host) Name() string { return HostS3 }

func (h *S3Host) MissingConfig() []string {
	if h.Bucket == "" {
		return []string{"S3_BUCKET"}
	}
	return nil
}

func (h *S3Host) Upload(ctx context.Context, data []byte, fileName string) (string, error) {
	if missing := h.MissingConfig(); len(missing) > 0 {
		return "", errs.NewConfigMissingError(HostS3, missing...)
	}

	client, err := h.s3Client(ctx)
	if err != nil {
		return "", err
	}

	key := h.objectKey(fileName)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(h.Bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(data),
		ContentType:  aws.String(CompressedMimeType),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", errs.NewUploadFailedError(HostS3, err)
	}

	return h.objectURL(key), nil
}

func (h *S3Host) s3Client(ctx context.Context) (*s3.Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.client == nil {
		cfg, err := awsconfig.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, errs.NewConfigError("aws", fmt.Errorf("failed to load AWS config: %w", err))
		}
		h.client = s3.NewFromConfig(cfg)
	}
	return h.client, nil
}

// objectKey prefixes a random id so equal file names never overwrite each other.
func (h *S3Host) objectKey(fileName string) string {
	return path.Join(BlogImageFolder, uuid.NewString()+"_"+path.Base(fileName))
}

func (h *S3Host) objectURL(key string) string {
	if h.PublicBaseURL != "" {
		return h.PublicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", h.Bucket, key)
}
