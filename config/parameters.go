package config

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/rs/zerolog/log"
)

// SecretKeys may be supplied by AWS Systems Manager Parameter Store instead of the environment.
var SecretKeys = []string{
	"DATABASE_URL",
	"DATABASE_REPLICA_URL",
	"REDIS_URL",
	"ADMIN_PASSWORD",
	"ADMIN_TOKEN_SECRET",
	"CLOUDINARY_API_KEY",
	"CLOUDINARY_API_SECRET",
	"RESEND_API_KEY",
	"TWILIO_AUTH_TOKEN",
	"SENTRY_DSN",
}

// ssm GetParameters accepts at most ten names per call
const maxParametersPerCall = 10

type ParameterGetter interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// LoadParameters fills keys missing from config with SecureString parameters named prefix+key.
// Values already present in the environment win. Parameters that do not exist are skipped.
func LoadParameters(ctx context.Context, config map[string]string, client ParameterGetter, prefix string, keys ...string) error {
	if len(keys) == 0 {
		keys = SecretKeys
	}
	prefix = strings.TrimSuffix(prefix, "/") + "/"

	var names []string
	for _, key := range keys {
		if GetString(config, key, "") == "" {
			names = append(names, prefix+key)
		}
	}

	loaded := 0
	for start := 0; start < len(names); start += maxParametersPerCall {
		end := min(start+maxParametersPerCall, len(names))
		out, err := client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          names[start:end],
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return fmt.Errorf("failed to read parameters under %s: %w", prefix, err)
		}

		for _, p := range out.Parameters {
			key := strings.TrimPrefix(aws.ToString(p.Name), prefix)
			config[key] = aws.ToString(p.Value)
			loaded++
		}
		if len(out.InvalidParameters) > 0 {
			log.Debug().Strs("names", out.InvalidParameters).Msg("parameters not found")
		}
	}

	log.Info().Str("prefix", prefix).Int("loaded", loaded).Msg("secrets loaded from parameter store")
	return nil
}
