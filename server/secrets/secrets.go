/*
	broker credential lookup from AWS Secrets Manager

	the secret payload is a JSON blob holding the kafka bootstrap servers
	and SASL credentials; when enabled it overrides whatever the config
	file carries.  uses the SDK default credential chain (env vars, shared
	config, IAM role).
*/

package secrets

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	logging "gopkg.in/op/go-logging.v1"
)

var log = logging.MustGetLogger("secrets")

// BrokerSecrets is the shape of the secret payload.
type BrokerSecrets struct {
	BootstrapServers string `json:"KAFKA_BOOTSTRAP_SERVER"`
	SASLUsername     string `json:"KAFKA_SASL_USERNAME"`
	SASLPassword     string `json:"KAFKA_SASL_PASSWORD"`
}

func parseSecretPayload(payload []byte) (*BrokerSecrets, error) {
	sec := new(BrokerSecrets)
	if err := json.Unmarshal(payload, sec); err != nil {
		return nil, fmt.Errorf("Bad secret payload: %v", err)
	}
	if len(sec.BootstrapServers) == 0 {
		return nil, fmt.Errorf("Secret payload missing KAFKA_BOOTSTRAP_SERVER")
	}
	return sec, nil
}

// Fetch pulls and decodes the named secret.
func Fetch(ctx context.Context, name string, region string) (*BrokerSecrets, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	awsConfig, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsConfig)
	out, err := client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(name),
	})
	if err != nil {
		log.Error("Secrets retrieval failed: %v", err)
		return nil, err
	}
	return parseSecretPayload([]byte(aws.ToString(out.SecretString)))
}
