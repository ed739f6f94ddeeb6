package notify

import (
	"context"
	"log"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESNotifier implements Notifier using AWS SES v2.
type SESNotifier struct {
	client    *sesv2.Client
	fromEmail string
}

// NewSESNotifier creates a notifier for Amazon SES. Credentials are loaded
// from the environment.
func NewSESNotifier(ctx context.Context, region, fromEmail string) (*SESNotifier, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}

	return &SESNotifier{
		client:    sesv2.NewFromConfig(cfg),
		fromEmail: fromEmail,
	}, nil
}

// Notify sends one message via the AWS SES v2 API.
func (s *SESNotifier) Notify(ctx context.Context, recipient string, msg Message) error {
	input := &sesv2.SendEmailInput{
		FromEmailAddress: &s.fromEmail,
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{
					Data:    &msg.Subject,
					Charset: aws.String("UTF-8"),
				},
				Body: &types.Body{
					Text: &types.Content{
						Data:    &msg.PlainText,
						Charset: aws.String("UTF-8"),
					},
					Html: &types.Content{
						Data:    &msg.HTML,
						Charset: aws.String("UTF-8"),
					},
				},
			},
		},
	}

	_, err := s.client.SendEmail(ctx, input)
	if err != nil {
		log.Printf("Failed to send notification via SES: %v", err)
		return err
	}
	return nil
}
