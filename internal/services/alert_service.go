package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/prospectiva/pkg/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

// AlertSender notifies account owners about security-relevant events
type AlertSender interface {
	SendAccountBlockedAlert(ctx context.Context, email string, blockedUntil time.Time) error
}

// sesAPI is the subset of the SES client used for alerts
type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

// SESAlertService sends alert emails using AWS SES
type SESAlertService struct {
	client      sesAPI
	fromAddress string
	logger      *slog.Logger
}

// NewSESAlertService creates an alert sender from the default AWS credential chain
func NewSESAlertService(ctx context.Context, region, fromAddress string, logger *slog.Logger) (*SESAlertService, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return newSESAlertService(ses.NewFromConfig(cfg), fromAddress, logger), nil
}

func newSESAlertService(client sesAPI, fromAddress string, logger *slog.Logger) *SESAlertService {
	return &SESAlertService{client: client, fromAddress: fromAddress, logger: logger}
}

// SendAccountBlockedAlert tells the owner that sign-in was paused after
// repeated failures, and until when.
func (s *SESAlertService) SendAccountBlockedAlert(ctx context.Context, email string, blockedUntil time.Time) error {
	until := blockedUntil.UTC().Format("2006-01-02 15:04 MST")

	textBody := fmt.Sprintf(`Bloqueo temporal de inicio de sesión

Detectamos varios intentos fallidos de inicio de sesión en tu cuenta de Prospectiva.
Por seguridad, el inicio de sesión queda bloqueado hasta %s.

Si fuiste tú, espera a que termine el bloqueo e inténtalo de nuevo.
Si no reconoces esta actividad, te recomendamos cambiar tu contraseña.

Este es un mensaje automático. Por favor, no respondas a este correo.
`, until)

	htmlBody := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333;">
    <h1>Bloqueo temporal de inicio de sesión</h1>
    <p>Detectamos varios intentos fallidos de inicio de sesión en tu cuenta de Prospectiva.</p>
    <p>Por seguridad, el inicio de sesión queda bloqueado hasta <strong>%s</strong>.</p>
    <p>Si no reconoces esta actividad, te recomendamos cambiar tu contraseña.</p>
    <p style="color: #666; font-size: 12px;">Este es un mensaje automático. Por favor, no respondas a este correo.</p>
</body>
</html>
`, until)

	input := &ses.SendEmailInput{
		Source: aws.String(s.fromAddress),
		Destination: &types.Destination{
			ToAddresses: []string{email},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String("Prospectiva: inicio de sesión bloqueado temporalmente"),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(htmlBody), Charset: aws.String("UTF-8")},
				Text: &types.Content{Data: aws.String(textBody), Charset: aws.String("UTF-8")},
			},
		},
	}

	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		s.logger.Error("failed to send account blocked alert via SES",
			slog.String("email", logger.SanitizedEmail(email)),
			slog.Any("error", err))
		return fmt.Errorf("failed to send email: %w", err)
	}

	s.logger.Info("account blocked alert sent",
		slog.String("email", logger.SanitizedEmail(email)),
		slog.String("message_id", aws.ToString(result.MessageId)))

	return nil
}
