package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/wolfman30/support-ai-platform/internal/config"
	"github.com/wolfman30/support-ai-platform/internal/notify"
	"github.com/wolfman30/support-ai-platform/pkg/logging"
)

// BuildEmailSender picks the sender named by EMAIL_PROVIDER. Missing
// credentials fall back to the logging stub; the returned string names the
// sender actually in use.
func BuildEmailSender(cfg *appconfig.Config, awsCfg aws.Config, logger *logging.Logger) (notify.EmailSender, string) {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg == nil {
		return notify.NewStubEmailSender(logger), "stub"
	}

	switch strings.ToLower(strings.TrimSpace(cfg.EmailProvider)) {
	case "sendgrid":
		sender := notify.NewSendGridSender(notify.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.EmailFromAddress,
			FromName:  cfg.EmailFromName,
		}, logger)
		if sender != nil && cfg.EmailFromAddress != "" {
			return sender, "sendgrid"
		}
		logger.Warn("sendgrid selected but api key or from address missing; using stub sender")
	case "ses":
		if cfg.EmailFromAddress != "" {
			return notify.NewSESSender(sesv2.NewFromConfig(awsCfg), notify.SESConfig{
				FromEmail: cfg.EmailFromAddress,
				FromName:  cfg.EmailFromName,
			}, logger), "ses"
		}
		logger.Warn("ses selected but from address missing; using stub sender")
	}
	return notify.NewStubEmailSender(logger), "stub"
}
