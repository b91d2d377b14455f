package notify

import (
	"go.uber.org/zap"

	"github.com/nixlim/hcpss-monitor/internal/config"
)

// NewEmailProvider builds the provider named in [email]. Unknown names fall
// back to the mock; config validation rejects them before this point. opts
// apply only to the Brevo provider.
func NewEmailProvider(cfg config.EmailConfig, logger *zap.Logger, opts ...BrevoOption) EmailProvider {
	if cfg.Provider == config.ProviderBrevo {
		return NewBrevoEmailProvider(cfg.APIKey, cfg.FromAddress, cfg.FromName, logger, opts...)
	}
	return NewMockEmailProvider(logger)
}

// NewSMSProvider builds the provider named in [sms].
func NewSMSProvider(cfg config.SMSConfig, logger *zap.Logger, opts ...BrevoOption) SMSProvider {
	if cfg.Provider == config.ProviderBrevo {
		return NewBrevoSMSProvider(cfg.APIKey, cfg.Sender, logger, opts...)
	}
	return NewMockSMSProvider(logger)
}
