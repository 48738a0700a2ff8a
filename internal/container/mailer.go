package container

import (
	"github.com/samber/do"
	"github.com/serroba/contact-relay/internal/config"
	"github.com/serroba/contact-relay/internal/mailer"
)

func MailerPackage(i *do.Injector) {
	do.Provide(i, func(i *do.Injector) (mailer.Mailer, error) {
		opts := do.MustInvoke[*Options](i)
		cfg := do.MustInvoke[*config.Relay](i)

		smtp, err := mailer.NewSMTPMailer(mailer.SMTPConfig{
			Host:     cfg.Server,
			Username: cfg.User,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, err
		}

		return mailer.NewThrottledMailer(smtp, opts.RelayPerMinute, opts.RelayBurst), nil
	})
}
