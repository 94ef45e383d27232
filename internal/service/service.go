package service

import (
	"io"
	"time"

	"redeemr/rewards-service/internal/auth"
	"redeemr/rewards-service/internal/notify"
	"redeemr/rewards-service/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultResetTokenTTL = 24 * time.Hour

type Options struct {
	Hasher        *auth.Hasher
	Issuer        *auth.TokenIssuer
	Notifier      notify.Provider
	ResetTokenTTL time.Duration
	Logger        logrus.FieldLogger
}

type Service struct {
	Accounts   *Accounts
	Sessions   *Sessions
	Businesses *Businesses
	Rewards    *Rewards
}

func New(st store.Store, opts Options) *Service {
	if opts.Logger == nil {
		logger := logrus.New()
		logger.SetOutput(io.Discard)
		opts.Logger = logger
	}
	if opts.Hasher == nil {
		opts.Hasher = auth.NewHasher(0)
	}
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = defaultResetTokenTTL
	}
	if opts.Notifier == nil {
		opts.Notifier = notify.NewProvider("noop", "", opts.Logger)
	}

	return &Service{
		Accounts: &Accounts{
			users:    st,
			tokens:   st,
			hasher:   opts.Hasher,
			issuer:   opts.Issuer,
			notifier: opts.Notifier,
			resetTTL: opts.ResetTokenTTL,
			logger:   opts.Logger.WithField("component", "accounts"),
			now:      time.Now,
		},
		Sessions: &Sessions{
			users:  st,
			issuer: opts.Issuer,
		},
		Businesses: &Businesses{
			businesses: st,
			logger:     opts.Logger.WithField("component", "businesses"),
		},
		Rewards: &Rewards{
			businesses: st,
			rewards:    st,
			logger:     opts.Logger.WithField("component", "rewards"),
		},
	}
}

var validate = validator.New()

func isValidID(value string) bool {
	_, err := uuid.Parse(value)
	return err == nil
}
