package otp

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mesahq/mesa/internal/cache"
	"github.com/mesahq/mesa/internal/config"
)

// ErrNotFound is returned when no live code exists for the identifier.
var ErrNotFound = errors.New("otp not found or expired")

// Record is one pending verification code. PendingUser carries registration
// data between the send and verify calls.
type Record struct {
	Code        string       `json:"code"`
	PendingUser *PendingUser `json:"pending_user,omitempty"`
}

// PendingUser is the registration payload held until the OTP is verified.
type PendingUser struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

// Sender delivers a code to the customer out-of-band.
type Sender interface {
	Send(ctx context.Context, phoneNumber, code string) error
}

// Store holds pending OTPs in the shared cache so any instance can verify a
// code issued by another. Entries expire on their own via the cache TTL.
type Store struct {
	cache  cache.Store
	ttl    time.Duration
	sender Sender
}

// Module provides the OTP store and the default sender to Fx.
var Module = fx.Options(
	fx.Provide(NewLogSender),
	fx.Provide(NewStore),
)

// NewStore wires an OTP store over the cache backend. The noop cache driver
// is rejected outright: codes issued into it would evaporate immediately and
// every customer login would fail only at verification time.
func NewStore(store cache.Store, cfg config.Config, sender Sender) (*Store, error) {
	if cfg.Cache.Driver == "noop" {
		return nil, errors.New("otp store requires a real cache backend; CACHE_DRIVER=noop cannot hold verification codes")
	}
	return &Store{
		cache:  store,
		ttl:    cfg.Auth.OTPTTL,
		sender: sender,
	}, nil
}

// Issue generates a fresh 6-digit code, stores it under the identifier, and
// dispatches it through the sender.
func (s *Store) Issue(ctx context.Context, identifier string, pending *PendingUser) error {
	code, err := generateCode()
	if err != nil {
		return err
	}

	record := Record{Code: code, PendingUser: pending}
	if err := cache.SetJSON(ctx, s.cache, s.key(identifier), record, s.ttl); err != nil {
		return err
	}
	return s.sender.Send(ctx, identifier, code)
}

// Verify checks the submitted code. On success the record is consumed and
// any pending registration data is returned; a second verification with the
// same code fails.
func (s *Store) Verify(ctx context.Context, identifier, code string) (*Record, error) {
	var record Record
	err := cache.GetJSON(ctx, s.cache, s.key(identifier), &record)
	if errors.Is(err, cache.ErrCacheMiss) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if record.Code != code {
		return nil, ErrNotFound
	}

	_ = s.cache.Delete(ctx, s.key(identifier))
	return &record, nil
}

func (s *Store) key(identifier string) string {
	return "otp:" + identifier
}

func generateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// LogSender writes codes to the log instead of sending SMS. Suitable for
// development and test environments only.
type LogSender struct {
	logger *zap.Logger
}

// NewLogSender builds the logging sender.
func NewLogSender(logger *zap.Logger) Sender {
	return &LogSender{logger: logger}
}

// Send logs the code.
func (l *LogSender) Send(_ context.Context, phoneNumber, code string) error {
	l.logger.Info("otp issued",
		zap.String("phone_number", phoneNumber),
		zap.String("code", code),
	)
	return nil
}
