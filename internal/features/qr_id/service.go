package qr_id

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	common_models "flow-metrics/internal/common/models"
	"flow-metrics/internal/config"
	"flow-metrics/internal/features/audit"
)

var (
	ErrNoEnvironment  = errors.New("qr id counter requires an environment")
	ErrInvalidEnvCode = errors.New("qr id environment code must be 1-8 letters or digits")
)

var envCodePattern = regexp.MustCompile(`^[A-Z0-9]{1,8}$`)

type QRID struct {
	ID       string `json:"id"`
	Sequence int64  `json:"sequence"`
}

type CounterService interface {
	Next(ctx context.Context) (*QRID, error)
}

type CounterServiceImpl struct {
	store       CounterStore
	audit       audit.AuditService
	prefix      string
	environment string
	code        string
}

// NewCounterService allocates ids for one environment. The sequence is keyed
// on the code printed in the id, so environments that share a code share a
// sequence and never collide. An empty envCode defaults to the upper-cased
// first letter of environment.
func NewCounterService(store CounterStore, auditService audit.AuditService, prefix, environment, envCode string) (*CounterServiceImpl, error) {
	environment = strings.TrimSpace(environment)
	if environment == "" {
		return nil, ErrNoEnvironment
	}

	code := strings.ToUpper(strings.TrimSpace(envCode))
	if code == "" {
		r, _ := utf8.DecodeRuneInString(environment)
		code = string(unicode.ToUpper(r))
	}
	if !envCodePattern.MatchString(code) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidEnvCode, code)
	}

	return &CounterServiceImpl{
		store:       store,
		audit:       auditService,
		prefix:      prefix,
		environment: environment,
		code:        code,
	}, nil
}

// NewService is the fx constructor
func NewService(store CounterStore, auditService audit.AuditService, cfg *config.Config) (CounterService, error) {
	return NewCounterService(store, auditService, cfg.QRIDPrefix, cfg.Environment, cfg.QRIDEnvCode)
}

// Next returns ids such as QR-P-000042
func (s *CounterServiceImpl) Next(ctx context.Context) (*QRID, error) {
	seq, err := s.store.Next(ctx, "qr_id:"+s.code)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate qr id: %w", err)
	}

	id := &QRID{ID: Format(s.prefix, s.code, seq), Sequence: seq}

	_ = s.audit.LogChange(ctx, common_models.AuditActionQRID, "qr_ids", id.ID, map[string]common_models.Change{
		"sequence":    {Old: seq - 1, New: seq},
		"environment": {New: s.environment},
	})
	return id, nil
}

func Format(prefix, code string, seq int64) string {
	return fmt.Sprintf("%s-%s-%06d", prefix, code, seq)
}
