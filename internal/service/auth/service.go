package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/mamadbah2/kasir/internal/domain/models"
	"github.com/mamadbah2/kasir/internal/repository/realtime"
)

// RulesCollection holds the shared passwords.
const RulesCollection = "rules"

// Service checks shared passwords that unlock the stock and analytics screens.
type Service struct {
	store  realtime.Store
	logger *zap.Logger
}

// NewService creates the rule gate.
func NewService(store realtime.Store, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, logger: logger.Named("svc.auth")}
}

// Rules lists the available rules without their passwords, ordered by key.
func (s *Service) Rules(ctx context.Context) ([]models.Rule, error) {
	snap, err := s.store.List(ctx, RulesCollection)
	if err != nil {
		return nil, fmt.Errorf("list rules: %w", err)
	}

	rules := make([]models.Rule, 0, len(snap))
	for key, raw := range snap {
		rule, err := models.DecodeRule(key, raw)
		if err != nil {
			s.logger.Warn("skipping unreadable rule", zap.String("rule", key), zap.Error(err))
			continue
		}
		rule.Password = ""
		rules = append(rules, rule)
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].Key < rules[j].Key })
	return rules, nil
}

// Verify checks password against the rule stored under key. Passwords are
// stored either as bcrypt hashes or, for older rules, in plain text.
func (s *Service) Verify(ctx context.Context, key, password string) error {
	if key == "" || strings.Contains(key, "/") || password == "" {
		return models.ErrUnauthorized
	}

	raw, err := s.store.Get(ctx, realtime.Join(RulesCollection, key))
	if err != nil {
		return fmt.Errorf("load rule %s: %w", key, err)
	}
	if raw == nil {
		return models.ErrUnauthorized
	}
	rule, err := models.DecodeRule(key, raw)
	if err != nil {
		return fmt.Errorf("load rule %s: %w", key, err)
	}

	if !matches(rule.Password, password) {
		s.logger.Warn("rule verification failed", zap.String("rule", key))
		return models.ErrUnauthorized
	}
	return nil
}

// SetRule stores a rule with a bcrypt hash of password.
func (s *Service) SetRule(ctx context.Context, key, ruleType, password string) error {
	key = strings.TrimSpace(key)
	if key == "" || strings.Contains(key, "/") {
		return fmt.Errorf("rule key %q is invalid", key)
	}
	if password == "" {
		return errors.New("password must be provided")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	raw, err := json.Marshal(models.Rule{Type: ruleType, Password: string(hash)})
	if err != nil {
		return fmt.Errorf("encode rule: %w", err)
	}
	if err := s.store.Set(ctx, realtime.Join(RulesCollection, key), raw); err != nil {
		return fmt.Errorf("store rule %s: %w", key, err)
	}

	s.logger.Info("rule updated", zap.String("rule", key), zap.String("type", ruleType))
	return nil
}

func matches(stored, given string) bool {
	if isBcrypt(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(given)) == nil
	}
	return stored != "" && subtle.ConstantTimeCompare([]byte(stored), []byte(given)) == 1
}

func isBcrypt(s string) bool {
	return strings.HasPrefix(s, "$2a$") || strings.HasPrefix(s, "$2b$") || strings.HasPrefix(s, "$2y$")
}
