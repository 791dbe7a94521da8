package authcore

import (
	"context"
	"errors"
	"time"

	"github.com/kvels/authcore/internal"
)

// Login authenticates the form against the stored credential and issues a
// session key. An unknown email returns [ErrEmailDoesNotExist]; a wrong
// password returns [ErrUnauthorized]. The session is untimed unless
// Session.DefaultTTL caps it.
func (s *Service) Login(ctx context.Context, form *LoginForm) (string, error) {
	return s.login(ctx, form, s.config.Session.DefaultTTL)
}

// LoginFor is Login with an explicit session lifetime. The ttl must be
// positive.
func (s *Service) LoginFor(ctx context.Context, form *LoginForm, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", &ValidationError{Field: "ttl", Reason: "must be positive"}
	}
	return s.login(ctx, form, ttl)
}

func (s *Service) login(ctx context.Context, form *LoginForm, ttl time.Duration) (string, error) {
	if s == nil || s.users == nil || s.sessions == nil {
		return "", ErrServiceNotReady
	}
	if form == nil {
		return "", &ValidationError{Field: "form", Reason: "missing"}
	}

	start := time.Now()
	defer s.observeLoginLatency(start)

	user, err := s.lookupByEmail(ctx, form.Email)
	if err != nil {
		s.emitAudit(ctx, auditEventLoginFailure, false, 0, err, func() map[string]string {
			return map[string]string{"email": form.Email}
		})
		return "", err
	}

	ok, verifyErr := s.hasher.Verify(form.Password, user.PasswordHash)
	if verifyErr != nil || !ok {
		// A digest that fails to parse is treated the same as a mismatch.
		s.metricInc(MetricLoginFailure)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.ID, ErrUnauthorized, nil)
		return "", ErrUnauthorized
	}

	s.maybeUpgradeHash(ctx, user, form.Password)

	key, err := s.issueSession(ctx, user.ID, ttl)
	if err != nil {
		s.metricInc(MetricBackendError)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.ID, err, nil)
		return "", err
	}

	s.metricInc(MetricLoginSuccess)
	s.emitAudit(ctx, auditEventLoginSuccess, true, user.ID, nil, func() map[string]string {
		meta := map[string]string{"email": user.Email}
		if ttl > 0 {
			meta["ttl"] = ttl.String()
		}
		return meta
	})
	return key, nil
}

// LoginExternal issues a session for an externally authenticated identity
// without a password check. The caller is responsible for having verified
// the identity upstream.
func (s *Service) LoginExternal(ctx context.Context, email string) (string, error) {
	if s == nil || s.users == nil || s.sessions == nil {
		return "", ErrServiceNotReady
	}

	user, err := s.lookupByEmail(ctx, email)
	if err != nil {
		s.emitAudit(ctx, auditEventLoginFailure, false, 0, err, func() map[string]string {
			return map[string]string{"email": email}
		})
		return "", err
	}

	key, err := s.issueSession(ctx, user.ID, s.config.Session.DefaultTTL)
	if err != nil {
		s.metricInc(MetricBackendError)
		s.emitAudit(ctx, auditEventLoginFailure, false, user.ID, err, nil)
		return "", err
	}

	s.metricInc(MetricLoginExternal)
	s.emitAudit(ctx, auditEventLoginExternal, true, user.ID, nil, func() map[string]string {
		return map[string]string{"email": user.Email}
	})
	return key, nil
}

// lookupByEmail remaps a store miss to ErrEmailDoesNotExist so login paths
// report the same taxonomy regardless of backend.
func (s *Service) lookupByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.metricInc(MetricLoginUnknownEmail)
			return nil, ErrEmailDoesNotExist
		}
		s.metricInc(MetricBackendError)
		return nil, err
	}
	return user, nil
}

// maybeUpgradeHash rehashes the credential with the current parameters
// after a successful verify. Failures are swallowed: the login already
// succeeded and the old digest remains valid.
func (s *Service) maybeUpgradeHash(ctx context.Context, user *User, plaintext string) {
	if !s.config.Password.UpgradeOnLogin {
		return
	}
	stale, err := s.hasher.NeedsRehash(user.PasswordHash)
	if err != nil || !stale {
		return
	}
	rehash, err := s.hasher.Hash(plaintext)
	if err != nil {
		return
	}
	upgraded := *user
	upgraded.PasswordHash = rehash
	if err := s.users.Update(ctx, &upgraded); err == nil {
		user.PasswordHash = rehash
	}
}

func (s *Service) issueSession(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	key, err := internal.NewSessionKey(s.config.Session.KeyLength)
	if err != nil {
		return "", err
	}
	if ttl > 0 {
		err = s.sessions.InsertFor(ctx, userID, key, ttl)
	} else {
		err = s.sessions.Insert(ctx, userID, key)
	}
	if err != nil {
		return "", err
	}
	s.metricInc(MetricSessionIssued)
	return key, nil
}
