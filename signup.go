package authcore

import (
	"context"
	"errors"

	"github.com/kvels/authcore/internal"
)

// Signup validates the form, hashes the password, and creates a regular
// unconfirmed account. Validation failures surface before any store
// mutation; a taken email returns [ErrEmailAlreadyExists] and leaves the
// existing account untouched.
func (s *Service) Signup(ctx context.Context, form *SignupForm) error {
	if s == nil || s.users == nil {
		return ErrServiceNotReady
	}

	if err := s.validator.ValidateSignup(form); err != nil {
		s.metricInc(MetricSignupRejected)
		s.emitAudit(ctx, auditEventSignupRejected, false, 0, err, nil)
		return err
	}

	hash, err := s.hasher.Hash(form.Password)
	if err != nil {
		return err
	}

	user, err := s.users.Create(ctx, form.Email, hash, false, false)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			s.metricInc(MetricSignupDuplicate)
			s.emitAudit(ctx, auditEventSignupDuplicate, false, 0, err, func() map[string]string {
				return map[string]string{"email": form.Email}
			})
			return err
		}
		s.metricInc(MetricBackendError)
		s.emitAudit(ctx, auditEventSignupRejected, false, 0, err, nil)
		return err
	}

	s.metricInc(MetricSignupSuccess)
	s.emitAudit(ctx, auditEventSignupSuccess, true, user.ID, nil, func() map[string]string {
		return map[string]string{"email": user.Email}
	})
	return nil
}

// SignupExternal creates a pre-confirmed account for an externally
// authenticated identity (an OAuth callback, typically). The account gets a
// random password that is hashed and then discarded, so it can never be
// used through the password login path; [Service.LoginExternal] is the only
// way in.
func (s *Service) SignupExternal(ctx context.Context, email string) error {
	if s == nil || s.users == nil {
		return ErrServiceNotReady
	}

	secret, err := internal.NewPassword(s.config.Password.ExternalLength)
	if err != nil {
		return err
	}
	hash, err := s.hasher.Hash(secret)
	if err != nil {
		return err
	}

	user, err := s.users.Create(ctx, email, hash, false, true)
	if err != nil {
		if errors.Is(err, ErrEmailAlreadyExists) {
			s.metricInc(MetricSignupDuplicate)
			s.emitAudit(ctx, auditEventSignupDuplicate, false, 0, err, func() map[string]string {
				return map[string]string{"email": email}
			})
			return err
		}
		s.metricInc(MetricBackendError)
		s.emitAudit(ctx, auditEventSignupRejected, false, 0, err, nil)
		return err
	}

	s.metricInc(MetricSignupExternal)
	s.emitAudit(ctx, auditEventSignupExternal, true, user.ID, nil, func() map[string]string {
		return map[string]string{"email": user.Email}
	})
	return nil
}
