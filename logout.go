package authcore

import (
	"context"
	"errors"
)

// IsAuth reports whether the session key currently resolves to a user. The
// answer is a fresh cache lookup every time; backend faults read as false.
func (s *Service) IsAuth(ctx context.Context, key string) bool {
	if s == nil || s.sessions == nil || key == "" {
		return false
	}
	_, ok, err := s.sessions.Get(ctx, key)
	return err == nil && ok
}

// CurrentUser resolves the session key to its user record. A key that is
// missing or expired returns [ErrUnauthorized].
func (s *Service) CurrentUser(ctx context.Context, key string) (*User, error) {
	if s == nil || s.users == nil || s.sessions == nil {
		return nil, ErrServiceNotReady
	}

	userID, ok, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.metricInc(MetricBackendError)
		return nil, err
	}
	if !ok {
		return nil, ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			// The account vanished under a live session. Treat the key as
			// dead rather than leaking the dangling id.
			return nil, ErrUnauthorized
		}
		s.metricInc(MetricBackendError)
		return nil, err
	}
	return user, nil
}

// Logout removes the session if it is live and is a no-op otherwise.
func (s *Service) Logout(ctx context.Context, key string) error {
	if s == nil || s.sessions == nil {
		return ErrServiceNotReady
	}

	userID, ok, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.metricInc(MetricBackendError)
		return err
	}
	if !ok {
		s.metricInc(MetricLogoutNoop)
		return nil
	}

	if err := s.sessions.Remove(ctx, key); err != nil {
		s.metricInc(MetricBackendError)
		return err
	}

	s.metricInc(MetricLogout)
	s.metricInc(MetricSessionRevoked)
	s.emitAudit(ctx, auditEventLogoutSession, true, userID, nil, nil)
	return nil
}

// Delete removes the account behind the session key and invalidates every
// live session of that user, the invoking one included. An unresolvable
// key returns [ErrUnauthorized]; an account that is already gone returns
// [ErrUserNotFound].
func (s *Service) Delete(ctx context.Context, key string) error {
	if s == nil || s.users == nil || s.sessions == nil {
		return ErrServiceNotReady
	}

	userID, ok, err := s.sessions.Get(ctx, key)
	if err != nil {
		s.metricInc(MetricBackendError)
		return err
	}
	if !ok {
		return ErrUnauthorized
	}

	if err := s.users.Delete(ctx, userID); err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.metricInc(MetricBackendError)
		}
		s.emitAudit(ctx, auditEventAccountDeleted, false, userID, err, nil)
		return err
	}

	s.metricInc(MetricAccountDeleted)
	s.emitAudit(ctx, auditEventAccountDeleted, true, userID, nil, nil)

	if err := s.sessions.RemoveAllForUser(ctx, userID); err != nil {
		s.metricInc(MetricBackendError)
		return err
	}
	s.metricInc(MetricSessionRevoked)
	s.emitAudit(ctx, auditEventSessionsCascaded, true, userID, nil, nil)
	return nil
}
