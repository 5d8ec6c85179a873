// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package identity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
)

// # OTP Lifecycle

/*
IssueOTP replaces any prior code with a fresh 6-digit one.

Description: Only the bcrypt hash and the send time are persisted. The
plaintext is returned for delivery.

Returns:
  - string: Plaintext code
  - error: Generation, hashing or storage failures
*/
func (service *Service) IssueOTP(context context.Context, principal *Principal) (string, error) {
	directory, err := service.registry.Directory(principal.Kind)
	if err != nil {
		return "", err
	}

	code, err := service.stageOTP(principal)
	if err != nil {
		return "", err
	}

	if err := directory.Save(context, principal); err != nil {
		return "", fmt.Errorf("identity_issue_otp_failed: %w", err)
	}
	return code, nil
}

// stageOTP mutates principal with a fresh code without persisting it.
func (service *Service) stageOTP(principal *Principal) (string, error) {
	code, err := sec.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("identity_generate_otp_failed: %w", err)
	}

	hash, err := sec.HashSecret(code)
	if err != nil {
		return "", fmt.Errorf("identity_hash_otp_failed: %w", err)
	}

	now := service.now()
	principal.OtpHash = hash
	principal.OtpSentAt = &now
	return code, nil
}

/*
VerifyOTP checks a code against the principal's current OTP.

Description: Runs the lockout gate, then the expiry check, then the compare.

  - Locked out inside the window: OtpLockedOut with the hours remaining.
  - Locked out past the window: the counter resets and verification continues.
  - Expired or never sent: a fresh code is issued and delivered, OtpExpired.
  - Match: counter resets and the code is rotated so it cannot be replayed.
  - Mismatch: counter increments, returns false with no error.

Returns:
  - bool: Whether the code matched
  - error: OtpLockedOut, OtpExpired or storage failures
*/
func (service *Service) VerifyOTP(context context.Context, principal *Principal, code string) (bool, error) {
	directory, err := service.registry.Directory(principal.Kind)
	if err != nil {
		return false, err
	}

	now := service.now()
	logger := ctxutil.GetLogger(context)

	// 1. Lockout gate
	if principal.FailedOtpAttempts >= service.otp.MaxFailedAttempts {
		var elapsed = service.otp.FailedResetWindow
		if principal.FailedOtpVerifyAt != nil {
			elapsed = now.Sub(*principal.FailedOtpVerifyAt)
		}

		if elapsed < service.otp.FailedResetWindow {
			remaining := math.Ceil((service.otp.FailedResetWindow - elapsed).Hours())
			logger.WarnContext(context, "otp_locked_out", slog.String("principal_id", principal.ID))
			return false, apperr.OtpLockedOut(fmt.Sprintf(
				"Too many failed attempts. Please try again after %.0f hours", remaining,
			))
		}
		principal.FailedOtpAttempts = 0
	}

	// 2. Expiry
	if principal.OtpSentAt == nil || now.Sub(*principal.OtpSentAt) >= service.otp.ExpireTime {
		fresh, err := service.stageOTP(principal)
		if err != nil {
			return false, err
		}
		if err := directory.Save(context, principal); err != nil {
			return false, fmt.Errorf("identity_verify_otp_failed: %w", err)
		}
		service.deliverOTP(context, principal, fresh)
		return false, apperr.OtpExpired("OTP expired. A new OTP has been sent")
	}

	// 3. Compare
	verified := sec.VerifySecret(code, principal.OtpHash)
	if verified {
		principal.FailedOtpAttempts = 0
		if _, err := service.stageOTP(principal); err != nil {
			return false, err
		}
	} else {
		principal.FailedOtpAttempts++
		principal.FailedOtpVerifyAt = &now
	}

	if err := directory.Save(context, principal); err != nil {
		return false, fmt.Errorf("identity_verify_otp_failed: %w", err)
	}

	return verified, nil
}

// deliverOTP hands a code to the notifier. Delivery is fire-and-forget.
func (service *Service) deliverOTP(context context.Context, principal *Principal, code string) {
	service.notifier.Send(context, notify.Message{
		Recipient: principal.Phone,
		Template:  notify.TemplateLoginOTP,
		Data: map[string]string{
			"name": principal.Name,
			"otp":  code,
		},
	})
}

// # OTP Login

/*
SendOTP issues a login code to the user registered with phone.

Returns:
  - error: InvalidRequest, NotFound, AccountBlocked or storage failures
*/
func (service *Service) SendOTP(context context.Context, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" || !isNumeric(phone) {
		return apperr.InvalidRequest("Provide a valid phone number")
	}

	principal, err := service.findByPhone(context, phone)
	if err != nil {
		return err
	}

	code, err := service.IssueOTP(context, principal)
	if err != nil {
		return err
	}

	service.deliverOTP(context, principal, code)
	return nil
}

/*
VerifyOTPLogin signs a user in with a phone number and code.

Description: A mismatch is reported as InvalidCredentials. On success the
account is touched like a password login and a session is issued.

Returns:
  - *Session: Access and refresh tokens
  - error: InvalidRequest, NotFound, AccountBlocked, InvalidCredentials,
    OtpExpired, OtpLockedOut or storage failures
*/
func (service *Service) VerifyOTPLogin(context context.Context, phone, code string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	code = strings.TrimSpace(code)
	if phone == "" || !isNumeric(phone) || code == "" {
		return nil, apperr.InvalidRequest("Provide phone and OTP")
	}

	principal, err := service.findByPhone(context, phone)
	if err != nil {
		return nil, err
	}

	verified, err := service.VerifyOTP(context, principal, code)
	if err != nil {
		return nil, err
	}
	if !verified {
		return nil, apperr.InvalidCredentials("Invalid OTP")
	}

	directory, err := service.registry.Directory(KindUser)
	if err != nil {
		return nil, err
	}

	now := service.now()
	if principal.Status == StatusInactive {
		principal.Status = StatusActive
	}
	principal.LastSync = &now
	principal.LastUsed = &now
	if err := directory.Save(context, principal); err != nil {
		return nil, fmt.Errorf("identity_otp_login_save_failed: %w", err)
	}

	session, err := service.IssueSession(context, principal)
	if err != nil {
		return nil, err
	}
	session.Message = "OTP Verified"

	ctxutil.GetLogger(context).InfoContext(context, "login_succeeded",
		slog.String("kind", string(KindUser)),
		slog.String("principal_id", principal.ID),
		slog.String("method", "otp"),
	)

	return session, nil
}

// findByPhone loads a live, non-blocked user by phone.
func (service *Service) findByPhone(context context.Context, phone string) (*Principal, error) {
	directory, err := service.registry.Directory(KindUser)
	if err != nil {
		return nil, err
	}

	principal, err := directory.FindByPhone(context, phone)
	if err != nil {
		if errors.Is(err, dberr.ErrNotFound) {
			return nil, apperr.NotFound("User")
		}
		return nil, fmt.Errorf("identity_phone_lookup_failed: %w", err)
	}

	if principal.Status == StatusBlocked {
		return nil, apperr.AccountBlocked("Account blocked! Contact customer care")
	}
	return principal, nil
}
