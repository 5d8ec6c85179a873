// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package account

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dripside-in/dripside-backend/internal/identity"
	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/ctxutil"
	"github.com/dripside-in/dripside-backend/internal/platform/dberr"
	"github.com/dripside-in/dripside-backend/internal/platform/notify"
	"github.com/dripside-in/dripside-backend/internal/platform/sec"
	"github.com/dripside-in/dripside-backend/internal/platform/validate"
	"github.com/dripside-in/dripside-backend/pkg/pagination"
	"github.com/dripside-in/dripside-backend/pkg/query"
	"github.com/dripside-in/dripside-backend/pkg/uuid"
)

// # Service Layer

// Service implements the resource operations of one principal kind.
type Service struct {
	kind        identity.Kind
	repository  Repository
	identity    *identity.Service
	notifier    notify.Notifier
	development bool
	now         func() time.Time
}

// NewService constructs a new [Service]. Physical deletes are only allowed
// when development is true.
func NewService(kind identity.Kind, repository Repository, identityService *identity.Service, notifier notify.Notifier, development bool) *Service {
	return &Service{
		kind:        kind,
		repository:  repository,
		identity:    identityService,
		notifier:    notifier,
		development: development,
		now:         time.Now,
	}
}

// Kind returns the principal kind this service manages.
func (service *Service) Kind() identity.Kind {
	return service.kind
}

func (service *Service) resource() string {
	return service.kind.Label()
}

// # Queries

/*
List returns one page of principals visible to the caller.

Description: Non-admin callers only see Active principals. Only SuperAdmin
and DeveloperAdmin callers may include soft-deleted rows.

Parameters:
  - context: context.Context
  - caller: *sec.Identity
  - filter: Filter

Returns:
  - []*identity.Principal: Page of results
  - pagination.Meta: Envelope counters
  - error: Database errors
*/
func (service *Service) List(context context.Context, caller *sec.Identity, filter Filter) ([]*identity.Principal, pagination.Meta, error) {
	if !caller.Role.IsAdmin() {
		filter.Statuses = []identity.Status{identity.StatusActive}
	}
	if !sec.SuperAdminRoles.Contains(caller.Role) {
		filter.Deleted = query.DeletedNo
	}

	principals, counts, err := service.repository.List(context, filter)
	if err != nil {
		return nil, pagination.Meta{}, fmt.Errorf("account_service_list_failed: %w", err)
	}

	return principals, pagination.NewMeta(filter.Page, counts.Total, counts.Latest), nil
}

/*
Get returns a principal by id.

Description: Soft-deleted principals are only visible to SuperAdmin and
DeveloperAdmin callers.
*/
func (service *Service) Get(context context.Context, caller *sec.Identity, id string) (*identity.Principal, error) {
	principal, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, service.notFound(err, "get")
	}

	if principal.IsDeleted && !sec.SuperAdminRoles.Contains(caller.Role) {
		return nil, apperr.NotFound(service.resource())
	}
	return principal, nil
}

// Profile returns the caller's own record.
func (service *Service) Profile(context context.Context, caller *sec.Identity) (*identity.Principal, error) {
	return service.live(context, caller.ID)
}

/*
CheckUsername reports whether username is free.

Returns:
  - bool: True when no principal holds username
  - error: Validation or database errors
*/
func (service *Service) CheckUsername(context context.Context, username string) (bool, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	validator := &validate.Validator{}
	validator.Required(FieldUsername, username).Username(FieldUsername, username)
	if err := validator.Err(); err != nil {
		return false, err
	}

	exists, err := service.repository.UsernameExists(context, username)
	if err != nil {
		return false, fmt.Errorf("account_service_check_username_failed: %w", err)
	}
	return !exists, nil
}

// # Creation

/*
Add creates a principal on behalf of an administrator.

Description: A password is generated when none is given and the credentials
are mailed. Users also receive an initial OTP.

Returns:
  - *identity.Principal: The created principal
  - error: Validation, duplicate key (409) or database errors
*/
func (service *Service) Add(context context.Context, input AddInput) (*identity.Principal, error) {
	principal, password, err := service.create(context, input, false)
	if err != nil {
		return nil, err
	}

	service.sendCredentials(context, principal, password)
	return principal, nil
}

/*
Register is the public sign-up of an end user.

Returns:
  - *identity.Session: Access and refresh tokens for the new user
  - error: Validation, duplicate key (409) or database errors
*/
func (service *Service) Register(context context.Context, input AddInput) (*identity.Session, error) {
	if service.kind != identity.KindUser {
		return nil, apperr.Forbidden("Forbidden")
	}

	principal, _, err := service.create(context, input, true)
	if err != nil {
		return nil, err
	}

	session, err := service.identity.IssueSession(context, principal)
	if err != nil {
		return nil, err
	}
	session.Message = "Registration Success"
	return session, nil
}

func (service *Service) create(context context.Context, input AddInput, requirePassword bool) (*identity.Principal, string, error) {
	input.Name = strings.TrimSpace(input.Name)
	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.Phone = strings.TrimSpace(input.Phone)

	role := sec.RoleUser
	if service.kind == identity.KindAdmin {
		role = sec.RoleAdmin
		if input.Role != "" {
			role = input.Role
		}
	}

	validator := &validate.Validator{}
	validator.Required(FieldName, input.Name).MaxLen(FieldName, input.Name, 100).
		Username(FieldUsername, input.Username).
		Email(FieldEmail, input.Email).
		Custom(FieldRole, !service.kind.Roles().Contains(role), "Role is not allowed")
	// Admins may be created without a phone.
	if service.kind == identity.KindUser || input.Phone != "" {
		validator.Phone(FieldPhone, input.Phone)
	}
	if requirePassword {
		validator.Required(FieldPassword, input.Password)
	}
	if input.Password != "" {
		validator.MinLen(FieldPassword, input.Password, 6).MaxBytes(FieldPassword, input.Password, sec.MaxSecretBytes)
	}
	if err := validator.Err(); err != nil {
		return nil, "", err
	}

	password := input.Password
	autoGenerated := password == ""
	if autoGenerated {
		generated, err := sec.GeneratePassword(generatedPasswordLength)
		if err != nil {
			return nil, "", fmt.Errorf("account_service_generate_password_failed: %w", err)
		}
		password = generated
	}

	hash, err := sec.HashSecret(password)
	if err != nil {
		return nil, "", fmt.Errorf("account_service_hash_password_failed: %w", err)
	}

	now := service.now()
	principal := &identity.Principal{
		ID:                    uuid.New(),
		Kind:                  service.kind,
		Role:                  role,
		Name:                  input.Name,
		Username:              input.Username,
		Email:                 input.Email,
		Phone:                 input.Phone,
		Status:                identity.StatusActive,
		PasswordHash:          hash,
		AutoGeneratedPassword: autoGenerated,
		LastUsed:              &now,
		LastSync:              &now,
	}

	if service.kind == identity.KindUser {
		otp, err := sec.GenerateOTP()
		if err != nil {
			return nil, "", fmt.Errorf("account_service_generate_otp_failed: %w", err)
		}
		if principal.OtpHash, err = sec.HashSecret(otp); err != nil {
			return nil, "", fmt.Errorf("account_service_hash_otp_failed: %w", err)
		}
	}

	if err := service.repository.Create(context, principal); err != nil {
		return nil, "", fmt.Errorf("account_service_create_failed: %w", err)
	}

	ctxutil.GetLogger(context).InfoContext(context, "principal_created",
		slog.String("kind", string(service.kind)),
		slog.String("principal_id", principal.ID),
		slog.String("code", principal.Code),
	)

	return principal, password, nil
}

// # Updates

/*
Edit applies an administrator's partial update.

Description: A new password goes through the credential store and is mailed.
Role changes are only accepted for admins.
*/
func (service *Service) Edit(context context.Context, id string, input EditInput) (*identity.Principal, error) {
	principal, err := service.live(context, id)
	if err != nil {
		return nil, err
	}

	validator := &validate.Validator{}
	if input.Name != nil {
		principal.Name = strings.TrimSpace(*input.Name)
		validator.Required(FieldName, principal.Name).MaxLen(FieldName, principal.Name, 100)
	}
	if input.Username != nil {
		principal.Username = strings.ToLower(strings.TrimSpace(*input.Username))
		validator.Username(FieldUsername, principal.Username)
	}
	if input.Email != nil {
		principal.Email = strings.ToLower(strings.TrimSpace(*input.Email))
		validator.Email(FieldEmail, principal.Email)
	}
	if input.Phone != nil {
		principal.Phone = strings.TrimSpace(*input.Phone)
		validator.Phone(FieldPhone, principal.Phone)
	}
	if input.Role != nil {
		validator.Custom(FieldRole, service.kind != identity.KindAdmin || !sec.AdminRoles.Contains(*input.Role), "Role is not allowed")
		principal.Role = *input.Role
	}
	if input.Password != nil {
		validator.MinLen(FieldPassword, *input.Password, 6).MaxBytes(FieldPassword, *input.Password, sec.MaxSecretBytes)
	}
	if err := validator.Err(); err != nil {
		return nil, err
	}

	if err := service.repository.Save(context, principal); err != nil {
		return nil, fmt.Errorf("account_service_edit_failed: %w", err)
	}

	if input.Password != nil {
		principal.AutoGeneratedPassword = false
		if err := service.identity.ChangePassword(context, principal, *input.Password); err != nil {
			return nil, err
		}
		if err := service.identity.RevokeSessions(context, principal.ID); err != nil {
			return nil, err
		}
		service.sendCredentials(context, principal, *input.Password)
	}

	return principal, nil
}

// UpdateProfile lets the caller rename themselves.
func (service *Service) UpdateProfile(context context.Context, caller *sec.Identity, name string) (*identity.Principal, error) {
	name = strings.TrimSpace(name)
	return service.Edit(context, caller.ID, EditInput{Name: &name})
}

/*
ChangeUsername replaces the caller's username.

Returns:
  - error: InvalidRequest when unchanged, 409 when taken
*/
func (service *Service) ChangeUsername(context context.Context, caller *sec.Identity, username string) (*identity.Principal, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	return service.changeContact(context, caller.ID, FieldUsername, username,
		func(p *identity.Principal) *string { return &p.Username },
		func(v *validate.Validator) { v.Username(FieldUsername, username) },
	)
}

// ChangeEmail replaces the caller's email.
func (service *Service) ChangeEmail(context context.Context, caller *sec.Identity, email string) (*identity.Principal, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return service.changeContact(context, caller.ID, FieldEmail, email,
		func(p *identity.Principal) *string { return &p.Email },
		func(v *validate.Validator) { v.Email(FieldEmail, email) },
	)
}

// ChangePhone replaces the caller's phone.
func (service *Service) ChangePhone(context context.Context, caller *sec.Identity, phone string) (*identity.Principal, error) {
	phone = strings.TrimSpace(phone)
	return service.changeContact(context, caller.ID, FieldPhone, phone,
		func(p *identity.Principal) *string { return &p.Phone },
		func(v *validate.Validator) { v.Phone(FieldPhone, phone) },
	)
}

func (service *Service) changeContact(
	context context.Context,
	id, field, value string,
	target func(*identity.Principal) *string,
	check func(*validate.Validator),
) (*identity.Principal, error) {
	validator := &validate.Validator{}
	validator.Required(field, value)
	check(validator)
	if err := validator.Err(); err != nil {
		return nil, err
	}

	principal, err := service.live(context, id)
	if err != nil {
		return nil, err
	}

	current := target(principal)
	if *current == value {
		return nil, apperr.InvalidRequest(fmt.Sprintf("Old and new %s must be different", field))
	}
	*current = value

	if err := service.repository.Save(context, principal); err != nil {
		return nil, fmt.Errorf("account_service_change_%s_failed: %w", field, err)
	}
	return principal, nil
}

/*
ChangeStatus sets Active, Inactive or Blocked.

Description: Blocking a principal also revokes every refresh session.
*/
func (service *Service) ChangeStatus(context context.Context, id string, status identity.Status) (*identity.Principal, error) {
	switch status {
	case identity.StatusActive, identity.StatusInactive, identity.StatusBlocked:
	default:
		return nil, validate.RequiredError(FieldStatus, "Must be one of: Active, Inactive, Blocked")
	}

	principal, err := service.live(context, id)
	if err != nil {
		return nil, err
	}

	principal.Status = status
	if err := service.repository.Save(context, principal); err != nil {
		return nil, fmt.Errorf("account_service_change_status_failed: %w", err)
	}

	if status == identity.StatusBlocked {
		if err := service.identity.RevokeSessions(context, principal.ID); err != nil {
			return nil, err
		}
	}

	ctxutil.GetLogger(context).InfoContext(context, "principal_status_changed",
		slog.String("principal_id", principal.ID),
		slog.String("status", string(status)),
	)
	return principal, nil
}

// ChangePassword is the caller's own password change.
func (service *Service) ChangePassword(context context.Context, caller *sec.Identity, currentPassword, newPassword string) error {
	return service.identity.UpdatePassword(context, service.kind, caller.ID, currentPassword, newPassword)
}

/*
SendLoginCredentials generates a new password and mails it.

Returns:
  - string: The address the credentials were sent to
  - error: NotFound or storage failures
*/
func (service *Service) SendLoginCredentials(context context.Context, id string) (string, error) {
	principal, err := service.live(context, id)
	if err != nil {
		return "", err
	}

	password, err := sec.GeneratePassword(generatedPasswordLength)
	if err != nil {
		return "", fmt.Errorf("account_service_generate_password_failed: %w", err)
	}

	principal.AutoGeneratedPassword = true
	if err := service.identity.ChangePassword(context, principal, password); err != nil {
		return "", err
	}
	if err := service.identity.RevokeSessions(context, principal.ID); err != nil {
		return "", err
	}

	service.sendCredentials(context, principal, password)
	return principal.Email, nil
}

// # Deletion

// Delete soft-deletes a principal and signs it out everywhere.
func (service *Service) Delete(context context.Context, id string) error {
	principal, err := service.live(context, id)
	if err != nil {
		return err
	}

	now := service.now()
	principal.IsDeleted = true
	principal.DeletedAt = &now
	principal.Status = identity.StatusInactive

	if err := service.repository.Save(context, principal); err != nil {
		return fmt.Errorf("account_service_delete_failed: %w", err)
	}
	return service.identity.RevokeSessions(context, principal.ID)
}

// Restore brings back a soft-deleted principal as Active.
func (service *Service) Restore(context context.Context, id string) (*identity.Principal, error) {
	principal, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, service.notFound(err, "restore")
	}
	if !principal.IsDeleted {
		return nil, apperr.NotFound("Deleted " + strings.ToLower(service.resource()))
	}

	principal.IsDeleted = false
	principal.DeletedAt = nil
	principal.Status = identity.StatusActive

	if err := service.repository.Save(context, principal); err != nil {
		return nil, fmt.Errorf("account_service_restore_failed: %w", err)
	}
	return principal, nil
}

// PermanentDelete physically removes a principal. Development only.
func (service *Service) PermanentDelete(context context.Context, id string) error {
	if !service.development {
		return apperr.Forbidden("Permanent delete is only available in development")
	}

	if err := service.repository.Delete(context, id); err != nil {
		return service.notFound(err, "permanent_delete")
	}
	return service.identity.RevokeSessions(context, id)
}

// DeleteAll physically removes every principal of the kind. Development only.
func (service *Service) DeleteAll(context context.Context) (int64, error) {
	if !service.development {
		return 0, apperr.Forbidden("Delete all is only available in development")
	}

	count, err := service.repository.DeleteAll(context)
	if err != nil {
		return 0, fmt.Errorf("account_service_delete_all_failed: %w", err)
	}

	ctxutil.GetLogger(context).WarnContext(context, "principals_purged",
		slog.String("kind", string(service.kind)),
		slog.Int64("count", count),
	)
	return count, nil
}

// # Helpers

// live loads a principal that is not soft-deleted.
func (service *Service) live(context context.Context, id string) (*identity.Principal, error) {
	principal, err := service.repository.FindByID(context, id)
	if err != nil {
		return nil, service.notFound(err, "lookup")
	}
	if principal.IsDeleted {
		return nil, apperr.NotFound(service.resource())
	}
	return principal, nil
}

func (service *Service) notFound(err error, action string) error {
	if errors.Is(err, dberr.ErrNotFound) {
		return apperr.NotFound(service.resource())
	}
	return fmt.Errorf("account_service_%s_failed: %w", action, err)
}

func (service *Service) sendCredentials(context context.Context, principal *identity.Principal, password string) {
	service.notifier.Send(context, notify.Message{
		Recipient: principal.Email,
		Template:  notify.TemplateSendCredentials,
		Data: map[string]string{
			"name":     principal.Name,
			"username": principal.Username,
			"email":    principal.Email,
			"phone":    principal.Phone,
			"role":     string(principal.Role),
			"password": password,
		},
	})
}
