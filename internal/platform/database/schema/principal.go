// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

// Package schema names the tables and columns the Postgres stores query.
package schema

// PrincipalTable represents the 'users' and 'admins' tables, which share a layout.
type PrincipalTable struct {
	Table        string
	CodeSequence string
	CodePrefix   string

	ID       string
	Code     string
	Role     string
	Name     string
	Username string
	Email    string
	Phone    string
	Status   string

	PasswordHash          string
	LastPasswordHash      string
	PasswordChanged       string
	PasswordChangedAt     string
	AutoGeneratedPassword string

	OtpHash           string
	OtpSentAt         string
	FailedOtpAttempts string
	FailedOtpVerifyAt string

	ResetPasswordAccess string

	IsDeleted string
	DeletedAt string
	LastUsed  string
	LastSync  string
	CreatedAt string
	UpdatedAt string
	Version   string
}

func principalTable(table, sequence, prefix string) PrincipalTable {
	return PrincipalTable{
		Table:        table,
		CodeSequence: sequence,
		CodePrefix:   prefix,

		ID:       "id",
		Code:     "code",
		Role:     "role",
		Name:     "name",
		Username: "username",
		Email:    "email",
		Phone:    "phone",
		Status:   "status",

		PasswordHash:          "passwordhash",
		LastPasswordHash:      "lastpasswordhash",
		PasswordChanged:       "passwordchanged",
		PasswordChangedAt:     "passwordchangedat",
		AutoGeneratedPassword: "autogeneratedpassword",

		OtpHash:           "otphash",
		OtpSentAt:         "otpsentat",
		FailedOtpAttempts: "failedotpattempts",
		FailedOtpVerifyAt: "failedotpverifyat",

		ResetPasswordAccess: "resetpasswordaccess",

		IsDeleted: "isdeleted",
		DeletedAt: "deletedat",
		LastUsed:  "lastused",
		LastSync:  "lastsync",
		CreatedAt: "createdat",
		UpdatedAt: "updatedat",
		Version:   "version",
	}
}

// Users is the schema definition for users.
var Users = principalTable("users", "users_code_seq", "USR")

// Admins is the schema definition for admins.
var Admins = principalTable("admins", "admins_code_seq", "ADM")

// Columns returns every column in scan order.
func (t PrincipalTable) Columns() []string {
	return []string{
		t.ID, t.Code, t.Role, t.Name, t.Username, t.Email, t.Phone, t.Status,
		t.PasswordHash, t.LastPasswordHash, t.PasswordChanged, t.PasswordChangedAt, t.AutoGeneratedPassword,
		t.OtpHash, t.OtpSentAt, t.FailedOtpAttempts, t.FailedOtpVerifyAt,
		t.ResetPasswordAccess,
		t.IsDeleted, t.DeletedAt, t.LastUsed, t.LastSync, t.CreatedAt, t.UpdatedAt, t.Version,
	}
}
