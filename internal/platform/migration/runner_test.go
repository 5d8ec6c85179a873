// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package migration

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

/*
TestConvertToPgx5DSN checks the scheme rewrite golang-migrate needs.
*/
func TestConvertToPgx5DSN(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"postgres://u:p@localhost:5432/dripside", "pgx5://u:p@localhost:5432/dripside"},
		{"postgresql://localhost/dripside", "pgx5://localhost/dripside"},
		{"pgx5://localhost/dripside", "pgx5://localhost/dripside"},
		{"host=localhost dbname=dripside", "host=localhost dbname=dripside"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, convertToPgx5DSN(tt.in))
		})
	}
}
