// Copyright (c) 2026 Dripside. All rights reserved.
// Author: dev@dripside.in

package storage_test

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dripside-in/dripside-backend/internal/platform/apperr"
	"github.com/dripside-in/dripside-backend/internal/platform/storage"
)

/*
TestPresigner_Disabled answers 503 without a bucket.
*/
func TestPresigner_Disabled(t *testing.T) {
	presigner, err := storage.NewPresigner(context.Background(), storage.Options{})
	require.NoError(t, err)
	assert.False(t, presigner.Enabled())

	_, err = presigner.PresignUpload(context.Background(), "categories", "image/png")
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, apperr.As(err).HTTPStatus)
}

/*
TestPresigner_PresignUpload signs offline against a custom endpoint.
*/
func TestPresigner_PresignUpload(t *testing.T) {
	presigner, err := storage.NewPresigner(context.Background(), storage.Options{
		Bucket:    "dripside",
		Region:    "us-east-1",
		Endpoint:  "http://127.0.0.1:9000",
		AccessKey: "minioadmin",
		SecretKey: "minioadmin",
	})
	require.NoError(t, err)
	require.True(t, presigner.Enabled())

	upload, err := presigner.PresignUpload(context.Background(), "categories", "image/png")
	require.NoError(t, err)

	now := time.Now().UTC()
	assert.True(t, strings.HasPrefix(upload.Key, now.Format("categories/2006/01/")), upload.Key)
	assert.Equal(t, http.MethodPut, upload.Method)
	assert.WithinDuration(t, now.Add(15*time.Minute), upload.ExpiresAt, time.Minute)

	parsed, err := url.Parse(upload.URL)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", parsed.Host)
	assert.Equal(t, "/dripside/"+upload.Key, parsed.Path)
	assert.Equal(t, "900", parsed.Query().Get("X-Amz-Expires"))
}
