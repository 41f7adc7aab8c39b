package handler

// APIV1Prefix is the canonical base path for public HTTP API v1.
// Keep a single source of truth to avoid path drift across handlers and tests.
const APIV1Prefix = "/api/v1"

// MaxBackupBytes caps the body of an import request.
const MaxBackupBytes int64 = 32 << 20
