package handlers

import (
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/approval"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/auth"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/metrics"
	"github.com/Abduallh5Mohamed/FreeLance-25-sub000/internal/store"
)

// UploadConfig says where receipt images go and how they are addressed.
type UploadConfig struct {
	Dir     string // local directory, served under /uploads
	BaseURL string // public base URL of this API, without trailing slash
}

// Handlers struct holds all dependencies for our handlers.
type Handlers struct {
	Store    store.Store
	Approval *approval.Service
	Tokens   *auth.TokenManager
	Metrics  *metrics.Metrics
	Uploads  UploadConfig
}
