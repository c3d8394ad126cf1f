package constants

import "time"

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// Context and session keys
const (
	ContextKeyUserID  = "user_id"
	ContextKeyUser    = "user"
	ContextKeyClaims  = "claims"
	SessionCookieName = "agencyboard_session"
)

// Reporting
const (
	// WidgetRowCap bounds the passthrough (non-grouped) widget result.
	WidgetRowCap = 100
	// ReportQueryConcurrency bounds how many report queries run at once.
	ReportQueryConcurrency = 4
)

// PriorityUpdateConcurrency bounds how many ordering updates run at once.
const PriorityUpdateConcurrency = 8

// MaxUserSearchResults caps the user directory lookup.
const MaxUserSearchResults = 100

// Email
const (
	EmailSettingsTTL     = 5 * time.Minute
	DefaultSMTPPort      = 587
	ImplicitTLSSMTPPort  = 465
	NotificationDeadline = 30 * time.Second
)

// MaxAuditExportRows caps the audit log CSV export.
const MaxAuditExportRows = 10000
