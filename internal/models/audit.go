package models

import "time"

// Audit action tags.
const (
	AuditActionLogin            = "LOGIN"
	AuditActionLoginFailed      = "LOGIN_FAILED"
	AuditActionLogout           = "LOGOUT"
	AuditActionTokenRefresh     = "TOKEN_REFRESH"
	AuditActionPasswordChange   = "PASSWORD_CHANGE"
	AuditActionUserCreate       = "USER_CREATE"
	AuditActionUserUpdate       = "USER_UPDATE"
	AuditActionUserDelete       = "USER_DELETE"
	AuditActionProfileCreate    = "PROFILE_CREATE"
	AuditActionProfileUpdate    = "PROFILE_UPDATE"
	AuditActionProfileDelete    = "PROFILE_DELETE"
	AuditActionPermissionChange = "PERMISSION_CHANGE"
	AuditActionEntryCreate      = "ENTRY_CREATE"
	AuditActionEntryUpdate      = "ENTRY_UPDATE"
	AuditActionEntryDelete      = "ENTRY_DELETE"
	AuditActionImportSubmit     = "IMPORT_SUBMIT"
	AuditActionImportDelete     = "IMPORT_DELETE"
	AuditActionSettingsUpdate   = "SETTINGS_UPDATE"
	AuditActionForecastRun      = "FORECAST_RUN"
	AuditActionReportGenerate   = "REPORT_GENERATE"
)

// AuditLog is an append-only record of a user action.
type AuditLog struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	UserName   string    `db:"user_name" json:"user_name"`
	Action     string    `db:"action" json:"action"`
	Resource   string    `db:"resource" json:"resource"`
	ResourceID *string   `db:"resource_id" json:"resource_id,omitempty"`
	Details    string    `db:"details" json:"details"`
	IPAddress  string    `db:"ip_address" json:"ip_address"`
	UserAgent  string    `db:"user_agent" json:"user_agent,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"timestamp"`
}

// Clone returns a copy detached from the stored entry.
func (l *AuditLog) Clone() *AuditLog {
	if l == nil {
		return nil
	}
	cp := *l
	if l.ResourceID != nil {
		id := *l.ResourceID
		cp.ResourceID = &id
	}
	return &cp
}

// AuditFilter narrows an audit listing. From and To are calendar days; To
// includes the whole day.
type AuditFilter struct {
	UserID   string
	Action   string
	Resource string
	From     *time.Time
	To       *time.Time
	PageRequest
}

// Until is the exclusive upper bound derived from To, or nil.
func (f AuditFilter) Until() *time.Time {
	if f.To == nil {
		return nil
	}
	y, m, d := f.To.Date()
	next := time.Date(y, m, d, 0, 0, 0, 0, f.To.Location()).AddDate(0, 0, 1)
	return &next
}

// Actor identifies the authenticated caller behind a mutation.
type Actor struct {
	UserID    string
	UserName  string
	IP        string
	UserAgent string
}
