package services

import (
	"context"
	"fmt"

	"github.com/fc-integration/inventory/types"
)

const defaultLatestLogs = 10

// LogRepository defines persistence for the audit log.
type LogRepository interface {
	Append(ctx context.Context, entry types.LogEntry) (types.LogEntry, error)
	Latest(ctx context.Context, userName string, limit int) ([]types.LogEntry, error)
}

// AuditService appends and reads audit log entries.
type AuditService struct {
	repo LogRepository
}

func NewAuditService(repo LogRepository) *AuditService {
	return &AuditService{repo: repo}
}

func (s *AuditService) Append(ctx context.Context, entry types.LogEntry) (types.LogEntry, error) {
	if !entry.Action.Valid() {
		return types.LogEntry{}, fmt.Errorf("%w: unknown action %q", ErrInvalid, entry.Action)
	}
	return s.repo.Append(ctx, entry)
}

// Record appends an entry that only names the user, such as LOGIN.
func (s *AuditService) Record(ctx context.Context, action types.LogAction, userName string) error {
	_, err := s.Append(ctx, types.LogEntry{Action: action, UserName: &userName})
	return err
}

func (s *AuditService) Latest(ctx context.Context, userName string) ([]types.LogEntry, error) {
	if userName == "" {
		return nil, fmt.Errorf("%w: user_name is required", ErrInvalid)
	}
	return s.repo.Latest(ctx, userName, defaultLatestLogs)
}
