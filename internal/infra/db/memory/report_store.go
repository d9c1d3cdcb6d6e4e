package memory

import (
	"context"
	"sync"

	"humaine-chatbot/internal/domain/model"
	"humaine-chatbot/internal/domain/ports/repository"
)

var _ repository.SessionReportRepository = (*ReportStore)(nil)

// ReportStore keeps the latest perUser reports of each user, newest last.
type ReportStore struct {
	mu      sync.RWMutex
	byUser  map[string][]*model.SessionReport
	perUser int
}

func NewReportStore(perUser int) *ReportStore {
	if perUser <= 0 {
		perUser = 100
	}
	return &ReportStore{byUser: map[string][]*model.SessionReport{}, perUser: perUser}
}

func (r *ReportStore) Save(ctx context.Context, tx repository.Tx, rep *model.SessionReport) error {
	cp := *rep
	r.mu.Lock()
	defer r.mu.Unlock()
	list := append(r.byUser[rep.UserID], &cp)
	if len(list) > r.perUser {
		list = append([]*model.SessionReport(nil), list[len(list)-r.perUser:]...)
	}
	r.byUser[rep.UserID] = list
	return nil
}

// ListByUser returns newest first; limit <= 0 returns everything kept.
func (r *ReportStore) ListByUser(ctx context.Context, tx repository.Tx, userID string, limit int) ([]*model.SessionReport, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	list := r.byUser[userID]
	out := make([]*model.SessionReport, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		if limit > 0 && len(out) == limit {
			break
		}
		cp := *list[i]
		out = append(out, &cp)
	}
	return out, nil
}
