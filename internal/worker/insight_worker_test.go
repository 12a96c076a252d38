package worker

import (
	"context"
	"errors"
	"testing"

	"spaar/internal/amqp"
	"spaar/internal/core"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(context.Context) ([]core.FinancialInsight, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []core.FinancialInsight{{ID: "i1", Kind: core.InsightSpendingPattern}}, nil
}

func TestHandleImportCompleted(t *testing.T) {
	tests := []struct {
		name       string
		imported   int
		refreshErr error
		wantCalls  int
		wantErr    bool
	}{
		{name: "refreshes after a batch", imported: 3, wantCalls: 1},
		{name: "skips empty batch", imported: 0, wantCalls: 0},
		{name: "refresh failure requeues", imported: 1, refreshErr: errors.New("db locked"), wantCalls: 1, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRefresher{err: tt.refreshErr}
			w := NewInsightWorker(r, nil)

			msg := amqp.NewImportCompletedMessage("batch-1", "rabo.csv", tt.imported, tt.imported, 0)
			err := w.HandleImportCompleted(context.Background(), msg)

			if (err != nil) != tt.wantErr {
				t.Errorf("HandleImportCompleted() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(err, tt.refreshErr) {
				t.Errorf("error %v should wrap %v", err, tt.refreshErr)
			}
			if r.calls != tt.wantCalls {
				t.Errorf("Refresh called %d times, want %d", r.calls, tt.wantCalls)
			}
		})
	}
}

func TestStartupRefresh(t *testing.T) {
	r := &fakeRefresher{}
	if err := NewInsightWorker(r, nil).StartupRefresh(context.Background()); err != nil {
		t.Fatalf("StartupRefresh() error = %v", err)
	}
	if r.calls != 1 {
		t.Errorf("Refresh called %d times, want 1", r.calls)
	}
}
