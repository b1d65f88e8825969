package recorder

import "CoinScope/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordAnalytics(_ []model.AnalyticsResult) error { return nil }
func (n *NoopRecorder) RecordJob(_ model.JobRun) error                 { return nil }
func (n *NoopRecorder) History(_ string, _ int) ([]Snapshot, error)    { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
