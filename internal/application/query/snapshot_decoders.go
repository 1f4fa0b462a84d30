package query

import (
	"encoding/json"

	"github.com/marquessam/select-start-api/internal/infrastructure/cache"
)

// SnapshotDecoders maps each report type to a decoder that restores a
// persisted snapshot into the payload type the handlers expect. Wired into
// the cache at startup so rehydrated slots type-assert cleanly.
func SnapshotDecoders() map[cache.ReportType]cache.DecodeFunc {
	return map[cache.ReportType]cache.DecodeFunc{
		cache.ReportMonthly: func(data []byte) (any, error) {
			var result MonthlyLeaderboardResult
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return &result, nil
		},
		cache.ReportYearly: func(data []byte) (any, error) {
			var result YearlyLeaderboardResult
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return &result, nil
		},
		cache.ReportNominations: func(data []byte) (any, error) {
			var result NominationsResult
			if err := json.Unmarshal(data, &result); err != nil {
				return nil, err
			}
			return &result, nil
		},
	}
}
