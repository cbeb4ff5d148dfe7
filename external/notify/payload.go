package notify

import (
	"fmt"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/fantasy-settlement/internal/domain/settlement"
)

const eventTypePointsAwarded = "settlement.points_awarded"

var errSinkTransient = crerr.New("notification sink transient failure")

type intentMessage struct {
	ID          string    `json:"id"`
	Type        string    `json:"type"`
	TeamID      int64     `json:"teamId"`
	OwnerUserID string    `json:"ownerUserId"`
	Date        string    `json:"date"`
	Points      string    `json:"points"`
	CreatedAt   time.Time `json:"createdAt"`
}

func encodeIntent(intent settlement.NotificationIntent) ([]byte, error) {
	if strings.TrimSpace(intent.ID) == "" {
		return nil, fmt.Errorf("notification intent id is required")
	}
	body, err := sonic.Marshal(intentMessage{
		ID:          intent.ID,
		Type:        eventTypePointsAwarded,
		TeamID:      intent.TeamID,
		OwnerUserID: intent.OwnerUserID,
		Date:        intent.DateKey,
		Points:      intent.Points.StringFixed(1),
		CreatedAt:   intent.CreatedAt.UTC(),
	})
	if err != nil {
		return nil, crerr.Wrap(err, "marshal notification intent")
	}
	return body, nil
}

// IsTransient reports whether a publish failure is worth retrying.
func IsTransient(err error) bool {
	return crerr.Is(err, errSinkTransient)
}

func truncateForLog(value string, limit int) string {
	if limit <= 0 || len(value) <= limit {
		return value
	}
	return value[:limit] + "...(truncated)"
}
