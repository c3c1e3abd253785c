package port

import (
	"context"
	"time"

	"github.com/coopec/missions-backend/internal/domain/entity"
)

// Clock supplies the wall-clock time used for deadlines and overdue
// comparisons. Injected so tests can pin it.
type Clock interface {
	Now() time.Time
}

// Mailer delivers an email-equivalent message. Delivery is best effort;
// implementations must not block workflow transactions on transport errors.
type Mailer interface {
	Send(ctx context.Context, to, subject, textBody, htmlBody string) error
}

// MissionOrderData is the snapshot handed to the document renderer when a
// mission is validated
type MissionOrderData struct {
	Mission    *entity.Mission
	Creator    *entity.User
	EntityName string
}

// DocumentRenderer renders the mission order document. Failures are logged
// by the caller, never fatal to the transition.
type DocumentRenderer interface {
	RenderMissionOrder(ctx context.Context, data *MissionOrderData) ([]byte, string, error)
}

// FileStorage persists uploaded justificatif files outside the database
type FileStorage interface {
	Save(ctx context.Context, key string, content []byte) (string, error)
	Delete(ctx context.Context, key string) error
}
