package audit

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/sitrep-gov/platform/internal/auth"
	"github.com/sitrep-gov/platform/internal/shared/events"
	"github.com/sitrep-gov/platform/internal/shared/metrics"
	"github.com/sitrep-gov/platform/internal/shared/middleware"
	"github.com/sitrep-gov/platform/internal/shared/types"
)

// Emitter records audit entries after successful state changes. The
// database is the system of record; when a bus is configured each entry
// is mirrored to an event stream as well. Audit failures are logged but
// never fail the request that triggered them.
type Emitter struct {
	repo *Repository
	bus  events.Publisher
}

// NewEmitter creates an audit emitter. bus may be nil.
func NewEmitter(repo *Repository, bus events.Publisher) *Emitter {
	return &Emitter{repo: repo, bus: bus}
}

// Record appends an audit entry for an action performed over HTTP,
// capturing the actor and request origin.
func (e *Emitter) Record(r *http.Request, action, module string, resourceID *types.ID, details string) {
	entry := &Entry{
		ID:         types.NewID(),
		Action:     action,
		Module:     module,
		ResourceID: resourceID,
		Details:    details,
		IPAddress:  middleware.ClientIP(r),
		UserAgent:  r.UserAgent(),
		Timestamp:  time.Now().UTC(),
	}

	var actorID types.ID
	var actorRole string
	if user, ok := auth.FromContext(r.Context()); ok {
		entry.UserID = &user.ID
		actorID = user.ID
		actorRole = user.Role
	}

	// Detach from the request context so the entry survives client
	// disconnects mid-write.
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := e.repo.Append(ctx, entry); err != nil {
		log.Printf("audit: failed to append entry for %s.%s: %v", module, action, err)
		return
	}
	metrics.RecordAuditEntry()

	if e.bus != nil {
		event := events.NewEvent("audit."+module+"."+action, "platform", entry).
			WithActor(actorID, actorRole)
		if err := e.bus.Publish(ctx, event); err != nil {
			log.Printf("audit: failed to mirror entry to event stream: %v", err)
		}
	}
}
