package querycache

import (
	"strings"

	"github.com/google/uuid"

	"github.com/cleanspin/laundry-ops/internal/models"
	"github.com/cleanspin/laundry-ops/pkg/apperr"
)

// Tag names a cached query scope, e.g. "incoming:WASHING" or "order:<id>"
type Tag string

const (
	// BypassQueueTag covers the admin bypass request queue
	BypassQueueTag Tag = "bypass-queue"
	// AttendanceTag covers the session's own attendance for today
	AttendanceTag Tag = "attendance"
)

func StatsTag(station models.StationType) Tag {
	return Tag("stats:" + string(station))
}

func IncomingTag(station models.StationType) Tag {
	return Tag("incoming:" + string(station))
}

func CompletedTag(station models.StationType) Tag {
	return Tag("completed:" + string(station))
}

// MyTag is the claimant's own task list at a station
func MyTag(station models.StationType, staffID uuid.UUID) Tag {
	return Tag("my:" + string(station) + ":" + staffID.String())
}

func OrderTag(stationOrderID uuid.UUID) Tag {
	return Tag("order:" + stationOrderID.String())
}

// Kind returns the scope family of t ("stats", "incoming", "my", ...)
func (t Tag) Kind() string {
	kind, _, _ := strings.Cut(string(t), ":")
	return kind
}

// MutationKind is the transition a mutation performed
type MutationKind string

const (
	MutationClaim         MutationKind = "claim"
	MutationComplete      MutationKind = "complete"
	MutationBypass        MutationKind = "bypass"
	MutationResolveBypass MutationKind = "resolve_bypass"
)

// Mutation describes a finished (or failed) station transition
type Mutation struct {
	Kind    MutationKind
	Station models.StationType
	OrderID uuid.UUID
	// Claimant holds the claim on the order after the mutation
	Claimant uuid.UUID
	// Discrepancy is set when a completion moved the order to WAITING_BYPASS
	Discrepancy bool
	// Role is the role of the session that issued the mutation
	Role models.Role
	// Err is the failure, if the mutation did not go through
	Err error
}

// Router maps mutations to the query scopes they made stale
type Router struct{}

// Route returns the tags to invalidate after m. Unrelated scopes are never included.
func (Router) Route(m Mutation) []Tag {
	if m.Err != nil {
		switch apperr.KindOf(m.Err) {
		case apperr.AlreadyClaimed:
			// someone else won the order; the incoming list is out of date
			return []Tag{IncomingTag(m.Station)}
		case apperr.AlreadyResolved:
			return []Tag{BypassQueueTag}
		}
		return nil
	}

	switch m.Kind {
	case MutationClaim:
		return []Tag{StatsTag(m.Station), IncomingTag(m.Station), MyTag(m.Station, m.Claimant)}
	case MutationComplete:
		if !m.Discrepancy {
			return []Tag{StatsTag(m.Station), MyTag(m.Station, m.Claimant), CompletedTag(m.Station)}
		}
		return discrepancyTags(m)
	case MutationBypass, MutationResolveBypass:
		return discrepancyTags(m)
	}
	return nil
}

func discrepancyTags(m Mutation) []Tag {
	tags := []Tag{StatsTag(m.Station), MyTag(m.Station, m.Claimant), OrderTag(m.OrderID)}
	if m.Role.IsAdmin() {
		tags = append(tags, BypassQueueTag)
	}
	return tags
}
