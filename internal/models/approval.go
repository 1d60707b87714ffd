package models

import (
	"strings"
	"time"
)

// RecordType enumerates the approvable entity types.
type RecordType string

const (
	RecordTypeLeave       RecordType = "LEAVE"
	RecordTypeWorkflow    RecordType = "WORKFLOW"
	RecordTypeCertificate RecordType = "CERTIFICATE"
	RecordTypeRefund      RecordType = "REFUND"
)

// ParseRecordType normalises a request-path segment into a RecordType.
func ParseRecordType(raw string) (RecordType, bool) {
	switch RecordType(strings.ToUpper(strings.TrimSpace(raw))) {
	case RecordTypeLeave, RecordType("LEAVES"):
		return RecordTypeLeave, true
	case RecordTypeWorkflow, RecordType("WORKFLOWS"):
		return RecordTypeWorkflow, true
	case RecordTypeCertificate, RecordType("CERTIFICATES"):
		return RecordTypeCertificate, true
	case RecordTypeRefund, RecordType("REFUNDS"):
		return RecordTypeRefund, true
	}
	return "", false
}

// ApprovalStatus is the shared status lifecycle. Each record type walks an
// ordered subset of these states; REJECTED and CANCELLED are reachable from
// any non-terminal state.
type ApprovalStatus string

const (
	StatusPending           ApprovalStatus = "PENDING"
	StatusPartiallyApproved ApprovalStatus = "PARTIALLY_APPROVED"
	StatusApproved          ApprovalStatus = "APPROVED"
	StatusProcessing        ApprovalStatus = "PROCESSING"
	StatusCompleted         ApprovalStatus = "COMPLETED"
	StatusIssued            ApprovalStatus = "ISSUED"
	StatusRejected          ApprovalStatus = "REJECTED"
	StatusCancelled         ApprovalStatus = "CANCELLED"
)

// NormalizeStatus maps loose inputs onto the canonical enum. The refund UI
// historically says "requested" for PENDING.
func NormalizeStatus(raw string) (ApprovalStatus, bool) {
	switch s := ApprovalStatus(strings.ToUpper(strings.TrimSpace(raw))); s {
	case ApprovalStatus("REQUESTED"):
		return StatusPending, true
	case StatusPending, StatusPartiallyApproved, StatusApproved,
		StatusProcessing, StatusCompleted, StatusIssued,
		StatusRejected, StatusCancelled:
		return s, true
	}
	return "", false
}

// forwardChains holds the fixed forward chain per record type. The last
// element of each chain is that type's terminal success state.
var forwardChains = map[RecordType][]ApprovalStatus{
	RecordTypeLeave:       {StatusPending, StatusApproved},
	RecordTypeWorkflow:    {StatusPending, StatusPartiallyApproved, StatusApproved, StatusCompleted},
	RecordTypeCertificate: {StatusPending, StatusApproved, StatusIssued},
	RecordTypeRefund:      {StatusPending, StatusApproved, StatusProcessing, StatusCompleted},
}

// ApprovalRecord is the uniform projection the approval workflow operates on,
// regardless of the underlying record type.
type ApprovalRecord struct {
	ID              string         `db:"id" json:"id"`
	Type            RecordType     `db:"-" json:"type"`
	Status          ApprovalStatus `db:"status" json:"status"`
	SubjectID       string         `db:"subject_id" json:"subjectId"`
	SubjectName     string         `db:"subject_name" json:"subjectName"`
	Title           string         `db:"title" json:"title"`
	StepsTotal      int            `db:"steps_total" json:"stepsTotal,omitempty"`
	StepsApproved   int            `db:"steps_approved" json:"stepsApproved,omitempty"`
	RejectionReason *string        `db:"rejection_reason" json:"rejectionReason,omitempty"`
	DecisionNote    *string        `db:"decision_note" json:"decisionNote,omitempty"`
	DecidedBy       *string        `db:"decided_by" json:"decidedBy,omitempty"`
	DecidedAt       *time.Time     `db:"decided_at" json:"decidedAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
}

// IsTerminal reports whether no transition may leave the record's current
// state. REJECTED and CANCELLED are terminal for every type; the last chain
// state (APPROVED for leave, COMPLETED for workflows and refunds, ISSUED for
// certificates) is terminal for its type.
func (r ApprovalRecord) IsTerminal() bool {
	return IsTerminalStatus(r.Type, r.Status)
}

// IsTerminalStatus is IsTerminal for a bare (type, status) pair.
func IsTerminalStatus(t RecordType, s ApprovalStatus) bool {
	if s == StatusRejected || s == StatusCancelled {
		return true
	}
	chain, ok := forwardChains[t]
	if !ok {
		return true
	}
	return s == chain[len(chain)-1]
}

// ActionableStatuses lists the states of a type's chain that still await a
// decision, i.e. every chain state except the terminal one. Pending-queue
// listings and dashboard counters share this set.
func ActionableStatuses(t RecordType) []ApprovalStatus {
	chain, ok := forwardChains[t]
	if !ok {
		return nil
	}
	statuses := make([]ApprovalStatus, len(chain)-1)
	copy(statuses, chain[:len(chain)-1])
	return statuses
}

// NextForward returns the state an approve action moves the record into, or
// false when the record is terminal or its status is not on the type's chain.
// Multi-step workflows hold in PARTIALLY_APPROVED until every step is
// approved; single-step workflows go straight from PENDING to APPROVED.
func (r ApprovalRecord) NextForward() (ApprovalStatus, bool) {
	if r.IsTerminal() {
		return "", false
	}

	if r.Type == RecordTypeWorkflow {
		switch r.Status {
		case StatusPending, StatusPartiallyApproved:
			if r.StepsApproved+1 < r.StepsTotal {
				return StatusPartiallyApproved, true
			}
			return StatusApproved, true
		case StatusApproved:
			return StatusCompleted, true
		}
		return "", false
	}

	chain := forwardChains[r.Type]
	for i, s := range chain[:len(chain)-1] {
		if s == r.Status {
			return chain[i+1], true
		}
	}
	return "", false
}

// AllowedNext lists every state the record may legally move into from its
// current state: the forward hop plus REJECTED and CANCELLED while
// non-terminal, nothing once terminal. Clients use this to disable actions
// while a decision is pending elsewhere.
func (r ApprovalRecord) AllowedNext() []ApprovalStatus {
	if r.IsTerminal() {
		return nil
	}
	next := make([]ApprovalStatus, 0, 3)
	if forward, ok := r.NextForward(); ok {
		next = append(next, forward)
	}
	return append(next, StatusRejected, StatusCancelled)
}

// CanTransition reports whether moving the record into target is legal:
// forward along the type's chain only, sideways into REJECTED or CANCELLED,
// never backward, never out of a terminal state.
func (r ApprovalRecord) CanTransition(target ApprovalStatus) bool {
	for _, s := range r.AllowedNext() {
		if s == target {
			return true
		}
	}
	return false
}

// InvalidationTopic names a cached summary view that must be refreshed after
// a record's status changes.
type InvalidationTopic string

const (
	TopicDashboard    InvalidationTopic = "dashboard"
	TopicAlerts       InvalidationTopic = "alerts"
	TopicLeaves       InvalidationTopic = "leaves"
	TopicWorkflows    InvalidationTopic = "workflows"
	TopicCertificates InvalidationTopic = "certificates"
	TopicRefunds      InvalidationTopic = "refunds"
	TopicCompliance   InvalidationTopic = "compliance"
	TopicCalendar     InvalidationTopic = "calendar"
	TopicImpact       InvalidationTopic = "impact"
)

// InvalidationTopics returns the summary views made stale by a decision on a
// record of the given type. Every mutation staleness set includes the
// dashboard and alert counts; leave decisions additionally invalidate the
// calendar and impact derivations, which fold over the leave population.
func InvalidationTopics(t RecordType) []InvalidationTopic {
	topics := []InvalidationTopic{TopicDashboard, TopicAlerts}
	switch t {
	case RecordTypeLeave:
		topics = append(topics, TopicLeaves, TopicCalendar, TopicImpact)
	case RecordTypeWorkflow:
		topics = append(topics, TopicWorkflows)
	case RecordTypeCertificate:
		topics = append(topics, TopicCertificates)
	case RecordTypeRefund:
		topics = append(topics, TopicRefunds)
	}
	return topics
}

// TransitionParams carries a CAS status update for a record: the update
// applies only while the row still holds FromStatus and, when GuardSteps is
// set, the expected step count. Intermediate workflow approvals keep the
// PARTIALLY_APPROVED status, so the step counter is the arbiter there.
type TransitionParams struct {
	ID              string
	FromStatus      ApprovalStatus
	ToStatus        ApprovalStatus
	StepsApproved   *int
	GuardSteps      *int
	DecidedBy       string
	DecisionNote    *string
	RejectionReason *string
	DecidedAt       time.Time
}
