package domain

import (
	"github.com/yungbote/rosterbridge-backend/internal/domain/audit"
	"github.com/yungbote/rosterbridge-backend/internal/domain/roster"
	"github.com/yungbote/rosterbridge-backend/internal/domain/uploads"
)

type Agent = roster.Agent
type RosterEntry = roster.RosterEntry
type PersonRef = roster.PersonRef
type StatusOption = roster.StatusOption

type UploadBatch = uploads.UploadBatch
type BatchStatus = uploads.BatchStatus
type StagingRow = uploads.StagingRow
type BatchDiff = uploads.BatchDiff

type AuditEntry = audit.AuditEntry

const (
	BatchStaged   = uploads.BatchStaged
	BatchApplied  = uploads.BatchApplied
	BatchRejected = uploads.BatchRejected
)

const (
	AuditEntityUploadBatch = audit.EntityUploadBatch
	AuditEntityAgent       = audit.EntityAgent
	AuditEntityRosterEntry = audit.EntityRosterEntry

	AuditApply         = audit.ActionApply
	AuditApplySelected = audit.ActionApplySelected
	AuditReject        = audit.ActionReject
	AuditUpdate        = audit.ActionUpdate
	AuditDeactivate    = audit.ActionDeactivate
	AuditDelete        = audit.ActionDelete
)
