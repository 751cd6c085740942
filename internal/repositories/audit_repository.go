package repositories

import (
	"database/sql"
	"encoding/json"
	"log"

	"ledger-service/internal/models"
)

// AuditSink records before/after snapshots of entity changes. Recording is
// fire-and-forget: failures are logged and never propagated to the caller.
type AuditSink interface {
	Record(companyID, entityType, entityID, action string, before, after interface{})
}

type auditRepository struct {
	db *sql.DB
}

func NewAuditRepository(db *sql.DB) AuditSink {
	return &auditRepository{db: db}
}

func (r *auditRepository) Record(companyID, entityType, entityID, action string, before, after interface{}) {
	rec := &models.AuditRecord{
		CompanyID:  companyID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
	}
	if before != nil {
		b, err := json.Marshal(before)
		if err == nil {
			rec.Before = b
		}
	}
	if after != nil {
		b, err := json.Marshal(after)
		if err == nil {
			rec.After = b
		}
	}

	query := `
		INSERT INTO audit_log (
			company_id, entity_type, entity_id, action, before_state, after_state
		) VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := r.db.Exec(query,
		rec.CompanyID,
		rec.EntityType,
		rec.EntityID,
		rec.Action,
		rec.Before,
		rec.After,
	)
	if err != nil {
		log.Printf("audit record failed for %s %s/%s: %v", action, entityType, entityID, err)
	}
}
