// internal/inquiry/model.go
//
// Stored form submissions.
//
// Context
// -------
// When the contact mode is `actions` and a form definition lists a `store`
// action, every accepted submission becomes one row in the `inquiry` table.
// The row keeps the well-known fields as columns for easy reporting and the
// full value map as JSON so new form fields never need a migration.
//
// Notes
// -----
//   - Column list matches the fields in `Record`; update both together.
package inquiry

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/yanizio/agencysite/internal/contact"
)

// Record mirrors one `inquiry` row.
type Record struct {
	ID          int64          `db:"id"`
	Reference   string         `db:"reference"`
	FormID      string         `db:"form_id"`
	Name        string         `db:"name"`
	Email       string         `db:"email"`
	Service     sql.NullString `db:"service"`
	Payload     []byte         `db:"payload"` // JSON object of every field
	IP          sql.NullString `db:"ip"`
	UserAgent   sql.NullString `db:"user_agent"`
	Country     sql.NullString `db:"country"`
	Referrer    sql.NullString `db:"referrer"`
	UTMSource   sql.NullString `db:"utm_source"`
	UTMMedium   sql.NullString `db:"utm_medium"`
	UTMCampaign sql.NullString `db:"utm_campaign"`
	CreatedAt   time.Time      `db:"created_at"`
}

// FromSubmission flattens sub into a Record stamped with reference.
func FromSubmission(reference string, sub contact.Submission) (Record, error) {
	payload, err := json.Marshal(sub.Data.Strings())
	if err != nil {
		return Record{}, err
	}
	return Record{
		Reference:   reference,
		FormID:      sub.FormID,
		Name:        sub.Data[contact.FieldName],
		Email:       sub.Data[contact.FieldEmail],
		Service:     nullable(sub.Data[contact.FieldService]),
		Payload:     payload,
		IP:          nullable(sub.Meta.IP),
		UserAgent:   nullable(sub.Meta.UserAgent),
		Country:     nullable(sub.Meta.Country),
		Referrer:    nullable(sub.Meta.Referrer),
		UTMSource:   nullable(sub.Meta.UTMSource),
		UTMMedium:   nullable(sub.Meta.UTMMedium),
		UTMCampaign: nullable(sub.Meta.UTMCampaign),
		CreatedAt:   sub.SubmittedAt.UTC(),
	}, nil
}

// Values decodes Payload back into a string map.
func (r Record) Values() (map[string]string, error) {
	out := map[string]string{}
	if len(r.Payload) == 0 {
		return out, nil
	}
	err := json.Unmarshal(r.Payload, &out)
	return out, err
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// Migrations creates the inquiry table.  Statements are idempotent.
var Migrations = []string{
	`CREATE TABLE IF NOT EXISTS inquiry (
        id           BIGINT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
        reference    CHAR(36)        NOT NULL,
        form_id      VARCHAR(64)     NOT NULL,
        name         VARCHAR(255)    NOT NULL,
        email        VARCHAR(255)    NOT NULL,
        service      VARCHAR(128)    NULL,
        payload      JSON            NOT NULL,
        ip           VARCHAR(45)     NULL,
        user_agent   VARCHAR(512)    NULL,
        country      CHAR(2)         NULL,
        referrer     VARCHAR(1024)   NULL,
        utm_source   VARCHAR(128)    NULL,
        utm_medium   VARCHAR(128)    NULL,
        utm_campaign VARCHAR(128)    NULL,
        created_at   DATETIME(3)     NOT NULL,
        UNIQUE KEY uq_inquiry_reference (reference),
        KEY idx_inquiry_created (created_at)
    ) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
}
