package dto

import "time"

type CreateTableRequest struct {
	Label    string `json:"label"    validate:"required,min=1,max=50"`
	Location string `json:"location" validate:"omitempty,max=100"`
	Seats    int    `json:"seats"    validate:"omitempty,min=1,max=50"`
}

type UpdateTableRequest struct {
	Label    *string `json:"label"    validate:"omitempty,min=1,max=50"`
	Location *string `json:"location" validate:"omitempty,max=100"`
	Seats    *int    `json:"seats"    validate:"omitempty,min=1,max=50"`
}

type TableResponse struct {
	ID            string           `json:"id"`
	Label         string           `json:"label"`
	Location      string           `json:"location"`
	Seats         int              `json:"seats"`
	Token         string           `json:"token"`
	QRURL         string           `json:"qr_url"`
	Active        bool             `json:"active"`
	ActiveSession *SessionResponse `json:"active_session,omitempty"`
}

type SessionResponse struct {
	ID         string     `json:"id"`
	TableID    string     `json:"table_id"`
	TableLabel string     `json:"table_label,omitempty"`
	Token      string     `json:"token"`
	Status     string     `json:"status"`
	OpenedAt   time.Time  `json:"opened_at"`
	ClosedAt   *time.Time `json:"closed_at"`
	ClosedBy   *string    `json:"closed_by"`
}

// OpenSessionResponse is returned on a QR scan. Created is false when an
// already active session was returned.
type OpenSessionResponse struct {
	Created bool            `json:"created"`
	Session SessionResponse `json:"session"`
	Table   PublicTable     `json:"table"`
}

// PublicTable is the table view exposed to diners; it omits the token.
type PublicTable struct {
	ID       string `json:"id"`
	Label    string `json:"label"`
	Location string `json:"location"`
}
