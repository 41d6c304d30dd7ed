package types

import "time"

// LogAction classifies an audit log entry.
type LogAction string

const (
	ActionAdd    LogAction = "ADD"
	ActionRemove LogAction = "REM"
	ActionLogin  LogAction = "LOGIN"
	ActionLogout LogAction = "LOGOUT"
	ActionCreate LogAction = "CREATE"
	ActionDelete LogAction = "DELETE"
)

// Valid reports whether a is one of the known actions.
func (a LogAction) Valid() bool {
	switch a {
	case ActionAdd, ActionRemove, ActionLogin, ActionLogout, ActionCreate, ActionDelete:
		return true
	}
	return false
}

// LogEntry is an append-only audit record kept by the server.
type LogEntry struct {
	ID              int       `json:"id" db:"id"`
	StockID         *int      `json:"stock_id" db:"stock_id"`
	UserName        *string   `json:"user_name" db:"user_name"`
	ItemDescription *string   `json:"item_description" db:"item_description"`
	Action          LogAction `json:"action" db:"action"`
	QuantityBefore  *int      `json:"quantity_before" db:"quantity_before"`
	QuantityAfter   *int      `json:"quantity_after" db:"quantity_after"`
	LogTime         time.Time `json:"log_time" db:"log_time"`
	Commentaire     *string   `json:"commentaire" db:"commentaire"`
}

// QuantityChange returns after-before when both are known.
func (l LogEntry) QuantityChange() (int, bool) {
	if l.QuantityBefore == nil || l.QuantityAfter == nil {
		return 0, false
	}
	return *l.QuantityAfter - *l.QuantityBefore, true
}
