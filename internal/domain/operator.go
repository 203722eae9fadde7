package domain

import "time"

// Operator is a dashboard user allowed to resolve alerts.
type Operator struct {
	ID        string
	Name      string
	Token     string
	IsActive  bool
	CreatedAt time.Time
}
