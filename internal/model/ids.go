package model

import "github.com/google/uuid"

// ensureID проставляет UUID до вставки. Дефолты на стороне БД (gen_random_uuid)
// не используем, чтобы схема одинаково поднималась в Postgres и SQLite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
