package models

// All lists every persisted model, used by sqlite AutoMigrate in dev and tests.
func All() []any {
	return []any{
		&User{},
		&Product{},
		&InventoryItem{},
		&InventoryMovement{},
		&Cart{},
		&Order{},
		&StoreSetting{},
		&Notification{},
		&OutboxEvent{},
		&OutboxDLQ{},
	}
}
