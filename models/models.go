package models

// All lists every persisted model in migration order.
func All() []any {
	return []any{
		&Tenant{},
		&User{},
		&Service{},
		&Slot{},
		&Appointment{},
		&CashSession{},
		&CashMovement{},
		&Payment{},
		&Expense{},
		&ReminderTemplate{},
		&ReminderLog{},
	}
}
