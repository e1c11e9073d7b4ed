package models

// All lists every persisted model, in dependency order, for AutoMigrate.
func All() []any {
	return []any{
		&Restaurant{},
		&Banner{},
		&Category{},
		&Product{},
		&CustomizationGroup{},
		&CustomizationOption{},
		&Customer{},
		&Staff{},
		&GuestSession{},
		&Cart{},
		&CartItem{},
		&CartItemOption{},
		&Courier{},
		&Coupon{},
		&Order{},
		&OrderItem{},
		&OrderItemCustomization{},
		&StatusHistoryEntry{},
		&DeliveryAcceptance{},
		&DeliveryOccurrence{},
	}
}
