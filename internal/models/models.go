package models

// All lists the models handled by auto-migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Product{},
		&ProductImage{},
		&Order{},
		&Author{},
		&Category{},
		&Tag{},
		&Article{},
	}
}
