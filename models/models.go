package models

// All lists every model migrated at startup.
func All() []interface{} {
	return []interface{}{
		&User{},
		&DailyStat{},
		&Follow{},
		&JobApplication{},
		&Questionnaire{},
		&Blind75Problem{},
		&WrongSubmission{},
	}
}
