package migrations

import _ "embed"

//go:embed 0002_create_questions.sql
var createQuestionsSQL string

func init() {
	Migrations.MustRegister(sqlSteps(createQuestionsSQL, `DROP TABLE IF EXISTS user_answers; DROP TABLE IF EXISTS daily_questions`))
}
