package migrations

import _ "embed"

//go:embed 0003_create_groups.sql
var createGroupsSQL string

func init() {
	Migrations.MustRegister(sqlSteps(createGroupsSQL,
		`DROP TABLE IF EXISTS group_messages; DROP TABLE IF EXISTS group_members; DROP TABLE IF EXISTS discussion_groups`))
}
