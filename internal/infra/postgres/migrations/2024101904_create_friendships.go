package migrations

import _ "embed"

//go:embed 0004_create_friendships.sql
var createFriendshipsSQL string

func init() {
	Migrations.MustRegister(sqlSteps(createFriendshipsSQL, `DROP TABLE IF EXISTS friendships`))
}
