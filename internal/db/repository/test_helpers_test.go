package repository

import (
	"fmt"

	sqlcgen "github.com/gokatarajesh/accounts-service/internal/db/sqlc"
)

func createParams(username string) sqlcgen.CreateUserParams {
	return sqlcgen.CreateUserParams{
		Username:  username,
		Email:     fmt.Sprintf("%s@example.com", username),
		FirstName: "Test",
		LastName:  "User",
		Password:  "hashed",
	}
}
