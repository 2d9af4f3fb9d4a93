package model

import "go.mongodb.org/mongo-driver/bson/primitive"

const (
	RoleRealtor = "realtor"
	RoleAdmin   = "admin"
)

type User struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Name      string             `bson:"name"`
	Email     string             `bson:"email"`
	Password  []byte             `bson:"password"`
	Phone     string             `bson:"phone"`
	Role      string             `bson:"role"`
	CreatedAt primitive.DateTime `bson:"created_at"`
	UpdatedAt primitive.DateTime `bson:"updated_at"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
