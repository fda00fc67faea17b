package domain

import "time"

// UserProfile описывает зарегистрированного покупателя.
// Ключ — идентификатор пользователя на стороне чат-платформы.
type UserProfile struct {
	UserID       int64
	FirstName    string
	LastName     string
	RegisteredAt time.Time
}

func NewUserProfile(userID int64, firstName, lastName string) *UserProfile {
	return &UserProfile{
		UserID:    userID,
		FirstName: firstName,
		LastName:  lastName,
	}
}

// FullName возвращает имя и фамилию через пробел.
// Именно по этой строке ищутся заказы в журнале.
func (u *UserProfile) FullName() string {
	return u.FirstName + " " + u.LastName
}
