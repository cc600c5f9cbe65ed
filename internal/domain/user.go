package domain

// User is the profile stored for every signed-in identity.
type User struct {
	ID             string   `json:"id"`
	Name           string   `json:"nombre"`
	Email          string   `json:"email"`
	PhotoURL       *string  `json:"photoUrl,omitempty"`
	CreatedEvents  []string `json:"eventosCreados"`
	AttendedEvents []string `json:"eventosAsistidos"`
	RegisteredAt   int64    `json:"fechaRegistro"`
}

func (u User) Clone() User {
	c := u
	c.CreatedEvents = append([]string{}, u.CreatedEvents...)
	c.AttendedEvents = append([]string{}, u.AttendedEvents...)
	if u.PhotoURL != nil {
		v := *u.PhotoURL
		c.PhotoURL = &v
	}
	return c
}
