package dto

// LoginDTO accepts either username or email as the identifier.
type LoginDTO struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password" binding:"required"`
}

func (d LoginDTO) Identifier() string {
	if d.Username != "" {
		return d.Username
	}
	return d.Email
}

type RefreshDTO struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterUserDTO is bound from the multipart form; avatar and coverImage
// are read separately as files.
type RegisterUserDTO struct {
	FullName string `form:"fullName" binding:"required"`
	Email    string `form:"email" binding:"required,email"`
	Username string `form:"username" binding:"required,min=3,max=32"`
	Password string `form:"password" binding:"required,min=8"`
}
