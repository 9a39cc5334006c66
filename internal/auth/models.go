package auth

// RegisterRequest — запрос на регистрацию
type RegisterRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	FullName *string `json:"fullName,omitempty"`
}

// RegisterResponse — ответ на успешную регистрацию
type RegisterResponse struct {
	UserID int64  `json:"UserId"`
	Email  string `json:"Email"`
}

// LoginRequest — запрос на вход
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserInfo — публичное представление аккаунта
type UserInfo struct {
	ID       int64   `json:"id"`
	Email    string  `json:"email"`
	Role     string  `json:"role"`
	FullName *string `json:"fullName,omitempty"`
}

// LoginResponse — ответ на успешный вход
type LoginResponse struct {
	Token string   `json:"token"`
	User  UserInfo `json:"user"`
}

// ErrorResponse — формат ошибки
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
