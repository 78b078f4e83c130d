package contextkeys

// Ключи gin.Context, которые выставляет AuthMiddleware
const (
	UserIDKey   = "userID"
	RoleKey     = "role"
	TokenIDKey  = "tokenID"
	TokenExpKey = "tokenExp"
)
