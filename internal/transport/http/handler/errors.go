package handler

// User-facing messages, matching the site's language. The config message
// stays in English: it is an operator error, not a user one.
const (
	errInvalidEmail  = "Email inválido"
	errInvalidCode   = "Código inválido"
	errVerifExpired  = "Verificação expirada"
	errVerifInvalid  = "Verificação inválida"
	errCodeMismatch  = "Código incorreto"
	errTokenInvalid  = "Token inválido"
	errEmailDelivery = "Falha ao enviar e-mail"
	errNotConfigured = "Server not configured"
	errInternal      = "Internal server error"
)
