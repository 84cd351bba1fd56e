package middlewares

type ctxKey string

const (
	CtxSession ctxKey = "session"
	CtxUserID  ctxKey = "userID"
	CtxRole    ctxKey = "role"
)
