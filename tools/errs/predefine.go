package errs

// HTTP 层统一错误码
var (
	ErrArgs           = NewCodeError(1001, "ArgsError")
	ErrRecordNotFound = NewCodeError(1002, "RecordNotFoundError")
	ErrNoPermission   = NewCodeError(1301, "NoPermissionError")
	ErrTokenInvalid   = NewCodeError(1501, "TokenInvalidError")
	ErrTokenExpired   = NewCodeError(1503, "TokenExpiredError")
	ErrInternalServer = NewCodeError(1500, "InternalServerError")
)
