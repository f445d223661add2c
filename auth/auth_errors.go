package auth

// Client facing messages. Login failures never say which of email or password was wrong.
const (
	MsgNotLoggedIn          = "You are not logged in! Please log in to get access."
	MsgUserNoLongerExists   = "The user belonging to this token does no longer exist."
	MsgPasswordChanged      = "User recently changed password! Please log in again."
	MsgTokenExpired         = "Your token has expired! Please log in again."
	MsgNoPermission         = "You do not have permission to perform this action"
	MsgForbidden            = "Forbidden"
	MsgIncorrectLogin       = "Incorrect email or password"
	MsgProvideEmailPassword = "Please provide email and password!"
	MsgRequiredFields       = "Please fill in all required fields"
	MsgPasswordConfirm      = "Password confirmation is incorrect"
	MsgCurrentPasswordWrong = "Your current password is wrong."
	MsgEmailTaken           = "An account with this email already exists"
	MsgSlugTaken            = "This slug is already taken"
	MsgVerifyTokenNotFound  = "Token not found"
	MsgUserNotFound         = "User not found"
	MsgTooManyAttempts      = "Too many login attempts. Please try again later."
	MsgInvalidRole          = "Role must be one of: user, admin"
)
