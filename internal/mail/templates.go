package mail

import (
	"fmt"

	"github.com/spec-kit/account-service/internal/domain"
)

func onboardingBody(user *domain.User, resetLink string) string {
	return fmt.Sprintf(`<h1>Welcome, %s!</h1>
		<p>Your account has been created. Set your password using the link below:</p>
		<a href="%s">Set password</a>
		<p>The link expires in one hour.</p>`, user.Name, resetLink)
}

func passwordResetBody(resetLink string) string {
	return fmt.Sprintf(`<h1>Password recovery</h1>
		<p>You requested a password reset. Click the link below to set a new password:</p>
		<a href="%s">Reset password</a>
		<p>If you did not request this, please ignore this email.</p>`, resetLink)
}
