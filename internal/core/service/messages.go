package service

import (
	"fmt"

	"github.com/oracadehub/learning-portal/internal/core/domain"
)

// User-facing messages. The coordinator surfaces exactly one of these at a time.
const (
	MsgInvalidCredential = "Login failed. User not found or password incorrect. Need an account? Try Signing Up."
	MsgUserDisabled      = "This account has been disabled."
	MsgSignInFailed      = "Failed to sign in. Please try again later."
	MsgEmailInUse        = "This email address is already in use."
	MsgWeakPassword      = "Password is too weak. Please choose a stronger password (at least 6 characters)."
	MsgInvalidEmail      = "Please enter a valid email address."
	MsgSignUpFailed      = "Failed to sign up. Please try again."
	MsgFederatedFailed   = "Failed to sign in with Google. Please try again."
	MsgRedirectFailed    = "Failed to complete sign-in process."
	MsgSignOutFailed     = "Failed to sign out."
	MsgRoleVerification  = "Could not verify user role."
)

func roleAssignMessage(role domain.Role) string {
	return fmt.Sprintf("Failed to set user role to %s. Please try again.", role)
}

func signInMessage(err error) string {
	switch domain.ProviderCode(err) {
	case domain.CodeInvalidCredential:
		return MsgInvalidCredential
	case domain.CodeUserDisabled:
		return MsgUserDisabled
	default:
		return MsgSignInFailed
	}
}

func signUpMessage(err error) string {
	switch domain.ProviderCode(err) {
	case domain.CodeEmailAlreadyInUse:
		return MsgEmailInUse
	case domain.CodeWeakPassword:
		return MsgWeakPassword
	case domain.CodeInvalidEmail:
		return MsgInvalidEmail
	default:
		return MsgSignUpFailed
	}
}

// silentFederatedCode reports codes the federated flows swallow without
// surfacing an error.
func silentFederatedCode(code string) bool {
	return code == domain.CodePopupClosedByUser || code == domain.CodeCancelledPopup
}
