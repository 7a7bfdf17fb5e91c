package account

import (
	"github.com/go-playground/validator/v10"

	"github.com/academiahq/academia/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"

	approvalTag  = "approval"
	approvalText = "invalid approval status"
)

func init() {
	_ = core.Validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(roleTag, roleText)

	_ = core.Validate.RegisterValidation(approvalTag, approvalValidation)
	core.RegisterCustomTranslation(approvalTag, approvalText)
}

// roleValidation checks that the value is one of the assignable roles.
func roleValidation(fl validator.FieldLevel) bool {
	_, ok := ParseRole(fl.Field().String())
	return ok
}

// approvalValidation checks that the value is a valid approval status.
func approvalValidation(fl validator.FieldLevel) bool {
	switch ApprovalStatus(fl.Field().String()) {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}
