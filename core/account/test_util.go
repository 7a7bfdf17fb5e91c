package account

import (
	"context"

	"github.com/academiahq/academia/core"
)

type serviceMock struct {
	service
}

// NewServiceMock returns a Service whose mail side effects run synchronously,
// for tests.
func NewServiceMock(repo Repository, mailSvc core.EmailService, profiles ProfileResolver) Service {
	return &serviceMock{
		service: service{
			repo:     repo,
			mailSvc:  mailSvc,
			profiles: profiles,
		},
	}
}

func (svc *serviceMock) RequestPasswordReset(ctx context.Context, email string) error {
	acct, err := svc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	// run synchronously
	return svc.sendPasswordResetMail(acct)
}
