package main

import (
	"context"
	"fmt"

	"github.com/schoolier/backend/core/identity"
)

// seedDemo upserts the profile row for a registered demo account, keyed by
// the principal ID the auth provider assigned at account creation.
func (cli *commandLine) seedDemo(email, principalID string) error {
	acct, ok := identity.DemoAccountByEmail(email)
	if !ok {
		return fmt.Errorf("%q is not a registered demo account", email)
	}

	prof := identity.Profile{
		ID:    principalID,
		Email: acct.Email,
		Name:  acct.Name,
		Role:  string(acct.Role),
	}
	if _, err := cli.profileRepo.UpsertProfile(context.Background(), prof); err != nil {
		return err
	}
	fmt.Printf("profile for %s bound to principal %s\n", acct.Email, principalID)
	return nil
}
