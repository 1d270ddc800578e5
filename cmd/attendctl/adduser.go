package main

import (
	"context"
	"errors"
	"fmt"

	"studentattendance/internal/apperr"
	"studentattendance/internal/model"
)

// addUser registers credentials and writes the matching profile. The profile
// is validated first and the credentials are removed again if it cannot be written.
func (cli *commandLine) addUser(ctx context.Context, email, pwd, name, role, department string) error {
	u, err := cli.profiles.ValidateNew(model.User{
		Email:      email,
		Name:       name,
		Role:       model.Role(role),
		Department: department,
	})
	if err != nil {
		return errors.New(apperr.Message(err))
	}
	uid, err := cli.dir.Register(ctx, u.Email, pwd)
	if err != nil {
		return err
	}
	u.ID = uid
	u, err = cli.profiles.CreateUser(ctx, u)
	if err != nil {
		if uerr := cli.dir.Unregister(ctx, uid); uerr != nil {
			return fmt.Errorf("%s (account %s left without profile: %v)", apperr.Message(err), uid, uerr)
		}
		return err
	}
	fmt.Fprintf(cli.out, "created %s %s (%s)\n", u.Role, u.Email, u.ID)
	return nil
}
