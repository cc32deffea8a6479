package main

import (
	"time"

	"github.com/google/uuid"

	"github.com/YOMIx224/student-conduct-system/core"
	"github.com/YOMIx224/student-conduct-system/core/user"
)

// addAdmin updates or creates an admin account.
func (cli *commandLine) addAdmin(uname, email, pwd string) error {
	uname = core.CleanString(uname, true /* lower */)
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrRepo.GetUserByUsername(uname)
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByEmail(email)
	}
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		now := time.Now().UTC()
		usr = user.User{
			ID:        uuid.New().String(),
			Username:  uname,
			Name:      uname,
			Email:     email,
			CreatedAt: now,
		}
		usr.Role = user.RoleAdmin
		usr.IsActive = true
		usr.UpdatedAt = now
		if err := usr.SetPassword(pwd); err != nil {
			return err
		}
		_, err = cli.usrRepo.CreateUser(usr)
		return err
	}

	usr.Role = user.RoleAdmin
	usr.IsActive = true
	usr.UpdatedAt = time.Now().UTC()
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	_, err = cli.usrRepo.UpdateUser(usr)
	return err
}
