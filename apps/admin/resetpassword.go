package main

import (
	"time"

	"github.com/YOMIx224/student-conduct-system/core/user"
)

func (cli *commandLine) resetPassword(uname, pwd string) error {
	usr, err := cli.usrRepo.GetUserByUsernameOrCode(uname)
	if err == user.ErrNotFound {
		usr, err = cli.usrRepo.GetUserByEmail(uname)
	}
	if err != nil {
		return err
	}
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}
	usr.UpdatedAt = time.Now().UTC()
	if _, err := cli.usrRepo.UpdateUser(usr); err != nil {
		return err
	}
	return nil
}
