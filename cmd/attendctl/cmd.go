package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/term"

	"studentattendance/internal/apperr"
	"studentattendance/internal/attendance"
	"studentattendance/internal/identity"
	"studentattendance/internal/model"
	"studentattendance/internal/profile"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	dir      *identity.Directory
	session  *identity.Client
	att      *attendance.Service
	profiles *profile.Manager
	out      io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  adduser -email EMAIL -name NAME -role PROFESSOR|STUDENT [-department DEPT] - create an account and profile")
	fmt.Fprintln(cli.out, "  checkin -email EMAIL -code CODE - sign in as a student and mark attendance")
	fmt.Fprintln(cli.out, "  history -email EMAIL - sign in and print attendance history")
}

func (cli *commandLine) run(ctx context.Context, args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ContinueOnError)
	addUserEmail := addUserCmd.String("email", "", "The user's email. The password will be prompted next.")
	addUserName := addUserCmd.String("name", "", "The user's display name.")
	addUserRole := addUserCmd.String("role", "", "PROFESSOR or STUDENT.")
	addUserDept := addUserCmd.String("department", "", "The user's department.")

	checkInCmd := flag.NewFlagSet("checkin", flag.ContinueOnError)
	checkInEmail := checkInCmd.String("email", "", "The student's email. The password will be prompted next.")
	checkInCode := checkInCmd.String("code", "", "The 6-digit session code.")

	historyCmd := flag.NewFlagSet("history", flag.ContinueOnError)
	historyEmail := historyCmd.String("email", "", "The user's email. The password will be prompted next.")

	for _, fs := range []*flag.FlagSet{addUserCmd, checkInCmd, historyCmd} {
		fs.SetOutput(cli.out)
	}

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserEmail == "" || *addUserName == "" || *addUserRole == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.addUser(ctx, *addUserEmail, pwd, *addUserName, *addUserRole, *addUserDept)
	case "checkin":
		if err := checkInCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *checkInEmail == "" {
			checkInCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.checkIn(ctx, *checkInEmail, pwd, *checkInCode)
	case "history":
		if err := historyCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *historyEmail == "" {
			historyCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		return cli.history(ctx, *historyEmail, pwd)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Fprint(cli.out, "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cli.out)
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		return "", errHelp
	}
	return string(pwd), nil
}

func (cli *commandLine) signIn(ctx context.Context, email, pwd string) (string, error) {
	cli.session.SignOut()
	return cli.session.SignIn(ctx, email, pwd)
}

func (cli *commandLine) checkIn(ctx context.Context, email, pwd, code string) error {
	uid, err := cli.signIn(ctx, email, pwd)
	if err != nil {
		return err
	}
	defer cli.session.SignOut()

	u, err := cli.profiles.LoadProfile(ctx, uid, "")
	if err != nil {
		return errors.New(apperr.Message(err))
	}
	if u.Role != model.RoleStudent {
		return errors.New("Only students can mark attendance")
	}

	rec, err := cli.att.CheckIn(ctx, code, uid)
	fmt.Fprintf(cli.out, "status: %s\n", attendance.Outcome(err))
	if err != nil {
		return errors.New(apperr.Message(err))
	}
	fmt.Fprintf(cli.out, "marked at %s\n", time.UnixMilli(rec.Timestamp).Format(time.RFC1123))
	return nil
}

func (cli *commandLine) history(ctx context.Context, email, pwd string) error {
	uid, err := cli.signIn(ctx, email, pwd)
	if err != nil {
		return err
	}
	defer cli.session.SignOut()

	rows, err := cli.att.History(ctx, uid)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		fmt.Fprintln(cli.out, "No attendance records")
		return nil
	}
	w := tabwriter.NewWriter(cli.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "COURSE\tSTUDENT\tWHEN")
	for _, r := range rows {
		fmt.Fprintf(w, "%s\t%s\t%s\n", r.CourseName, r.StudentName, time.UnixMilli(r.Timestamp).Format("2006-01-02 15:04"))
	}
	return w.Flush()
}
