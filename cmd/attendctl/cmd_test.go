package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"studentattendance/internal/attendance"
	"studentattendance/internal/docstore"
	"studentattendance/internal/identity"
	"studentattendance/internal/model"
	"studentattendance/internal/profile"
)

func setup(t *testing.T) (*commandLine, *bytes.Buffer) {
	t.Helper()
	readPasswordFunc = func(int) ([]byte, error) { return []byte("pw"), nil }

	docs := docstore.NewMemory()
	dir := identity.NewDirectory(docs, nil)
	out := &bytes.Buffer{}
	return &commandLine{
		dir:      dir,
		session:  identity.NewClient(dir),
		att:      attendance.NewService(attendance.NewRepository(docs, 0), nil, nil, nil, attendance.Options{}),
		profiles: profile.NewManager(docs, nil),
		out:      out,
	}, out
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
}

func runAll(t *testing.T, cli *commandLine, tests []cliTest) {
	t.Helper()
	for _, tt := range tests {
		args := append([]string{"attendctl"}, tt.args...)
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(context.Background(), args)
			switch {
			case tt.wantErr != nil:
				if err != tt.wantErr {
					t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
				}
			case tt.wantErrStr != "":
				if err == nil || err.Error() != tt.wantErrStr {
					t.Errorf("cli.run() error = %v, wantErrStr %s", err, tt.wantErrStr)
				}
			case err != nil:
				t.Errorf("cli.run() unexpected error = %v", err)
			}
		})
	}
}

func Test_commandLine_usage(t *testing.T) {
	cli, _ := setup(t)
	runAll(t, cli, []cliTest{
		{name: "no command", args: nil, wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "adduser: missing flags", args: []string{"adduser", "-email", "a@b.cd"}, wantErr: errHelp},
		{name: "checkin: missing email", args: []string{"checkin"}, wantErr: errHelp},
		{name: "history: missing email", args: []string{"history"}, wantErr: errHelp},
	})
}

func Test_commandLine_flow(t *testing.T) {
	cli, out := setup(t)
	runAll(t, cli, []cliTest{
		{name: "adduser: bad role", args: []string{"adduser", "-email", "x@test.cd", "-name", "X", "-role", "admin"}, wantErrStr: "Invalid user role: admin"},
		{name: "adduser: bad email", args: []string{"adduser", "-email", "not-an-email", "-name", "Bad", "-role", "student"}, wantErrStr: "Please enter a valid email"},
		{name: "adduser: bad email again", args: []string{"adduser", "-email", "not-an-email", "-name", "Bad", "-role", "student"}, wantErrStr: "Please enter a valid email"},
		{name: "adduser: long name", args: []string{"adduser", "-email", "long@test.cd", "-name", strings.Repeat("n", 130), "-role", "student"}, wantErrStr: "Name is too long"},
		{name: "adduser: long name corrected", args: []string{"adduser", "-email", "long@test.cd", "-name", "Lin", "-role", "student"}},
		{name: "adduser: professor", args: []string{"adduser", "-email", "prof@test.cd", "-name", "Prof", "-role", "professor"}},
		{name: "adduser: student", args: []string{"adduser", "-email", "ada@test.cd", "-name", "Ada", "-role", "STUDENT", "-department", "CS"}},
		{name: "adduser: duplicate", args: []string{"adduser", "-email", "ADA@test.cd", "-name", "Ada", "-role", "STUDENT"}, wantErrStr: "an account with this email already exists"},
		{name: "checkin: bad code", args: []string{"checkin", "-email", "ada@test.cd", "-code", "123456"}, wantErrStr: "Invalid or expired session code"},
		{name: "history: empty", args: []string{"history", "-email", "ada@test.cd"}},
	})
	if !strings.Contains(out.String(), "No attendance records") {
		t.Fatalf("expected empty history output, got %q", out.String())
	}

	profID, _ := cli.session.SignIn(context.Background(), "prof@test.cd", "pw")
	sess, err := cli.att.CreateSession(context.Background(), "Networks", profID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	out.Reset()
	runAll(t, cli, []cliTest{
		{name: "checkin: ok", args: []string{"checkin", "-email", "ada@test.cd", "-code", sess.Code}},
		{name: "checkin: professor", args: []string{"checkin", "-email", "prof@test.cd", "-code", sess.Code}, wantErrStr: "Only students can mark attendance"},
		{name: "history: professor", args: []string{"history", "-email", "prof@test.cd"}},
	})
	if !strings.Contains(out.String(), "status: success") || !strings.Contains(out.String(), "Networks") || !strings.Contains(out.String(), "Ada") {
		t.Fatalf("unexpected output %q", out.String())
	}
	if _, ok := cli.session.CurrentUserID(); ok {
		t.Fatalf("session should be signed out after each command")
	}
}

func Test_commandLine_addUserRollback(t *testing.T) {
	cli, _ := setup(t)
	ctx := context.Background()

	// A profile already stored under the account id makes CreateUser fail
	// after the credentials were written.
	uid, err := cli.dir.Register(ctx, "dup@test.cd", "pw")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := cli.profiles.CreateUser(ctx, model.User{ID: uid, Email: "dup@test.cd", Name: "Dup", Role: model.RoleStudent}); err != nil {
		t.Fatalf("create user: %v", err)
	}
	if err := cli.dir.Unregister(ctx, uid); err != nil {
		t.Fatalf("unregister: %v", err)
	}

	runAll(t, cli, []cliTest{
		{name: "adduser: profile exists", args: []string{"adduser", "-email", "dup@test.cd", "-name", "Dup", "-role", "student"}, wantErrStr: "User profile already exists"},
	})
	if _, err := cli.dir.SignIn(ctx, "dup@test.cd", "pw"); err == nil {
		t.Fatalf("credentials should be removed when the profile cannot be written")
	}
}
