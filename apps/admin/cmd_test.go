package main

import (
	"context"
	"database/sql"
	"strings"
	"testing"

	"github.com/schoolier/backend/core/identity"
	dummydb "github.com/schoolier/backend/storage/database/dummy"
)

func newTestCLI(t *testing.T) (*commandLine, identity.ProfileRepository) {
	t.Helper()
	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	repo := dummydb.NewProfileRepository(db)
	return &commandLine{profileRepo: repo}, repo
}

func Test_commandLine_run(t *testing.T) {
	var gooseCalls []string
	origGoose := gooseRunFunc
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gooseCalls = append(gooseCalls, strings.Join(append([]string{command, dir}, args...), " "))
		return nil
	}
	origReadPassword := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cret"), nil }
	t.Cleanup(func() {
		gooseRunFunc = origGoose
		readPasswordFunc = origReadPassword
	})

	cli, _ := newTestCLI(t)

	tests := []struct {
		name       string
		args       []string
		wantErr    error
		wantErrStr string
		extra      func(t *testing.T)
	}{
		{
			name:    "no command",
			args:    []string{"admin"},
			wantErr: errHelp,
		},
		{
			name:    "unknown command",
			args:    []string{"admin", "dostuff"},
			wantErr: errHelp,
		},
		{
			name:    "migrate without subcommand",
			args:    []string{"admin", "migrate"},
			wantErr: errHelp,
		},
		{
			name: "migrate up",
			args: []string{"admin", "migrate", "up"},
			extra: func(t *testing.T) {
				if len(gooseCalls) == 0 || gooseCalls[len(gooseCalls)-1] != "up migrations" {
					t.Errorf("goose calls = %v", gooseCalls)
				}
			},
		},
		{
			name: "migrate with extra args",
			args: []string{"admin", "migrate", "up-to", "00001"},
			extra: func(t *testing.T) {
				if gooseCalls[len(gooseCalls)-1] != "up-to migrations 00001" {
					t.Errorf("goose calls = %v", gooseCalls)
				}
			},
		},
		{
			name:    "seeddemo missing flags",
			args:    []string{"admin", "seeddemo"},
			wantErr: errHelp,
		},
		{
			name:       "seeddemo unknown email",
			args:       []string{"admin", "seeddemo", "-email", "nobody@schoolier.com", "-id", "p-1"},
			wantErrStr: "not a registered demo account",
		},
		{
			name: "seeddemo",
			args: []string{"admin", "seeddemo", "-email", "instructor@schoolier.com", "-id", "p-42"},
			extra: func(t *testing.T) {
				prof, err := cli.profileRepo.GetProfileByID(context.Background(), "p-42")
				if err != nil {
					t.Fatalf("GetProfileByID() failed: %v", err)
				}
				if prof.Email != "instructor@schoolier.com" || prof.Role != string(identity.RoleInstructor) {
					t.Errorf("seeded profile = %+v", prof)
				}
			},
		},
		{
			name: "hashpassword",
			args: []string{"admin", "hashpassword"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(tt.args)
			if tt.wantErr != nil {
				if err != tt.wantErr {
					t.Errorf("run() error = %v, wantErr %v", err, tt.wantErr)
				}
				return
			}
			if tt.wantErrStr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErrStr) {
					t.Errorf("run() error = %v, want %q", err, tt.wantErrStr)
				}
				return
			}
			if err != nil {
				t.Errorf("run() error = %v", err)
			}
			if tt.extra != nil {
				tt.extra(t)
			}
		})
	}
}

func Test_commandLine_hashPassword_emptyInput(t *testing.T) {
	origReadPassword := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return nil, nil }
	t.Cleanup(func() { readPasswordFunc = origReadPassword })

	cli, _ := newTestCLI(t)
	if err := cli.run([]string{"admin", "hashpassword"}); err != errHelp {
		t.Errorf("run() error = %v, wantErr %v", err, errHelp)
	}
}
