package commands

import (
	"errors"
	"testing"
)

func TestParseSupportedCommands(t *testing.T) {
	cases := []struct {
		in       string
		typeWant Type
	}{
		{"/add 2026-02-10T09:00 pay rent", TypeAdd},
		{"delete 3f2a", TypeDelete},
		{"/rm 3f2a", TypeDelete},
		{"/undo", TypeUndo},
		{"notify on", TypeNotify},
		{"/show all", TypeShow},
		{"/ls", TypeShow},
	}

	for _, tc := range cases {
		cmd, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tc.in, err)
		}
		if cmd.Type != tc.typeWant {
			t.Fatalf("parse %q type = %s, want %s", tc.in, cmd.Type, tc.typeWant)
		}
	}
}

func TestParseAddSplitsDateTimeAndTask(t *testing.T) {
	cmd, err := Parse("/add 2026-02-10T09:00   call   the dentist ")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.When != "2026-02-10T09:00" || cmd.Add.Task != "call the dentist" {
		t.Fatalf("unexpected add args: %+v", cmd.Add)
	}

	cmd, err = Parse("/add 2026-02-10 9:30 stretch")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Add.When != "2026-02-10 9:30" || cmd.Add.Task != "stretch" {
		t.Fatalf("expected separate clock token to join the date, got %+v", cmd.Add)
	}
}

func TestParseArgumentErrors(t *testing.T) {
	for _, in := range []string{
		"/add 2026-02-10T09:00",
		"/add 2026-02-10 09:30",
		"/delete",
		"/delete a b",
		"/notify",
		"/notify maybe",
		"/show tasks",
	} {
		_, err := Parse(in)
		var ce *CommandError
		if !errors.As(err, &ce) || ce.Code != ErrCodeInvalidArgument {
			t.Fatalf("parse %q: expected invalid argument error, got %v", in, err)
		}
	}
}

func TestParseShowDefaultsToUpcoming(t *testing.T) {
	cmd, err := Parse("/show")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	if cmd.Show.Subject != ShowUpcoming {
		t.Fatalf("expected upcoming, got %q", cmd.Show.Subject)
	}
}

func TestParseEmptyAndUnknown(t *testing.T) {
	var ce *CommandError
	if _, err := Parse("  /  "); !errors.As(err, &ce) || ce.Code != ErrCodeEmptyInput {
		t.Fatalf("expected empty input error, got %v", err)
	}
	if _, err := Parse("/snooze all 2 days"); !errors.As(err, &ce) || ce.Code != ErrCodeUnknownCommand {
		t.Fatalf("expected unknown command error, got %v", err)
	}
}

func TestExecuteDispatch(t *testing.T) {
	cmd, err := Parse("/add 2026-02-10T09:00 write docs")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	called := false
	res, err := Execute(cmd, Handlers{
		Add: func(a AddArgs) (Result, error) {
			called = true
			if a.Task != "write docs" {
				t.Fatalf("unexpected task: %q", a.Task)
			}
			return Result{Message: "ok"}, nil
		},
	})
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if !called || res.Message != "ok" {
		t.Fatalf("dispatch failed, called=%v res=%+v", called, res)
	}
}

func TestExecuteNotifyAndUndo(t *testing.T) {
	var gotOn *bool
	handlers := Handlers{
		Notify: func(a NotifyArgs) (Result, error) {
			gotOn = &a.On
			return Result{}, nil
		},
		Undo: func() (Result, error) { return Result{Message: "restored"}, nil },
	}
	cmd, _ := Parse("/notify off")
	if _, err := Execute(cmd, handlers); err != nil {
		t.Fatalf("execute notify: %v", err)
	}
	if gotOn == nil || *gotOn {
		t.Fatalf("expected notify off, got %v", gotOn)
	}
	cmd, _ = Parse("/undo")
	res, err := Execute(cmd, handlers)
	if err != nil || res.Message != "restored" {
		t.Fatalf("execute undo: res=%+v err=%v", res, err)
	}
}

func TestExecuteMissingHandler(t *testing.T) {
	cmd, err := Parse("show all")
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	_, err = Execute(cmd, Handlers{})
	if err == nil {
		t.Fatal("expected error")
	}
	var ce *CommandError
	if !errors.As(err, &ce) || ce.Code != ErrCodeHandlerMissing {
		t.Fatalf("expected missing handler error, got %v", err)
	}
}
