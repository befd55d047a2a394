package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func execute(t *testing.T, args ...string) string {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		t.Fatalf("execute %v: %v\n%s", args, err, out.String())
	}
	return out.String()
}

func TestInspectOpenAPIOperation(t *testing.T) {
	got := execute(t, "inspect", "--openapi", "testdata/accounts.json", "--operation", "createAccount")
	want := strings.Join([]string{
		`form action="/accounts" enctype="application/json"`,
		"step 0 group=group-0",
		"  email (email) required",
		"  nickname (text) minlength=3",
		"step 1 group=group-1",
		"  city (text) ",
		"",
	}, "\n")
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("inspect output (-want +got):\n%s", diff)
	}
}

func TestRenderPrintsFormOnly(t *testing.T) {
	got := execute(t, "render", "--openapi", "testdata/accounts.json", "--operation", "createAccount")
	if !strings.HasPrefix(got, `<form action="/accounts"`) {
		t.Fatalf("unexpected render output: %s", got)
	}
	if strings.Contains(got, "<body>") {
		t.Fatalf("render should print the form element only: %s", got)
	}
}
