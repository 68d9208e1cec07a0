package main

import (
	"bytes"
	"strings"
	"testing"

	"waste-collection-api-server/config"
	"waste-collection-api-server/internal/auth"
	"waste-collection-api-server/internal/models"
)

func TestRootCommand_Subcommands(t *testing.T) {
	root := newRootCommand()
	for _, name := range []string{"repair-scores", "seed", "token"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered (err %v)", name, err)
		}
	}
}

func TestTokenCommand_IssuesParsableToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "cli-secret")
	var out bytes.Buffer
	root := newRootCommand()
	root.SetOut(&out)
	root.SetArgs([]string{"token", "--config", t.TempDir(), "--user", "rec-9", "--role", "recycler", "--facility", "mrf-central"})
	if err := root.Execute(); err != nil {
		t.Fatalf("token: %v", err)
	}

	tokens, err := auth.NewManager(config.JWTConfig{Secret: "cli-secret"})
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	claims, err := tokens.Parse(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.UserID != "rec-9" || claims.Role != models.RoleRecycler || claims.FacilityID != "mrf-central" {
		t.Errorf("claims = %+v", claims)
	}
}

func TestTokenCommand_RejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown role", []string{"token", "--user", "u", "--role", "janitor"}},
		{"recycler without facility", []string{"token", "--user", "u", "--role", "recycler"}},
		{"missing user", []string{"token", "--role", "driver"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			root := newRootCommand()
			root.SetOut(&bytes.Buffer{})
			root.SetErr(&bytes.Buffer{})
			root.SetArgs(tc.args)
			if err := root.Execute(); err == nil {
				t.Error("want an error")
			}
		})
	}
}
