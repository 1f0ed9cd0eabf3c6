package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/nuber/nuber/internal/auth"
	"github.com/nuber/nuber/internal/model"
	"github.com/nuber/nuber/internal/repository"
)

type bootstrapOptions struct {
	databaseURL string
	userID      string
	email       string
	firstName   string
	lastName    string
	name        string
	scopes      string
	tier        string
	env         string
	format      string
}

type bootstrapOutput struct {
	UserID    string   `json:"user_id"`
	Email     string   `json:"email,omitempty"`
	KeyID     string   `json:"key_id"`
	Key       string   `json:"key"`
	KeyPrefix string   `json:"key_prefix"`
	Scopes    []string `json:"scopes"`
}

// keyStore is the slice of the repository bootstrap needs.
type keyStore interface {
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	CreateUser(ctx context.Context, user *model.User) error
	CreateAPIKey(ctx context.Context, key *model.APIKey) error
}

func newBootstrapCmd() *cobra.Command {
	opts := &bootstrapOptions{}

	cmd := &cobra.Command{
		Use:   "bootstrap",
		Short: "Create a user (if missing) and an API key for it",
		Long: `Create an API key directly in the database. The plaintext key is printed
once and cannot be recovered later.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.databaseURL == "" {
				return errors.New("DATABASE_URL is required")
			}
			if opts.format != "plain" && opts.format != "json" {
				return errors.New("invalid format; use plain or json")
			}
			scopes, err := parseScopes(opts.scopes)
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
			defer cancel()

			repo, err := repository.New(ctx, opts.databaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer repo.Close()

			out, err := bootstrap(ctx, repo, opts, scopes)
			if err != nil {
				return err
			}
			return writeBootstrapOutput(cmd.OutOrStdout(), opts.format, out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.databaseURL, "database-url", envOr("DATABASE_URL", ""), "PostgreSQL connection string (env DATABASE_URL)")
	f.StringVar(&opts.userID, "user-id", "", "Existing or new user id; a ULID is generated when empty")
	f.StringVar(&opts.email, "email", "", "Email for a newly created user")
	f.StringVar(&opts.firstName, "first-name", "", "First name for a newly created user")
	f.StringVar(&opts.lastName, "last-name", "", "Last name for a newly created user")
	f.StringVar(&opts.name, "name", "bootstrap", "API key name")
	f.StringVar(&opts.scopes, "scopes", "read,write", "Comma-separated scopes (read, write, admin)")
	f.StringVar(&opts.tier, "tier", model.TierFree, "Rate limit tier (free or unlimited)")
	f.StringVar(&opts.env, "env", auth.EnvLive, "Key environment (live or test)")
	f.StringVar(&opts.format, "format", "plain", "Output format: plain or json")
	return cmd
}

func bootstrap(ctx context.Context, store keyStore, opts *bootstrapOptions, scopes []string) (*bootstrapOutput, error) {
	if _, ok := model.TierConfigs[opts.tier]; !ok {
		return nil, fmt.Errorf("invalid tier: %s", opts.tier)
	}

	user, err := ensureUser(ctx, store, opts)
	if err != nil {
		return nil, err
	}

	generated, err := auth.GenerateAPIKey(opts.env)
	if err != nil {
		return nil, fmt.Errorf("generate api key: %w", err)
	}

	key := &model.APIKey{
		ID:            ulid.Make().String(),
		UserID:        user.ID,
		KeyHash:       generated.Hash,
		KeyPrefix:     generated.Prefix,
		Scopes:        scopes,
		RateLimitTier: opts.tier,
		Name:          opts.name,
		CreatedAt:     time.Now().UTC(),
	}
	if err := store.CreateAPIKey(ctx, key); err != nil {
		return nil, fmt.Errorf("create api key: %w", err)
	}

	return &bootstrapOutput{
		UserID:    user.ID,
		Email:     user.Email,
		KeyID:     key.ID,
		Key:       generated.Plaintext,
		KeyPrefix: key.KeyPrefix,
		Scopes:    scopes,
	}, nil
}

func ensureUser(ctx context.Context, store keyStore, opts *bootstrapOptions) (*model.User, error) {
	if opts.userID != "" {
		existing, err := store.GetUserByID(ctx, opts.userID)
		switch {
		case err == nil:
			return existing, nil
		case !errors.Is(err, repository.ErrUserNotFound):
			return nil, fmt.Errorf("load user: %w", err)
		}
	}

	user := &model.User{
		ID:        opts.userID,
		Email:     opts.email,
		FirstName: opts.firstName,
		LastName:  opts.lastName,
		CreatedAt: time.Now().UTC(),
	}
	if user.ID == "" {
		user.ID = ulid.Make().String()
	}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func parseScopes(input string) ([]string, error) {
	var scopes []string
	for _, part := range strings.Split(input, ",") {
		scope := strings.TrimSpace(part)
		if scope == "" {
			continue
		}
		if !slices.Contains(model.ValidScopes, scope) {
			return nil, fmt.Errorf("invalid scope: %s", scope)
		}
		if !slices.Contains(scopes, scope) {
			scopes = append(scopes, scope)
		}
	}
	if len(scopes) == 0 {
		return nil, errors.New("at least one scope is required")
	}
	return scopes, nil
}

func writeBootstrapOutput(w io.Writer, format string, out *bootstrapOutput) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}
	_, err := fmt.Fprintln(w, out.Key)
	return err
}
