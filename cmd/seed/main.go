// Command seed loads members from a YAML file into the member directory and
// prints a bearer token for each, for local development against the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"courtbook/internal/auth"
	"courtbook/internal/config"
	"courtbook/internal/database"
	"courtbook/internal/domain"
	"courtbook/internal/logging"
	"courtbook/internal/models"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type membersFile struct {
	Members []models.Member `yaml:"members"`
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	membersPath := flag.String("members", "configs/members.yaml", "YAML file with members to create")
	tokenTTL := flag.Duration("token-ttl", 0, "lifetime of printed tokens (default: api.auth.token_ttl)")
	flag.Parse()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "configs/config.yaml"
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// Tokens go to stdout; keep logs off it.
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}
	logger, closer, err := logging.New(cfg.Logging, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if closer != nil {
		defer closer.Close()
	}

	members, err := loadMembers(*membersPath, logger)
	if err != nil {
		return err
	}

	db, err := database.Open(cfg.Database.Path, logger, database.Options{BusyTimeout: cfg.Database.BusyTimeout})
	if err != nil {
		return err
	}
	defer db.Close()

	tokens, err := auth.NewJWTProvider(cfg.API.Auth)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	return seed(ctx, db, tokens, members, *tokenTTL, logger)
}

func loadMembers(path string, logger *zerolog.Logger) ([]models.Member, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Error().Err(err).Str("members_path", path).Msg("read members")
		return nil, err
	}

	var file membersFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		logger.Error().Err(err).Str("members_path", path).Msg("parse members")
		return nil, err
	}
	return file.Members, nil
}

func seed(ctx context.Context, dir domain.MemberDirectory, tokens *auth.JWTProvider, members []models.Member, ttl time.Duration, logger *zerolog.Logger) error {
	for i := range members {
		m := &members[i]

		if m.ID != "" {
			if existing, err := dir.GetMember(ctx, m.ID); err == nil {
				m = existing
				logger.Info().Str("member_id", m.ID).Msg("member already present")
			} else if !errors.Is(err, database.ErrMemberNotFound) {
				return err
			}
		}
		if m.CreatedAt.IsZero() {
			if err := dir.CreateMember(ctx, m); err != nil {
				return fmt.Errorf("create member %q: %w", m.Email, err)
			}
			logger.Info().Str("member_id", m.ID).Str("email", m.Email).Msg("member created")
		}

		token, err := tokens.Issue(&models.Claims{
			MemberID:          m.ID,
			Phone:             m.Phone,
			IsProfileComplete: m.IsProfileComplete(),
			IsAdmin:           m.IsAdmin,
		}, ttl)
		if err != nil {
			return err
		}
		fmt.Printf("%s\t%s %s\t%s\n", m.ID, m.FirstName, m.LastName, token)
	}
	return nil
}
