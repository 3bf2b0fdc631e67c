package main

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/jonathan/platform-decider/internal/config"
	"github.com/jonathan/platform-decider/internal/server"
	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a bearer token for the REST API",
	Long: `Sign a JWT with JWT_SECRET for calling the protected /runs endpoints.
Without --subject a random subject is used.`,
	RunE: runToken,
}

var tokenSubject string

func init() {
	tokenCmd.Flags().StringVar(&tokenSubject, "subject", "", "Subject UUID to embed in the token")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	subject := uuid.New()
	if tokenSubject != "" {
		parsed, err := uuid.Parse(tokenSubject)
		if err != nil {
			return fmt.Errorf("invalid --subject: %w", err)
		}
		subject = parsed
	}

	jwtConfig, err := config.NewJWTConfig()
	if err != nil {
		return err
	}

	token, err := server.NewJWTService(jwtConfig).GenerateToken(subject)
	if err != nil {
		return fmt.Errorf("failed to generate token: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), token)
	return nil
}
