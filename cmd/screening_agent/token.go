package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/screening-agent/internal/server"
)

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Mint a recruiter bearer token",
	Long:  `Signs a bearer token for the API with JWT_SECRET. The token expires after JWT_EXPIRATION_HOURS.`,
	Args:  cobra.NoArgs,
	RunE:  runToken,
}

var tokenRecruiter string

func init() {
	tokenCmd.Flags().StringVar(&tokenRecruiter, "recruiter", "", "Recruiter the token identifies (required)")
	_ = tokenCmd.MarkFlagRequired("recruiter")
	rootCmd.AddCommand(tokenCmd)
}

func runToken(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.JWT.Enabled() {
		return errors.New("JWT_SECRET is not set; the API runs without auth")
	}
	if cfg.JWT.ExpirationHours < 1 {
		return fmt.Errorf("JWT_EXPIRATION_HOURS must be at least 1 hour, got: %d", cfg.JWT.ExpirationHours)
	}

	token, err := server.NewJWTService(&cfg.JWT).GenerateToken(tokenRecruiter)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
	return err
}
